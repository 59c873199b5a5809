package catalog

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/daos"
	"github.com/pocketbase/pocketbase/models"
	"github.com/samber/lo"

	"github.com/manlikeabro/waxcritic/internal/pbext/albums"
	"github.com/manlikeabro/waxcritic/internal/spotify"
)

// Package catalog exposes the proxied Spotify catalog endpoints. Every
// handler resolves the authenticated user, builds a provider endpoint
// path and hands it to the connector's proxy; the provider payload is
// returned to the client verbatim.

type daoProvider interface {
	Dao() *daos.Dao
}

// Register registers the catalog proxy routes
func Register(app *pocketbase.PocketBase) {
	app.OnBeforeServe().Add(func(e *core.ServeEvent) error {
		connector := spotify.New(app)

		e.Router.GET("/api/spotify/search", searchHandler(connector), apis.RequireRecordAuth("users"))
		e.Router.GET("/api/spotify/albums/:id", albumDetailsHandler(connector), apis.RequireRecordAuth("users"))
		e.Router.GET("/api/spotify/browse/new-releases", newReleasesHandler(connector), apis.RequireRecordAuth("users"))
		e.Router.GET("/api/spotify/artists/:id/albums", artistAlbumsHandler(connector), apis.RequireRecordAuth("users"))
		e.Router.GET("/api/album-details/:spotifyId", combinedDetailsHandler(app, connector), apis.RequireRecordAuth("users"))

		return nil
	})
}

// searchHandler proxies catalog search queries
func searchHandler(connector *spotify.Connector) echo.HandlerFunc {
	return func(c echo.Context) error {
		authRecord, _ := c.Get(apis.ContextAuthRecordKey).(*models.Record)
		if authRecord == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}

		query := c.QueryParam("q")
		if query == "" {
			return apis.NewBadRequestError("Missing search query", nil)
		}

		searchType := c.QueryParam("type")
		if searchType == "" {
			searchType = "album"
		}

		limit, offset := pagination(c)
		endpoint := fmt.Sprintf("/v1/search?q=%s&type=%s&limit=%d&offset=%d",
			url.QueryEscape(query), url.QueryEscape(searchType), limit, offset)

		return proxyJSON(c, connector, authRecord.Id, endpoint)
	}
}

// albumDetailsHandler proxies a single catalog album lookup
func albumDetailsHandler(connector *spotify.Connector) echo.HandlerFunc {
	return func(c echo.Context) error {
		authRecord, _ := c.Get(apis.ContextAuthRecordKey).(*models.Record)
		if authRecord == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}

		endpoint := "/v1/albums/" + url.PathEscape(c.PathParam("id"))
		return proxyJSON(c, connector, authRecord.Id, endpoint)
	}
}

// newReleasesHandler proxies the new releases browse listing
func newReleasesHandler(connector *spotify.Connector) echo.HandlerFunc {
	return func(c echo.Context) error {
		authRecord, _ := c.Get(apis.ContextAuthRecordKey).(*models.Record)
		if authRecord == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}

		limit, offset := pagination(c)
		endpoint := fmt.Sprintf("/v1/browse/new-releases?limit=%d&offset=%d", limit, offset)
		return proxyJSON(c, connector, authRecord.Id, endpoint)
	}
}

// artistAlbumsHandler proxies the album listing of one catalog artist
func artistAlbumsHandler(connector *spotify.Connector) echo.HandlerFunc {
	return func(c echo.Context) error {
		authRecord, _ := c.Get(apis.ContextAuthRecordKey).(*models.Record)
		if authRecord == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}

		limit, offset := pagination(c)
		endpoint := fmt.Sprintf("/v1/artists/%s/albums?limit=%d&offset=%d",
			url.PathEscape(c.PathParam("id")), limit, offset)
		return proxyJSON(c, connector, authRecord.Id, endpoint)
	}
}

// ReviewItem is the local review representation embedded in the
// combined album details response.
type ReviewItem struct {
	ID      string `json:"id"`
	User    string `json:"user"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Created string `json:"created"`
}

// combinedDetailsHandler merges external catalog metadata with the
// locally stored reviews for the same album. The two fetches are
// independent; a review may reference an album whose external record
// has changed since it was written.
func combinedDetailsHandler(app daoProvider, connector *spotify.Connector) echo.HandlerFunc {
	return func(c echo.Context) error {
		authRecord, _ := c.Get(apis.ContextAuthRecordKey).(*models.Record)
		if authRecord == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}

		spotifyID := c.PathParam("spotifyId")

		details, err := connector.Proxy(c.Request().Context(),
			authRecord.Id, "/v1/albums/"+url.PathEscape(spotifyID))
		if err != nil {
			return connectorError(err)
		}

		response := map[string]interface{}{
			"spotify_details": details,
			"local_reviews":   []ReviewItem{},
			"average_rating":  0.0,
			"review_count":    0,
		}

		album, err := app.Dao().FindFirstRecordByFilter(
			"albums", "spotify_id = {:id}", dbx.Params{"id": spotifyID})
		if err == nil {
			records, err := app.Dao().FindRecordsByFilter(
				"reviews", "album = {:album}", "-created", 200, 0,
				dbx.Params{"album": album.Id})
			if err != nil {
				return apis.NewApiError(http.StatusInternalServerError, "Failed to load local reviews", nil)
			}

			response["local_reviews"] = lo.Map(records, func(r *models.Record, _ int) ReviewItem {
				return ReviewItem{
					ID:      r.Id,
					User:    reviewerName(app.Dao(), r.GetString("user")),
					Rating:  r.GetInt("rating"),
					Comment: r.GetString("comment"),
					Created: r.GetCreated().String(),
				}
			})

			if stats, err := albums.ComputeRatingStats(app.Dao(), album.Id); err == nil {
				response["average_rating"] = stats.AverageRating
				response["review_count"] = stats.ReviewCount
			}
		}

		return c.JSON(http.StatusOK, response)
	}
}

// reviewerName resolves a user id to its username, falling back to the
// raw id when the user record is gone.
func reviewerName(dao *daos.Dao, userID string) string {
	user, err := dao.FindRecordById("users", userID)
	if err != nil {
		return userID
	}
	return user.Username()
}

// proxyJSON forwards the provider response body verbatim
func proxyJSON(c echo.Context, connector *spotify.Connector, userID, endpoint string) error {
	body, err := connector.Proxy(c.Request().Context(), userID, endpoint)
	if err != nil {
		return connectorError(err)
	}
	return c.JSONBlob(http.StatusOK, body)
}

// pagination parses the limit/offset query parameters with the
// provider's bounds (limit 1..50, default 20).
func pagination(c echo.Context) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}

// connectorError maps connector error kinds to HTTP responses. A
// missing token record is a client problem (connect first); provider
// failures surface as bad gateway with the underlying detail logged.
func connectorError(err error) error {
	if errors.Is(err, spotify.ErrNoToken) {
		return apis.NewBadRequestError("Not connected to Spotify", nil)
	}

	log.Printf("Spotify proxy call failed: %v", err)
	return apis.NewApiError(http.StatusBadGateway, "Spotify request failed", nil)
}
