package reviews

import (
	"encoding/json"
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

	"github.com/manlikeabro/waxcritic/internal/activitylogger"
	"github.com/manlikeabro/waxcritic/internal/spotify"
)

// Package reviews implements review creation against external catalog
// albums. A review always references a local album row; when the
// catalog album has never been reviewed before, its metadata is fetched
// through the connector and the artist and album rows are materialized
// in the same transaction as the review.

type daoProvider interface {
	Dao() *daos.Dao
}

// CreateRequest is the body of POST /api/reviews
type CreateRequest struct {
	SpotifyAlbumID string `json:"spotify_album_id"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
}

// externalAlbum carries the catalog album fields the materialization
// path reads; everything else in the provider payload is ignored.
type externalAlbum struct {
	Name        string   `json:"name"`
	ReleaseDate string   `json:"release_date"`
	Genres      []string `json:"genres"`
	Artists     []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// Register registers the review creation route
func Register(app *pocketbase.PocketBase) {
	app.OnBeforeServe().Add(func(e *core.ServeEvent) error {
		connector := spotify.New(app)
		logger := activitylogger.New(app)

		e.Router.POST("/api/reviews", createHandler(app, connector, logger), apis.RequireRecordAuth("users"))

		return nil
	})
}

// createHandler creates a review, materializing the artist and album
// rows from catalog metadata when the album is not yet known locally.
// All writes happen in one transaction; a failed catalog fetch aborts
// the whole operation before anything is written.
func createHandler(app daoProvider, connector *spotify.Connector, logger *activitylogger.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		authRecord, _ := c.Get(apis.ContextAuthRecordKey).(*models.Record)
		if authRecord == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}

		var req CreateRequest
		if err := c.Bind(&req); err != nil {
			return apis.NewBadRequestError("Invalid request body", nil)
		}

		if req.SpotifyAlbumID == "" {
			return apis.NewBadRequestError("spotify_album_id is required", nil)
		}
		if req.Rating < 1 || req.Rating > 5 {
			return apis.NewBadRequestError("rating must be between 1 and 5", nil)
		}

		album, _ := app.Dao().FindFirstRecordByFilter(
			"albums", "spotify_id = {:id}", dbx.Params{"id": req.SpotifyAlbumID})

		// Fetch catalog metadata before opening the transaction so a
		// provider failure leaves no partial rows behind.
		var external *externalAlbum
		if album == nil {
			fetched, err := fetchExternalAlbum(c, connector, authRecord.Id, req.SpotifyAlbumID)
			if err != nil {
				log.Printf("Album materialization fetch failed: %v", err)
				return apis.NewBadRequestError(
					fmt.Sprintf("Could not fetch or create album from Spotify: %v", err), nil)
			}
			external = fetched
		}

		var review *models.Record
		txErr := app.Dao().RunInTransaction(func(txDao *daos.Dao) error {
			if album == nil {
				materialized, err := materializeAlbum(txDao, req.SpotifyAlbumID, external)
				if err != nil {
					return err
				}
				album = materialized
				logger.Info(fmt.Sprintf("Materialized album %q from Spotify", album.GetString("title")), "reviews")
			}

			collection, err := txDao.FindCollectionByNameOrId("reviews")
			if err != nil {
				return err
			}

			review = models.NewRecord(collection)
			review.Set("album", album.Id)
			review.Set("user", authRecord.Id)
			review.Set("rating", req.Rating)
			review.Set("comment", req.Comment)

			return txDao.SaveRecord(review)
		})
		if txErr != nil {
			log.Printf("Review creation failed: %v", txErr)
			return apis.NewBadRequestError(fmt.Sprintf("Could not create review: %v", txErr), nil)
		}

		return c.JSON(http.StatusCreated, map[string]interface{}{
			"id":      review.Id,
			"rating":  review.GetInt("rating"),
			"comment": review.GetString("comment"),
			"created": review.GetCreated().String(),
			"album": map[string]interface{}{
				"id":         album.Id,
				"title":      album.GetString("title"),
				"artist":     album.GetString("artist"),
				"spotify_id": album.GetString("spotify_id"),
			},
		})
	}
}

// fetchExternalAlbum loads and validates catalog metadata for one album
func fetchExternalAlbum(c echo.Context, connector *spotify.Connector, userID, spotifyID string) (*externalAlbum, error) {
	raw, err := connector.Proxy(c.Request().Context(), userID, "/v1/albums/"+url.PathEscape(spotifyID))
	if err != nil {
		return nil, err
	}

	var external externalAlbum
	if err := json.Unmarshal(raw, &external); err != nil {
		return nil, fmt.Errorf("unexpected album payload: %w", err)
	}

	if external.Name == "" || len(external.Artists) == 0 {
		return nil, fmt.Errorf("album payload is missing name or artists")
	}

	return &external, nil
}

// materializeAlbum creates the local artist (get-or-create by name) and
// album rows from catalog metadata inside the caller's transaction.
func materializeAlbum(txDao *daos.Dao, spotifyID string, external *externalAlbum) (*models.Record, error) {
	artist, err := getOrCreateArtist(txDao, external.Artists[0].Name)
	if err != nil {
		return nil, err
	}

	collection, err := txDao.FindCollectionByNameOrId("albums")
	if err != nil {
		return nil, err
	}

	album := models.NewRecord(collection)
	album.Set("title", external.Name)
	album.Set("artist", artist.Id)
	album.Set("release_year", releaseYear(external.ReleaseDate))
	album.Set("genre", firstGenre(external.Genres))
	album.Set("spotify_id", spotifyID)

	if err := txDao.SaveRecord(album); err != nil {
		return nil, err
	}
	return album, nil
}

func getOrCreateArtist(txDao *daos.Dao, name string) (*models.Record, error) {
	existing, err := txDao.FindFirstRecordByFilter(
		"artists", "name = {:name}", dbx.Params{"name": name})
	if err == nil {
		return existing, nil
	}

	collection, err := txDao.FindCollectionByNameOrId("artists")
	if err != nil {
		return nil, err
	}

	artist := models.NewRecord(collection)
	artist.Set("name", name)

	if err := txDao.SaveRecord(artist); err != nil {
		return nil, err
	}
	return artist, nil
}

// releaseYear extracts the year from a catalog release date. Release
// dates come back as "2019-05-17", "2019-05" or just "2019" depending
// on the release's date precision.
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// firstGenre returns the first listed genre, or "Unknown" when the
// catalog lists none.
func firstGenre(genres []string) string {
	if len(genres) == 0 {
		return "Unknown"
	}
	return genres[0]
}
