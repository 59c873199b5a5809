package spotifyauth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/daos"
	"github.com/pocketbase/pocketbase/models"

	"github.com/manlikeabro/waxcritic/internal/activitylogger"
	"github.com/manlikeabro/waxcritic/internal/spotify"
)

// daoProvider is the app surface the handlers need, matching both the
// live app and test apps.
type daoProvider interface {
	Dao() *daos.Dao
}

// Register registers the Spotify OAuth routes
func Register(app *pocketbase.PocketBase) {
	app.OnBeforeServe().Add(func(e *core.ServeEvent) error {
		connector := spotify.New(app)
		logger := activitylogger.New(app)

		e.Router.GET("/api/spotify/connect", connectHandler(connector), apis.RequireRecordAuth("users"))
		e.Router.GET("/api/spotify/callback", callbackHandler(app, connector, logger))
		e.Router.POST("/api/spotify/refresh", refreshHandler(connector, logger), apis.RequireRecordAuth("users"))

		return nil
	})
}

// connectHandler starts the OAuth flow: it signs a state token bound to
// the authenticated user and redirects to the provider authorization URL.
func connectHandler(connector *spotify.Connector) echo.HandlerFunc {
	return func(c echo.Context) error {
		authRecord, _ := c.Get(apis.ContextAuthRecordKey).(*models.Record)
		if authRecord == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}

		secret, err := spotify.StateSecret()
		if err != nil {
			log.Printf("State secret not configured: %v", err)
			return apis.NewApiError(http.StatusInternalServerError, "Spotify connect is not configured", nil)
		}

		state := spotify.SignState(secret, authRecord.Id, time.Now())

		url, err := connector.AuthCodeURL(state)
		if err != nil {
			log.Printf("Failed to build authorization URL: %v", err)
			return apis.NewApiError(http.StatusInternalServerError, "Spotify connect is not configured", nil)
		}

		log.Printf("Redirecting user %s to Spotify authorization", authRecord.Id)
		return c.Redirect(http.StatusTemporaryRedirect, url)
	}
}

// callbackHandler completes the OAuth flow: it validates the signed
// state, exchanges the code for a token bundle and upserts the token
// record for the user encoded in the state.
func callbackHandler(app daoProvider, connector *spotify.Connector, logger *activitylogger.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		state := c.QueryParam("state")
		code := c.QueryParam("code")
		errorParam := c.QueryParam("error")

		if errorParam != "" {
			log.Printf("OAuth error from Spotify: %s", errorParam)
			return apis.NewBadRequestError(fmt.Sprintf("Spotify authorization failed: %s", errorParam), nil)
		}

		if state == "" || code == "" {
			return apis.NewBadRequestError("Missing code or state", nil)
		}

		secret, err := spotify.StateSecret()
		if err != nil {
			return apis.NewApiError(http.StatusInternalServerError, "Spotify connect is not configured", nil)
		}

		userID, err := spotify.VerifyState(secret, state, time.Now())
		if err != nil {
			if errors.Is(err, spotify.ErrStateExpired) {
				return apis.NewBadRequestError("Authorization took too long, please restart the connect flow", nil)
			}
			log.Printf("State verification failed in OAuth callback: %v", err)
			return apis.NewBadRequestError("Invalid state", nil)
		}

		token, err := connector.Exchange(c.Request().Context(), code)
		if err != nil {
			log.Printf("Token exchange failed: %v", err)
			logger.Error("Spotify code exchange failed", "spotify")
			return apis.NewApiError(http.StatusBadGateway, "Token exchange failed", nil)
		}

		user, err := app.Dao().FindRecordById("users", userID)
		if err != nil {
			return apis.NewNotFoundError("User not found", nil)
		}

		if err := spotify.SaveToken(app.Dao(), user.Id, token); err != nil {
			log.Printf("Failed to save tokens: %v", err)
			return apis.NewApiError(http.StatusInternalServerError, "Failed to save tokens", nil)
		}

		logger.Info(fmt.Sprintf("User %s connected Spotify", user.Id), "spotify")

		return c.JSON(http.StatusOK, map[string]interface{}{
			"connected":  true,
			"expires_at": token.Expiry,
		})
	}
}

// refreshHandler forces a refresh grant for the authenticated user.
// Refresh also happens implicitly before any proxied request, so this
// exists only to force a refresh.
func refreshHandler(connector *spotify.Connector, logger *activitylogger.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		authRecord, _ := c.Get(apis.ContextAuthRecordKey).(*models.Record)
		if authRecord == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}

		token, err := connector.Refresh(c.Request().Context(), authRecord.Id)
		if err != nil {
			if errors.Is(err, spotify.ErrNoToken) {
				return apis.NewBadRequestError("Not connected to Spotify", nil)
			}
			log.Printf("Forced refresh failed for user %s: %v", authRecord.Id, err)
			logger.Error("Spotify token refresh failed", "spotify")
			return apis.NewApiError(http.StatusBadGateway, "Token refresh failed", nil)
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"expires_at": token.Expiry,
		})
	}
}
