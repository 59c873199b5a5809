package spotify

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manlikeabro/waxcritic/internal/testhelpers"
)

func setupConnector(t *testing.T) (*Connector, *tests.TestApp) {
	t.Setenv("SPOTIFY_CLIENT_ID", "test-client-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "test-client-secret")

	testApp := testhelpers.SetupTestApp(t)
	return New(testApp), testApp
}

func TestAuthCodeURL(t *testing.T) {
	connector, _ := setupConnector(t)

	authURL, err := connector.AuthCodeURL("test-state")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)

	assert.Equal(t, "accounts.spotify.com", parsed.Host)
	assert.Equal(t, "test-client-id", parsed.Query().Get("client_id"))
	assert.Equal(t, "test-state", parsed.Query().Get("state"))
	assert.Contains(t, parsed.Query().Get("scope"), "user-read-email")
	assert.Contains(t, parsed.Query().Get("redirect_uri"), "/api/spotify/callback")
}

func TestExchange(t *testing.T) {
	connector, _ := setupConnector(t)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testhelpers.SpotifyTokenURL,
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			values, _ := url.ParseQuery(string(body))
			assert.Equal(t, "authorization_code", values.Get("grant_type"))
			assert.Equal(t, "test-code", values.Get("code"))

			return httpmock.NewJsonResponse(200, map[string]interface{}{
				"access_token":  "exchanged-access",
				"refresh_token": "exchanged-refresh",
				"token_type":    "Bearer",
				"expires_in":    3600,
				"scope":         "user-read-email user-read-private",
			})
		})

	token, err := connector.Exchange(context.Background(), "test-code")
	require.NoError(t, err)
	assert.Equal(t, "exchanged-access", token.AccessToken)
	assert.Equal(t, "exchanged-refresh", token.RefreshToken)
	assert.True(t, token.Expiry.After(time.Now()))
}

func TestExchange_ProviderFailure(t *testing.T) {
	connector, _ := setupConnector(t)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testhelpers.SpotifyTokenURL,
		httpmock.NewStringResponder(400, `{"error":"invalid_grant"}`))

	_, err := connector.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrExchangeFailed)
}

func TestRefresh_NoToken(t *testing.T) {
	connector, _ := setupConnector(t)

	_, err := connector.Refresh(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestRefresh_PersistsNewAccessToken(t *testing.T) {
	connector, app := setupConnector(t)
	testhelpers.SetSpotifyToken(t, app, "user123", -time.Minute)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	testhelpers.SetupTokenRefreshMock(t, "refreshed-access", "")

	token, err := connector.Refresh(context.Background(), "user123")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", token.AccessToken)

	record, err := TokenRecord(app.Dao(), "user123")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", record.GetString("access_token"))
	// Provider omitted the refresh token; the stored one survives
	assert.Equal(t, "test-refresh-token", record.GetString("refresh_token"))
}

func TestRefresh_ReplacesRotatedRefreshToken(t *testing.T) {
	connector, app := setupConnector(t)
	testhelpers.SetSpotifyToken(t, app, "user123", -time.Minute)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	testhelpers.SetupTokenRefreshMock(t, "refreshed-access", "rotated-refresh")

	_, err := connector.Refresh(context.Background(), "user123")
	require.NoError(t, err)

	record, err := TokenRecord(app.Dao(), "user123")
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", record.GetString("refresh_token"))
}

func TestRefresh_ProviderFailure(t *testing.T) {
	connector, app := setupConnector(t)
	testhelpers.SetSpotifyToken(t, app, "user123", -time.Minute)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testhelpers.SpotifyTokenURL,
		httpmock.NewStringResponder(400, `{"error":"invalid_grant"}`))

	_, err := connector.Refresh(context.Background(), "user123")
	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestProxy_ValidToken(t *testing.T) {
	connector, app := setupConnector(t)
	testhelpers.SetSpotifyToken(t, app, "user123", time.Hour)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", APIBaseURL+"/v1/me",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer test-access-token", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(200, map[string]interface{}{"id": "spotify-user"})
		})

	body, err := connector.Proxy(context.Background(), "user123", "/v1/me")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"spotify-user"}`, string(body))

	// No refresh grant was issued
	info := httpmock.GetCallCountInfo()
	assert.Zero(t, info["POST "+testhelpers.SpotifyTokenURL])
}

func TestProxy_ExpiredTokenRefreshesOnce(t *testing.T) {
	connector, app := setupConnector(t)
	testhelpers.SetSpotifyToken(t, app, "user123", -time.Minute)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	testhelpers.SetupTokenRefreshMock(t, "refreshed-access", "")

	httpmock.RegisterResponder("GET", APIBaseURL+"/v1/me",
		func(req *http.Request) (*http.Response, error) {
			// The refreshed token is used, not the expired one
			assert.Equal(t, "Bearer refreshed-access", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(200, map[string]interface{}{"id": "spotify-user"})
		})

	_, err := connector.Proxy(context.Background(), "user123", "/v1/me")
	require.NoError(t, err)

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+testhelpers.SpotifyTokenURL])
	assert.Equal(t, 1, info["GET "+APIBaseURL+"/v1/me"])

	// The refreshed token was persisted before the request was issued
	record, err := TokenRecord(app.Dao(), "user123")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", record.GetString("access_token"))
}

func TestProxy_NoToken(t *testing.T) {
	connector, _ := setupConnector(t)

	_, err := connector.Proxy(context.Background(), "nobody", "/v1/me")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestProxy_ProviderError(t *testing.T) {
	connector, app := setupConnector(t)
	testhelpers.SetSpotifyToken(t, app, "user123", time.Hour)

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", APIBaseURL+"/v1/albums/missing",
		httpmock.NewStringResponder(404, `{"error":{"status":404,"message":"non existing id"}}`))

	_, err := connector.Proxy(context.Background(), "user123", "/v1/albums/missing")
	assert.ErrorIs(t, err, ErrProxyFailed)
	assert.Contains(t, err.Error(), "404")
}
