package testhelpers

import (
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

// SpotifyTokenURL is the provider token endpoint mocked in tests.
const SpotifyTokenURL = "https://accounts.spotify.com/api/token"

// SetupTokenRefreshMock mocks the token endpoint for refresh grants.
// Pass an empty refreshToken to simulate a provider that omits the
// refresh token on refresh responses.
func SetupTokenRefreshMock(t *testing.T, accessToken, refreshToken string) {
	response := map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        "user-read-email user-read-private",
	}
	if refreshToken != "" {
		response["refresh_token"] = refreshToken
	}

	httpmock.RegisterResponder("POST", SpotifyTokenURL,
		httpmock.NewJsonResponderOrPanic(200, response))
}

// SetupAlbumDetailsMock mocks GET /v1/albums/{id} with the fields the
// review materialization path reads.
func SetupAlbumDetailsMock(t *testing.T, albumID, name, artistName, releaseDate string, genres []string) {
	if genres == nil {
		genres = []string{}
	}

	httpmock.RegisterResponder("GET", "https://api.spotify.com/v1/albums/"+albumID,
		func(req *http.Request) (*http.Response, error) {
			t.Logf("Spotify album details called: %s", req.URL.String())
			return httpmock.NewJsonResponse(200, map[string]interface{}{
				"id":           albumID,
				"name":         name,
				"release_date": releaseDate,
				"genres":       genres,
				"artists": []map[string]interface{}{
					{"name": artistName},
				},
			})
		})
}

// SetupSearchMock mocks GET /v1/search with a fixed payload.
func SetupSearchMock(t *testing.T, payload map[string]interface{}) {
	httpmock.RegisterResponder("GET", `=~^https://api\.spotify\.com/v1/search`,
		func(req *http.Request) (*http.Response, error) {
			t.Logf("Spotify search called: %s", req.URL.String())
			return httpmock.NewJsonResponse(200, payload)
		})
}
