package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/daos"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Package spotify implements the OAuth connector for the external music
// catalog: authorization URL construction, signed-state validation,
// authorization-code exchange, token refresh and authenticated request
// proxying. Tokens are persisted per user in the spotify_tokens
// collection; every outbound catalog call goes through Proxy, which
// refreshes an expired token before issuing the request.

const (
	// APIBaseURL is the base URL of the catalog API. Proxy endpoints are
	// appended verbatim (e.g. "/v1/albums/{id}").
	APIBaseURL = "https://api.spotify.com"

	// requestTimeout bounds every outbound call to the provider.
	requestTimeout = 15 * time.Second
)

// DatabaseProvider is the minimal PocketBase surface the connector
// needs, matching both the live app and test apps.
type DatabaseProvider interface {
	Dao() *daos.Dao
}

// Scopes requested during the authorization redirect.
var Scopes = []string{
	string(spotifyauth.ScopeUserReadEmail),
	string(spotifyauth.ScopeUserReadPrivate),
}

// Connector holds the per-process state of the OAuth connector. The
// refresh group serializes concurrent refreshes for the same user so an
// expired token triggers exactly one refresh grant.
type Connector struct {
	app          DatabaseProvider
	refreshGroup singleflight.Group
}

// New creates a Connector backed by the given app.
func New(app DatabaseProvider) *Connector {
	return &Connector{app: app}
}

// Config builds the oauth2 config from the stored client credentials.
// The oauth2 package sends the client id/secret as HTTP Basic auth on
// the token endpoint, which is what the provider expects.
func (c *Connector) Config() (*oauth2.Config, error) {
	clientID, clientSecret, err := LoadClientCredentials(c.app)
	if err != nil {
		return nil, err
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  fmt.Sprintf("%s/api/spotify/callback", PublicURL()),
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}, nil
}

// AuthCodeURL returns the provider authorization URL carrying the given
// state. Pure construction, no side effects.
func (c *Connector) AuthCodeURL(state string) (string, error) {
	config, err := c.Config()
	if err != nil {
		return "", err
	}
	return config.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for a token bundle.
func (c *Connector) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	config, err := c.Config()
	if err != nil {
		return nil, err
	}

	token, err := config.Exchange(withHTTPClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return token, nil
}

// Refresh runs the refresh grant with the user's stored refresh token
// and persists the result. Requires an existing token record. Concurrent
// calls for the same user collapse into a single refresh.
func (c *Connector) Refresh(ctx context.Context, userID string) (*oauth2.Token, error) {
	result, err, _ := c.refreshGroup.Do(userID, func() (interface{}, error) {
		return c.refresh(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*oauth2.Token), nil
}

func (c *Connector) refresh(ctx context.Context, userID string) (*oauth2.Token, error) {
	stored, err := LoadToken(c.app.Dao(), userID)
	if err != nil {
		return nil, err
	}

	config, err := c.Config()
	if err != nil {
		return nil, err
	}

	// Passing only the refresh token forces the refresh grant even if
	// the stored access token has not expired yet.
	source := config.TokenSource(withHTTPClient(ctx), &oauth2.Token{
		RefreshToken: stored.RefreshToken,
	})

	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	if err := SaveToken(c.app.Dao(), userID, token); err != nil {
		return nil, fmt.Errorf("failed to save refreshed token: %w", err)
	}

	return token, nil
}

// Proxy is the single gateway for outbound catalog calls on behalf of a
// user. An expired stored token is refreshed and persisted before the
// request is issued. The decoded response body is returned verbatim;
// interpreting its shape is left to call sites.
func (c *Connector) Proxy(ctx context.Context, userID string, endpoint string) (json.RawMessage, error) {
	record, err := TokenRecord(c.app.Dao(), userID)
	if err != nil {
		return nil, err
	}

	accessToken := record.GetString("access_token")
	if TokenExpired(record) {
		token, err := c.Refresh(ctx, userID)
		if err != nil {
			return nil, err
		}
		accessToken = token.AccessToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, APIBaseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxyFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxyFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxyFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrProxyFailed, endpoint, resp.StatusCode, string(body))
	}

	return json.RawMessage(body), nil
}

// httpClient returns the client used for provider calls. The transport
// is left nil so test mocks intercepting http.DefaultTransport work.
func httpClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// withHTTPClient makes the oauth2 package use our timeout-bounded client
// for token endpoint calls.
func withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, httpClient())
}
