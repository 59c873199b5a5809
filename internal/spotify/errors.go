package spotify

import "errors"

// Connector error kinds. HTTP handlers translate these into JSON error
// responses; everything else propagates wrapped with provider detail.
var (
	// ErrNoToken is returned when the user has never connected Spotify
	// (or the token record was deleted).
	ErrNoToken = errors.New("no spotify token for user")

	// ErrInvalidState is returned when a callback state fails MAC verification.
	ErrInvalidState = errors.New("invalid state token")

	// ErrStateExpired is returned when a callback state is older than StateMaxAge.
	ErrStateExpired = errors.New("state token expired")

	// ErrExchangeFailed is returned when the authorization-code grant fails.
	ErrExchangeFailed = errors.New("code exchange failed")

	// ErrRefreshFailed is returned when the refresh grant fails.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrProxyFailed is returned when a proxied catalog request fails
	// (transport error or non-2xx status from the provider).
	ErrProxyFailed = errors.New("spotify request failed")
)
