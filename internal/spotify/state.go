package spotify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// stateContext namespaces the MAC so a state token can never be
	// replayed against another signed value sharing the same secret.
	stateContext = "spotify-state"

	// StateMaxAge bounds how long a callback may arrive after the
	// connect redirect was issued.
	StateMaxAge = 300 * time.Second
)

// StateSecret returns the key used to sign OAuth state tokens.
func StateSecret() ([]byte, error) {
	secret := os.Getenv("STATE_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("STATE_SECRET environment variable is not set")
	}
	return []byte(secret), nil
}

// SignState produces a self-verifying state token binding the OAuth
// callback to the user who initiated the flow. The payload is
// "<userID>:<unix issued-at>" and the signature is an HMAC-SHA256 over
// the context string plus the payload.
func SignState(secret []byte, userID string, issuedAt time.Time) string {
	payload := fmt.Sprintf("%s:%d", userID, issuedAt.Unix())
	sig := stateMAC(secret, payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + sig
}

// VerifyState checks the signature and age of a state token and returns
// the user id it was issued for. Signature failures return
// ErrInvalidState; a valid but stale token returns ErrStateExpired.
func VerifyState(secret []byte, state string, now time.Time) (string, error) {
	payloadPart, sigPart, ok := strings.Cut(state, ".")
	if !ok {
		return "", ErrInvalidState
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return "", ErrInvalidState
	}
	payload := string(payloadBytes)

	expected := stateMAC(secret, payload)
	if !hmac.Equal([]byte(expected), []byte(sigPart)) {
		return "", ErrInvalidState
	}

	userID, issuedPart, ok := strings.Cut(payload, ":")
	if !ok || userID == "" {
		return "", ErrInvalidState
	}

	issuedUnix, err := strconv.ParseInt(issuedPart, 10, 64)
	if err != nil {
		return "", ErrInvalidState
	}

	if now.Sub(time.Unix(issuedUnix, 0)) > StateMaxAge {
		return "", ErrStateExpired
	}

	return userID, nil
}

func stateMAC(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(stateContext))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
