package spotify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyState(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()

	state := SignState(secret, "user123", now)

	userID, err := VerifyState(secret, state, now.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "user123", userID)
}

func TestVerifyState_Tampered(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()

	state := SignState(secret, "user123", now)

	tests := []struct {
		name  string
		state string
	}{
		{"truncated signature", state[:len(state)-1]},
		{"extended signature", state + "A"},
		{"no separator", strings.ReplaceAll(state, ".", "")},
		{"empty", ""},
		{"garbage payload", "!!!." + strings.SplitN(state, ".", 2)[1]},
		{"swapped payload", SignState(secret, "someone-else", now)[:10] + state[10:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyState(secret, tt.state, now)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestVerifyState_WrongSecret(t *testing.T) {
	now := time.Now()
	state := SignState([]byte("secret-a"), "user123", now)

	_, err := VerifyState([]byte("secret-b"), state, now)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestVerifyState_Expired(t *testing.T) {
	secret := []byte("test-secret")
	issued := time.Now()

	state := SignState(secret, "user123", issued)

	// Within the age bound the signature is accepted
	_, err := VerifyState(secret, state, issued.Add(StateMaxAge-time.Second))
	require.NoError(t, err)

	// Past the bound the same valid signature is rejected
	_, err = VerifyState(secret, state, issued.Add(StateMaxAge+time.Second))
	assert.ErrorIs(t, err, ErrStateExpired)
}

func TestStateSecret_Missing(t *testing.T) {
	t.Setenv("STATE_SECRET", "")

	_, err := StateSecret()
	assert.Error(t, err)
}
