package spotify

import (
	"fmt"
	"os"
)

// LoadClientCredentials loads the Spotify client id/secret from the
// settings singleton with environment variable fallback.
func LoadClientCredentials(dbProvider DatabaseProvider) (clientID, clientSecret string, err error) {
	dao := dbProvider.Dao()

	record, err := dao.FindRecordById("settings", "settings")
	if err == nil {
		clientID = record.GetString("spotify_client_id")
		clientSecret = record.GetString("spotify_client_secret")

		// If both credentials are present in settings, use them
		if clientID != "" && clientSecret != "" {
			return clientID, clientSecret, nil
		}
	}

	// Fallback to environment variables
	envClientID := os.Getenv("SPOTIFY_CLIENT_ID")
	envClientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")

	if envClientID == "" || envClientSecret == "" {
		return "", "", fmt.Errorf("spotify client credentials not configured in settings or environment")
	}

	return envClientID, envClientSecret, nil
}

// PublicURL returns the externally reachable base URL used to build the
// OAuth redirect URL.
func PublicURL() string {
	publicURL := os.Getenv("PUBLIC_URL")
	if publicURL == "" {
		publicURL = "http://localhost:8090"
	}
	return publicURL
}
