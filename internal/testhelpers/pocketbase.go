package testhelpers

import (
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/models"
	"github.com/pocketbase/pocketbase/models/schema"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/require"
)

// SetupTestApp creates a test PocketBase app with the application collections
func SetupTestApp(t *testing.T) *tests.TestApp {
	testApp, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(testApp.Cleanup)

	CreateStandardCollections(t, testApp)
	return testApp
}

// CreateStandardCollections creates the collections used across tests
func CreateStandardCollections(t *testing.T, testApp *tests.TestApp) {
	artists := CreateArtistsCollection(t, testApp)
	albums := CreateAlbumsCollection(t, testApp, artists)
	CreateReviewsCollection(t, testApp, albums)
	CreateSpotifyTokensCollection(t, testApp)
	CreateActivityLogsCollection(t, testApp)
	CreateSettingsCollection(t, testApp)
}

// CreateArtistsCollection creates the artists collection
func CreateArtistsCollection(t *testing.T, testApp *tests.TestApp) *models.Collection {
	collection := &models.Collection{}
	collection.Name = "artists"
	collection.Type = models.CollectionTypeBase
	collection.Schema = schema.NewSchema(
		&schema.SchemaField{Name: "name", Type: schema.FieldTypeText, Required: true},
	)
	err := testApp.Dao().SaveCollection(collection)
	require.NoError(t, err)
	return collection
}

// CreateAlbumsCollection creates the albums collection with the unique
// (title, artist) pair index
func CreateAlbumsCollection(t *testing.T, testApp *tests.TestApp, artists *models.Collection) *models.Collection {
	collection := &models.Collection{}
	collection.Name = "albums"
	collection.Type = models.CollectionTypeBase
	collection.Schema = schema.NewSchema(
		&schema.SchemaField{Name: "title", Type: schema.FieldTypeText, Required: true},
		&schema.SchemaField{
			Name:     "artist",
			Type:     schema.FieldTypeRelation,
			Required: true,
			Options: &schema.RelationOptions{
				CollectionId:  artists.Id,
				CascadeDelete: true,
				MaxSelect:     intPtr(1),
			},
		},
		&schema.SchemaField{Name: "release_year", Type: schema.FieldTypeNumber},
		&schema.SchemaField{Name: "genre", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "spotify_id", Type: schema.FieldTypeText},
	)
	collection.Indexes = append(collection.Indexes,
		"CREATE UNIQUE INDEX idx_test_albums_title_artist ON albums (title, artist)",
		"CREATE UNIQUE INDEX idx_test_albums_spotify_id ON albums (spotify_id) WHERE spotify_id != ''",
	)
	err := testApp.Dao().SaveCollection(collection)
	require.NoError(t, err)
	return collection
}

// CreateReviewsCollection creates the reviews collection
func CreateReviewsCollection(t *testing.T, testApp *tests.TestApp, albums *models.Collection) *models.Collection {
	users, err := testApp.Dao().FindCollectionByNameOrId("users")
	require.NoError(t, err)

	collection := &models.Collection{}
	collection.Name = "reviews"
	collection.Type = models.CollectionTypeBase
	collection.Schema = schema.NewSchema(
		&schema.SchemaField{
			Name:     "album",
			Type:     schema.FieldTypeRelation,
			Required: true,
			Options: &schema.RelationOptions{
				CollectionId:  albums.Id,
				CascadeDelete: true,
				MaxSelect:     intPtr(1),
			},
		},
		&schema.SchemaField{
			Name:     "user",
			Type:     schema.FieldTypeRelation,
			Required: true,
			Options: &schema.RelationOptions{
				CollectionId:  users.Id,
				CascadeDelete: true,
				MaxSelect:     intPtr(1),
			},
		},
		&schema.SchemaField{
			Name:     "rating",
			Type:     schema.FieldTypeNumber,
			Required: true,
			Options: &schema.NumberOptions{
				Min:       float64Ptr(1),
				Max:       float64Ptr(5),
				NoDecimal: true,
			},
		},
		&schema.SchemaField{Name: "comment", Type: schema.FieldTypeText},
	)
	err = testApp.Dao().SaveCollection(collection)
	require.NoError(t, err)
	return collection
}

// CreateSpotifyTokensCollection creates the spotify_tokens collection
func CreateSpotifyTokensCollection(t *testing.T, testApp *tests.TestApp) *models.Collection {
	collection := &models.Collection{}
	collection.Name = "spotify_tokens"
	collection.Type = models.CollectionTypeBase
	collection.Schema = schema.NewSchema(
		&schema.SchemaField{Name: "user", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "access_token", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "refresh_token", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "token_type", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "scope", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "expires_at", Type: schema.FieldTypeDate},
	)
	err := testApp.Dao().SaveCollection(collection)
	require.NoError(t, err)
	return collection
}

// CreateActivityLogsCollection creates the activity_logs collection
func CreateActivityLogsCollection(t *testing.T, testApp *tests.TestApp) *models.Collection {
	collection := &models.Collection{}
	collection.Name = "activity_logs"
	collection.Type = models.CollectionTypeBase
	collection.Schema = schema.NewSchema(
		&schema.SchemaField{Name: "level", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "message", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "source", Type: schema.FieldTypeText},
	)
	err := testApp.Dao().SaveCollection(collection)
	require.NoError(t, err)
	return collection
}

// CreateSettingsCollection creates the settings collection with its
// empty singleton record (credentials fall back to the environment)
func CreateSettingsCollection(t *testing.T, testApp *tests.TestApp) *models.Collection {
	collection := &models.Collection{}
	collection.Name = "settings"
	collection.Type = models.CollectionTypeBase
	collection.Schema = schema.NewSchema(
		&schema.SchemaField{Name: "spotify_client_id", Type: schema.FieldTypeText},
		&schema.SchemaField{Name: "spotify_client_secret", Type: schema.FieldTypeText},
	)
	err := testApp.Dao().SaveCollection(collection)
	require.NoError(t, err)

	record := models.NewRecord(collection)
	record.SetId("settings")
	require.NoError(t, testApp.Dao().SaveRecord(record))

	return collection
}

// CreateTestUser creates an auth record in the users collection
func CreateTestUser(t *testing.T, testApp *tests.TestApp, username string) *models.Record {
	collection, err := testApp.Dao().FindCollectionByNameOrId("users")
	require.NoError(t, err)

	user := models.NewRecord(collection)
	require.NoError(t, user.SetUsername(username))
	require.NoError(t, user.SetPassword("test-password-123"))
	require.NoError(t, testApp.Dao().SaveRecord(user))
	return user
}

// CreateTestArtist creates an artist record
func CreateTestArtist(t *testing.T, testApp *tests.TestApp, name string) *models.Record {
	collection, err := testApp.Dao().FindCollectionByNameOrId("artists")
	require.NoError(t, err)

	artist := models.NewRecord(collection)
	artist.Set("name", name)
	require.NoError(t, testApp.Dao().SaveRecord(artist))
	return artist
}

// CreateTestAlbum creates an album record owned by the given artist
func CreateTestAlbum(t *testing.T, testApp *tests.TestApp, title, artistID, spotifyID string) *models.Record {
	collection, err := testApp.Dao().FindCollectionByNameOrId("albums")
	require.NoError(t, err)

	album := models.NewRecord(collection)
	album.Set("title", title)
	album.Set("artist", artistID)
	album.Set("release_year", 2020)
	album.Set("genre", "rock")
	album.Set("spotify_id", spotifyID)
	require.NoError(t, testApp.Dao().SaveRecord(album))
	return album
}

// CreateTestReview creates a review record
func CreateTestReview(t *testing.T, testApp *tests.TestApp, albumID, userID string, rating int) *models.Record {
	collection, err := testApp.Dao().FindCollectionByNameOrId("reviews")
	require.NoError(t, err)

	review := models.NewRecord(collection)
	review.Set("album", albumID)
	review.Set("user", userID)
	review.Set("rating", rating)
	review.Set("comment", "solid record")
	require.NoError(t, testApp.Dao().SaveRecord(review))
	return review
}

// SetSpotifyToken creates or replaces a token record for the user. A
// negative ttl produces an already-expired token.
func SetSpotifyToken(t *testing.T, testApp *tests.TestApp, userID string, ttl time.Duration) *models.Record {
	collection, err := testApp.Dao().FindCollectionByNameOrId("spotify_tokens")
	require.NoError(t, err)

	record := models.NewRecord(collection)
	record.Set("user", userID)
	record.Set("access_token", "test-access-token")
	record.Set("refresh_token", "test-refresh-token")
	record.Set("token_type", "Bearer")
	record.Set("scope", "user-read-email user-read-private")
	record.Set("expires_at", time.Now().Add(ttl))
	require.NoError(t, testApp.Dao().SaveRecord(record))
	return record
}

func intPtr(i int) *int {
	return &i
}

func float64Ptr(f float64) *float64 {
	return &f
}
