package activitylogger

import (
	"testing"

	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manlikeabro/waxcritic/internal/testhelpers"
)

func TestRecord_PersistsToCollection(t *testing.T) {
	testApp := testhelpers.SetupTestApp(t)
	logger := New(testApp)

	logger.Record("info", "User connected Spotify", "spotify")

	records, err := testApp.Dao().FindRecordsByFilter("activity_logs", "id != ''", "-created", 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "info", records[0].GetString("level"))
	assert.Equal(t, "User connected Spotify", records[0].GetString("message"))
	assert.Equal(t, "spotify", records[0].GetString("source"))
}

func TestInfoAndErrorShorthands(t *testing.T) {
	testApp := testhelpers.SetupTestApp(t)
	logger := New(testApp)

	logger.Info("album materialized", "reviews")
	logger.Error("refresh failed", "spotify")

	records, err := testApp.Dao().FindRecordsByFilter("activity_logs", "id != ''", "created", 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	levels := []string{records[0].GetString("level"), records[1].GetString("level")}
	assert.ElementsMatch(t, []string{"info", "error"}, levels)
}

func TestRecord_MissingCollectionDoesNotPanic(t *testing.T) {
	testApp, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(testApp.Cleanup)
	logger := New(testApp)

	// The activity_logs collection does not exist; Record must swallow
	// the persistence failure.
	assert.NotPanics(t, func() {
		logger.Record("info", "event before migrations ran", "test")
	})
}
