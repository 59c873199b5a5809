package albums

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/models"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manlikeabro/waxcritic/internal/testhelpers"
)

func statsRequest(t *testing.T, testApp *tests.TestApp, albumID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/albums/"+albumID+"/stats", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPathParams(echo.PathParams{{Name: "id", Value: albumID}})
	return c, rec
}

func TestStatsHandler(t *testing.T) {
	testApp := testhelpers.SetupTestApp(t)
	artist := testhelpers.CreateTestArtist(t, testApp, "Portishead")
	album := testhelpers.CreateTestAlbum(t, testApp, "Dummy", artist.Id, "spotify-dummy")

	alice := testhelpers.CreateTestUser(t, testApp, "alice")
	bob := testhelpers.CreateTestUser(t, testApp, "bob")
	carol := testhelpers.CreateTestUser(t, testApp, "carol")
	testhelpers.CreateTestReview(t, testApp, album.Id, alice.Id, 5)
	testhelpers.CreateTestReview(t, testApp, album.Id, bob.Id, 4)
	testhelpers.CreateTestReview(t, testApp, album.Id, carol.Id, 3)

	c, rec := statsRequest(t, testApp, album.Id)
	require.NoError(t, statsHandler(testApp)(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"average_rating":4,"review_count":3}`, rec.Body.String())
}

func TestStatsHandler_NoReviews(t *testing.T) {
	testApp := testhelpers.SetupTestApp(t)
	artist := testhelpers.CreateTestArtist(t, testApp, "Portishead")
	album := testhelpers.CreateTestAlbum(t, testApp, "Dummy", artist.Id, "spotify-dummy")

	c, rec := statsRequest(t, testApp, album.Id)
	require.NoError(t, statsHandler(testApp)(c))

	assert.JSONEq(t, `{"average_rating":0,"review_count":0}`, rec.Body.String())
}

func TestStatsHandler_UnknownAlbum(t *testing.T) {
	testApp := testhelpers.SetupTestApp(t)

	c, _ := statsRequest(t, testApp, "missing")
	err := statsHandler(testApp)(c)

	var apiErr *apis.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestComputeRatingStats_IsolatedPerAlbum(t *testing.T) {
	testApp := testhelpers.SetupTestApp(t)
	artist := testhelpers.CreateTestArtist(t, testApp, "Portishead")
	dummy := testhelpers.CreateTestAlbum(t, testApp, "Dummy", artist.Id, "spotify-dummy")
	third := testhelpers.CreateTestAlbum(t, testApp, "Third", artist.Id, "spotify-third")

	alice := testhelpers.CreateTestUser(t, testApp, "alice")
	testhelpers.CreateTestReview(t, testApp, dummy.Id, alice.Id, 5)
	testhelpers.CreateTestReview(t, testApp, third.Id, alice.Id, 2)

	stats, err := ComputeRatingStats(testApp.Dao(), dummy.Id)
	require.NoError(t, err)
	assert.Equal(t, RatingStats{AverageRating: 5, ReviewCount: 1}, stats)

	stats, err = ComputeRatingStats(testApp.Dao(), third.Id)
	require.NoError(t, err)
	assert.Equal(t, RatingStats{AverageRating: 2, ReviewCount: 1}, stats)
}

func TestCheckDuplicatePair(t *testing.T) {
	testApp := testhelpers.SetupTestApp(t)
	artist := testhelpers.CreateTestArtist(t, testApp, "Portishead")
	other := testhelpers.CreateTestArtist(t, testApp, "Massive Attack")
	existing := testhelpers.CreateTestAlbum(t, testApp, "Dummy", artist.Id, "spotify-dummy")

	collection, err := testApp.Dao().FindCollectionByNameOrId("albums")
	require.NoError(t, err)

	duplicate := models.NewRecord(collection)
	duplicate.Set("title", "Dummy")
	duplicate.Set("artist", artist.Id)

	err = checkDuplicatePair(testApp.Dao(), duplicate)
	var apiErr *apis.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Equal(t, "This artist already has an album with this title.", apiErr.Message)

	// Same title is fine for a different artist
	sameTitle := models.NewRecord(collection)
	sameTitle.Set("title", "Dummy")
	sameTitle.Set("artist", other.Id)
	assert.NoError(t, checkDuplicatePair(testApp.Dao(), sameTitle))

	// Updating a record does not collide with itself
	assert.NoError(t, checkDuplicatePair(testApp.Dao(), existing))
}
