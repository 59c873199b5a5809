package albums

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/daos"
)

type daoProvider interface {
	Dao() *daos.Dao
}

// Register registers the album stats route and validation hooks
func Register(app *pocketbase.PocketBase) {
	app.OnBeforeServe().Add(func(e *core.ServeEvent) error {
		e.Router.GET("/api/albums/:id/stats", statsHandler(app))
		return nil
	})

	RegisterHooks(app)
}

// statsHandler returns the derived rating attributes for one album
func statsHandler(app daoProvider) echo.HandlerFunc {
	return func(c echo.Context) error {
		albumID := c.PathParam("id")

		if _, err := app.Dao().FindRecordById("albums", albumID); err != nil {
			return apis.NewNotFoundError("Album not found", nil)
		}

		stats, err := ComputeRatingStats(app.Dao(), albumID)
		if err != nil {
			return apis.NewApiError(http.StatusInternalServerError, "Failed to compute album stats", nil)
		}

		return c.JSON(http.StatusOK, stats)
	}
}
