package dashboard

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/daos"
)

type daoProvider interface {
	Dao() *daos.Dao
}

// StatsResponse represents the response for /api/dashboard/stats
type StatsResponse struct {
	Library        LibraryStats    `json:"library"`
	ConnectedUsers int             `json:"connected_users"`
	RecentActivity []ActivityEntry `json:"recent_activity"`
}

// LibraryStats counts the local catalog entities
type LibraryStats struct {
	Artists int `json:"artists"`
	Albums  int `json:"albums"`
	Reviews int `json:"reviews"`
}

// ActivityEntry represents one recent activity log line
type ActivityEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Source    string `json:"source"`
	Message   string `json:"message"`
}

// Register registers the dashboard routes with the PocketBase app
func Register(app *pocketbase.PocketBase) {
	app.OnBeforeServe().Add(func(e *core.ServeEvent) error {
		e.Router.GET("/api/dashboard/stats", statsHandler(app))
		return nil
	})
}

// statsHandler returns library statistics (unauthenticated)
func statsHandler(app daoProvider) echo.HandlerFunc {
	return func(c echo.Context) error {
		library, err := getLibraryStats(app.Dao())
		if err != nil {
			return apis.NewApiError(http.StatusInternalServerError,
				fmt.Sprintf("Failed to get library stats: %v", err), nil)
		}

		connected, err := countRecords(app.Dao(), "spotify_tokens")
		if err != nil {
			return apis.NewApiError(http.StatusInternalServerError,
				fmt.Sprintf("Failed to count connected users: %v", err), nil)
		}

		recentActivity, err := getRecentActivity(app.Dao())
		if err != nil {
			return apis.NewApiError(http.StatusInternalServerError,
				fmt.Sprintf("Failed to get recent activity: %v", err), nil)
		}

		return c.JSON(http.StatusOK, StatsResponse{
			Library:        library,
			ConnectedUsers: connected,
			RecentActivity: recentActivity,
		})
	}
}

func getLibraryStats(dao *daos.Dao) (LibraryStats, error) {
	stats := LibraryStats{}

	var err error
	if stats.Artists, err = countRecords(dao, "artists"); err != nil {
		return stats, err
	}
	if stats.Albums, err = countRecords(dao, "albums"); err != nil {
		return stats, err
	}
	if stats.Reviews, err = countRecords(dao, "reviews"); err != nil {
		return stats, err
	}

	return stats, nil
}

func countRecords(dao *daos.Dao, table string) (int, error) {
	var row struct {
		Total int `db:"total"`
	}

	err := dao.DB().
		NewQuery(fmt.Sprintf("SELECT COUNT(*) AS total FROM %s", table)).
		One(&row)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	return row.Total, nil
}

// getRecentActivity retrieves the latest activity log entries
func getRecentActivity(dao *daos.Dao) ([]ActivityEntry, error) {
	records, err := dao.FindRecordsByFilter("activity_logs", "id != ''", "-created", 10, 0)
	if err != nil {
		// Missing collection just means no activity yet
		return []ActivityEntry{}, nil
	}

	entries := make([]ActivityEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, ActivityEntry{
			Timestamp: record.GetCreated().Time().Format(time.RFC3339),
			Level:     record.GetString("level"),
			Source:    record.GetString("source"),
			Message:   record.GetString("message"),
		})
	}

	return entries, nil
}
