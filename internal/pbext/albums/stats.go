package albums

import (
	"database/sql"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/daos"
)

// RatingStats holds the derived album attributes. They are computed
// from the reviews table on demand and never stored.
type RatingStats struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// ComputeRatingStats aggregates the reviews of one album.
func ComputeRatingStats(dao *daos.Dao, albumID string) (RatingStats, error) {
	var row struct {
		Avg   sql.NullFloat64 `db:"avg_rating"`
		Count int             `db:"review_count"`
	}

	err := dao.DB().
		NewQuery("SELECT AVG(rating) AS avg_rating, COUNT(*) AS review_count FROM reviews WHERE album = {:album}").
		Bind(dbx.Params{"album": albumID}).
		One(&row)
	if err != nil {
		return RatingStats{}, err
	}

	stats := RatingStats{ReviewCount: row.Count}
	if row.Avg.Valid {
		stats.AverageRating = row.Avg.Float64
	}
	return stats, nil
}
