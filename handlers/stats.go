package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mogitrack/canon"
	"mogitrack/models"
)

type trackAggRow struct {
	Name        string  `bun:"name"`
	Slug        string  `bun:"slug"`
	Times       int     `bun:"times"`
	TotalPoints int     `bun:"total_points"`
	AvgFinish   float64 `bun:"avg_finish"`
}

type trackAggEntry struct {
	Track       string  `json:"track"`
	Slug        string  `json:"slug"`
	Times       int     `json:"times"`
	TotalPoints int     `json:"totalPoints"`
	AvgFinish   float64 `json:"avgFinish"`
}

const bestTracksSQL = `
SELECT t.name, t.slug, COUNT(r.id) AS times,
	COALESCE(SUM(r.points), 0) AS total_points,
	ROUND(COALESCE(AVG(r.position), 0), 2) AS avg_finish
FROM tracks t
INNER JOIN races r ON r.track_id = t.id
INNER JOIN mogis m ON r.mogi_id = m.id
WHERE m.owner_id = ?
GROUP BY t.name, t.slug
ORDER BY total_points DESC, t.name ASC
LIMIT 20
`

const worstFinishesSQL = `
SELECT t.name, t.slug, COUNT(r.id) AS times,
	COALESCE(SUM(r.points), 0) AS total_points,
	ROUND(COALESCE(AVG(r.position), 0), 2) AS avg_finish
FROM tracks t
INNER JOIN races r ON r.track_id = t.id
INNER JOIN mogis m ON r.mogi_id = m.id
WHERE m.owner_id = ?
GROUP BY t.name, t.slug
ORDER BY avg_finish DESC, t.name ASC
LIMIT 10
`

// Stats returns the caller's all-time aggregates: totals, the top tracks by
// points, and the worst tracks by average finish.
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	totalMogis, err := h.db.NewSelect().Model((*models.Mogi)(nil)).
		Where("owner_id = ?", ownerID(c)).
		Where("finalized").
		Count(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalRaces, err := h.db.NewSelect().Model((*models.Race)(nil)).
		Join("INNER JOIN mogis AS m ON m.id = r.mogi_id").
		Where("m.owner_id = ?", ownerID(c)).
		Count(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	best, err := h.trackAggregates(c, bestTracksSQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	worst, err := h.trackAggregates(c, worstFinishesSQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"totalMogis":    totalMogis,
		"totalRaces":    totalRaces,
		"bestTracks":    best,
		"worstFinishes": worst,
	})
}

func (h *Handler) trackAggregates(c echo.Context, query string) ([]trackAggEntry, error) {
	var rows []trackAggRow
	if err := h.db.NewRaw(query, ownerID(c)).Scan(c.Request().Context(), &rows); err != nil {
		return nil, err
	}

	entries := make([]trackAggEntry, len(rows))
	for i, row := range rows {
		entries[i] = trackAggEntry{
			Track:       canon.DisplayName(row.Name),
			Slug:        row.Slug,
			Times:       row.Times,
			TotalPoints: row.TotalPoints,
			AvgFinish:   row.AvgFinish,
		}
	}
	return entries, nil
}
