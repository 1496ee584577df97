package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"mogitrack/canon"
	"mogitrack/engine"
)

type trackListRow struct {
	ID        int    `bun:"id"`
	Name      string `bun:"name"`
	Slug      string `bun:"slug"`
	RaceCount int    `bun:"race_count"`
}

type trackData struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	RaceCount   int    `json:"raceCount"`
}

const trackListSQL = `
SELECT t.id, t.name, t.slug, COUNT(r.id) AS race_count
FROM tracks t
LEFT JOIN races r ON r.track_id = t.id
GROUP BY t.id, t.name, t.slug
ORDER BY race_count DESC, t.name ASC
`

// Tracks returns the shared catalog ordered by usage.
func (h *Handler) Tracks(c echo.Context) error {
	var rows []trackListRow
	if err := h.db.NewRaw(trackListSQL).Scan(c.Request().Context(), &rows); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	result := make([]trackData, len(rows))
	for i, row := range rows {
		result[i] = trackData{
			ID:          row.ID,
			Name:        row.Name,
			Slug:        row.Slug,
			DisplayName: canon.DisplayName(row.Name),
			RaceCount:   row.RaceCount,
		}
	}

	return c.JSON(http.StatusOK, result)
}

type trackStatsRow struct {
	Times       int     `bun:"times" json:"times"`
	AvgFinish   float64 `bun:"avg_finish" json:"avgFinish"`
	Best        int     `bun:"best" json:"best"`
	Worst       int     `bun:"worst" json:"worst"`
	TotalPoints int     `bun:"total_points" json:"totalPoints"`
	AvgPoints   float64 `bun:"avg_points" json:"avgPoints"`
}

const trackStatsSQL = `
SELECT COUNT(r.id) AS times,
	ROUND(COALESCE(AVG(r.position), 0), 2) AS avg_finish,
	COALESCE(MIN(r.position), 0) AS best,
	COALESCE(MAX(r.position), 0) AS worst,
	COALESCE(SUM(r.points), 0) AS total_points,
	ROUND(COALESCE(AVG(r.points), 0), 2) AS avg_points
FROM races r
INNER JOIN mogis m ON r.mogi_id = m.id
WHERE r.track_id = ? AND m.owner_id = ?
`

const trackDistributionSQL = `
SELECT r.position, COUNT(r.id) AS count
FROM races r
INNER JOIN mogis m ON r.mogi_id = m.id
WHERE r.track_id = ? AND m.owner_id = ?
GROUP BY r.position
ORDER BY r.position ASC
`

type distributionEntry struct {
	Position int `json:"position"`
	Count    int `json:"count"`
}

// TrackDetail returns one catalog entry with the caller's stats on it,
// including the finish-position distribution over 1..12.
func (h *Handler) TrackDetail(c echo.Context) error {
	ctx := c.Request().Context()

	track, err := engine.TrackBySlug(ctx, h.db, c.Param("slug"))
	if err != nil {
		return httpError(err)
	}

	var stats trackStatsRow
	if err := h.db.NewRaw(trackStatsSQL, track.ID, ownerID(c)).Scan(ctx, &stats); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var dist []struct {
		Position int `bun:"position"`
		Count    int `bun:"count"`
	}
	if err := h.db.NewRaw(trackDistributionSQL, track.ID, ownerID(c)).Scan(ctx, &dist); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	distMap := make(map[int]int, len(dist))
	for _, d := range dist {
		distMap[d.Position] = d.Count
	}
	finishDist := make([]distributionEntry, 0, 12)
	for pos := 1; pos <= 12; pos++ {
		finishDist = append(finishDist, distributionEntry{Position: pos, Count: distMap[pos]})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"track": trackData{
			ID:          track.ID,
			Name:        track.Name,
			Slug:        track.Slug,
			DisplayName: track.DisplayName(),
			RaceCount:   stats.Times,
		},
		"stats":      stats,
		"finishDist": finishDist,
	})
}

// RecanonicalizeTracks merges catalog duplicates after alias-table updates.
// Admin only.
func (h *Handler) RecanonicalizeTracks(c echo.Context) error {
	requester, _ := c.Get("username").(string)
	if strings.TrimSpace(requester) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !h.isAdminUser(requester) {
		return echo.NewHTTPError(http.StatusForbidden, "admin access required")
	}

	merged, err := engine.RecanonicalizeAll(c.Request().Context(), h.db)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true, "merged": merged})
}
