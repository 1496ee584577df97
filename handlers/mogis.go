package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"mogitrack/canon"
	"mogitrack/engine"
	"mogitrack/models"
)

// raceRow is a flat scan target for the race/track join.
type raceRow struct {
	ID       int    `bun:"id"`
	Index    int    `bun:"race_index"`
	Position int    `bun:"position"`
	Points   int    `bun:"points"`
	Track    string `bun:"track"`
	Slug     string `bun:"slug"`
}

type raceData struct {
	ID       int    `json:"id"`
	Index    int    `json:"index"`
	Position int    `json:"position"`
	Points   int    `json:"points"`
	Track    string `json:"track"`
	Slug     string `json:"slug"`
}

const racesJoinSQL = `
SELECT r.id, r.race_index, r.position, r.points, t.name AS track, t.slug
FROM races r
INNER JOIN tracks t ON r.track_id = t.id
WHERE r.mogi_id = ?
ORDER BY r.race_index ASC
`

func (h *Handler) mogiRaces(c echo.Context, mogiID int) ([]raceData, error) {
	var rows []raceRow
	if err := h.db.NewRaw(racesJoinSQL, mogiID).Scan(c.Request().Context(), &rows); err != nil {
		return nil, err
	}

	races := make([]raceData, len(rows))
	for i, row := range rows {
		races[i] = raceData{
			ID:       row.ID,
			Index:    row.Index,
			Position: row.Position,
			Points:   row.Points,
			Track:    canon.DisplayName(row.Track),
			Slug:     row.Slug,
		}
	}
	return races, nil
}

// CurrentMogi returns the caller's open mogi with its summary and races.
func (h *Handler) CurrentMogi(c echo.Context) error {
	ctx := c.Request().Context()

	var summary *models.MogiSummary
	err := h.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		mogi, err := engine.CurrentMogi(ctx, tx, ownerID(c))
		if err != nil {
			return err
		}
		summary, err = engine.Summarize(ctx, tx, mogi)
		return err
	})
	if err != nil {
		return httpError(err)
	}

	races, err := h.mogiRaces(c, summary.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"mogi":  summary,
		"races": races,
	})
}

// mogiSummaryRow scans the grouped mogi/race aggregate.
type mogiSummaryRow struct {
	ID          int       `bun:"id"`
	CreatedAt   time.Time `bun:"created_at"`
	PlayedAt    time.Time `bun:"played_at"`
	Finalized   bool      `bun:"finalized"`
	Note        string    `bun:"note"`
	RaceCount   int       `bun:"race_count"`
	TotalPoints int       `bun:"total_points"`
	AvgFinish   float64   `bun:"avg_finish"`
}

type mogiListEntry struct {
	models.MogiSummary
	Number int `json:"number"`
}

const mogiSummarySQL = `
SELECT m.id, m.created_at, m.played_at, m.finalized, m.note,
	COUNT(r.id) AS race_count,
	COALESCE(SUM(r.points), 0) AS total_points,
	ROUND(COALESCE(AVG(r.position), 0), 2) AS avg_finish
FROM mogis m
LEFT JOIN races r ON r.mogi_id = m.id
WHERE m.owner_id = ? AND m.finalized
GROUP BY m.id, m.created_at, m.played_at, m.finalized, m.note
`

// Mogis lists the caller's finalized mogis, numbered 1..N oldest first. The
// sort query param (newest|oldest) only changes display order, never the
// numbering.
func (h *Handler) Mogis(c echo.Context) error {
	ctx := c.Request().Context()

	order := "ORDER BY m.created_at DESC, m.id DESC"
	if c.QueryParam("sort") == "oldest" {
		order = "ORDER BY m.created_at ASC, m.id ASC"
	}

	var rows []mogiSummaryRow
	if err := h.db.NewRaw(mogiSummarySQL+order, ownerID(c)).Scan(ctx, &rows); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	numbering, err := engine.FinalizedNumbering(ctx, h.db, ownerID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	entries := make([]mogiListEntry, len(rows))
	for i, row := range rows {
		entries[i] = mogiListEntry{
			MogiSummary: models.MogiSummary{
				ID:          row.ID,
				CreatedAt:   row.CreatedAt,
				PlayedAt:    row.PlayedAt,
				Finalized:   row.Finalized,
				Note:        row.Note,
				RaceCount:   row.RaceCount,
				TotalPoints: row.TotalPoints,
				AvgFinish:   row.AvgFinish,
			},
			Number: numbering[row.ID],
		}
	}

	return c.JSON(http.StatusOK, entries)
}

// MogiDetail returns one of the caller's mogis with summary and races.
func (h *Handler) MogiDetail(c echo.Context) error {
	ctx := c.Request().Context()

	mogiID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid mogi id")
	}

	mogi, err := engine.MogiByID(ctx, h.db, ownerID(c), mogiID)
	if err != nil {
		return httpError(err)
	}

	summary, err := engine.Summarize(ctx, h.db, mogi)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	races, err := h.mogiRaces(c, mogi.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"mogi":  summary,
		"races": races,
	})
}
