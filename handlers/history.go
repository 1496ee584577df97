package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"mogitrack/canon"
)

type historyRow struct {
	ID       int       `bun:"id"`
	MogiID   int       `bun:"mogi_id"`
	Index    int       `bun:"race_index"`
	Position int       `bun:"position"`
	Points   int       `bun:"points"`
	Track    string    `bun:"track"`
	Slug     string    `bun:"slug"`
	PlayedAt time.Time `bun:"played_at"`
}

type historyEntry struct {
	ID       int       `json:"id"`
	MogiID   int       `json:"mogiID"`
	Index    int       `json:"index"`
	Position int       `json:"position"`
	Points   int       `json:"points"`
	Track    string    `json:"track"`
	Slug     string    `json:"slug"`
	PlayedAt time.Time `json:"playedAt"`
}

const historySQL = `
SELECT r.id, r.mogi_id, r.race_index, r.position, r.points,
	t.name AS track, t.slug, m.played_at
FROM races r
INNER JOIN mogis m ON r.mogi_id = m.id
INNER JOIN tracks t ON r.track_id = t.id
WHERE m.owner_id = ?
ORDER BY m.created_at DESC, m.id DESC, r.race_index DESC
`

// History returns the caller's full race history, newest mogi first.
func (h *Handler) History(c echo.Context) error {
	var rows []historyRow
	if err := h.db.NewRaw(historySQL, ownerID(c)).Scan(c.Request().Context(), &rows); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	entries := make([]historyEntry, len(rows))
	for i, row := range rows {
		entries[i] = historyEntry{
			ID:       row.ID,
			MogiID:   row.MogiID,
			Index:    row.Index,
			Position: row.Position,
			Points:   row.Points,
			Track:    canon.DisplayName(row.Track),
			Slug:     row.Slug,
			PlayedAt: row.PlayedAt,
		}
	}

	return c.JSON(http.StatusOK, entries)
}
