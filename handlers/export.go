package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"mogitrack/models"
)

// Export DTOs use the snake_case keys the linked import shape probes for, so
// an export re-imports cleanly (round-trip contract).

type exportTrack struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type exportMogi struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	PlayedAt  time.Time `json:"played_at"`
	Finalized bool      `json:"finalized"`
	Note      string    `json:"note"`
}

type exportRace struct {
	ID       int `json:"id"`
	MogiID   int `json:"mogi_id"`
	TrackID  int `json:"track_id"`
	Index    int `json:"index"`
	Position int `json:"position"`
	Points   int `json:"points"`
}

// Export dumps the caller's full data plus the shared track catalog in the
// linked format.
func (h *Handler) Export(c echo.Context) error {
	ctx := c.Request().Context()

	var tracks []models.Track
	if err := h.db.NewSelect().Model(&tracks).OrderExpr("name ASC").Scan(ctx); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var mogis []models.Mogi
	err := h.db.NewSelect().Model(&mogis).
		Where("owner_id = ?", ownerID(c)).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var races []models.Race
	err = h.db.NewSelect().Model(&races).
		Join("INNER JOIN mogis AS m ON m.id = r.mogi_id").
		Where("m.owner_id = ?", ownerID(c)).
		OrderExpr("r.mogi_id ASC, r.race_index ASC").
		Scan(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ts := make([]exportTrack, len(tracks))
	for i, t := range tracks {
		ts[i] = exportTrack{ID: t.ID, Name: t.Name, Slug: t.Slug}
	}
	ms := make([]exportMogi, len(mogis))
	for i, m := range mogis {
		ms[i] = exportMogi{ID: m.ID, CreatedAt: m.CreatedAt, PlayedAt: m.PlayedAt, Finalized: m.Finalized, Note: m.Note}
	}
	rs := make([]exportRace, len(races))
	for i, r := range races {
		rs[i] = exportRace{ID: r.ID, MogiID: r.MogiID, TrackID: r.TrackID, Index: r.Index, Position: r.Position, Points: r.Points}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tracks": ts,
		"mogis":  ms,
		"races":  rs,
	})
}
