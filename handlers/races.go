package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"mogitrack/engine"
)

type addRaceRequest struct {
	Track    string `json:"track"`
	Position int    `json:"position"`
}

// AddRace appends a race to the caller's current mogi.
func (h *Handler) AddRace(c echo.Context) error {
	var req addRaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	mogiID, nextIndex, err := engine.AddRace(c.Request().Context(), h.db, ownerID(c), req.Track, req.Position)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"mogiID":    mogiID,
		"nextIndex": nextIndex,
	})
}

// UndoLast removes the highest-index race in the current mogi.
func (h *Handler) UndoLast(c echo.Context) error {
	removed, err := engine.UndoLast(c.Request().Context(), h.db, ownerID(c))
	if err != nil {
		return httpError(err)
	}
	if !removed {
		return c.JSON(http.StatusOK, map[string]any{"ok": false, "error": "no races to undo"})
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// ResetCurrent clears all races in the current mogi.
func (h *Handler) ResetCurrent(c echo.Context) error {
	if err := engine.ResetCurrent(c.Request().Context(), h.db, ownerID(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// FinalizeCurrent locks the current mogi once it has 12 races.
func (h *Handler) FinalizeCurrent(c echo.Context) error {
	mogiID, err := engine.FinalizeCurrent(c.Request().Context(), h.db, ownerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "mogiID": mogiID})
}
