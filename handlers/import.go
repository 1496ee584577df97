package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"mogitrack/importer"
)

// Import bulk-loads a historical data blob for the caller. The body may be
// any of the recognized shapes; the whole file commits or nothing does.
func (h *Handler) Import(c echo.Context) error {
	blob, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	report, err := importer.Import(c.Request().Context(), h.db, ownerID(c), blob)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":     true,
		"report": report,
	})
}
