package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"mogitrack/engine"
	"mogitrack/importer"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	db     *bun.DB
	JWTKey []byte

	// AdminUsers are the usernames allowed to call maintenance endpoints.
	AdminUsers []string
}

// New creates a Handler with the given database connection and JWT signing key.
func New(db *bun.DB, jwtKey []byte) *Handler {
	return &Handler{db: db, JWTKey: jwtKey}
}

// ownerID returns the authenticated user's id set by the JWT middleware.
func ownerID(c echo.Context) int {
	id, _ := c.Get("user_id").(int)
	return id
}

// httpError maps domain errors onto HTTP statuses. Rejections (validation,
// capacity, precondition, unrecognized format, dangling references) are 400s;
// missing or foreign-owned records are 404s; anything else is a 500.
func httpError(err error) *echo.HTTPError {
	var verr *engine.ValidationError
	var rerr *importer.ReferenceError
	switch {
	case errors.As(err, &verr),
		errors.As(err, &rerr),
		errors.Is(err, engine.ErrMogiFull),
		errors.Is(err, engine.ErrNotComplete),
		errors.Is(err, importer.ErrUnrecognizedFormat):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
