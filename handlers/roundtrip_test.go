package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"mogitrack/engine"
	"mogitrack/handlers"
	"mogitrack/models"
	"mogitrack/testutil"
)

func newContext(t *testing.T, method, target, body string, userID int) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func seedFullMogi(t *testing.T, db *bun.DB, owner int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		_, _, err := engine.AddRace(ctx, db, owner, fmt.Sprintf("track %d", i), i)
		require.NoError(t, err)
	}
	_, err := engine.FinalizeCurrent(ctx, db, owner)
	require.NoError(t, err)
}

// Exporting a user's data and importing it for a fresh user reproduces the
// same sessions, race counts, positions, and points; raw track ids may differ
// but resolve to the same canonical names.
func TestExportImportRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	h := handlers.New(db, []byte("test-key"))

	alice := testutil.NewUser(t, db, "alice")
	bob := testutil.NewUser(t, db, "bob")

	seedFullMogi(t, db, alice)
	seedFullMogi(t, db, alice)
	// A third, partial session.
	_, _, err := engine.AddRace(ctx, db, alice, "bowser castle 2", 4)
	require.NoError(t, err)

	c, rec := newContext(t, http.MethodGet, "/api/export", "", alice)
	require.NoError(t, h.Export(c))
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()

	c, rec = newContext(t, http.MethodPost, "/api/import", exported, bob)
	require.NoError(t, h.Import(c))
	require.Equal(t, http.StatusOK, rec.Code)

	type counts struct {
		mogis     int
		races     int
		positions map[int]int
		points    int
	}
	collect := func(owner int) counts {
		var out counts
		var err error
		out.mogis, err = db.NewSelect().Model((*models.Mogi)(nil)).
			Where("owner_id = ?", owner).Count(ctx)
		require.NoError(t, err)
		out.races, err = db.NewSelect().Model((*models.Race)(nil)).
			Join("INNER JOIN mogis AS m ON m.id = r.mogi_id").
			Where("m.owner_id = ?", owner).Count(ctx)
		require.NoError(t, err)

		var rows []struct {
			Position int `bun:"position"`
			N        int `bun:"n"`
		}
		err = db.NewRaw(`SELECT r.position, COUNT(*) AS n FROM races r
			INNER JOIN mogis m ON m.id = r.mogi_id
			WHERE m.owner_id = ? GROUP BY r.position`, owner).Scan(ctx, &rows)
		require.NoError(t, err)
		out.positions = map[int]int{}
		for _, row := range rows {
			out.positions[row.Position] = row.N
		}

		err = db.NewRaw(`SELECT COALESCE(SUM(r.points), 0) FROM races r
			INNER JOIN mogis m ON m.id = r.mogi_id
			WHERE m.owner_id = ?`, owner).Scan(ctx, &out.points)
		require.NoError(t, err)
		return out
	}

	got, want := collect(bob), collect(alice)
	assert.Equal(t, want.mogis, got.mogis)
	assert.Equal(t, want.races, got.races)
	assert.Equal(t, want.positions, got.positions)
	assert.Equal(t, want.points, got.points)

	// The shared catalog still holds one row per canonical name.
	var names []string
	err = db.NewSelect().Model((*models.Track)(nil)).Column("name").Scan(ctx, &names)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate canonical name %q", n)
		seen[n] = true
	}
	assert.True(t, seen["bowser's castle"])
}

func TestAddRaceEndpointValidation(t *testing.T) {
	db := testutil.NewDB(t)
	h := handlers.New(db, []byte("test-key"))
	owner := testutil.NewUser(t, db, "alice")

	for _, body := range []string{
		`{"track": "", "position": 3}`,
		`{"track": "rainbow road", "position": 0}`,
		`{"track": "rainbow road", "position": 13}`,
	} {
		c, _ := newContext(t, http.MethodPost, "/api/races", body, owner)
		err := h.AddRace(c)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr, "body %s", body)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	}

	count, err := db.NewSelect().Model((*models.Race)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
