package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mogitrack/engine"
	"mogitrack/models"
	"mogitrack/testutil"
)

func TestGetOrCreateTrack(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	track, err := engine.GetOrCreateTrack(ctx, db, "  Rainbow   Road ")
	require.NoError(t, err)
	assert.Equal(t, "rainbow road", track.Name)
	assert.Equal(t, "rainbow-road", track.Slug)

	// Every spelling that canonicalizes the same resolves to the same row.
	for _, raw := range []string{"rainbow road", "RAINBOW ROAD", " rainbow  road"} {
		same, err := engine.GetOrCreateTrack(ctx, db, raw)
		require.NoError(t, err)
		assert.Equal(t, track.ID, same.ID, "raw %q", raw)
	}

	count, err := db.NewSelect().Model((*models.Track)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetOrCreateTrackAliases(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	first, err := engine.GetOrCreateTrack(ctx, db, "Bowser Castle 1")
	require.NoError(t, err)
	assert.Equal(t, "bowser's castle", first.Name)

	second, err := engine.GetOrCreateTrack(ctx, db, "BC")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateTrackRejectsEmpty(t *testing.T) {
	db := testutil.NewDB(t)

	_, err := engine.GetOrCreateTrack(context.Background(), db, "   ")
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRecanonicalizeAllMergesDuplicates(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	// Seed pre-canonicalization rows as an old database would hold them.
	variants := []*models.Track{
		{Name: "bowser's castle", Slug: "bowser-s-castle"},
		{Name: "bowser castle 2", Slug: "bowser-castle-2"},
		{Name: "bc", Slug: "bc"},
		{Name: "rainbow road", Slug: "rainbow-road"},
	}
	for _, tr := range variants {
		_, err := db.NewInsert().Model(tr).Exec(ctx)
		require.NoError(t, err)
	}

	mogi, err := engine.CurrentMogi(ctx, db, owner)
	require.NoError(t, err)
	for i, tr := range variants[:3] {
		race := &models.Race{MogiID: mogi.ID, TrackID: tr.ID, Index: i + 1, Position: 1, Points: 15}
		_, err := db.NewInsert().Model(race).Exec(ctx)
		require.NoError(t, err)
	}

	merged, err := engine.RecanonicalizeAll(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	// All three races now point at the surviving canonical track.
	var trackIDs []int
	err = db.NewSelect().Model((*models.Race)(nil)).
		ColumnExpr("DISTINCT track_id").
		Where("mogi_id = ?", mogi.ID).
		Scan(ctx, &trackIDs)
	require.NoError(t, err)
	require.Len(t, trackIDs, 1)
	assert.Equal(t, variants[0].ID, trackIDs[0])

	count, err := db.NewSelect().Model((*models.Track)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "duplicates deleted, rainbow road untouched")

	// Idempotent: a second run changes nothing.
	merged, err = engine.RecanonicalizeAll(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, merged)
}
