package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mogitrack/engine"
	"mogitrack/models"
	"mogitrack/testutil"
)

func TestCurrentMogiFindOrCreate(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	first, err := engine.CurrentMogi(ctx, db, owner)
	require.NoError(t, err)
	assert.False(t, first.Finalized)
	assert.False(t, first.CreatedAt.IsZero())

	// A second call finds the same open mogi, it does not create another.
	again, err := engine.CurrentMogi(ctx, db, owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// Another owner gets their own session.
	other := testutil.NewUser(t, db, "bob")
	theirs, err := engine.CurrentMogi(ctx, db, other)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, theirs.ID)
}

func TestOneOpenMogiPerOwner(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	first, err := engine.CurrentMogi(ctx, db, owner)
	require.NoError(t, err)

	// A second open row for the same owner is rejected at the database, so
	// interleaved creates can never leave two sessions open.
	_, err = db.NewInsert().Model(&models.Mogi{OwnerID: owner}).Exec(ctx)
	require.Error(t, err)

	again, err := engine.CurrentMogi(ctx, db, owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// Finalized rows are not limited.
	done := &models.Mogi{OwnerID: owner, Finalized: true}
	_, err = db.NewInsert().Model(done).Exec(ctx)
	require.NoError(t, err)

	open, err := db.NewSelect().Model((*models.Mogi)(nil)).
		Where("owner_id = ?", owner).
		Where("NOT finalized").
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, open)
}

func TestAddRaceValidation(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	tests := []struct {
		name     string
		track    string
		position int
	}{
		{"empty track", "", 3},
		{"blank track", "   ", 3},
		{"position zero", "rainbow road", 0},
		{"position thirteen", "rainbow road", 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := engine.AddRace(ctx, db, owner, tt.track, tt.position)
			var verr *engine.ValidationError
			require.ErrorAs(t, err, &verr)

			count, err := db.NewSelect().Model((*models.Race)(nil)).Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count, "no race may be created on rejection")
		})
	}
}

func TestAddRaceAssignsSequentialIndexes(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	mogiID, idx, err := engine.AddRace(ctx, db, owner, "rainbow road", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, idx, err = engine.AddRace(ctx, db, owner, "moo moo farm", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	var indexes []int
	err = db.NewSelect().Model((*models.Race)(nil)).
		Column("race_index").
		Where("mogi_id = ?", mogiID).
		OrderExpr("race_index ASC").
		Scan(ctx, &indexes)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, indexes)
}

func TestAddRaceDefaultPoints(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	mogiID, _, err := engine.AddRace(ctx, db, owner, "rainbow road", 1)
	require.NoError(t, err)
	_, _, err = engine.AddRace(ctx, db, owner, "rainbow road", 12)
	require.NoError(t, err)

	var points []int
	err = db.NewSelect().Model((*models.Race)(nil)).
		Column("points").
		Where("mogi_id = ?", mogiID).
		OrderExpr("race_index ASC").
		Scan(ctx, &points)
	require.NoError(t, err)
	assert.Equal(t, []int{15, 1}, points)
}

func TestAddRaceCapacity(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	var mogiID int
	for i := 1; i <= 12; i++ {
		id, _, err := engine.AddRace(ctx, db, owner, fmt.Sprintf("track %d", i), i)
		require.NoError(t, err)
		mogiID = id
	}

	_, _, err := engine.AddRace(ctx, db, owner, "one too many", 1)
	require.ErrorIs(t, err, engine.ErrMogiFull)

	count, err := db.NewSelect().Model((*models.Race)(nil)).
		Where("mogi_id = ?", mogiID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, count, "the 12 existing races are unchanged")
}

func TestUndoLast(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	// Empty mogi: no-op, not an error.
	removed, err := engine.UndoLast(ctx, db, owner)
	require.NoError(t, err)
	assert.False(t, removed)

	mogiID, _, err := engine.AddRace(ctx, db, owner, "rainbow road", 1)
	require.NoError(t, err)
	_, _, err = engine.AddRace(ctx, db, owner, "moo moo farm", 2)
	require.NoError(t, err)

	removed, err = engine.UndoLast(ctx, db, owner)
	require.NoError(t, err)
	assert.True(t, removed)

	var indexes []int
	err = db.NewSelect().Model((*models.Race)(nil)).
		Column("race_index").
		Where("mogi_id = ?", mogiID).
		Scan(ctx, &indexes)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indexes, "highest index removed first")
}

func TestResetCurrent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	mogiID, _, err := engine.AddRace(ctx, db, owner, "rainbow road", 1)
	require.NoError(t, err)
	_, _, err = engine.AddRace(ctx, db, owner, "moo moo farm", 2)
	require.NoError(t, err)

	require.NoError(t, engine.ResetCurrent(ctx, db, owner))

	count, err := db.NewSelect().Model((*models.Race)(nil)).
		Where("mogi_id = ?", mogiID).
		Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The mogi row itself persists.
	current, err := engine.CurrentMogi(ctx, db, owner)
	require.NoError(t, err)
	assert.Equal(t, mogiID, current.ID)
}

func TestFinalizeCurrent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	// Empty and partial mogis cannot be finalized.
	_, err := engine.FinalizeCurrent(ctx, db, owner)
	require.ErrorIs(t, err, engine.ErrNotComplete)

	for i := 1; i <= 11; i++ {
		_, _, err := engine.AddRace(ctx, db, owner, fmt.Sprintf("track %d", i), i)
		require.NoError(t, err)
	}
	_, err = engine.FinalizeCurrent(ctx, db, owner)
	require.ErrorIs(t, err, engine.ErrNotComplete)

	firstID, _, err := engine.AddRace(ctx, db, owner, "track 12", 12)
	require.NoError(t, err)

	mogiID, err := engine.FinalizeCurrent(ctx, db, owner)
	require.NoError(t, err)
	assert.Equal(t, firstID, mogiID)

	// The current pointer advances to a fresh session.
	next, err := engine.CurrentMogi(ctx, db, owner)
	require.NoError(t, err)
	assert.NotEqual(t, mogiID, next.ID)
	assert.False(t, next.Finalized)
}

func TestFinalizedNumbering(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	var finalized []int
	for n := 0; n < 3; n++ {
		for i := 1; i <= 12; i++ {
			_, _, err := engine.AddRace(ctx, db, owner, fmt.Sprintf("track %d", i), i)
			require.NoError(t, err)
		}
		id, err := engine.FinalizeCurrent(ctx, db, owner)
		require.NoError(t, err)
		finalized = append(finalized, id)
	}

	numbering, err := engine.FinalizedNumbering(ctx, db, owner)
	require.NoError(t, err)
	require.Len(t, numbering, 3)
	for i, id := range finalized {
		assert.Equal(t, i+1, numbering[id], "oldest mogi is number 1")
	}
}

func TestSummarize(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.NewUser(t, db, "alice")

	mogi, err := engine.CurrentMogi(ctx, db, owner)
	require.NoError(t, err)

	empty, err := engine.Summarize(ctx, db, mogi)
	require.NoError(t, err)
	assert.Zero(t, empty.RaceCount)
	assert.Zero(t, empty.TotalPoints)
	assert.Equal(t, 0.0, empty.AvgFinish)

	_, _, err = engine.AddRace(ctx, db, owner, "rainbow road", 1)
	require.NoError(t, err)
	_, _, err = engine.AddRace(ctx, db, owner, "moo moo farm", 2)
	require.NoError(t, err)

	sum, err := engine.Summarize(ctx, db, mogi)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.RaceCount)
	assert.Equal(t, 27, sum.TotalPoints) // 15 + 12
	assert.Equal(t, 1.5, sum.AvgFinish)
	assert.False(t, sum.IsComplete())
}
