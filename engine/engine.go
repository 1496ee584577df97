// Package engine implements the mogi session lifecycle: finding the owner's
// current open session, adding races with position-based points, undo/reset,
// and finalization. Every mutating operation runs inside a single bun
// transaction so partial state is never visible.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/uptrace/bun"

	"mogitrack/models"
)

// MaxRaces is the fixed mogi length.
const MaxRaces = 12

// defaultPoints maps finishing position to points. Positions outside 1..12
// score 0.
var defaultPoints = map[int]int{
	1: 15, 2: 12, 3: 10, 4: 9, 5: 8, 6: 7,
	7: 6, 8: 5, 9: 4, 10: 3, 11: 2, 12: 1,
}

// PointsForPosition returns the default points for a finishing position.
func PointsForPosition(position int) int {
	return defaultPoints[position]
}

// CurrentMogi returns the owner's oldest non-finalized mogi, creating one if
// none exists. Callers that mutate must pass their transaction so the
// find-or-create stays atomic with the rest of the operation. The partial
// unique index on open mogis turns the loser of a concurrent create into a
// no-op and the re-read lands on the surviving row, the same discipline as
// GetOrCreateTrack.
func CurrentMogi(ctx context.Context, idb bun.IDB, ownerID int) (*models.Mogi, error) {
	m, err := openMogi(ctx, idb, ownerID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	_, err = idb.NewInsert().Model(&models.Mogi{OwnerID: ownerID}).
		On("CONFLICT (owner_id) WHERE NOT finalized DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	// Re-read so DB-assigned timestamps are populated.
	return openMogi(ctx, idb, ownerID)
}

func openMogi(ctx context.Context, idb bun.IDB, ownerID int) (*models.Mogi, error) {
	m := new(models.Mogi)
	err := idb.NewSelect().Model(m).
		Where("owner_id = ?", ownerID).
		Where("NOT finalized").
		OrderExpr("created_at ASC, id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// AddRace validates input, resolves the owner's current mogi and the track,
// and appends a race at the next free index. The whole operation is one
// transaction; the unique (mogi, index) constraint backstops concurrent adds.
func AddRace(ctx context.Context, db *bun.DB, ownerID int, trackRaw string, position int) (mogiID, nextIndex int, err error) {
	if strings.TrimSpace(trackRaw) == "" {
		return 0, 0, &ValidationError{Field: "track", Msg: "track name is required"}
	}
	if position < 1 || position > MaxRaces {
		return 0, 0, &ValidationError{Field: "position", Msg: "position must be between 1 and 12"}
	}

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		mogi, err := CurrentMogi(ctx, tx, ownerID)
		if err != nil {
			return err
		}

		var maxIndex int
		err = tx.NewSelect().Model((*models.Race)(nil)).
			ColumnExpr("COALESCE(MAX(race_index), 0)").
			Where("mogi_id = ?", mogi.ID).
			Scan(ctx, &maxIndex)
		if err != nil {
			return err
		}
		if maxIndex+1 > MaxRaces {
			return ErrMogiFull
		}

		track, err := GetOrCreateTrack(ctx, tx, trackRaw)
		if err != nil {
			return err
		}

		race := &models.Race{
			MogiID:   mogi.ID,
			TrackID:  track.ID,
			Index:    maxIndex + 1,
			Position: position,
			Points:   PointsForPosition(position),
		}
		if _, err := tx.NewInsert().Model(race).Exec(ctx); err != nil {
			return err
		}

		mogiID, nextIndex = mogi.ID, race.Index
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return mogiID, nextIndex, nil
}

// UndoLast removes the highest-index race in the current mogi. A mogi with no
// races is a no-op, not an error.
func UndoLast(ctx context.Context, db *bun.DB, ownerID int) (removed bool, err error) {
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		mogi, err := CurrentMogi(ctx, tx, ownerID)
		if err != nil {
			return err
		}

		last := new(models.Race)
		err = tx.NewSelect().Model(last).
			Where("mogi_id = ?", mogi.ID).
			OrderExpr("race_index DESC").
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model(last).WherePK().Exec(ctx); err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

// ResetCurrent deletes all races in the current mogi. The mogi row itself
// persists.
func ResetCurrent(ctx context.Context, db *bun.DB, ownerID int) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		mogi, err := CurrentMogi(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*models.Race)(nil)).
			Where("mogi_id = ?", mogi.ID).
			Exec(ctx)
		return err
	})
}

// FinalizeCurrent marks the current mogi finalized once it has exactly 12
// races. The next CurrentMogi call naturally opens a fresh session.
func FinalizeCurrent(ctx context.Context, db *bun.DB, ownerID int) (mogiID int, err error) {
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		mogi, err := CurrentMogi(ctx, tx, ownerID)
		if err != nil {
			return err
		}

		count, err := tx.NewSelect().Model((*models.Race)(nil)).
			Where("mogi_id = ?", mogi.ID).
			Count(ctx)
		if err != nil {
			return err
		}
		if count != MaxRaces {
			return ErrNotComplete
		}

		_, err = tx.NewUpdate().Model(mogi).
			Set("finalized = ?", true).
			WherePK().
			Exec(ctx)
		mogiID = mogi.ID
		return err
	})
	return mogiID, err
}

// MogiByID fetches a mogi and enforces ownership.
func MogiByID(ctx context.Context, idb bun.IDB, ownerID, mogiID int) (*models.Mogi, error) {
	m := new(models.Mogi)
	err := idb.NewSelect().Model(m).
		Where("id = ?", mogiID).
		Where("owner_id = ?", ownerID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FinalizedNumbering numbers the owner's finalized mogis 1..N oldest first.
// The numbering is derived, never stored, and is recomputed on every call so
// it stays independent of whatever sort the caller displays.
func FinalizedNumbering(ctx context.Context, idb bun.IDB, ownerID int) (map[int]int, error) {
	var ids []int
	err := idb.NewSelect().Model((*models.Mogi)(nil)).
		Column("id").
		Where("owner_id = ?", ownerID).
		Where("finalized").
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}

	numbering := make(map[int]int, len(ids))
	for i, id := range ids {
		numbering[id] = i + 1
	}
	return numbering, nil
}

// Summarize computes the derived view of one mogi.
func Summarize(ctx context.Context, idb bun.IDB, mogi *models.Mogi) (*models.MogiSummary, error) {
	var agg struct {
		RaceCount   int     `bun:"race_count"`
		TotalPoints int     `bun:"total_points"`
		AvgFinish   float64 `bun:"avg_finish"`
	}
	err := idb.NewSelect().Model((*models.Race)(nil)).
		ColumnExpr("COUNT(*) AS race_count").
		ColumnExpr("COALESCE(SUM(points), 0) AS total_points").
		ColumnExpr("COALESCE(AVG(position), 0) AS avg_finish").
		Where("mogi_id = ?", mogi.ID).
		Scan(ctx, &agg)
	if err != nil {
		return nil, err
	}

	return &models.MogiSummary{
		ID:          mogi.ID,
		CreatedAt:   mogi.CreatedAt,
		PlayedAt:    mogi.PlayedAt,
		Finalized:   mogi.Finalized,
		Note:        mogi.Note,
		RaceCount:   agg.RaceCount,
		TotalPoints: agg.TotalPoints,
		AvgFinish:   math.Round(agg.AvgFinish*100) / 100,
	}, nil
}
