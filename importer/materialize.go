package importer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/uptrace/bun"

	"mogitrack/engine"
	"mogitrack/models"
)

// Report summarizes one import run.
type Report struct {
	Shape        Shape `json:"shape"`
	Mogis        int   `json:"mogis"`
	Races        int   `json:"races"`
	SkippedRaces int   `json:"skippedRaces"`
}

// Import parses a raw blob, normalizes it, and creates the sessions and races
// for the target owner in one transaction: either the whole file commits or
// nothing does. The single intentional degradation is per-race: a race whose
// track name cannot be canonicalized is skipped and counted, not fatal.
// At most one non-finalized session may exist per owner, so a blob that would
// leave a second session open is rejected before anything is written.
func Import(ctx context.Context, db *bun.DB, ownerID int, blob []byte) (*Report, error) {
	var data any
	if err := json.Unmarshal(blob, &data); err != nil {
		return nil, &engine.ValidationError{Field: "payload", Msg: "invalid JSON"}
	}

	shape, blocks, err := Normalize(data)
	if err != nil {
		return nil, err
	}

	report := &Report{Shape: shape}
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.User)(nil)).
			Where("id = ?", ownerID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return engine.ErrNotFound
		}

		openUsed, err := tx.NewSelect().Model((*models.Mogi)(nil)).
			Where("owner_id = ?", ownerID).
			Where("NOT finalized").
			Exists(ctx)
		if err != nil {
			return err
		}

		for _, b := range blocks {
			if !b.Finalized {
				if openUsed {
					return &engine.ValidationError{Field: "mogis", Msg: "import would leave more than one session open"}
				}
				openUsed = true
			}
			mogi := &models.Mogi{OwnerID: ownerID, Finalized: b.Finalized, Note: b.Note}
			if _, err := tx.NewInsert().Model(mogi).Exec(ctx); err != nil {
				return err
			}
			report.Mogis++

			for i, r := range b.Races {
				track, err := engine.GetOrCreateTrack(ctx, tx, r.Track)
				var verr *engine.ValidationError
				if errors.As(err, &verr) {
					report.SkippedRaces++
					continue
				}
				if err != nil {
					return err
				}

				idx := r.Index
				if idx == 0 {
					idx = i + 1
				}
				points := engine.PointsForPosition(r.Position)
				if r.Points != nil {
					points = *r.Points
				}

				race := &models.Race{
					MogiID:   mogi.ID,
					TrackID:  track.ID,
					Index:    idx,
					Position: r.Position,
					Points:   points,
				}
				if _, err := tx.NewInsert().Model(race).Exec(ctx); err != nil {
					return err
				}
				report.Races++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
