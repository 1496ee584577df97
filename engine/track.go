package engine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"mogitrack/canon"
	"mogitrack/models"
)

// GetOrCreateTrack canonicalizes a raw name and upserts the catalog entry.
// The unique constraint on name is the concurrency-safety mechanism: a
// concurrent insert of the same canonical name turns this call's insert into
// a no-op and the follow-up fetch returns the surviving row.
func GetOrCreateTrack(ctx context.Context, idb bun.IDB, raw string) (*models.Track, error) {
	name := canon.Canonicalize(raw)
	if name == "" {
		return nil, &ValidationError{Field: "track", Msg: "track name is required"}
	}

	_, err := idb.NewInsert().
		Model(&models.Track{Name: name, Slug: canon.SlugFor(name)}).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	track := new(models.Track)
	if err := idb.NewSelect().Model(track).Where("name = ?", name).Scan(ctx); err != nil {
		return nil, err
	}
	return track, nil
}

// TrackBySlug fetches a catalog entry by its slug.
func TrackBySlug(ctx context.Context, idb bun.IDB, slug string) (*models.Track, error) {
	track := new(models.Track)
	err := idb.NewSelect().Model(track).Where("slug = ?", slug).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return track, nil
}

// RecanonicalizeAll recomputes every track's canonical name and slug, merging
// duplicates into the first-seen survivor: races are reassigned, then the
// duplicate row is deleted. Running it twice produces no further changes.
func RecanonicalizeAll(ctx context.Context, db *bun.DB) (merged int, err error) {
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var tracks []*models.Track
		if err := tx.NewSelect().Model(&tracks).OrderExpr("id ASC").Scan(ctx); err != nil {
			return err
		}

		seen := make(map[string]*models.Track, len(tracks))
		for _, tr := range tracks {
			name := canon.Canonicalize(tr.Name)

			if survivor, ok := seen[name]; ok {
				_, err := tx.NewUpdate().Model((*models.Race)(nil)).
					Set("track_id = ?", survivor.ID).
					Where("track_id = ?", tr.ID).
					Exec(ctx)
				if err != nil {
					return err
				}
				if _, err := tx.NewDelete().Model(tr).WherePK().Exec(ctx); err != nil {
					return err
				}
				merged++
				continue
			}

			if slug := canon.SlugFor(name); name != tr.Name || slug != tr.Slug {
				tr.Name, tr.Slug = name, slug
				_, err := tx.NewUpdate().Model(tr).
					Column("name", "slug").
					WherePK().
					Exec(ctx)
				if err != nil {
					return err
				}
			}
			seen[name] = tr
		}
		return nil
	})
	return merged, err
}
