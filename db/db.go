package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"mogitrack/config"
	"mogitrack/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
	db := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// CreateTables creates all tables in dependency order. Unique constraints
// come from the model tags; foreign keys are added separately because races
// must protect their track (merge is the only delete path) while cascading
// from their mogi. The partial unique index on open mogis is what holds the
// one-open-session-per-owner rule under concurrent creates.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Track)(nil),
		(*models.Mogi)(nil),
		(*models.Race)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	constraints := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'mogis_owner_fk') THEN ALTER TABLE mogis ADD CONSTRAINT mogis_owner_fk FOREIGN KEY (owner_id) REFERENCES users (id) ON DELETE CASCADE; END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'races_mogi_fk') THEN ALTER TABLE races ADD CONSTRAINT races_mogi_fk FOREIGN KEY (mogi_id) REFERENCES mogis (id) ON DELETE CASCADE; END IF; END $$`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'races_track_fk') THEN ALTER TABLE races ADD CONSTRAINT races_track_fk FOREIGN KEY (track_id) REFERENCES tracks (id) ON DELETE RESTRICT; END IF; END $$`,
		`CREATE UNIQUE INDEX IF NOT EXISTS mogis_one_open_idx ON mogis (owner_id) WHERE NOT finalized`,
		`CREATE INDEX IF NOT EXISTS mogis_owner_created_idx ON mogis (owner_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS mogis_played_at_idx ON mogis (played_at)`,
	}
	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("constraint: %v", err)
		}
	}

	return nil
}
