// cmd/importmogi/main.go
// Imports historical mogi data for a user from a JSON file. The shape of the
// file is auto-detected: the linked export format, nested mogi lists, or flat
// race histories (grouped by key or chunked into mogis of 12).
//
// Usage:
//
//	go run ./cmd/importmogi -username alice -file export.json [-dry-run]
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"

	"mogitrack/config"
	bundb "mogitrack/db"
	"mogitrack/importer"
	"mogitrack/models"
)

func main() {
	username := flag.String("username", "", "user who will own the imported data (required)")
	file := flag.String("file", "", "path to JSON file (required)")
	dryRun := flag.Bool("dry-run", false, "parse and summarize without saving")
	flag.Parse()

	if *username == "" || *file == "" {
		log.Fatal("both -username and -file are required")
	}

	blob, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	if *dryRun {
		var data any
		if err := json.Unmarshal(blob, &data); err != nil {
			log.Fatalf("parse JSON: %v", err)
		}
		shape, blocks, err := importer.Normalize(data)
		if err != nil {
			log.Fatalf("normalize: %v", err)
		}
		races := 0
		for _, b := range blocks {
			races += len(b.Races)
		}
		log.Printf("detected shape %s: %d mogis, %d races (dry run, nothing saved)", shape, len(blocks), races)
		return
	}

	ctx := context.Background()
	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	user := new(models.User)
	err = db.NewSelect().Model(user).Where("username = ?", *username).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("user %q not found; create the user first", *username)
	}
	if err != nil {
		log.Fatalf("look up user: %v", err)
	}

	report, err := importer.Import(ctx, db, user.ID, blob)
	if err != nil {
		log.Fatalf("import: %v", err)
	}

	log.Printf("imported %d mogis and %d races for user %q (shape %s, %d races skipped)",
		report.Mogis, report.Races, *username, report.Shape, report.SkippedRaces)
}
