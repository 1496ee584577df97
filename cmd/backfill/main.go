// cmd/backfill/main.go
// Backfills mogis.played_at in chronological order per owner (oldest ->
// newest), spacing rows one minute apart so ordering stays strict.
//
// Usage:
//
//	go run ./cmd/backfill [-username alice]
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"mogitrack/config"
	bundb "mogitrack/db"
	"mogitrack/models"
)

func main() {
	username := flag.String("username", "", "only backfill this user (optional)")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	ownersQ := db.NewSelect().Model((*models.Mogi)(nil)).
		ColumnExpr("DISTINCT owner_id")
	if *username != "" {
		ownersQ = ownersQ.Join("INNER JOIN users AS u ON u.id = m.owner_id").
			Where("u.username = ?", *username)
	}

	var ownerIDs []int
	if err := ownersQ.Scan(ctx, &ownerIDs); err != nil {
		log.Fatalf("list owners: %v", err)
	}

	// Any stable base in the past works; ordering is what matters.
	base := time.Now().AddDate(-1, 0, 0)

	count := 0
	for _, ownerID := range ownerIDs {
		var mogis []*models.Mogi
		err := db.NewSelect().Model(&mogis).
			Where("owner_id = ?", ownerID).
			OrderExpr("id ASC").
			Scan(ctx)
		if err != nil {
			log.Fatalf("list mogis for owner %d: %v", ownerID, err)
		}

		for i, m := range mogis {
			m.PlayedAt = base.Add(time.Duration(i) * time.Minute)
		}
		if len(mogis) > 0 {
			_, err = db.NewUpdate().Model(&mogis).Column("played_at").Bulk().Exec(ctx)
			if err != nil {
				log.Fatalf("update owner %d: %v", ownerID, err)
			}
		}
		count += len(mogis)
	}

	log.Printf("backfilled played_at on %d mogis", count)
}
