package main

import (
	"context"
	"log"
	"os"

	"github.com/safar/store-admin/internal/config"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/run_migrations.go [up|down]")
	}

	direction := os.Args[1]

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	n, err := migrations.Run(ctx, db, direction, func(name string) {
		log.Printf("Running migration: %s", name)
	})
	if err != nil {
		log.Fatalf("Migrate %s: %v", direction, err)
	}

	log.Printf("Successfully ran %d migration(s) %s", n, direction)
}
