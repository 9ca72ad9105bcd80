package main

// Run database migrations:
//   go run ./cmd/migrate
// Print the applied version:
//   go run ./cmd/migrate status

import (
	"context"
	"fmt"
	"log"
	"os"

	"docsearch-backend/internal/shared/config"
	"docsearch-backend/internal/shared/storage/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	ctx := context.Background()

	sqlDB, dialect, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if len(os.Args) > 1 && os.Args[1] == "status" {
		version, err := db.MigrationStatus(ctx, sqlDB, dialect)
		if err != nil {
			log.Printf("failed to read migration status: %v", err)
			os.Exit(1)
		}
		fmt.Printf("%s schema version %d\n", dialect, version)
		return
	}

	if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
