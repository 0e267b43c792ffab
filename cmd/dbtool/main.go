package main

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"tour-playback-service/internal/adapters/repositories"
	"tour-playback-service/internal/config"
	"tour-playback-service/internal/platform/db"
)

// dbtool prepares a database for the server: schema plus seeded data sets.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	driver := config.Get("DB_DRIVER", "postgres")
	dsn := config.Get("DB_PATH", "data/app.db")
	if driver == "postgres" {
		dsn = config.Get("DATABASE_URL", "")
		if strings.TrimSpace(dsn) == "" {
			log.Fatal("DATABASE_URL is required")
		}
	}

	database, err := db.Open(driver, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/datasets.json")
	initAndSeed(context.Background(), database, driver, seedPath)
}

func initAndSeed(ctx context.Context, database *sql.DB, driver, seedPath string) {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(database); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	stores, err := repositories.NewStores(driver, database)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	log.Println("Seeding datasets...")
	n, err := repositories.SeedFromJSON(ctx, stores.Datasets, seedPath)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("Seeding complete: datasets=%d", n)
}
