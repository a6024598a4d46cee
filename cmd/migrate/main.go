package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/joho/godotenv"

	"ms-ledger/internal/config"
	"ms-ledger/internal/database/migrations"
	"ms-ledger/internal/models"
)

func main() {
	seed := flag.Bool("seed", false, "insert sample data after migrating")
	dir := flag.String("dir", "./migrations", "migrations directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL: %v", err)
	}
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	runner := migrations.NewRunner(db, migrations.MigrateOptions{
		MigrationsDir: *dir,
		AutoMigrate:   true,
	})

	log.Println("Applying migrations...")
	if err := runner.Up(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *seed {
		log.Println("Seeding sample data...")
		if err := seedData(ctx, db); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
	}

	log.Println("Done.")
}

func seedData(ctx context.Context, db *bun.DB) error {
	event := models.Event{
		ID:          "evt_sample001",
		Name:        "Summer Fest 2026",
		Description: "Annual summer music festival.",
		Venue:       "Riverside Grounds",
		StartDate:   time.Now().AddDate(0, 1, 0),
		EndDate:     time.Now().AddDate(0, 1, 3),
		CreatedAt:   time.Now(),
	}
	if _, err := db.NewInsert().Model(&event).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
		return err
	}

	tiers := []models.TierSeat{
		{EventID: event.ID, Tier: "vip", Capacity: 50, Price: 250},
		{EventID: event.ID, Tier: "standard", Capacity: 300, Price: 90},
		{EventID: event.ID, Tier: "economy", Capacity: 650, Price: 40},
	}
	if _, err := db.NewInsert().Model(&tiers).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
		return err
	}

	return nil
}
