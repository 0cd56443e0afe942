package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-mealbox/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	queries := store.New(pool)
	seedPlans(ctx, queries)

	log.Println("Seeding completed successfully!")
}

func seedPlans(ctx context.Context, queries *store.Queries) {
	plans := []store.Plan{
		{ID: "weight-loss", Name: "Weight Loss", Multiplier: 1.0},
		{ID: "balanced", Name: "Balanced", Multiplier: 1.05},
		{ID: "muscle-gain", Name: "Muscle Gain", Multiplier: 1.15},
		{ID: "keto", Name: "Keto", Multiplier: 1.2},
	}

	fmt.Println("Seeding Plans...")
	for _, p := range plans {
		if err := queries.UpsertPlan(ctx, p); err != nil {
			log.Printf("Failed to seed plan %s: %v", p.ID, err)
		}
	}
}
