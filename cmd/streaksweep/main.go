// Command streaksweep resets streaks for users who missed a due ritual
// on the given day. It is intended to run once per day, after the day
// it checks has ended.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/ritual/internal/config"
	persistence "example.com/ritual/internal/persistence/postgres"
	"example.com/ritual/internal/streak"
)

func main() {
	dayFlag := flag.String("day", "", "day to sweep as YYYY-MM-DD (default: yesterday)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall sweep timeout")
	flag.Parse()

	day := time.Now().UTC().AddDate(0, 0, -1)
	if *dayFlag != "" {
		parsed, err := time.Parse(time.DateOnly, *dayFlag)
		if err != nil {
			log.Fatalf("invalid -day %q: %v", *dayFlag, err)
		}
		day = parsed
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	sweeper := streak.NewSweeper(persistence.NewRepository(pool))
	resets, err := sweeper.Sweep(ctx, day)
	if err != nil {
		log.Fatalf("sweep failed after %d resets: %v", resets, err)
	}
	log.Printf("sweep complete for %s: %d streaks reset", day.Format(time.DateOnly), resets)
}
