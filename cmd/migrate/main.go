package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"freelance-chat/config"
	"freelance-chat/pkg/database"

	"github.com/jackc/pgx/v5/pgxpool"
)

const usage = `
Freelance Chat - Database CLI Tool

Usage:
  migrate [flags] [command]

Commands:
  up          Apply every *.up.sql migration in order
  down        Apply every *.down.sql migration in reverse order
  status      Show connection status and chat table row counts
  seed        Create users and profiles for the given logins

Flags:
  -migrations string   Path to migrations directory (default "migrations")
  -logins string       Comma separated logins for seed (default "alice,bob")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go -logins alice,bob,carol seed
  go run cmd/migrate/main.go status
`

var chatTables = []string{"jhi_user", "profile", "conversation", "message"}

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")
	logins := flag.String("logins", "alice,bob", "Comma separated logins for seed")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer pool.Close()

	switch command {
	case "up":
		runMigrations(ctx, pool, *migrationsDir, database.DirectionUp)
	case "down":
		runMigrations(ctx, pool, *migrationsDir, database.DirectionDown)
	case "status":
		showStatus(ctx, pool)
	case "seed":
		runSeed(ctx, pool, strings.Split(*logins, ","))
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, dir, direction string) {
	log.Printf("Running migrations %s...", strings.ToUpper(direction))

	applied, err := database.ApplyMigrations(ctx, pool, dir, direction, log.Printf)
	if err != nil {
		log.Fatalf("Migration failed after %d file(s): %v", len(applied), err)
	}

	log.Printf("Migrations completed successfully (%d file(s))", len(applied))
}

func showStatus(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Checking database status...")

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	for _, table := range chatTables {
		exists, err := database.TableExists(ctx, pool, table)
		if err != nil {
			log.Printf("Error checking table %s: %v", table, err)
			continue
		}
		if !exists {
			log.Printf("Table %-14s does not exist", table)
			continue
		}
		count, err := database.TableCount(ctx, pool, table)
		if err != nil {
			log.Printf("Error counting table %s: %v", table, err)
			continue
		}
		log.Printf("Table %-14s exists (%d rows)", table, count)
	}
}

func runSeed(ctx context.Context, pool *pgxpool.Pool, logins []string) {
	log.Println("Seeding profiles...")

	ids, err := database.SeedProfiles(ctx, pool, logins)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	for login, id := range ids {
		log.Printf("  %-20s profile id %d", login, id)
	}
	log.Println("Seeding completed")
}
