package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"hangoutz/config"
	"hangoutz/internal/repository"
	"hangoutz/pkg/database"
	"hangoutz/pkg/logger"
)

const usage = `
Hangoutz - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Create or update all tables and constraints
  status      Show database connection and table status
  seed        Seed the database with sample users, events and chats
  reset       Drop all tables and re-run migrations (DANGEROUS)
  truncate    Truncate all tables (DANGEROUS)

Flags:
  -users int    Number of sample users for seed (default 5)
  -events int   Number of sample events for seed (default 6)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed -users 8
`

func main() {
	users := flag.Int("users", 5, "Number of sample users for seed")
	eventCount := flag.Int("events", 6, "Number of sample events for seed")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	l := logger.New(logger.DevelopmentMode)
	defer l.Sync()

	cfg := config.LoadConfig()
	db, err := database.Connect(cfg)
	if err != nil {
		l.Fatalf("❌ %v", err)
	}
	defer database.Close()

	switch command := flag.Arg(0); command {
	case "up":
		runMigrationsUp(l)
	case "status":
		showStatus(l)
	case "seed":
		seedCfg := database.DefaultSeedConfig()
		seedCfg.UserCount = *users
		seedCfg.EventCount = *eventCount
		runSeed(l, repository.NewStore(db), seedCfg)
	case "reset":
		runReset(l)
	case "truncate":
		runTruncate(l)
	default:
		l.Errorf("Unknown command: %s", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(l *logger.Logger) {
	l.Infof("🚀 Running migrations UP...")

	if err := database.Migrate(); err != nil {
		l.Fatalf("❌ Migration failed: %v", err)
	}

	l.Infof("✅ Migrations completed successfully!")
}

func showStatus(l *logger.Logger) {
	l.Infof("🔍 Checking database status...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Ping(ctx); err != nil {
		l.Fatalf("❌ Database connection failed: %v", err)
	}
	l.Infof("✅ Database connection: OK")

	for _, table := range []string{"users", "events", "event_participants", "conversations", "messages"} {
		if !database.TableExists(table) {
			l.Infof("❌ Table %-20s does not exist", table)
			continue
		}
		count, err := database.TableCount(table)
		if err != nil {
			l.Warnf("⚠️  Error counting table %s: %v", table, err)
			continue
		}
		l.Infof("✅ Table %-20s exists (%d rows)", table, count)
	}
}

func runSeed(l *logger.Logger, store repository.Store, cfg *database.SeedConfig) {
	l.Infof("🌱 Seeding database...")

	result, err := database.Seed(context.Background(), store, cfg)
	if err != nil {
		l.Fatalf("❌ Seeding failed: %v", err)
	}

	l.Infof("📊 Seed Summary:")
	l.Infof("   - Users: %d (first phone %s)", len(result.Users), result.Users[0].Phone)
	l.Infof("   - Events: %d", len(result.Events))
	l.Infof("   - Conversations: %d", len(result.Conversations))
	l.Infof("   - Messages: %d", len(result.Messages))
	l.Infof("✅ Seeding completed!")
}

func runReset(l *logger.Logger) {
	l.Warnf("⚠️  WARNING: This will DROP all tables and re-run migrations!")

	if err := database.DropAllTables(); err != nil {
		l.Fatalf("❌ Failed to drop tables: %v", err)
	}
	if err := database.Migrate(); err != nil {
		l.Fatalf("❌ Migration failed: %v", err)
	}

	l.Infof("✅ Database reset completed!")
}

func runTruncate(l *logger.Logger) {
	l.Warnf("⚠️  WARNING: This will TRUNCATE all tables!")

	if err := database.TruncateAllTables(); err != nil {
		l.Fatalf("❌ Truncate failed: %v", err)
	}

	l.Infof("✅ All tables truncated!")
}
