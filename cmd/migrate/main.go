package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS group_members (
			chat_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			user_name TEXT NOT NULL,
			last_proposal_at TIMESTAMPTZ DEFAULT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS member_count (
			id INTEGER PRIMARY KEY,
			count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS votes_in_progress (
			vote_type TEXT PRIMARY KEY,
			is_active BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// seedData initializes the aggregate count row and the vote-state rows, and
// resets every vote flag to inactive
func seedData(ctx context.Context, conn *pgx.Conn) error {
	if _, err := conn.Exec(ctx, `
		INSERT INTO member_count (id, count) VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING
	`); err != nil {
		return fmt.Errorf("failed to seed member count: %w", err)
	}

	for _, category := range []string{"group_photo", "add_member", "remove_member"} {
		if _, err := conn.Exec(ctx, `
			INSERT INTO votes_in_progress (vote_type, is_active) VALUES ($1, FALSE)
			ON CONFLICT (vote_type) DO UPDATE SET is_active = FALSE
		`, category); err != nil {
			return fmt.Errorf("failed to seed vote state %s: %w", category, err)
		}
	}
	return nil
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	for _, table := range []string{"votes_in_progress", "member_count", "group_members"} {
		if _, err := conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}
