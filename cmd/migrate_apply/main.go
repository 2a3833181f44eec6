package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Applies the SQL files in internal/migrations in name order, recording each
// applied filename in the migrations table so reruns are safe.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	apply := flag.Bool("apply", false, "apply migrations")
	flag.Parse()

	ctx := context.Background()

	if _, err := db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS migrations (id SERIAL PRIMARY KEY, filename VARCHAR(255) NOT NULL)`,
	); err != nil {
		log.Fatalf("create migrations table: %v", err)
	}

	migDir := filepath.Join("internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		log.Fatalf("read migrations dir: %v", err)
	}

	var names []string
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".sql") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM migrations WHERE filename = $1)`, name,
		).Scan(&exists); err != nil {
			log.Fatalf("check %s: %v", name, err)
		}
		if exists {
			fmt.Printf("skipped %s (already applied)\n", name)
			continue
		}

		if !*apply {
			fmt.Printf("pending %s\n", name)
			continue
		}

		b, err := os.ReadFile(filepath.Join(migDir, name))
		if err != nil {
			log.Fatalf("read file %s: %v", name, err)
		}
		if _, err := db.Exec(ctx, string(b)); err != nil {
			log.Fatalf("failed to apply %s: %v", name, err)
		}
		if _, err := db.Exec(ctx,
			`INSERT INTO migrations (filename) VALUES ($1)`, name,
		); err != nil {
			log.Fatalf("record %s: %v", name, err)
		}
		fmt.Printf("applied %s\n", name)
	}
}
