package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mcdev12/buffet/go/internal/dbconfig"
	"github.com/mcdev12/buffet/go/internal/ordering"
)

func main() {
	path := flag.String("file", "", "JSON file of menu items (defaults to the built-in Thai menu)")
	migrate := flag.Bool("migrate", true, "create tables before seeding")
	flag.Parse()

	_ = godotenv.Load()

	// 1) Load the menu
	items, err := loadItems(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load menu: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *migrate {
		if _, err := pool.Exec(ctx, ordering.Schema()); err != nil {
			fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
			os.Exit(1)
		}
	}

	// 3) Insert missing dishes and count
	var (
		total    = len(items)
		inserted int
		skipped  int
		errs     int
	)

	for _, m := range items {
		available := true
		if m.IsAvailable != nil {
			available = *m.IsAvailable
		}
		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO menu_items (name, category, price, image_url, is_available)
            SELECT $1::varchar, $2::varchar, $3::numeric, $4::text, $5::boolean
            WHERE NOT EXISTS (
              SELECT 1 FROM menu_items WHERE name = $1::varchar AND category = $2::varchar
            )
        `,
			m.Name, m.Category, m.Price, m.ImageURL, available,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting %s: %v\n", m.Name, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Menu seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
	if errs > 0 {
		os.Exit(1)
	}
}

func loadItems(path string) ([]ordering.CreateMenuItemRequest, error) {
	if path == "" {
		return ordering.SeedMenu()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read JSON: %w", err)
	}
	var items []ordering.CreateMenuItemRequest
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return items, nil
}
