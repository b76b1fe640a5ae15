// Package main writes the deterministic demo ledger into a backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/pipeline"
	"sales-intelligence/internal/storage/backend"
)

func main() {
	kind := flag.String("source", backend.KindPostgres, "Backend: postgres, clickhouse or mysql")
	dsn := flag.String("dsn", os.Getenv("SALESINTEL_DSN"), "Backend DSN")
	asOf := flag.String("as-of", "", "Anchor day of the ledger (YYYY-MM-DD, default today)")
	migrate := flag.Bool("migrate", true, "Create the ledger schema before loading")
	flag.Parse()

	if *kind == backend.KindMemory {
		fmt.Fprintln(os.Stderr, "Error: the memory backend does not outlive this process; choose postgres, clickhouse or mysql")
		os.Exit(2)
	}
	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "Error: -dsn is required")
		os.Exit(2)
	}

	anchor := time.Now().UTC()
	if *asOf != "" {
		t, err := time.Parse(time.DateOnly, *asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -as-of: %v\n", err)
			os.Exit(2)
		}
		anchor = t
	}
	anchor = domain.TruncateDay(anchor)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	b, err := backend.Open(ctx, *kind, *dsn, *migrate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer b.Close()

	records := pipeline.FixtureLedger(anchor)
	if err := b.Ledger.InsertBulk(ctx, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error: insert fixtures: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d transactions into %s (as of %s)\n", len(records), *kind, anchor.Format(time.DateOnly))
}
