// Package main runs one sales intelligence analysis and writes reports.
// Executes: fetch → aggregate → analyses → quick wins/alerts → reports
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"

	"sales-intelligence/internal/cache"
	"sales-intelligence/internal/config"
	"sales-intelligence/internal/observability"
	"sales-intelligence/internal/pipeline"
	"sales-intelligence/internal/publish"
	"sales-intelligence/internal/reporting"
	"sales-intelligence/internal/storage/backend"
	"sales-intelligence/internal/taxonomy"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file (overrides "+config.EnvFile+")")
	fixtures := flag.Bool("fixtures", true, "Load the demo ledger when the source is memory")
	noProgress := flag.Bool("no-progress", false, "Disable the fetch progress bar")
	flag.Parse()

	if *configPath != "" {
		_ = os.Setenv(config.EnvFile, *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling run...\n", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *fixtures, !*noProgress); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, fixtures, progress bool) error {
	logger := &log.Logger{
		Level:  cfg.Level(),
		Writer: &log.ConsoleWriter{Writer: os.Stderr},
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(observability.DefaultNamespace, reg)
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           observability.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	b, err := backend.Open(ctx, cfg.Source, cfg.DSN, false)
	if err != nil {
		return fmt.Errorf("open %s source: %w", cfg.Source, err)
	}
	defer b.Close()

	now := time.Now().UTC()
	spec, err := cfg.WindowSpec(now)
	if err != nil {
		return err
	}

	if cfg.Source == config.SourceMemory && fixtures {
		if err := pipeline.LoadFixtures(ctx, b.Ledger, spec.AsOf); err != nil {
			return fmt.Errorf("load fixtures: %w", err)
		}
	}

	tax := taxonomy.Default()
	if cfg.TaxonomyPath != "" {
		if tax, err = taxonomy.LoadYAML(cfg.TaxonomyPath); err != nil {
			return err
		}
	}

	enrichment, err := cache.New(cfg.CacheTTL, cache.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer enrichment.Close()

	engine := pipeline.NewEngine(b.Ledger).
		WithLogger(logger).
		WithMetrics(metrics).
		WithCache(enrichment).
		WithTaxonomy(tax).
		WithPageSize(cfg.PageSize).
		WithCrossSellOptions(cfg.CrossSellOptions()).
		WithQuickWinOptions(cfg.QuickWinOptions()).
		WithAlertOptions(cfg.AlertOptions()).
		WithClock(func() time.Time { return now })

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.Default(-1, "reading ledger")
		engine.WithPageHook(func(_, records int) { _ = bar.Add(records) })
	}

	fmt.Println("=== Sales Intelligence ===")
	res, err := engine.Run(ctx, spec)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}

	paths, err := reporting.NewGenerator(cfg.OutputDir).
		WithFormats(cfg.Formats...).
		WithLogger(logger).
		WithMetrics(metrics).
		Write(res)
	if err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := publish.NewAlertPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer pub.Close()
		pub.WithLogger(logger).WithMetrics(metrics)
		if err := pub.Publish(ctx, res.RunID, res.GeneratedAt, res.Alerts); err != nil {
			return err
		}
	}

	printSummary(res, paths)
	return nil
}

func printSummary(res *pipeline.Result, paths []string) {
	s := res.Summary
	fmt.Printf("Run %s (%s)\n", res.RunID, res.Window)
	fmt.Printf("  Transactions: %d\n", res.RecordsRead)
	fmt.Printf("  Entities: %d\n", s.EntityCount)
	fmt.Printf("  Revenue: %.2f (prior %.2f, %+.1f%%)\n", s.CurrentRevenue, s.PriorRevenue, s.RevenueChangePct)
	fmt.Printf("  Revenue at risk: %.2f\n", s.TotalRevenueAtRisk)
	fmt.Printf("  HHI: %.0f (%s)\n", res.Concentration.HHIIndex, res.Concentration.HHIBand)
	fmt.Printf("  Alerts: %d | Quick wins: %d | Cross-sell: %d\n", len(res.Alerts), len(res.QuickWins), len(res.CrossSell))
	if res.Truncated {
		fmt.Printf("  WARNING: ledger read incomplete (%d page errors)\n", len(res.FetchErrors))
	}
	if !res.DataQuality.AllPass {
		fmt.Printf("  Data quality: %d issue(s), see report\n", len(res.DataQuality.Errors)+countFailed(res.DataQuality))
	}
	fmt.Println("\nReports:")
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
}

func countFailed(r pipeline.SufficiencyResult) int {
	n := 0
	for _, c := range r.Checks {
		if !c.Pass {
			n++
		}
	}
	return n
}
