// Package config defines the analytics run configuration and its loader.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/phuslu/log"

	"sales-intelligence/internal/alerts"
	"sales-intelligence/internal/crosssell"
	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/quickwin"
)

// Source kinds.
const (
	SourceMemory     = "memory"
	SourcePostgres   = "postgres"
	SourceClickHouse = "clickhouse"
	SourceMySQL      = "mysql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Source selects the ledger backend; DSN addresses it.
	Source   string `koanf:"source"`
	DSN      string `koanf:"dsn"`
	PageSize int    `koanf:"page_size"`

	// Rolling compares the trailing 12 months with the 12 before. When false,
	// Years lists the calendar years to compare (latest is current).
	Rolling bool  `koanf:"rolling"`
	Years   []int `koanf:"years"`
	// AsOf pins the reference day (YYYY-MM-DD). Empty means today.
	AsOf string `koanf:"as_of"`

	MinSimilarity  float64 `koanf:"min_similarity"`
	MinCoverage    float64 `koanf:"min_coverage"`
	CrossSellLimit int     `koanf:"cross_sell_limit"`

	MinRevenueAtRisk float64 `koanf:"min_revenue_at_risk"`
	DeclinePct       float64 `koanf:"decline_pct"`
	MinPriorRevenue  float64 `koanf:"min_prior_revenue"`
	GrowthPct        float64 `koanf:"growth_pct"`
	MinGrowthRevenue float64 `koanf:"min_growth_revenue"`

	QuickWinMinRevenue float64 `koanf:"quick_win_min_revenue"`
	QuickWinLimit      int     `koanf:"quick_win_limit"`

	CacheTTL time.Duration `koanf:"cache_ttl"`

	OutputDir string   `koanf:"output_dir"`
	Formats   []string `koanf:"formats"`

	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`

	TaxonomyPath string `koanf:"taxonomy_path"`
	MetricsAddr  string `koanf:"metrics_addr"`
}

// DefaultFormats is used when no report format is configured.
var DefaultFormats = []string{"markdown", "csv", "xlsx"}

// New creates a Config with defaults. List fields stay nil so that loaded
// lists replace them instead of merging.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Source:             SourceMemory,
		PageSize:           1000,
		Rolling:            true,
		MinSimilarity:      crosssell.DefaultMinSimilarity,
		MinCoverage:        crosssell.DefaultMinCoverage,
		CrossSellLimit:     crosssell.DefaultLimit,
		MinRevenueAtRisk:   alerts.DefaultMinRevenueAtRisk,
		DeclinePct:         alerts.DefaultDeclinePct,
		MinPriorRevenue:    alerts.DefaultMinPriorRevenue,
		GrowthPct:          alerts.DefaultGrowthPct,
		MinGrowthRevenue:   alerts.DefaultMinGrowthRevenue,
		QuickWinMinRevenue: quickwin.DefaultMinTrailingRevenue,
		QuickWinLimit:      quickwin.DefaultLimit,
		CacheTTL:           time.Hour,
		OutputDir:          "reports",
		KafkaTopic:         "sales-insight-alerts",
	}
}

// Validate checks field ranges and combinations.
func (c *Config) Validate() error {
	var problems []string
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		problems = append(problems, fmt.Sprintf("log_level %q", c.LogLevel))
	}
	switch c.Source {
	case SourceMemory:
	case SourcePostgres, SourceClickHouse, SourceMySQL:
		if c.DSN == "" {
			problems = append(problems, fmt.Sprintf("dsn required for source %s", c.Source))
		}
	default:
		problems = append(problems, fmt.Sprintf("source %q", c.Source))
	}
	if c.PageSize <= 0 {
		problems = append(problems, "page_size must be positive")
	}
	if !c.Rolling && len(c.Years) == 0 {
		problems = append(problems, "years required when rolling is false")
	}
	if c.AsOf != "" {
		if _, err := time.Parse(time.DateOnly, c.AsOf); err != nil {
			problems = append(problems, fmt.Sprintf("as_of %q", c.AsOf))
		}
	}
	if c.MinSimilarity <= 0 || c.MinSimilarity > 1 {
		problems = append(problems, "min_similarity must be within (0,1]")
	}
	if c.MinCoverage <= 0 || c.MinCoverage > 1 {
		problems = append(problems, "min_coverage must be within (0,1]")
	}
	if c.CrossSellLimit <= 0 || c.QuickWinLimit <= 0 {
		problems = append(problems, "limits must be positive")
	}
	if c.DeclinePct >= 0 {
		problems = append(problems, "decline_pct must be negative")
	}
	if c.CacheTTL <= 0 {
		problems = append(problems, "cache_ttl must be positive")
	}
	for _, f := range c.Formats {
		if !slices.Contains(DefaultFormats, f) {
			problems = append(problems, fmt.Sprintf("format %q", f))
		}
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		problems = append(problems, "kafka_topic required with kafka_brokers")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

var levels = map[string]log.Level{
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
	"warn":  log.WarnLevel,
	"error": log.ErrorLevel,
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() log.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return log.InfoLevel
}

// WindowSpec resolves the comparison windows relative to now.
func (c *Config) WindowSpec(now time.Time) (domain.WindowSpec, error) {
	asOf := now
	if c.AsOf != "" {
		t, err := time.Parse(time.DateOnly, c.AsOf)
		if err != nil {
			return domain.WindowSpec{}, fmt.Errorf("%w: as_of: %v", ErrInvalidConfig, err)
		}
		asOf = t
	}
	if c.Rolling {
		return domain.RollingWindow(asOf), nil
	}
	spec, err := domain.CalendarYearsFromList(c.Years, asOf)
	if err != nil {
		return domain.WindowSpec{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return spec, nil
}

// CrossSellOptions maps the cross-sell settings.
func (c *Config) CrossSellOptions() crosssell.Options {
	return crosssell.Options{
		MinSimilarity: c.MinSimilarity,
		MinCoverage:   c.MinCoverage,
		Limit:         c.CrossSellLimit,
	}
}

// AlertOptions maps the alert thresholds.
func (c *Config) AlertOptions() alerts.Options {
	return alerts.Options{
		MinRevenueAtRisk: c.MinRevenueAtRisk,
		DeclinePct:       c.DeclinePct,
		MinPriorRevenue:  c.MinPriorRevenue,
		GrowthPct:        c.GrowthPct,
		MinGrowthRevenue: c.MinGrowthRevenue,
	}
}

// QuickWinOptions maps the quick-win settings.
func (c *Config) QuickWinOptions() quickwin.Options {
	return quickwin.Options{
		MinTrailingRevenue: c.QuickWinMinRevenue,
		Limit:              c.QuickWinLimit,
	}
}
