package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/observability"
	"sales-intelligence/internal/pipeline"
)

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
)

// Formats lists every supported output format.
var Formats = []string{FormatMarkdown, FormatCSV, FormatXLSX}

// Generator writes report files for pipeline results.
type Generator struct {
	outDir  string
	formats []string
	logger  *log.Logger
	metrics *observability.Metrics
}

// NewGenerator creates a generator writing into outDir in every format.
func NewGenerator(outDir string) *Generator {
	return &Generator{
		outDir:  outDir,
		formats: Formats,
		logger:  &log.DefaultLogger,
	}
}

// WithFormats restricts output to the given formats.
func (g *Generator) WithFormats(formats ...string) *Generator {
	if len(formats) > 0 {
		g.formats = formats
	}
	return g
}

// WithLogger sets the logger. nil keeps the default logger.
func (g *Generator) WithLogger(l *log.Logger) *Generator {
	if l != nil {
		g.logger = l
	}
	return g
}

// WithMetrics counts generated reports.
func (g *Generator) WithMetrics(m *observability.Metrics) *Generator {
	g.metrics = m
	return g
}

// Write renders res in each configured format and returns the written paths.
func (g *Generator) Write(res *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	r := Build(res)

	var paths []string
	for _, format := range g.formats {
		switch format {
		case FormatMarkdown:
			path := filepath.Join(g.outDir, "report.md")
			if err := os.WriteFile(path, []byte(RenderMarkdown(r)), 0o644); err != nil {
				return paths, fmt.Errorf("write markdown: %w", err)
			}
			paths = append(paths, path)
		case FormatCSV:
			for _, t := range r.Tables() {
				path := filepath.Join(g.outDir, t.Name+".csv")
				data, err := RenderCSV(t)
				if err != nil {
					return paths, err
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return paths, fmt.Errorf("write %s: %w", t.Name, err)
				}
				paths = append(paths, path)
			}
		case FormatXLSX:
			path := filepath.Join(g.outDir, "report.xlsx")
			if err := WriteXLSX(path, r); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		default:
			return paths, fmt.Errorf("unknown report format %q", format)
		}
		g.metrics.RecordReport(format)
	}

	g.logger.Info().
		Str("run_id", r.RunID).
		Str("dir", g.outDir).
		Int("files", len(paths)).
		Msg("reports written")
	return paths, nil
}

// Build converts a pipeline result into report rows.
func Build(res *pipeline.Result) *Report {
	r := &Report{
		RunID:         res.RunID,
		EngineVersion: res.EngineVersion,
		GeneratedAt:   res.GeneratedAt,
		Window:        res.Window.String(),
		RecordsRead:   res.RecordsRead,
		Truncated:     res.Truncated,
		Summary:       summarySection(res.Summary),
		DataQuality:   dataQualitySection(res.DataQuality),
		Concentration: concentrationSection(res.Concentration),
	}

	for _, a := range res.Alerts {
		r.Alerts = append(r.Alerts, AlertRow{
			ID:          a.ID,
			Priority:    string(a.Priority),
			Type:        string(a.Type),
			Entity:      a.EntityRef,
			Title:       a.Title,
			Message:     a.Message,
			MetricLabel: a.MetricLabel,
			MetricValue: a.MetricValue,
		})
	}
	for _, q := range res.QuickWins {
		r.QuickWins = append(r.QuickWins, QuickWinRow{
			ID:             q.ID,
			Priority:       string(q.Priority),
			Type:           string(q.Type),
			EntityID:       q.EntityID,
			EntityName:     q.EntityName,
			Action:         q.ActionSummary,
			EstimatedValue: q.EstimatedValue,
			Facts:          strings.Join(q.SupportingFacts, "; "),
		})
	}
	for _, s := range res.Attrition {
		r.Attrition = append(r.Attrition, AttritionRow{
			EntityID:       s.EntityID,
			EntityName:     s.EntityName,
			Score:          s.Score,
			Status:         string(s.Status),
			RevenueAtRisk:  s.RevenueAtRisk,
			DaysSinceLast:  s.DaysSinceLast,
			CurrentRevenue: s.CurrentRevenue,
			PriorRevenue:   s.PriorRevenue,
			Recency:        s.Components.Recency,
			Frequency:      s.Components.Frequency,
			Monetary:       s.Components.Monetary,
			ProductMix:     s.Components.ProductMix,
		})
	}
	for _, o := range res.CrossSell {
		r.CrossSell = append(r.CrossSell, CrossSellRow{
			EntityID:         o.EntityID,
			EntityName:       o.EntityName,
			Category:         o.RecommendedCategory,
			AffinityScore:    o.AffinityScore,
			SimilarEntities:  o.SimilarEntityCount,
			EstimatedRevenue: o.EstimatedRevenue,
			AvgMarginPct:     o.AvgMarginPct,
		})
	}
	for _, b := range res.Behaviors {
		r.Behaviors = append(r.Behaviors, BehaviorRow{
			EntityID:        b.EntityID,
			EntityName:      b.EntityName,
			Segment:         string(b.Segment),
			Confidence:      b.SegmentConfidence,
			ProductFocus:    string(b.ProductFocus),
			ConsistencyPct:  b.OrderConsistencyPct,
			Volatility:      b.RevenueVolatility,
			SeasonalMonths:  months(b.SeasonalMonths),
			TotalOrders:     b.TotalOrders,
			AvgOrderGapDays: b.AvgOrderGapDays,
			DaysSinceLast:   b.DaysSinceLast,
			Attrition:       b.Eligibility.Attrition,
			CrossSell:       b.Eligibility.CrossSell,
			RepeatOrder:     b.Eligibility.RepeatOrder,
			Reason:          b.SegmentReason,
		})
	}
	for _, p := range res.Performance {
		r.Performance = append(r.Performance, PerformanceRow{
			EntityID:       p.EntityID,
			EntityName:     p.EntityName,
			CurrentRevenue: p.CurrentRevenue,
			PriorRevenue:   p.PriorRevenue,
			ChangePct:      p.ChangePct,
			Trend:          string(p.Trend),
		})
	}
	return r
}

func summarySection(s domain.PortfolioSummary) SummarySection {
	out := SummarySection{
		EntityCount:        s.EntityCount,
		CurrentRevenue:     s.CurrentRevenue,
		PriorRevenue:       s.PriorRevenue,
		RevenueChangePct:   s.RevenueChangePct,
		MarginPct:          s.MarginPct,
		TotalRevenueAtRisk: s.TotalRevenueAtRisk,
	}
	for status, n := range s.StatusCounts {
		out.StatusCounts = append(out.StatusCounts, CountRow{Label: string(status), Count: n})
	}
	for seg, n := range s.SegmentCounts {
		out.SegmentCounts = append(out.SegmentCounts, CountRow{Label: string(seg), Count: n})
	}
	sortCounts(out.StatusCounts)
	sortCounts(out.SegmentCounts)
	return out
}

func dataQualitySection(r pipeline.SufficiencyResult) DataQualitySection {
	out := DataQualitySection{
		AllChecksPassed: r.AllPass,
		IntegrityErrors: r.Errors,
	}
	for _, c := range r.Checks {
		out.SufficiencyChecks = append(out.SufficiencyChecks, SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	return out
}

func concentrationSection(c domain.ConcentrationMetrics) ConcentrationSection {
	out := ConcentrationSection{
		EntityCount:        c.EntityCount,
		TotalRevenue:       c.TotalRevenue,
		HHIIndex:           c.HHIIndex,
		HHIBand:            string(c.HHIBand),
		TopCustomer:        c.TopCustomerName,
		TopCustomerPct:     c.TopCustomerPct,
		SingleCustomerRisk: c.SingleCustomerRisk,
		Top10PctShare:      c.Pareto.Top10PctShare,
		Top20PctShare:      c.Pareto.Top20PctShare,
		EntitiesFor80Pct:   c.Pareto.EntitiesFor80Pct,
	}
	for _, t := range c.Tiers {
		out.Tiers = append(out.Tiers, TierRow{
			Name:         string(t.Name),
			Count:        t.Count,
			TotalRevenue: t.TotalRevenue,
			PctOfTotal:   t.PctOfTotal,
		})
	}
	return out
}

func sortCounts(rows []CountRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Label < rows[j].Label })
}

func months(ms []time.Month) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.String()[:3]
	}
	return strings.Join(names, " ")
}
