// Package pipeline orchestrates one analytics run: fetch, aggregate, fan out
// the independent analyses, then synthesize quick wins and alerts.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"sales-intelligence/internal/aggregation"
	"sales-intelligence/internal/alerts"
	"sales-intelligence/internal/attrition"
	"sales-intelligence/internal/behavior"
	"sales-intelligence/internal/cache"
	"sales-intelligence/internal/concentration"
	"sales-intelligence/internal/crosssell"
	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/idhash"
	"sales-intelligence/internal/observability"
	"sales-intelligence/internal/quickwin"
	"sales-intelligence/internal/storage"
	"sales-intelligence/internal/taxonomy"
)

// EngineVersion is stamped on every result.
const EngineVersion = "1.0.0"

// Stage names used for metrics and logs.
const (
	StageFetch         = "fetch"
	StageAggregate     = "aggregate"
	StageAttrition     = "attrition"
	StageConcentration = "concentration"
	StageCrossSell     = "cross_sell"
	StageBehavior      = "behavior"
	StageQuickWins     = "quick_wins"
	StageAlerts        = "alerts"
)

// Result holds every view produced by one run.
type Result struct {
	RunID         string
	EngineVersion string
	GeneratedAt   time.Time
	Window        domain.WindowSpec

	Aggregates    aggregation.Aggregates
	Attrition     []domain.AttritionScore
	Concentration domain.ConcentrationMetrics
	CrossSell     []domain.CrossSellOpportunity
	Behaviors     []domain.CustomerBehavior
	Performance   []domain.RollingPerformance
	QuickWins     []domain.QuickWinOpportunity
	Alerts        []domain.InsightAlert
	Summary       domain.PortfolioSummary

	DataQuality SufficiencyResult
	RecordsRead int
	Truncated   bool
	FetchErrors []*aggregation.SourceFetchError
}

// EntityInsight is the per-entity view kept in the enrichment cache.
type EntityInsight struct {
	RunID       string                        `json:"run_id"`
	EntityID    string                        `json:"entity_id"`
	EntityName  string                        `json:"entity_name"`
	Attrition   *domain.AttritionScore        `json:"attrition,omitempty"`
	Behavior    *domain.CustomerBehavior      `json:"behavior,omitempty"`
	Performance *domain.RollingPerformance    `json:"performance,omitempty"`
	CrossSell   []domain.CrossSellOpportunity `json:"cross_sell,omitempty"`
}

// Engine runs the analytics pipeline over a transaction source.
type Engine struct {
	source    storage.TransactionSource
	pageSize  int
	onPage    aggregation.PageHook
	logger    *log.Logger
	metrics   *observability.Metrics
	cache     *cache.EnrichmentCache
	taxonomy  *taxonomy.Taxonomy
	crossSell crosssell.Options
	quickWin  quickwin.Options
	alerts    alerts.Options
	clock     func() time.Time
}

// NewEngine creates an engine reading from source.
func NewEngine(source storage.TransactionSource) *Engine {
	return &Engine{
		source:   source,
		pageSize: storage.DefaultPageSize,
		logger:   &log.DefaultLogger,
		taxonomy: taxonomy.Default(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// WithLogger sets the logger. nil keeps the default logger.
func (e *Engine) WithLogger(l *log.Logger) *Engine {
	if l != nil {
		e.logger = l
	}
	return e
}

// WithMetrics sets the metrics sink.
func (e *Engine) WithMetrics(m *observability.Metrics) *Engine {
	e.metrics = m
	return e
}

// WithCache stores per-entity insights after each run.
func (e *Engine) WithCache(c *cache.EnrichmentCache) *Engine {
	e.cache = c
	return e
}

// WithTaxonomy replaces the product taxonomy used by the cross-sell gate.
func (e *Engine) WithTaxonomy(t *taxonomy.Taxonomy) *Engine {
	if t != nil {
		e.taxonomy = t
	}
	return e
}

// WithPageSize sets the ledger page size.
func (e *Engine) WithPageSize(n int) *Engine {
	if n > 0 {
		e.pageSize = n
	}
	return e
}

// WithPageHook registers a per-page progress callback.
func (e *Engine) WithPageHook(h aggregation.PageHook) *Engine {
	e.onPage = h
	return e
}

// WithCrossSellOptions overrides similarity, coverage and limit.
func (e *Engine) WithCrossSellOptions(o crosssell.Options) *Engine {
	e.crossSell = o
	return e
}

// WithQuickWinOptions overrides the quick-win thresholds.
func (e *Engine) WithQuickWinOptions(o quickwin.Options) *Engine {
	e.quickWin = o
	return e
}

// WithAlertOptions overrides the alert thresholds.
func (e *Engine) WithAlertOptions(o alerts.Options) *Engine {
	e.alerts = o
	return e
}

// Run executes one analysis. A zero spec.AsOf is anchored at the clock.
// Only an unreachable source or a cancelled context fails the run; page
// failures yield a partial, flagged result.
func (e *Engine) Run(ctx context.Context, spec domain.WindowSpec) (*Result, error) {
	now := e.clock()
	if spec.AsOf.IsZero() {
		if spec.Kind == domain.WindowCalendar {
			spec = domain.CalendarYears(spec.CurrentYear, spec.PriorYear, now)
		} else {
			spec = domain.RollingWindow(now)
		}
	}
	if spec.Kind == "" {
		spec.Kind = domain.WindowRolling
	}
	spec.AsOf = domain.TruncateDay(spec.AsOf)

	result, err := e.run(ctx, spec, now)
	status := "success"
	if err != nil {
		status = "failure"
	}
	e.metrics.RecordRun(string(spec.Kind), status, float64(now.Unix()))
	return result, err
}

func (e *Engine) run(ctx context.Context, spec domain.WindowSpec, now time.Time) (*Result, error) {
	e.logger.Info().Str("window", spec.String()).Msg("analytics run started")

	// 1. Fetch the window snapshot and, when it does not already cover it,
	// the behavior lookback.
	stageStart := time.Now()
	fetcher := aggregation.NewFetcher(e.source,
		aggregation.WithPageSize(e.pageSize),
		aggregation.WithLogger(e.logger),
		aggregation.WithMetrics(e.metrics),
		aggregation.WithPageHook(e.onPage),
	)
	snap, err := fetcher.Fetch(ctx, spec.Filter())
	if err != nil {
		return nil, err
	}
	behaviorSnap := snap
	if lookback := behavior.LookbackRange(spec.AsOf); !covers(spec.Filter(), lookback) {
		behaviorSnap, err = fetcher.Fetch(ctx, domain.TransactionFilter{Start: lookback.Start, End: lookback.End})
		if err != nil {
			return nil, err
		}
	}
	e.observe(StageFetch, stageStart)

	// 2. Aggregate windows.
	stageStart = time.Now()
	aggs := aggregation.AggregateWindows(snap.Records, spec)
	e.observe(StageAggregate, stageStart)

	res := &Result{
		EngineVersion: EngineVersion,
		GeneratedAt:   now,
		Window:        spec,
		Aggregates:    aggs,
		RecordsRead:   len(snap.Records),
		Truncated:     snap.Truncated || behaviorSnap.Truncated,
	}
	res.FetchErrors = append(res.FetchErrors, snap.Errors...)
	if behaviorSnap != snap {
		res.FetchErrors = append(res.FetchErrors, behaviorSnap.Errors...)
	}

	// 3. Independent analyses over read-only inputs.
	crossOpts := e.crossSell
	crossOpts.Gate = e.taxonomy
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer e.observe(StageAttrition, time.Now())
		res.Attrition = attrition.ScoreAttrition(aggs, spec.AsOf)
		return gctx.Err()
	})
	g.Go(func() error {
		defer e.observe(StageConcentration, time.Now())
		res.Concentration = concentration.AnalyzeConcentration(aggregation.SelectWindow(aggs, domain.WindowCurrent))
		return gctx.Err()
	})
	g.Go(func() error {
		defer e.observe(StageCrossSell, time.Now())
		idx := aggregation.BuildCategoryIndex(aggs, domain.WindowCurrent)
		res.CrossSell = crosssell.RecommendCrossSell(idx, crossOpts)
		return gctx.Err()
	})
	g.Go(func() error {
		defer e.observe(StageBehavior, time.Now())
		res.Behaviors = behavior.ClassifyBehavior(behaviorSnap.Records, spec.AsOf)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 4. Join: quick wins, rolling performance and alerts.
	stageStart = time.Now()
	contexts := quickwin.BuildContexts(aggs, res.Behaviors, res.CrossSell, spec.AsOf)
	res.QuickWins = quickwin.GenerateQuickWins(contexts, res.Behaviors, e.quickWin)
	e.observe(StageQuickWins, stageStart)

	stageStart = time.Now()
	res.Performance = aggregation.ComputeRollingPerformance(aggs)
	res.Alerts = alerts.GenerateAlerts(res.Attrition, res.Concentration, res.Performance, res.Behaviors, e.alerts)
	e.observe(StageAlerts, stageStart)

	res.Summary = summarize(aggs, res.Attrition, res.Behaviors)
	res.DataQuality = CheckSufficiency(snap, behaviorSnap, aggs, spec)
	res.RunID = runID(spec, snap, behaviorSnap)

	e.record(res)
	if err := e.storeInsights(ctx, res); err != nil {
		e.logger.Warn().Err(err).Str("run_id", res.RunID).Msg("enrichment cache update failed")
	}

	e.logger.Info().
		Str("run_id", res.RunID).
		Int("records", res.RecordsRead).
		Int("entities", res.Summary.EntityCount).
		Int("alerts", len(res.Alerts)).
		Int("quick_wins", len(res.QuickWins)).
		Bool("truncated", res.Truncated).
		Msg("analytics run complete")

	return res, nil
}

// EntityInsight returns the cached insight of the last run for entityID.
// It reports false when no cache is configured or the entry has expired.
func (e *Engine) EntityInsight(ctx context.Context, entityID string) (EntityInsight, bool, error) {
	var ins EntityInsight
	if e.cache == nil {
		return ins, false, nil
	}
	ok, err := e.cache.Get(ctx, insightKey(entityID), &ins)
	return ins, ok, err
}

func (e *Engine) storeInsights(ctx context.Context, res *Result) error {
	if e.cache == nil {
		return nil
	}
	if err := e.cache.Clear(); err != nil {
		return fmt.Errorf("clear insights: %w", err)
	}

	insights := make(map[string]*EntityInsight, len(res.Aggregates))
	get := func(id string) *EntityInsight {
		ins, ok := insights[id]
		if !ok {
			ins = &EntityInsight{RunID: res.RunID, EntityID: id}
			if ew, ok := res.Aggregates[id]; ok {
				ins.EntityName = ew.EntityName
			}
			insights[id] = ins
		}
		return ins
	}
	for i := range res.Attrition {
		get(res.Attrition[i].EntityID).Attrition = &res.Attrition[i]
	}
	for i := range res.Behaviors {
		ins := get(res.Behaviors[i].EntityID)
		ins.Behavior = &res.Behaviors[i]
		if ins.EntityName == "" {
			ins.EntityName = res.Behaviors[i].EntityName
		}
	}
	for i := range res.Performance {
		get(res.Performance[i].EntityID).Performance = &res.Performance[i]
	}
	for _, o := range res.CrossSell {
		ins := get(o.EntityID)
		ins.CrossSell = append(ins.CrossSell, o)
	}

	ids := make([]string, 0, len(insights))
	for id := range insights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := e.cache.Set(ctx, insightKey(id), insights[id]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) observe(stage string, start time.Time) {
	e.metrics.RecordStage(stage, time.Since(start).Seconds())
}

func (e *Engine) record(res *Result) {
	for _, a := range res.Alerts {
		e.metrics.RecordAlert(string(a.Type), string(a.Priority))
	}
	for _, q := range res.QuickWins {
		e.metrics.RecordQuickWin(string(q.Type))
	}
	e.metrics.RecordPortfolio(res.Summary.EntityCount, res.Summary.TotalRevenueAtRisk, res.Concentration.HHIIndex, len(res.CrossSell))
}

func insightKey(entityID string) string {
	return "entity:" + entityID
}

// covers reports whether f includes every day of r.
func covers(f domain.TransactionFilter, r domain.DateRange) bool {
	startOK := f.Start.IsZero() || !f.Start.After(r.Start)
	endOK := f.End.IsZero() || !f.End.Before(r.End)
	return startOK && endOK
}

// runID derives a stable UUID from the window and the snapshot contents.
func runID(spec domain.WindowSpec, snaps ...*aggregation.Snapshot) string {
	var lines []string
	seen := make(map[*aggregation.Snapshot]bool)
	for _, s := range snaps {
		if seen[s] {
			continue
		}
		seen[s] = true
		for _, r := range s.Records {
			lines = append(lines, fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d",
				r.OccurredOn.Format(time.DateOnly), r.EntityID, r.Category, r.ItemName,
				r.Revenue.String(), r.Cost.String(), r.Quantity))
		}
	}
	sort.Strings(lines)
	fp := idhash.Fingerprint(spec.String(), spec.AsOf, lines)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fp)).String()
}

func summarize(
	aggs aggregation.Aggregates,
	scores []domain.AttritionScore,
	behaviors []domain.CustomerBehavior,
) domain.PortfolioSummary {
	curRev, curCost := aggregation.Totals(aggs, domain.WindowCurrent)
	priorRev, _ := aggregation.Totals(aggs, domain.WindowPrior)

	s := domain.PortfolioSummary{
		EntityCount:    len(aggs),
		CurrentRevenue: curRev.InexactFloat64(),
		PriorRevenue:   priorRev.InexactFloat64(),
		StatusCounts:   make(map[domain.AttritionStatus]int),
		SegmentCounts:  make(map[domain.Segment]int),
	}
	if s.PriorRevenue > 0 {
		s.RevenueChangePct = (s.CurrentRevenue - s.PriorRevenue) / s.PriorRevenue * 100
	}
	if curRev.IsPositive() {
		s.MarginPct = curRev.Sub(curCost).Div(curRev).InexactFloat64() * 100
	}
	for _, a := range scores {
		s.StatusCounts[a.Status]++
		if a.Status == domain.StatusAtRisk || a.Status == domain.StatusDeclining {
			s.TotalRevenueAtRisk += a.RevenueAtRisk
		}
	}
	for _, b := range behaviors {
		s.SegmentCounts[b.Segment]++
	}
	return s
}
