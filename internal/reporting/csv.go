package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// Table is one tabular view of a report, shared by the CSV and XLSX writers.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Tables returns every view of r as a table, in a stable order.
func (r *Report) Tables() []Table {
	summary := Table{
		Name:   "summary",
		Header: []string{"metric", "value"},
		Rows: [][]any{
			{"run_id", r.RunID},
			{"window", r.Window},
			{"records_read", r.RecordsRead},
			{"truncated", r.Truncated},
			{"entity_count", r.Summary.EntityCount},
			{"current_revenue", r.Summary.CurrentRevenue},
			{"prior_revenue", r.Summary.PriorRevenue},
			{"revenue_change_pct", r.Summary.RevenueChangePct},
			{"margin_pct", r.Summary.MarginPct},
			{"total_revenue_at_risk", r.Summary.TotalRevenueAtRisk},
			{"hhi_index", r.Concentration.HHIIndex},
			{"hhi_band", r.Concentration.HHIBand},
		},
	}
	for _, c := range r.Summary.StatusCounts {
		summary.Rows = append(summary.Rows, []any{"status_" + c.Label, c.Count})
	}
	for _, c := range r.Summary.SegmentCounts {
		summary.Rows = append(summary.Rows, []any{"segment_" + c.Label, c.Count})
	}

	alerts := Table{
		Name:   "alerts",
		Header: []string{"alert_id", "priority", "type", "entity_id", "title", "message", "metric_label", "metric_value"},
	}
	for _, a := range r.Alerts {
		alerts.Rows = append(alerts.Rows, []any{a.ID, a.Priority, a.Type, a.Entity, a.Title, a.Message, a.MetricLabel, a.MetricValue})
	}

	quickWins := Table{
		Name:   "quick_wins",
		Header: []string{"quick_win_id", "priority", "type", "entity_id", "entity_name", "action", "estimated_value", "supporting_facts"},
	}
	for _, q := range r.QuickWins {
		quickWins.Rows = append(quickWins.Rows, []any{q.ID, q.Priority, q.Type, q.EntityID, q.EntityName, q.Action, q.EstimatedValue, q.Facts})
	}

	attrition := Table{
		Name: "attrition",
		Header: []string{"entity_id", "entity_name", "score", "status", "revenue_at_risk", "days_since_last",
			"current_revenue", "prior_revenue", "recency", "frequency", "monetary", "product_mix"},
	}
	for _, a := range r.Attrition {
		attrition.Rows = append(attrition.Rows, []any{a.EntityID, a.EntityName, a.Score, a.Status, a.RevenueAtRisk, a.DaysSinceLast,
			a.CurrentRevenue, a.PriorRevenue, a.Recency, a.Frequency, a.Monetary, a.ProductMix})
	}

	tiers := Table{
		Name:   "concentration_tiers",
		Header: []string{"tier", "count", "total_revenue", "pct_of_total"},
	}
	for _, t := range r.Concentration.Tiers {
		tiers.Rows = append(tiers.Rows, []any{t.Name, t.Count, t.TotalRevenue, t.PctOfTotal})
	}

	crossSell := Table{
		Name:   "cross_sell",
		Header: []string{"entity_id", "entity_name", "category", "affinity_score", "similar_entities", "estimated_revenue", "avg_margin_pct"},
	}
	for _, c := range r.CrossSell {
		crossSell.Rows = append(crossSell.Rows, []any{c.EntityID, c.EntityName, c.Category, c.AffinityScore, c.SimilarEntities, c.EstimatedRevenue, c.AvgMarginPct})
	}

	behaviors := Table{
		Name: "behavior",
		Header: []string{"entity_id", "entity_name", "segment", "confidence", "product_focus", "consistency_pct", "volatility",
			"seasonal_months", "total_orders", "avg_order_gap_days", "days_since_last",
			"attrition_eligible", "cross_sell_eligible", "repeat_order_eligible", "reason"},
	}
	for _, b := range r.Behaviors {
		behaviors.Rows = append(behaviors.Rows, []any{b.EntityID, b.EntityName, b.Segment, b.Confidence, b.ProductFocus, b.ConsistencyPct, b.Volatility,
			b.SeasonalMonths, b.TotalOrders, b.AvgOrderGapDays, b.DaysSinceLast,
			b.Attrition, b.CrossSell, b.RepeatOrder, b.Reason})
	}

	performance := Table{
		Name:   "performance",
		Header: []string{"entity_id", "entity_name", "current_revenue", "prior_revenue", "change_pct", "trend"},
	}
	for _, p := range r.Performance {
		performance.Rows = append(performance.Rows, []any{p.EntityID, p.EntityName, p.CurrentRevenue, p.PriorRevenue, p.ChangePct, p.Trend})
	}

	quality := Table{
		Name:   "data_quality",
		Header: []string{"check", "threshold", "actual", "pass"},
	}
	for _, c := range r.DataQuality.SufficiencyChecks {
		quality.Rows = append(quality.Rows, []any{c.Name, c.Threshold, c.Actual, c.Pass})
	}

	return []Table{summary, alerts, quickWins, attrition, tiers, crossSell, behaviors, performance, quality}
}

// RenderCSV renders one table as CSV.
func RenderCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("csv %s: %w", t.Name, err)
	}
	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv %s: %w", t.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
