package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Sales Intelligence Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Window: %s | Run: %s | Engine: %s\n\n", r.Window, r.RunID, r.EngineVersion))
	if r.Truncated {
		sb.WriteString("**Warning:** the ledger read was incomplete; results cover a partial snapshot.\n\n")
	}

	// Summary
	s := r.Summary
	sb.WriteString("## Portfolio Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Entities | %d |\n", s.EntityCount))
	sb.WriteString(fmt.Sprintf("| Transactions Read | %d |\n", r.RecordsRead))
	sb.WriteString(fmt.Sprintf("| Current Revenue | %.2f |\n", s.CurrentRevenue))
	sb.WriteString(fmt.Sprintf("| Prior Revenue | %.2f |\n", s.PriorRevenue))
	sb.WriteString(fmt.Sprintf("| Revenue Change %% | %.1f |\n", s.RevenueChangePct))
	sb.WriteString(fmt.Sprintf("| Margin %% | %.1f |\n", s.MarginPct))
	sb.WriteString(fmt.Sprintf("| Revenue at Risk | %.2f |\n", s.TotalRevenueAtRisk))
	for _, c := range s.StatusCounts {
		sb.WriteString(fmt.Sprintf("| Status: %s | %d |\n", c.Label, c.Count))
	}
	for _, c := range s.SegmentCounts {
		sb.WriteString(fmt.Sprintf("| Segment: %s | %d |\n", c.Label, c.Count))
	}
	sb.WriteString("\n")

	// Alerts
	sb.WriteString("## Alerts\n\n")
	if len(r.Alerts) > 0 {
		sb.WriteString("| Priority | Type | Title | Metric |\n")
		sb.WriteString("|----------|------|-------|--------|\n")
		for _, a := range r.Alerts {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s = %.2f |\n",
				a.Priority, a.Type, escape(a.Title), a.MetricLabel, a.MetricValue))
		}
	} else {
		sb.WriteString("No alerts.\n")
	}
	sb.WriteString("\n")

	// Quick Wins
	sb.WriteString("## Quick Wins\n\n")
	if len(r.QuickWins) > 0 {
		sb.WriteString("| Priority | Type | Customer | Action | Est. Value |\n")
		sb.WriteString("|----------|------|----------|--------|------------|\n")
		for _, q := range r.QuickWins {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %.2f |\n",
				q.Priority, q.Type, escape(q.EntityName), escape(q.Action), q.EstimatedValue))
		}
	} else {
		sb.WriteString("No quick wins.\n")
	}
	sb.WriteString("\n")

	// Concentration
	c := r.Concentration
	sb.WriteString("## Revenue Concentration\n\n")
	sb.WriteString(fmt.Sprintf("HHI: %.0f (%s) | Top customer: %s (%.1f%%) | Top 10%%: %.1f%% | Top 20%%: %.1f%% | Customers for 80%%: %d\n\n",
		c.HHIIndex, c.HHIBand, escape(c.TopCustomer), c.TopCustomerPct, c.Top10PctShare, c.Top20PctShare, c.EntitiesFor80Pct))
	if len(c.Tiers) > 0 {
		sb.WriteString("| Tier | Customers | Revenue | % of Total |\n")
		sb.WriteString("|------|-----------|---------|------------|\n")
		for _, t := range c.Tiers {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.1f |\n", t.Name, t.Count, t.TotalRevenue, t.PctOfTotal))
		}
		sb.WriteString("\n")
	}

	// Attrition
	sb.WriteString("## Attrition Risk\n\n")
	atRisk := 0
	for _, a := range r.Attrition {
		if a.Status == "active" {
			continue
		}
		if atRisk == 0 {
			sb.WriteString("| Customer | Status | Score | Days Since Last | Revenue at Risk |\n")
			sb.WriteString("|----------|--------|-------|-----------------|-----------------|\n")
		}
		atRisk++
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %d | %.2f |\n",
			escape(a.EntityName), a.Status, a.Score, a.DaysSinceLast, a.RevenueAtRisk))
	}
	if atRisk == 0 {
		sb.WriteString("No customers at risk.\n")
	}
	sb.WriteString("\n")

	// Behavior
	sb.WriteString("## Buying Patterns\n\n")
	if len(r.Behaviors) > 0 {
		sb.WriteString("| Customer | Segment | Confidence | Focus | Consistency % | Season |\n")
		sb.WriteString("|----------|---------|------------|-------|---------------|--------|\n")
		for _, b := range r.Behaviors {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.0f | %s | %.1f | %s |\n",
				escape(b.EntityName), b.Segment, b.Confidence, b.ProductFocus, b.ConsistencyPct, b.SeasonalMonths))
		}
	} else {
		sb.WriteString("No behavior profiles.\n")
	}
	sb.WriteString("\n")

	// Cross-sell
	sb.WriteString("## Cross-Sell Opportunities\n\n")
	if len(r.CrossSell) > 0 {
		sb.WriteString("| Customer | Category | Affinity | Similar | Est. Revenue | Margin % |\n")
		sb.WriteString("|----------|----------|----------|---------|--------------|----------|\n")
		for _, o := range r.CrossSell {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %d | %.2f | %.1f |\n",
				escape(o.EntityName), escape(o.Category), o.AffinityScore, o.SimilarEntities, o.EstimatedRevenue, o.AvgMarginPct))
		}
	} else {
		sb.WriteString("No cross-sell opportunities.\n")
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(r.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range r.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Interpret the results with care.\n\n")
		}
	}

	if len(r.DataQuality.IntegrityErrors) > 0 {
		sb.WriteString("### Integrity Errors\n\n")
		for _, err := range r.DataQuality.IntegrityErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
