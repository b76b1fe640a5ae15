package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/storage"
)

// FixtureCostRatio is the cost share of revenue in the demo ledger.
var FixtureCostRatio = decimal.RequireFromString("0.6")

// LoadFixtures writes the demo ledger anchored at asOf into w.
func LoadFixtures(ctx context.Context, w storage.TransactionWriter, asOf time.Time) error {
	records := FixtureLedger(asOf)
	if err := w.InsertBulk(ctx, records); err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}
	return nil
}

// FixtureLedger returns a deterministic 24-month ledger ending at asOf that
// exercises every segment, alert type and quick-win type.
func FixtureLedger(asOf time.Time) []domain.TransactionRecord {
	asOf = domain.TruncateDay(asOf)
	var out []domain.TransactionRecord
	add := func(id, name, category string, on time.Time, revenue int64) {
		rev := decimal.NewFromInt(revenue)
		out = append(out, domain.TransactionRecord{
			EntityID:        id,
			EntityName:      name,
			Category:        category,
			ItemName:        category,
			ItemDescription: fmt.Sprintf("%s for %s", category, name),
			OccurredOn:      on,
			Revenue:         rev,
			Cost:            rev.Mul(FixtureCostRatio).Round(2),
			Quantity:        1,
		})
	}

	// Steady monthly buyer, last order about 50 days ago.
	for i := 1; i <= 24; i++ {
		on := asOf.AddDate(0, -i, -20)
		cat := "Pipette Tips"
		if i%2 == 0 {
			cat = "Buffer Solution"
		}
		add("C-1001", "Northwind Labs", cat, on, 4000)
		if i%6 == 0 {
			add("C-1001", "Northwind Labs", "Pipette Calibration", on, 1500)
		}
	}

	// Dominant diverse account.
	helios := []string{"Centrifuges", "Microscopes", "Reagent Kits", "Gloves", "Analytical Balances"}
	for i := 0; i < 24; i++ {
		add("C-1002", "Helios Pharma", helios[i%len(helios)], asOf.AddDate(0, -i, -5), 30000)
	}

	// One clustered engagement about 200 days ago.
	add("C-1003", "Cobalt Construction", "Analytical Balances", asOf.AddDate(0, 0, -230), 60000)
	add("C-1003", "Cobalt Construction", "Installation", asOf.AddDate(0, 0, -215), 60000)
	add("C-1003", "Cobalt Construction", "Installation", asOf.AddDate(0, 0, -200), 60000)

	// Buys every October to December.
	for k := 1; k <= 2; k++ {
		y := asOf.Year() - k
		for _, m := range []time.Month{time.October, time.November, time.December} {
			add("C-1004", "Frost Agritech", "Temperature Data Loggers", time.Date(y, m, 12, 0, 0, 0, 0, time.UTC), 5000)
		}
	}

	// Monthly buyer that dropped to a trickle.
	for i := 13; i <= 23; i++ {
		add("C-1005", "Meridian Foods", "Reagent Kits", asOf.AddDate(0, -i, -3), 8000)
	}
	for _, i := range []int{2, 6, 10} {
		add("C-1005", "Meridian Foods", "Reagent Kits", asOf.AddDate(0, -i, -3), 2000)
	}

	// Large account that went quiet and narrowed to consumables.
	atlas := []string{"Spectrometers", "Spectrometer Calibration", "Cuvettes"}
	start := asOf.AddDate(-2, 0, 15)
	for i := 0; i < 12; i++ {
		add("C-1006", "Atlas Instruments", atlas[i%len(atlas)], start.AddDate(0, i, 0), 20000)
	}
	add("C-1006", "Atlas Instruments", "Cuvettes", asOf.AddDate(0, 0, -200), 1000)
	add("C-1006", "Atlas Instruments", "Cuvettes", asOf.AddDate(0, 0, -160), 1000)

	// Small steady labs with overlapping baskets.
	labs := []struct {
		id, name string
		cats     []string
	}{
		{"C-1007", "Birch Diagnostics", []string{"Pipette Tips", "Buffer Solution", "Gloves"}},
		{"C-1008", "Cedar Biolabs", []string{"Pipette Tips", "Buffer Solution", "Gloves", "Centrifuges"}},
		{"C-1009", "Dune Analytics", []string{"Pipette Tips", "Gloves", "Balance Calibration"}},
		{"C-1010", "Elm Research", []string{"Pipette Tips", "Buffer Solution", "Gloves", "Analytical Balances"}},
		{"C-1011", "Fjord Testing", []string{"Buffer Solution", "Gloves", "Pipette Calibration"}},
		{"C-1012", "Grove Genomics", []string{"Pipette Tips", "Buffer Solution", "Gloves", "Pipette Calibration"}},
	}
	for k, lab := range labs {
		for i := 0; i < 24; i++ {
			add(lab.id, lab.name, lab.cats[i%len(lab.cats)], asOf.AddDate(0, -i, -(7+k)), 1500)
		}
	}

	// Fast-growing account.
	for _, m := range []int{20, 17, 14} {
		add("C-1013", "Vega Biotech", "Microscopes", asOf.AddDate(0, -m, 0), 10000)
	}
	for _, m := range []int{10, 7, 4, 1} {
		add("C-1013", "Vega Biotech", "Reagent Kits", asOf.AddDate(0, -m, 0), 20000)
	}

	// Recently onboarded.
	add("C-1014", "Nova Clinics", "Gloves", asOf.AddDate(0, 0, -60), 3000)
	add("C-1014", "Nova Clinics", "Gloves", asOf.AddDate(0, 0, -30), 3000)

	return out
}
