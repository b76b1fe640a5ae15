package aggregation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"sales-intelligence/internal/domain"
)

// Aggregates maps entity ID to its current and prior window aggregates.
type Aggregates map[string]*domain.EntityWindows

// windowAcc accumulates one entity-window in a single pass.
type windowAcc struct {
	agg  domain.WindowAggregate
	days map[time.Time]struct{}
}

func newWindowAcc() *windowAcc {
	return &windowAcc{
		agg: domain.WindowAggregate{
			Categories: domain.CategorySet{},
			ByCategory: map[string]domain.CategoryTotals{},
		},
		days: map[time.Time]struct{}{},
	}
}

func (a *windowAcc) add(r domain.TransactionRecord) {
	day := r.Day()
	a.agg.RevenueTotal = a.agg.RevenueTotal.Add(r.Revenue)
	a.agg.CostTotal = a.agg.CostTotal.Add(r.Cost)
	a.days[day] = struct{}{}
	if r.Category != "" {
		a.agg.Categories[r.Category] = struct{}{}
		t := a.agg.ByCategory[r.Category]
		t.Revenue = t.Revenue.Add(r.Revenue)
		t.Cost = t.Cost.Add(r.Cost)
		a.agg.ByCategory[r.Category] = t
	}
	if day.After(a.agg.LastTransactionDate) {
		a.agg.LastTransactionDate = day
	}
}

func (a *windowAcc) finish() domain.WindowAggregate {
	a.agg.OrderCount = len(a.days)
	return a.agg
}

type entityAcc struct {
	name    string
	nameDay time.Time
	current *windowAcc
	prior   *windowAcc
}

// AggregateWindows groups records into per-entity aggregates for the two
// windows of spec in a single pass. Records outside both windows and invalid
// records are ignored. An entity seen only in one window gets an all-zero
// aggregate for the other.
func AggregateWindows(records []domain.TransactionRecord, spec domain.WindowSpec) Aggregates {
	curRange, priorRange := spec.Ranges()
	accs := make(map[string]*entityAcc)

	for _, r := range records {
		if !r.Valid() {
			continue
		}
		day := r.Day()

		var inCurrent, inPrior bool
		switch {
		case curRange.Contains(day):
			inCurrent = true
		case priorRange.Contains(day):
			inPrior = true
		default:
			continue
		}

		acc, ok := accs[r.EntityID]
		if !ok {
			acc = &entityAcc{current: newWindowAcc(), prior: newWindowAcc()}
			accs[r.EntityID] = acc
		}
		// Latest record names the entity; same-day ties resolve by name order.
		if r.EntityName != "" && (acc.name == "" || day.After(acc.nameDay) || (day.Equal(acc.nameDay) && r.EntityName > acc.name)) {
			acc.name = r.EntityName
			acc.nameDay = day
		}
		if inCurrent {
			acc.current.add(r)
		}
		if inPrior {
			acc.prior.add(r)
		}
	}

	out := make(Aggregates, len(accs))
	for id, acc := range accs {
		name := acc.name
		if name == "" {
			name = id
		}
		out[id] = &domain.EntityWindows{
			EntityID:   id,
			EntityName: name,
			Current:    acc.current.finish(),
			Prior:      acc.prior.finish(),
		}
	}
	return out
}

// Sorted returns the entities ordered by ID.
func (a Aggregates) Sorted() []*domain.EntityWindows {
	out := make([]*domain.EntityWindows, 0, len(a))
	for _, e := range a {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// SelectWindow projects the aggregates onto one window, dropping entities
// without activity in it. Result is ordered by entity ID.
func SelectWindow(a Aggregates, w domain.Window) []domain.EntityAggregate {
	out := make([]domain.EntityAggregate, 0, len(a))
	for _, e := range a.Sorted() {
		agg := e.Window(w)
		if agg.Empty() {
			continue
		}
		out = append(out, domain.EntityAggregate{
			EntityID:   e.EntityID,
			EntityName: e.EntityName,
			Aggregate:  agg,
		})
	}
	return out
}

// CategoryIndex is the cross-sell input for one window.
type CategoryIndex struct {
	Sets  map[string]domain.CategorySet   // entity ID -> purchased categories
	Names map[string]string               // entity ID -> display name
	Stats map[string]domain.CategoryStats // category -> portfolio totals
}

// BuildCategoryIndex collects category sets per entity and portfolio-wide
// category statistics for window w.
func BuildCategoryIndex(a Aggregates, w domain.Window) CategoryIndex {
	idx := CategoryIndex{
		Sets:  make(map[string]domain.CategorySet),
		Names: make(map[string]string),
		Stats: make(map[string]domain.CategoryStats),
	}
	for _, e := range SelectWindow(a, w) {
		if len(e.Aggregate.Categories) == 0 {
			continue
		}
		idx.Sets[e.EntityID] = e.Aggregate.Categories
		idx.Names[e.EntityID] = e.EntityName
		for cat, t := range e.Aggregate.ByCategory {
			st := idx.Stats[cat]
			st.Category = cat
			st.Revenue = st.Revenue.Add(t.Revenue)
			st.Cost = st.Cost.Add(t.Cost)
			st.BuyerCount++
			idx.Stats[cat] = st
		}
	}
	return idx
}

// Totals sums revenue and cost of window w across all entities.
func Totals(a Aggregates, w domain.Window) (revenue, cost decimal.Decimal) {
	for _, e := range a {
		agg := e.Window(w)
		revenue = revenue.Add(agg.RevenueTotal)
		cost = cost.Add(agg.CostTotal)
	}
	return revenue, cost
}
