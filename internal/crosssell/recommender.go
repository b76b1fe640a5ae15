// Package crosssell proposes categories an entity does not buy yet but its
// most similar peers do.
package crosssell

import (
	"sort"

	"github.com/shopspring/decimal"

	"sales-intelligence/internal/aggregation"
	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/taxonomy"
)

// Defaults.
const (
	DefaultMinSimilarity = 0.25
	DefaultMinCoverage   = 0.30
	DefaultLimit         = 100
)

// Gate vetoes a candidate category for an entity that buys owned.
type Gate interface {
	Blocks(owned domain.CategorySet, candidate string) bool
}

// Options tunes the recommender. Thresholds are within (0,1]; zero values take
// the defaults. A nil Gate uses the default taxonomy.
type Options struct {
	MinSimilarity float64
	MinCoverage   float64
	Limit         int
	Gate          Gate
}

func (o Options) withDefaults() Options {
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = DefaultMinSimilarity
	}
	if o.MinCoverage <= 0 {
		o.MinCoverage = DefaultMinCoverage
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Gate == nil {
		o.Gate = taxonomy.Default()
	}
	return o
}

// Jaccard returns |a∩b| / |a∪b|. Two empty sets are identical.
func Jaccard(a, b domain.CategorySet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if large.Has(k) {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// RecommendCrossSell evaluates every (target, other) pair in idx. Results are
// unique per (entity, category), sorted by estimated revenue descending and
// capped at opts.Limit.
func RecommendCrossSell(idx aggregation.CategoryIndex, opts Options) []domain.CrossSellOpportunity {
	opts = opts.withDefaults()

	ids := make([]string, 0, len(idx.Sets))
	for id := range idx.Sets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best := make(map[[2]string]domain.CrossSellOpportunity)
	for _, target := range ids {
		own := idx.Sets[target]

		var peers []string
		for _, other := range ids {
			if other == target {
				continue
			}
			if Jaccard(own, idx.Sets[other]) >= opts.MinSimilarity {
				peers = append(peers, other)
			}
		}
		if len(peers) == 0 {
			continue
		}

		counts := make(map[string]int)
		for _, p := range peers {
			for cat := range idx.Sets[p] {
				if !own.Has(cat) {
					counts[cat]++
				}
			}
		}

		for cat, n := range counts {
			coverage := float64(n) / float64(len(peers))
			if coverage < opts.MinCoverage {
				continue
			}
			if opts.Gate.Blocks(own, cat) {
				continue
			}
			estRevenue, margin := estimate(idx.Stats[cat])
			opp := domain.CrossSellOpportunity{
				EntityID:            target,
				EntityName:          idx.Names[target],
				RecommendedCategory: cat,
				AffinityScore:       clamp(coverage*100, 0, 100),
				SimilarEntityCount:  len(peers),
				EstimatedRevenue:    estRevenue,
				AvgMarginPct:        margin,
			}
			key := [2]string{target, cat}
			if prev, ok := best[key]; !ok || opp.AffinityScore > prev.AffinityScore {
				best[key] = opp
			}
		}
	}

	out := make([]domain.CrossSellOpportunity, 0, len(best))
	for _, o := range best {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.EstimatedRevenue != b.EstimatedRevenue {
			return a.EstimatedRevenue > b.EstimatedRevenue
		}
		if a.AffinityScore != b.AffinityScore {
			return a.AffinityScore > b.AffinityScore
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return a.RecommendedCategory < b.RecommendedCategory
	})
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// ByEntity groups opportunities per entity, preserving order.
func ByEntity(opps []domain.CrossSellOpportunity) map[string][]domain.CrossSellOpportunity {
	out := make(map[string][]domain.CrossSellOpportunity)
	for _, o := range opps {
		out[o.EntityID] = append(out[o.EntityID], o)
	}
	return out
}

// estimate returns average revenue per buyer and portfolio margin percent.
func estimate(st domain.CategoryStats) (revenue, marginPct float64) {
	if st.BuyerCount > 0 {
		revenue = st.Revenue.Div(decimal.NewFromInt(int64(st.BuyerCount))).InexactFloat64()
	}
	if st.Revenue.IsPositive() {
		marginPct = st.Revenue.Sub(st.Cost).Div(st.Revenue).InexactFloat64() * 100
	}
	return revenue, marginPct
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
