package crosssell

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-intelligence/internal/aggregation"
	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/taxonomy"
)

// index builds a CategoryIndex where every purchase is worth 1000 revenue
// and 600 cost.
func index(sets map[string][]string) aggregation.CategoryIndex {
	idx := aggregation.CategoryIndex{
		Sets:  map[string]domain.CategorySet{},
		Names: map[string]string{},
		Stats: map[string]domain.CategoryStats{},
	}
	for id, cats := range sets {
		idx.Sets[id] = domain.NewCategorySet(cats...)
		idx.Names[id] = "Customer " + id
		for _, c := range cats {
			st := idx.Stats[c]
			st.Category = c
			st.Revenue = st.Revenue.Add(decimal.NewFromInt(1000))
			st.Cost = st.Cost.Add(decimal.NewFromInt(600))
			st.BuyerCount++
			idx.Stats[c] = st
		}
	}
	return idx
}

func TestJaccard(t *testing.T) {
	a := domain.NewCategorySet("x", "y", "z")
	b := domain.NewCategorySet("y", "z", "w")
	empty := domain.NewCategorySet()

	assert.Equal(t, 0.5, Jaccard(a, b))
	assert.Equal(t, Jaccard(a, b), Jaccard(b, a))
	assert.Equal(t, 1.0, Jaccard(a, a))
	assert.Equal(t, 1.0, Jaccard(empty, empty))
	assert.Equal(t, 0.0, Jaccard(a, empty))
	assert.Equal(t, 0.0, Jaccard(domain.NewCategorySet("q"), a))
}

func TestJaccard_SymmetricProperty(t *testing.T) {
	sets := []domain.CategorySet{
		domain.NewCategorySet("a"),
		domain.NewCategorySet("a", "b"),
		domain.NewCategorySet("b", "c", "d"),
		domain.NewCategorySet("a", "b", "c", "d", "e"),
		domain.NewCategorySet(),
	}
	for i, a := range sets {
		assert.Equal(t, 1.0, Jaccard(a, a), "set %d", i)
		for j, b := range sets {
			assert.Equal(t, Jaccard(a, b), Jaccard(b, a), "sets %d,%d", i, j)
		}
	}
}

func TestRecommendCrossSell_Basic(t *testing.T) {
	idx := index(map[string][]string{
		"target": {"Filters", "Seals"},
		"p1":     {"Filters", "Seals", "Gaskets"},
		"p2":     {"Filters", "Seals", "Gaskets", "Hoses"},
		"p3":     {"Filters", "Seals", "Valves"},
		"far":    {"Cables"},
	})

	opps := RecommendCrossSell(idx, Options{})

	var forTarget []domain.CrossSellOpportunity
	for _, o := range opps {
		if o.EntityID == "target" {
			forTarget = append(forTarget, o)
		}
	}
	require.Len(t, forTarget, 3)
	cats := map[string]domain.CrossSellOpportunity{}
	for _, o := range forTarget {
		cats[o.RecommendedCategory] = o
	}
	require.Contains(t, cats, "Gaskets")
	assert.InDelta(t, 200.0/3.0, cats["Gaskets"].AffinityScore, 1e-9)
	assert.Equal(t, 3, cats["Gaskets"].SimilarEntityCount)
	assert.InDelta(t, 1000.0, cats["Gaskets"].EstimatedRevenue, 1e-9)
	assert.InDelta(t, 40.0, cats["Gaskets"].AvgMarginPct, 1e-9)
	assert.InDelta(t, 100.0/3.0, cats["Hoses"].AffinityScore, 1e-9)
	assert.NotContains(t, cats, "Cables")
	assert.Equal(t, "Customer target", cats["Gaskets"].EntityName)
}

func TestRecommendCrossSell_CoverageThreshold(t *testing.T) {
	var sets = map[string][]string{"target": {"A", "B"}}
	for i := 0; i < 4; i++ {
		sets[fmt.Sprintf("p%d", i)] = []string{"A", "B"}
	}
	sets["p4"] = []string{"A", "B", "Rare"}

	opps := RecommendCrossSell(index(sets), Options{})
	for _, o := range opps {
		assert.NotEqual(t, "Rare", o.RecommendedCategory, "1/5 coverage is below the minimum")
	}
}

func TestRecommendCrossSell_NoSimilarPeers(t *testing.T) {
	idx := index(map[string][]string{
		"a": {"X"},
		"b": {"Y"},
	})
	assert.Empty(t, RecommendCrossSell(idx, Options{}))
}

func TestRecommendCrossSell_MinSimilarityOverride(t *testing.T) {
	idx := index(map[string][]string{
		"a": {"X", "Y", "Z", "W"},
		"b": {"X", "Q"},
	})
	// J(a,b) = 1/5 = 0.2
	assert.Empty(t, RecommendCrossSell(idx, Options{}))
	assert.NotEmpty(t, RecommendCrossSell(idx, Options{MinSimilarity: 0.2}))
}

func TestRecommendCrossSell_CalibrationGate(t *testing.T) {
	idx := index(map[string][]string{
		"lab":  {"Balance Calibration", "Pipette Tips"},
		"p1":   {"Balance Calibration", "Pipette Tips", "Analytical Balances"},
		"p2":   {"Balance Calibration", "Pipette Tips", "Analytical Balances", "Pipettes"},
		"p3":   {"Onsite Calibration", "Pipette Tips", "Digital Thermometers"},
		"svc":  {"Onsite Calibration", "Pipette Tips"},
		"peer": {"Onsite Calibration", "Pipette Tips", "Pressure Gauges", "Buffer Solution"},
	})
	tax := taxonomy.Default()

	opps := RecommendCrossSell(idx, Options{Gate: tax})

	require.NotEmpty(t, opps)
	for _, o := range opps {
		owned := idx.Sets[o.EntityID]
		assert.False(t, tax.Blocks(owned, o.RecommendedCategory), "%s -> %s", o.EntityID, o.RecommendedCategory)
		if o.EntityID == "lab" {
			assert.NotEqual(t, "Analytical Balances", o.RecommendedCategory)
		}
		if o.EntityID == "svc" {
			assert.NotEqual(t, taxonomy.KindEquipment, tax.Classify(o.RecommendedCategory).Kind,
				"unknown service class blocks all equipment")
		}
	}
}

func TestRecommendCrossSell_UnplacedEquipmentUnderService(t *testing.T) {
	idx := index(map[string][]string{
		"shop": {"Torque Wrench Calibration", "Hand Tools"},
		"p1":   {"Hand Tools", "Torque Wrench"},
		"p2":   {"Hand Tools", "Torque Wrench", "Torque Wrench Calibration"},
	})

	opps := RecommendCrossSell(idx, Options{})

	for _, o := range opps {
		if o.EntityID == "shop" {
			assert.NotEqual(t, "Torque Wrench", o.RecommendedCategory)
		}
	}
	var p1 []string
	for _, o := range opps {
		if o.EntityID == "p1" {
			p1 = append(p1, o.RecommendedCategory)
		}
	}
	assert.Contains(t, p1, "Torque Wrench Calibration", "services remain recommendable")
}

func TestRecommendCrossSell_SortedUniqueAndCapped(t *testing.T) {
	sets := map[string][]string{}
	for i := 0; i < 30; i++ {
		sets[fmt.Sprintf("e%02d", i)] = []string{"Core", fmt.Sprintf("Extra%d", i%5), fmt.Sprintf("Other%d", i%3)}
	}
	idx := index(sets)

	opps := RecommendCrossSell(idx, Options{Limit: 10, MinSimilarity: 0.2, MinCoverage: 0.1})

	require.Len(t, opps, 10)
	seen := map[[2]string]bool{}
	for i, o := range opps {
		key := [2]string{o.EntityID, o.RecommendedCategory}
		assert.False(t, seen[key], "duplicate %v", key)
		seen[key] = true
		assert.GreaterOrEqual(t, o.AffinityScore, 0.0)
		assert.LessOrEqual(t, o.AffinityScore, 100.0)
		if i > 0 {
			assert.GreaterOrEqual(t, opps[i-1].EstimatedRevenue, o.EstimatedRevenue)
		}
	}
}

func TestRecommendCrossSell_Deterministic(t *testing.T) {
	idx := index(map[string][]string{
		"a": {"X", "Y"},
		"b": {"X", "Y", "Z"},
		"c": {"X", "Z"},
		"d": {"Y", "Z", "W"},
	})
	assert.Equal(t, RecommendCrossSell(idx, Options{}), RecommendCrossSell(idx, Options{}))
}

func TestByEntity(t *testing.T) {
	grouped := ByEntity([]domain.CrossSellOpportunity{
		{EntityID: "a", RecommendedCategory: "x"},
		{EntityID: "b", RecommendedCategory: "y"},
		{EntityID: "a", RecommendedCategory: "z"},
	})
	require.Len(t, grouped["a"], 2)
	assert.Equal(t, "z", grouped["a"][1].RecommendedCategory)
}
