package planner

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generated(t *testing.T) *GeneratedItinerary {
	t.Helper()
	it, err := newTestBuilder(DefaultCostModel()).Generate(context.Background(), dubaiLondon(), nil)
	require.NoError(t, err)
	return it
}

func TestApplyBudgetRejectsInvalidTargets(t *testing.T) {
	it := generated(t)
	for _, target := range []float64{0, -100, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ApplyBudget(it, target)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "target %v", target)
		assert.Equal(t, "budget", verr.Field)
	}

	_, err := ApplyBudget(nil, 100)
	assert.Error(t, err)
}

func TestApplyBudgetAtOrAboveTotalReturnsOriginal(t *testing.T) {
	it := generated(t)
	for _, target := range []float64{2400, 5000} {
		res, err := ApplyBudget(it, target)
		require.NoError(t, err)
		assert.True(t, res.Fits)
		assert.False(t, res.Scaled)
		assert.Equal(t, it, res.Plan)
		assert.NotSame(t, it, res.Plan)
		assert.Equal(t, target-2400, res.Difference)
	}
}

func TestApplyBudgetScalesPerCategory(t *testing.T) {
	it := generated(t)
	before := it.Clone()

	res, err := ApplyBudget(it, 1200)
	require.NoError(t, err)
	assert.Equal(t, before, it, "original must not be mutated")

	assert.True(t, res.Scaled)
	assert.Equal(t, 0.5, res.Scale)
	first := res.Plan.Days[0].Cost
	assert.Equal(t, Cost{Accommodation: 60, Food: 25, Activities: 15, Transport: 150}, first)
	assert.Zero(t, res.Plan.Days[1].Cost.Transport)

	assert.Equal(t, Totals{Accommodation: 600, Food: 250, Transport: 300, Activities: 150, GrandTotal: 1300}, res.Plan.Totals)
	assert.False(t, res.Fits)
	assert.Equal(t, -100.0, res.Difference)
	assert.Equal(t, OverBudget, res.Plan.BudgetStatus)
	assert.Equal(t, 650.0, res.Plan.PerDestinationSummary[0].EstimatedCost)
	assert.Equal(t, 5, res.Plan.PerDestinationSummary[0].Nights)
}

func TestApplyBudgetWorkedExample(t *testing.T) {
	it := &GeneratedItinerary{
		Days: []DayPlan{
			{DayIndex: 1, Destination: "Dubai", Cost: Cost{Accommodation: 120, Food: 50, Activities: 30, Transport: 200}},
		},
		Totals: Totals{GrandTotal: 50000},
	}

	res, err := ApplyBudget(it, 20000)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, res.Scale, 1e-12)
	c := res.Plan.Days[0].Cost
	assert.Equal(t, 48.0, c.Accommodation)
	assert.Equal(t, 20.0, c.Food)
	assert.Equal(t, 12.0, c.Activities)
	assert.Equal(t, 130.0, c.Transport)
	assert.Equal(t, 210.0, res.Plan.Totals.GrandTotal)
	assert.True(t, res.Fits)
	assert.Equal(t, 19790.0, res.Difference)
}

func TestApplyBudgetFloors(t *testing.T) {
	it := generated(t)

	res, err := ApplyBudget(it, 1)
	require.NoError(t, err)
	assert.False(t, res.Fits)
	for _, d := range res.Plan.Days {
		assert.GreaterOrEqual(t, d.Cost.Accommodation, float64(MinAccommodationPerDay))
		assert.GreaterOrEqual(t, d.Cost.Food, float64(MinFoodPerDay))
		assert.GreaterOrEqual(t, d.Cost.Activities, 0.0)
	}
	// 10 days at 10 + 1, two arrivals at round(200 * 0.25).
	assert.Equal(t, 210.0, res.MinimumViableCost)
	assert.Equal(t, 210.0, res.Plan.Totals.GrandTotal)
}

func TestApplyBudgetIsIdempotent(t *testing.T) {
	it := generated(t)

	a, err := ApplyBudget(it, 1777)
	require.NoError(t, err)
	b, err := ApplyBudget(it, 1777)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Fitting an already scaled plan compounds rounding.
	c, err := ApplyBudget(a.Plan, 1777)
	require.NoError(t, err)
	assert.NotEqual(t, a.Plan.Totals, c.Plan.Totals)
}

func TestApplyBudgetTotalsInvariant(t *testing.T) {
	it := generated(t)
	for _, target := range []float64{50, 333, 999, 1500, 2399} {
		res, err := ApplyBudget(it, target)
		require.NoError(t, err)
		tot := res.Plan.Totals
		assert.Equal(t, tot.Accommodation+tot.Food+tot.Transport+tot.Activities+tot.Other, tot.GrandTotal)
		assert.Equal(t, RecalculateTotals(res.Plan.Days), tot)
		assert.Equal(t, res.Fits, tot.GrandTotal <= target)
	}
}
