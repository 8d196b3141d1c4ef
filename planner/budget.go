package planner

import (
	"math"
)

// ApplyBudget fits original to target. It never mutates original: a target at
// or above the current grand total returns an untouched copy, anything lower
// returns a copy whose per-day costs are scaled down with per-category floors.
// The result is a pure function of (original, target).
func ApplyBudget(original *GeneratedItinerary, target float64) (*BudgetFitResult, error) {
	if original == nil {
		return nil, invalid("plan", "no itinerary to fit")
	}
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return nil, invalid("budget", "target budget must be a positive number")
	}

	minimum := minimumViableCost(original.Days)
	total := original.Totals.GrandTotal
	if target >= total {
		return &BudgetFitResult{
			Fits:              true,
			Target:            target,
			Scale:             1,
			Difference:        target - total,
			MinimumViableCost: minimum,
			Plan:              original.Clone(),
		}, nil
	}

	scale := target / total
	plan := original.Clone()
	for i := range plan.Days {
		plan.Days[i].Cost = scaleCost(plan.Days[i].Cost, scale)
	}
	plan.Totals = RecalculateTotals(plan.Days)
	plan.PerDestinationSummary = resummarize(plan.PerDestinationSummary, plan.Days)
	plan.Budget = target
	plan.BudgetSource = "request"
	plan.BudgetStatus = classify(plan.Totals.GrandTotal, target)

	return &BudgetFitResult{
		Fits:              plan.Totals.GrandTotal <= target,
		Scaled:            true,
		Target:            target,
		Scale:             scale,
		Difference:        target - plan.Totals.GrandTotal,
		MinimumViableCost: minimum,
		Plan:              plan,
	}, nil
}

// scaleCost applies scale to one day. Transport is cut less aggressively
// than the other categories and accommodation and food never reach zero.
func scaleCost(c Cost, scale float64) Cost {
	transportScale := math.Min(1, scale+TransportScaleBoost)
	return Cost{
		Accommodation: math.Max(MinAccommodationPerDay, math.Round(c.Accommodation*scale)),
		Food:          math.Max(MinFoodPerDay, math.Round(c.Food*scale)),
		Activities:    math.Max(0, math.Round(c.Activities*scale)),
		Transport:     math.Max(0, math.Round(c.Transport*transportScale)),
		Other:         math.Max(0, math.Round(c.Other*scale)),
	}
}

// minimumViableCost is the grand total the plan converges to as the target
// budget approaches zero.
func minimumViableCost(days []DayPlan) float64 {
	floored := make([]DayPlan, len(days))
	for i, d := range days {
		floored[i] = DayPlan{Cost: scaleCost(d.Cost, 0)}
	}
	return RecalculateTotals(floored).GrandTotal
}

// resummarize recomputes per-destination costs from days, keeping the order
// and night counts of the existing summary.
func resummarize(summary []DestinationSummary, days []DayPlan) []DestinationSummary {
	if summary == nil {
		return nil
	}
	costs := make(map[string]float64, len(summary))
	for _, d := range days {
		costs[d.Destination] += d.Cost.Sum()
	}
	out := make([]DestinationSummary, len(summary))
	for i, s := range summary {
		s.EstimatedCost = math.Round(costs[s.Destination])
		out[i] = s
	}
	return out
}
