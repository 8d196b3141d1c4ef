// Package planner builds day-by-day trip itineraries from a destination list,
// fits them to a target budget, and assembles single-destination packages
// on a discrete hotel-tier ladder.
package planner

import "time"

// DateLayout is the calendar date format used on requests and day plans.
const DateLayout = "2006-01-02"

// ─── Request ──────────────────────────────────────────────────────────────────

type TripRequest struct {
	Source       string   `json:"source"`
	Destinations []string `json:"destinations"`
	Budget       float64  `json:"budget"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Travellers   int      `json:"travellers"`
}

// ─── Itinerary ────────────────────────────────────────────────────────────────

// Cost is the per-day spend split into categories. Every field is >= 0.
type Cost struct {
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Transport     float64 `json:"transport"`
	Activities    float64 `json:"activities"`
	Other         float64 `json:"other,omitempty"`
}

// Sum adds all categories without rounding.
func (c Cost) Sum() float64 {
	return c.Accommodation + c.Food + c.Transport + c.Activities + c.Other
}

type DayPlan struct {
	DayIndex    int      `json:"day_index"`
	Date        string   `json:"date"`
	Destination string   `json:"destination"`
	Title       string   `json:"title"`
	Activities  []string `json:"activities"`
	Cost        Cost     `json:"cost"`
}

type Totals struct {
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Transport     float64 `json:"transport"`
	Activities    float64 `json:"activities"`
	Other         float64 `json:"other"`
	GrandTotal    float64 `json:"grand_total"`
}

type DestinationSummary struct {
	Destination   string      `json:"destination"`
	Nights        int         `json:"nights"`
	EstimatedCost float64     `json:"estimated_cost"`
	PriceSource   PriceSource `json:"price_source"`
}

// BudgetStatus classifies an itinerary's grand total against the requested budget.
type BudgetStatus string

const (
	WithinBudget BudgetStatus = "within_budget"
	OverBudget   BudgetStatus = "over_budget"
)

type GeneratedItinerary struct {
	Title                 string               `json:"title"`
	Source                string               `json:"source,omitempty"`
	StartDate             string               `json:"start_date"`
	EndDate               string               `json:"end_date"`
	Travellers            int                  `json:"travellers"`
	TotalDays             int                  `json:"total_days"`
	Days                  []DayPlan            `json:"days"`
	Totals                Totals               `json:"totals"`
	PerDestinationSummary []DestinationSummary `json:"per_destination_summary"`
	Budget                float64              `json:"budget"`
	BudgetSource          string               `json:"budget_source"`
	BudgetStatus          BudgetStatus         `json:"budget_status"`
	Degraded              bool                 `json:"degraded,omitempty"`
	Warnings              []string             `json:"warnings,omitempty"`
	GeneratedAt           time.Time            `json:"generated_at"`
}

// Clone returns a deep copy that shares no slices with it.
func (g *GeneratedItinerary) Clone() *GeneratedItinerary {
	if g == nil {
		return nil
	}
	out := *g
	if g.Days != nil {
		out.Days = make([]DayPlan, len(g.Days))
		for i, d := range g.Days {
			d.Activities = cloneStrings(d.Activities)
			out.Days[i] = d
		}
	}
	if g.PerDestinationSummary != nil {
		out.PerDestinationSummary = make([]DestinationSummary, len(g.PerDestinationSummary))
		copy(out.PerDestinationSummary, g.PerDestinationSummary)
	}
	out.Warnings = cloneStrings(g.Warnings)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// BudgetFitResult is the outcome of fitting an itinerary to a target budget.
// Difference is target minus the plan's grand total: negative values are the
// residual overage, positive values the remaining margin.
type BudgetFitResult struct {
	Fits              bool                `json:"fits"`
	Scaled            bool                `json:"scaled"`
	Target            float64             `json:"target"`
	Scale             float64             `json:"scale"`
	Difference        float64             `json:"difference"`
	MinimumViableCost float64             `json:"minimum_viable_cost"`
	Plan              *GeneratedItinerary `json:"plan"`
}
