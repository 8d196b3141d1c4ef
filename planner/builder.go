package planner

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Builder turns trip requests into day-by-day itineraries. It holds only
// configuration, so one Builder can serve concurrent requests.
type Builder struct {
	model  CostModel
	logger *zap.Logger
	now    func() time.Time
}

// NewBuilder creates a Builder. A nil logger disables logging.
func NewBuilder(model CostModel, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{model: model.withDefaults(), logger: logger, now: time.Now}
}

// Model returns the effective cost model.
func (b *Builder) Model() CostModel {
	return b.model
}

// Generate lays out the itinerary for req. A nil catalog, or one that fails,
// leaves every destination on the built-in estimates and marks the result
// as degraded instead of failing.
func (b *Builder) Generate(ctx context.Context, req TripRequest, catalog Catalog) (*GeneratedItinerary, error) {
	n, err := normalize(req, b.model, b.now().UTC())
	if err != nil {
		return nil, err
	}

	nights := AllocateNights(n.totalDays, len(n.destinations))
	if b.model.ZeroNightPolicy == ZeroNightReject {
		for i, c := range nights {
			if c == 0 {
				return nil, invalid("destinations", fmt.Sprintf(
					"%d days cannot cover %d destinations (%s gets no nights)",
					n.totalDays, len(n.destinations), n.destinations[i]))
			}
		}
	}

	it := &GeneratedItinerary{
		Title:        itineraryTitle(n.destinations, n.totalDays),
		Source:       n.source,
		StartDate:    n.start.Format(DateLayout),
		EndDate:      n.start.AddDate(0, 0, n.totalDays-1).Format(DateLayout),
		Travellers:   n.travellers,
		TotalDays:    n.totalDays,
		Budget:       n.budget,
		BudgetSource: n.budgetSource,
		Warnings:     n.warnings,
		GeneratedAt:  b.now().UTC(),
	}

	var entries []CatalogEntry
	if catalog != nil {
		entries, err = catalog.LookupDestinations(ctx, n.destinations)
		if err != nil {
			b.logger.Warn("catalog lookup failed, using default estimates",
				zap.String("op", "planner.Generate"),
				zap.Strings("destinations", n.destinations),
				zap.Error(err),
			)
			entries = nil
			it.Degraded = true
			it.Warnings = append(it.Warnings, "catalog unavailable; prices are default estimates")
		}
	}
	idx := indexCatalog(entries, b.model.CaseInsensitiveMatch)

	dayIndex := 0
	for i, dest := range n.destinations {
		profile := resolveProfile(dest, nights[i], idx[catalogKey(dest, b.model.CaseInsensitiveMatch)], b.model)
		if profile.nights == 0 && b.model.ZeroNightPolicy == ZeroNightDrop {
			it.Warnings = append(it.Warnings, fmt.Sprintf("%s dropped: no nights left to allocate", dest))
			continue
		}

		var destCost float64
		for j := 0; j < profile.nights; j++ {
			day := b.layoutDay(profile, j, dayIndex, n.start)
			destCost += day.Cost.Sum()
			it.Days = append(it.Days, day)
			dayIndex++
		}
		it.PerDestinationSummary = append(it.PerDestinationSummary, DestinationSummary{
			Destination:   dest,
			Nights:        profile.nights,
			EstimatedCost: math.Round(destCost),
			PriceSource:   profile.priceSource,
		})
	}

	it.Totals = RecalculateTotals(it.Days)
	it.BudgetStatus = classify(it.Totals.GrandTotal, it.Budget)

	b.logger.Debug("itinerary generated",
		zap.String("op", "planner.Generate"),
		zap.Int("total_days", it.TotalDays),
		zap.Float64("grand_total", it.Totals.GrandTotal),
		zap.String("budget_status", string(it.BudgetStatus)),
		zap.Bool("degraded", it.Degraded),
	)
	return it, nil
}

// layoutDay builds day j (0-based) of a destination stay; offset is the
// number of days already planned before it.
func (b *Builder) layoutDay(p destinationProfile, j, offset int, start time.Time) DayPlan {
	day := DayPlan{
		DayIndex:    offset + 1,
		Date:        start.AddDate(0, 0, offset).Format(DateLayout),
		Destination: p.name,
		Cost: Cost{
			Accommodation: p.nightlyPrice,
			Food:          b.model.FoodPerDay,
			Activities:    b.model.ActivitiesPerDay,
		},
	}
	if j == 0 {
		day.Title = "Arrival in " + p.name
		day.Activities = []string{fmt.Sprintf("Arrive in %s and check in to your hotel", p.name)}
		day.Cost.Transport = b.model.TransportPerDestination
	} else {
		day.Title = "Exploring " + p.name
		day.Activities = []string{p.activityPool[(j-1)%len(p.activityPool)]}
	}
	day.Activities = append(day.Activities, "Try a local restaurant")
	return day
}

// RecalculateTotals sums every category across days. Each category is
// rounded to a whole unit on its own and GrandTotal is the sum of the rounded
// categories, so it can differ slightly from the rounded raw sum.
func RecalculateTotals(days []DayPlan) Totals {
	var raw Cost
	for _, d := range days {
		raw.Accommodation += d.Cost.Accommodation
		raw.Food += d.Cost.Food
		raw.Transport += d.Cost.Transport
		raw.Activities += d.Cost.Activities
		raw.Other += d.Cost.Other
	}
	t := Totals{
		Accommodation: math.Round(raw.Accommodation),
		Food:          math.Round(raw.Food),
		Transport:     math.Round(raw.Transport),
		Activities:    math.Round(raw.Activities),
		Other:         math.Round(raw.Other),
	}
	t.GrandTotal = t.Accommodation + t.Food + t.Transport + t.Activities + t.Other
	return t
}

func classify(total, budget float64) BudgetStatus {
	if total <= budget {
		return WithinBudget
	}
	return OverBudget
}

func itineraryTitle(dests []string, days int) string {
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return fmt.Sprintf("%s · %d %s", strings.Join(dests, " → "), days, unit)
}
