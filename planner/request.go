package planner

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// normalizedRequest is a TripRequest after the lenient clean-up rules have run.
type normalizedRequest struct {
	source       string
	destinations []string
	travellers   int
	start        time.Time
	totalDays    int
	budget       float64
	budgetSource string
	warnings     []string
}

// NormalizeDestinations trims names, drops blanks and removes case-insensitive
// duplicates while keeping the first spelling and the input order.
func NormalizeDestinations(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// TripDays returns the inclusive number of calendar days between start and
// end, clamped to a minimum of one. Unparsable or reversed dates yield 1.
// Callers cap the result; see CostModel.MaxTripDays.
func TripDays(start, end string) int {
	s, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return 1
	}
	e, err := time.Parse(DateLayout, strings.TrimSpace(end))
	if err != nil {
		return 1
	}
	// both dates parse as UTC midnight, so whole-second arithmetic is exact
	days := (e.Unix()-s.Unix())/86400 + 1
	if days < 1 {
		return 1
	}
	if days > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(days)
}

func normalize(req TripRequest, model CostModel, now time.Time) (*normalizedRequest, error) {
	dests := NormalizeDestinations(req.Destinations)
	if len(dests) == 0 {
		return nil, invalid("destinations", "at least one destination is required")
	}

	n := &normalizedRequest{
		source:     strings.TrimSpace(req.Source),
		travellers: req.Travellers,
	}
	if len(dests) > model.MaxDestinations {
		n.warnings = append(n.warnings, fmt.Sprintf("only the first %d destinations are planned; dropped %s",
			model.MaxDestinations, strings.Join(dests[model.MaxDestinations:], ", ")))
		dests = dests[:model.MaxDestinations]
	}
	n.destinations = dests

	if n.travellers < 1 {
		n.travellers = 1
	}

	start, err := time.Parse(DateLayout, strings.TrimSpace(req.StartDate))
	if err != nil {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		n.warnings = append(n.warnings, "start date missing or malformed; planning from today")
	}
	n.start = start
	n.totalDays = TripDays(req.StartDate, req.EndDate)
	if n.totalDays > model.MaxTripDays {
		n.warnings = append(n.warnings, fmt.Sprintf("trip shortened from %d to %d days", n.totalDays, model.MaxTripDays))
		n.totalDays = model.MaxTripDays
	}

	if req.Budget > 0 && !math.IsInf(req.Budget, 0) && !math.IsNaN(req.Budget) {
		n.budget = req.Budget
		n.budgetSource = "request"
	} else {
		n.budget = model.DefaultBudgetPerTraveller * float64(n.travellers)
		n.budgetSource = "default"
	}
	return n, nil
}

// AllocateNights splits totalDays across count destinations. Every
// destination gets totalDays/count nights and the first totalDays%count
// destinations, in input order, get one more.
func AllocateNights(totalDays, count int) []int {
	if count <= 0 {
		return nil
	}
	if totalDays < 0 {
		totalDays = 0
	}
	base := totalDays / count
	remainder := totalDays % count
	nights := make([]int, count)
	for i := range nights {
		nights[i] = base
		if i < remainder {
			nights[i]++
		}
	}
	return nights
}
