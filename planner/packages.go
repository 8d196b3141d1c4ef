package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// TravelStyle is the package comfort level derived from the per-person daily budget.
type TravelStyle string

const (
	StyleBudget  TravelStyle = "Budget"
	StyleComfort TravelStyle = "Comfort"
	StyleLuxury  TravelStyle = "Luxury"
)

// HotelTier is one rung of the hotel ladder the package generator walks.
type HotelTier struct {
	Stars        int     `mapstructure:"stars" json:"stars"`
	Name         string  `mapstructure:"name" json:"name"`
	NightlyPrice float64 `mapstructure:"nightly_price" json:"nightly_price"`
}

// PackagePolicy holds the thresholds and prices of the package generator.
type PackagePolicy struct {
	LuxuryThreshold         float64             `mapstructure:"luxury_threshold"`
	ComfortThreshold        float64             `mapstructure:"comfort_threshold"`
	FlightFarePerTraveller  float64             `mapstructure:"flight_fare_per_traveller"`
	MealsPerDayPerTraveller float64             `mapstructure:"meals_per_day_per_traveller"`
	ActivityShare           float64             `mapstructure:"activity_share"`
	MaxDays                 int                 `mapstructure:"max_days"`
	Tiers                   []HotelTier         `mapstructure:"tiers"`
	SampleActivities        map[string][]string `mapstructure:"sample_activities"`
	DefaultActivities       []string            `mapstructure:"default_activities"`
}

// DefaultPackagePolicy returns the built-in ladder and prices.
func DefaultPackagePolicy() PackagePolicy {
	return PackagePolicy{
		LuxuryThreshold:         50000,
		ComfortThreshold:        15000,
		FlightFarePerTraveller:  15000,
		MealsPerDayPerTraveller: 1500,
		ActivityShare:           0.5,
		MaxDays:                 365,
		Tiers: []HotelTier{
			{Stars: 5, Name: "Grand Palace Resort", NightlyPrice: 18000},
			{Stars: 4, Name: "City Comfort Hotel", NightlyPrice: 8000},
			{Stars: 3, Name: "Budget Stay Inn", NightlyPrice: 3500},
		},
		SampleActivities: map[string][]string{
			"dubai":  {"Burj Khalifa observation deck", "Desert safari", "Dubai Mall and fountain show", "Dhow cruise at the marina"},
			"london": {"Tower of London", "British Museum", "Thames river cruise", "West End show"},
			"paris":  {"Eiffel Tower", "Louvre Museum", "Seine river cruise", "Montmartre walk"},
			"goa":    {"Baga beach day", "Old Goa churches", "Spice plantation tour", "Sunset cruise on the Mandovi"},
		},
		DefaultActivities: []string{"Guided city tour", "Local food trail", "Museum visit", "Sunset viewpoint"},
	}
}

func (p PackagePolicy) withDefaults() PackagePolicy {
	d := DefaultPackagePolicy()
	if p.LuxuryThreshold <= 0 {
		p.LuxuryThreshold = d.LuxuryThreshold
	}
	if p.ComfortThreshold <= 0 {
		p.ComfortThreshold = d.ComfortThreshold
	}
	if p.FlightFarePerTraveller < 0 {
		p.FlightFarePerTraveller = d.FlightFarePerTraveller
	}
	if p.MealsPerDayPerTraveller < 0 {
		p.MealsPerDayPerTraveller = d.MealsPerDayPerTraveller
	}
	if p.ActivityShare <= 0 || p.ActivityShare > 1 {
		p.ActivityShare = d.ActivityShare
	}
	if p.MaxDays <= 0 {
		p.MaxDays = d.MaxDays
	}
	if len(p.Tiers) == 0 {
		p.Tiers = d.Tiers
	}
	p.Tiers = append([]HotelTier(nil), p.Tiers...)
	sort.SliceStable(p.Tiers, func(i, j int) bool { return p.Tiers[i].Stars > p.Tiers[j].Stars })
	if p.SampleActivities == nil {
		p.SampleActivities = d.SampleActivities
	}
	if len(p.DefaultActivities) == 0 {
		p.DefaultActivities = d.DefaultActivities
	}
	return p
}

// ─── Request / result ─────────────────────────────────────────────────────────

type PackageRequest struct {
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Budget      float64 `json:"budget"`
	Days        int     `json:"days"`
	StartDate   string  `json:"start_date,omitempty"`
	EndDate     string  `json:"end_date,omitempty"`
	Travellers  int     `json:"travellers"`
}

type PackageDay struct {
	Day            int     `json:"day"`
	Title          string  `json:"title"`
	ActivityBudget float64 `json:"activity_budget"`
}

type BudgetBreakdown struct {
	Flights    float64 `json:"flights"`
	Hotel      float64 `json:"hotel"`
	Meals      float64 `json:"meals"`
	Activities float64 `json:"activities"`
	Transport  float64 `json:"transport"`
	Total      float64 `json:"total"`
}

type TripPackage struct {
	Source             string          `json:"source,omitempty"`
	Destination        string          `json:"destination"`
	Style              TravelStyle     `json:"style"`
	Days               int             `json:"days"`
	Nights             int             `json:"nights"`
	Travellers         int             `json:"travellers"`
	TotalBudget        float64         `json:"total_budget"`
	PerPersonPerDay    float64         `json:"per_person_per_day"`
	RecommendedStars   int             `json:"recommended_stars"`
	Hotel              HotelTier       `json:"hotel"`
	FlightsEstimate    float64         `json:"flights_estimate"`
	Itinerary          []PackageDay    `json:"itinerary"`
	Breakdown          BudgetBreakdown `json:"budget_breakdown"`
	Affordable         bool            `json:"affordable"`
	MinimumViableCost  float64         `json:"minimum_viable_cost"`
	Shortfall          float64         `json:"shortfall,omitempty"`
	AffordabilityNotes []string        `json:"affordability_notes"`
	Alternatives       []string        `json:"alternatives,omitempty"`
	Summary            []string        `json:"summary"`
}

// ─── Generator ────────────────────────────────────────────────────────────────

// PackageGenerator assembles single-destination packages. Instead of scaling
// costs continuously it steps the hotel down a discrete star ladder until the
// package fits.
type PackageGenerator struct {
	policy PackagePolicy
}

func NewPackageGenerator(policy PackagePolicy) *PackageGenerator {
	return &PackageGenerator{policy: policy.withDefaults()}
}

// Policy returns the effective policy.
func (g *PackageGenerator) Policy() PackagePolicy {
	return g.policy
}

// Build computes a package for req. An unaffordable budget is not an error:
// the package comes back with Affordable false and guidance attached.
func (g *PackageGenerator) Build(req PackageRequest) (*TripPackage, error) {
	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		return nil, invalid("destination", "a destination is required")
	}
	if math.IsNaN(req.Budget) || math.IsInf(req.Budget, 0) || req.Budget <= 0 {
		return nil, invalid("budget", "budget must be a positive number")
	}
	days := req.Days
	if days <= 0 && req.StartDate != "" {
		days = TripDays(req.StartDate, req.EndDate)
	}
	if days < 1 {
		return nil, invalid("days", "trip must last at least one day")
	}
	if days > g.policy.MaxDays {
		return nil, invalid("days", fmt.Sprintf("trip cannot be longer than %d days", g.policy.MaxDays))
	}
	travellers := req.Travellers
	if travellers < 1 {
		travellers = 1
	}

	p := g.policy
	perPersonPerDay := req.Budget / float64(travellers) / float64(days)
	style, stars := p.classify(perPersonPerDay)
	start := p.tierIndex(stars)

	pkg := &TripPackage{
		Source:           strings.TrimSpace(req.Source),
		Destination:      dest,
		Style:            style,
		Days:             days,
		Nights:           days - 1,
		Travellers:       travellers,
		TotalBudget:      req.Budget,
		PerPersonPerDay:  roundCents(perPersonPerDay),
		RecommendedStars: p.Tiers[start].Stars,
		FlightsEstimate:  p.FlightFarePerTraveller * float64(travellers),
	}

	chosen := -1
	for i := start; i < len(p.Tiers); i++ {
		if p.coreCost(p.Tiers[i], days, travellers).Total <= req.Budget {
			chosen = i
			break
		}
	}

	floor := len(p.Tiers) - 1
	pkg.MinimumViableCost = p.coreCost(p.Tiers[floor], days, travellers).Total

	if chosen < 0 {
		pkg.Hotel = p.Tiers[floor]
		pkg.Breakdown = p.coreCost(pkg.Hotel, days, travellers)
		pkg.Affordable = false
		pkg.Shortfall = pkg.MinimumViableCost - req.Budget
		g.explainShortfall(pkg)
	} else {
		pkg.Hotel = p.Tiers[chosen]
		pkg.Affordable = true
		if chosen != start {
			pkg.AffordabilityNotes = append(pkg.AffordabilityNotes, fmt.Sprintf(
				"Downgraded hotel from %d★ to %d★ (%s) to fit the budget",
				p.Tiers[start].Stars, pkg.Hotel.Stars, pkg.Hotel.Name))
		} else {
			pkg.AffordabilityNotes = append(pkg.AffordabilityNotes, fmt.Sprintf(
				"Recommended %d★ stay fits the budget", pkg.Hotel.Stars))
		}
		g.allocateRemainder(pkg)
	}

	pkg.Summary = g.summarize(pkg)
	return pkg, nil
}

// classify maps a per-person daily budget to a style and its star rating.
func (p PackagePolicy) classify(perPersonPerDay float64) (TravelStyle, int) {
	switch {
	case perPersonPerDay >= p.LuxuryThreshold:
		return StyleLuxury, 5
	case perPersonPerDay >= p.ComfortThreshold:
		return StyleComfort, 4
	default:
		return StyleBudget, 3
	}
}

// tierIndex finds the best tier at or below stars, or the floor tier.
func (p PackagePolicy) tierIndex(stars int) int {
	for i, t := range p.Tiers {
		if t.Stars <= stars {
			return i
		}
	}
	return len(p.Tiers) - 1
}

// coreCost is flights plus hotel plus meals; activities and transport are
// only funded from what is left over.
func (p PackagePolicy) coreCost(tier HotelTier, days, travellers int) BudgetBreakdown {
	b := BudgetBreakdown{
		Flights: p.FlightFarePerTraveller * float64(travellers),
		Hotel:   tier.NightlyPrice * float64(days-1) * float64(travellers),
		Meals:   p.MealsPerDayPerTraveller * float64(days) * float64(travellers),
	}
	b.Total = b.Flights + b.Hotel + b.Meals
	return b
}

func (g *PackageGenerator) allocateRemainder(pkg *TripPackage) {
	p := g.policy
	b := p.coreCost(pkg.Hotel, pkg.Days, pkg.Travellers)
	remaining := pkg.TotalBudget - b.Total
	b.Activities = roundCents(remaining * p.ActivityShare)
	b.Transport = roundCents(remaining - b.Activities)
	b.Total = b.Flights + b.Hotel + b.Meals + b.Activities + b.Transport
	pkg.Breakdown = b

	samples := p.SampleActivities[strings.ToLower(pkg.Destination)]
	if len(samples) == 0 {
		samples = p.DefaultActivities
	}

	perDay := b.Activities
	if pkg.Days > 1 {
		perDay = roundCents(b.Activities / float64(pkg.Days-1))
	}

	pkg.Itinerary = make([]PackageDay, 0, pkg.Days)
	for d := 1; d <= pkg.Days; d++ {
		day := PackageDay{Day: d, ActivityBudget: perDay}
		switch {
		case d == 1:
			day.Title = fmt.Sprintf("Arrive in %s and check in to %s", pkg.Destination, pkg.Hotel.Name)
		case d == pkg.Days:
			day.Title = fmt.Sprintf("Check out and depart %s", pkg.Destination)
			day.ActivityBudget = 0
		default:
			day.Title = samples[(d-2)%len(samples)]
		}
		pkg.Itinerary = append(pkg.Itinerary, day)
	}
}

// explainShortfall fills notes and alternatives for a package that does not
// fit even at the floor tier.
func (g *PackageGenerator) explainShortfall(pkg *TripPackage) {
	p := g.policy
	budget := pkg.TotalBudget
	floor := pkg.Hotel
	t := float64(pkg.Travellers)

	pkg.AffordabilityNotes = append(pkg.AffordabilityNotes, fmt.Sprintf(
		"Even the %d★ stay needs %.0f for %d day(s); short by %.0f",
		floor.Stars, pkg.MinimumViableCost, pkg.Days, pkg.Shortfall))

	if pkg.FlightsEstimate > budget {
		pkg.AffordabilityNotes = append(pkg.AffordabilityNotes, fmt.Sprintf(
			"Flights alone cost %.0f and exceed the budget by %.0f",
			pkg.FlightsEstimate, pkg.FlightsEstimate-budget))
		pkg.Alternatives = append(pkg.Alternatives, fmt.Sprintf(
			"Budget at least %.0f just to cover flights for %d traveller(s)",
			pkg.FlightsEstimate, pkg.Travellers))
		if p.FlightFarePerTraveller > 0 {
			if n := int(budget / p.FlightFarePerTraveller); n >= 1 && n < pkg.Travellers {
				pkg.Alternatives = append(pkg.Alternatives, fmt.Sprintf(
					"Flights fit for %d traveller(s) at %.0f", n, float64(n)*p.FlightFarePerTraveller))
			}
		}
	} else {
		perDay := (floor.NightlyPrice + p.MealsPerDayPerTraveller) * t
		if perDay > 0 {
			maxDays := int((budget - pkg.FlightsEstimate + floor.NightlyPrice*t) / perDay)
			if maxDays >= 1 && maxDays < pkg.Days {
				pkg.Alternatives = append(pkg.Alternatives, fmt.Sprintf(
					"Shorten the trip to %d day(s) at the %d★ stay for %.0f",
					maxDays, floor.Stars, p.coreCost(floor, maxDays, pkg.Travellers).Total))
			}
		}
		perTraveller := p.coreCost(floor, pkg.Days, 1).Total
		if perTraveller > 0 {
			if n := int(budget / perTraveller); n >= 1 && n < pkg.Travellers {
				pkg.Alternatives = append(pkg.Alternatives, fmt.Sprintf(
					"Travel as %d traveller(s) for %.0f", n, perTraveller*float64(n)))
			}
		}
	}

	pkg.Alternatives = append(pkg.Alternatives, fmt.Sprintf(
		"Raise the budget by %.0f to %.0f for the minimum %d-day trip",
		pkg.Shortfall, pkg.MinimumViableCost, pkg.Days))
}

func (g *PackageGenerator) summarize(pkg *TripPackage) []string {
	route := "Flights to " + pkg.Destination
	if pkg.Source != "" {
		route = fmt.Sprintf("Flights %s → %s → %s", pkg.Source, pkg.Destination, pkg.Source)
	}
	return []string{
		fmt.Sprintf("%s for %d traveller(s): %.0f", route, pkg.Travellers, pkg.FlightsEstimate),
		fmt.Sprintf("Hotel: %s (%d★), %d night(s)", pkg.Hotel.Name, pkg.Hotel.Stars, pkg.Nights),
		fmt.Sprintf("Duration: %d day(s), %d traveller(s)", pkg.Days, pkg.Travellers),
		fmt.Sprintf("Total budget: %.0f", pkg.TotalBudget),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
