package planner

// ZeroNightPolicy decides what happens to destinations that receive no nights
// because the trip has fewer days than destinations.
type ZeroNightPolicy string

const (
	// ZeroNightKeep lists the destination in the summary with 0 nights and 0 cost.
	ZeroNightKeep ZeroNightPolicy = "keep"
	// ZeroNightDrop leaves the destination out of the summary.
	ZeroNightDrop ZeroNightPolicy = "drop"
	// ZeroNightReject fails generation with a validation error.
	ZeroNightReject ZeroNightPolicy = "reject"
)

// CostModel holds the flat estimates and knobs the itinerary builder uses
// when the catalog has nothing better.
type CostModel struct {
	DefaultNightlyPrice       float64         `mapstructure:"default_nightly_price"`
	FoodPerDay                float64         `mapstructure:"food_per_day"`
	ActivitiesPerDay          float64         `mapstructure:"activities_per_day"`
	TransportPerDestination   float64         `mapstructure:"transport_per_destination"`
	DefaultBudgetPerTraveller float64         `mapstructure:"default_budget_per_traveller"`
	MaxDestinations           int             `mapstructure:"max_destinations"`
	MaxHighlights             int             `mapstructure:"max_highlights"`
	MaxTripDays               int             `mapstructure:"max_trip_days"`
	GenericActivities         []string        `mapstructure:"generic_activities"`
	CaseInsensitiveMatch      bool            `mapstructure:"case_insensitive_match"`
	ZeroNightPolicy           ZeroNightPolicy `mapstructure:"zero_night_policy"`
}

// Scaling floors and the transport softening applied by ApplyBudget.
const (
	MinAccommodationPerDay = 10
	MinFoodPerDay          = 1
	TransportScaleBoost    = 0.25
)

// DefaultCostModel returns the built-in estimates.
func DefaultCostModel() CostModel {
	return CostModel{
		DefaultNightlyPrice:       120,
		FoodPerDay:                50,
		ActivitiesPerDay:          30,
		TransportPerDestination:   200,
		DefaultBudgetPerTraveller: 1500,
		MaxDestinations:           3,
		MaxHighlights:             6,
		MaxTripDays:               365,
		GenericActivities: []string{
			"City walking tour",
			"Visit a local museum",
			"Explore the old town",
			"Shopping at the local market",
		},
		ZeroNightPolicy: ZeroNightKeep,
	}
}

// withDefaults fills zero-valued fields from DefaultCostModel so a partially
// configured model still behaves.
func (m CostModel) withDefaults() CostModel {
	d := DefaultCostModel()
	if m.DefaultNightlyPrice <= 0 {
		m.DefaultNightlyPrice = d.DefaultNightlyPrice
	}
	if m.FoodPerDay < 0 {
		m.FoodPerDay = d.FoodPerDay
	}
	if m.ActivitiesPerDay < 0 {
		m.ActivitiesPerDay = d.ActivitiesPerDay
	}
	if m.TransportPerDestination < 0 {
		m.TransportPerDestination = d.TransportPerDestination
	}
	if m.DefaultBudgetPerTraveller <= 0 {
		m.DefaultBudgetPerTraveller = d.DefaultBudgetPerTraveller
	}
	if m.MaxDestinations <= 0 {
		m.MaxDestinations = d.MaxDestinations
	}
	if m.MaxHighlights <= 0 {
		m.MaxHighlights = d.MaxHighlights
	}
	if m.MaxTripDays <= 0 {
		m.MaxTripDays = d.MaxTripDays
	}
	if len(m.GenericActivities) == 0 {
		m.GenericActivities = d.GenericActivities
	}
	switch m.ZeroNightPolicy {
	case ZeroNightKeep, ZeroNightDrop, ZeroNightReject:
	default:
		m.ZeroNightPolicy = ZeroNightKeep
	}
	return m
}
