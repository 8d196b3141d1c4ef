package planner

import (
	"context"
	"strings"
)

// Catalog is the read-only destination reference data the builder enriches
// itineraries with. Implementations may return fewer entries than names.
type Catalog interface {
	LookupDestinations(ctx context.Context, names []string) ([]CatalogEntry, error)
	LookupPackagesForDestination(ctx context.Context, destinationID string, limit int) ([]CatalogPackage, error)
}

type CatalogEntry struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	NightlyBasePrice *float64         `json:"nightly_base_price,omitempty"`
	Highlights       []string         `json:"highlights"`
	RelatedPackages  []CatalogPackage `json:"related_packages"`
}

type CatalogPackage struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DurationDays int      `json:"duration_days"`
	TotalPrice   float64  `json:"total_price"`
	Activities   []string `json:"activities"`
}

// PriceSource tags where a destination's nightly accommodation price came from.
type PriceSource string

const (
	PriceFromCatalog PriceSource = "catalog"
	PriceFromPackage PriceSource = "package"
	PriceFromDefault PriceSource = "default"
)

// destinationProfile is everything the builder needs for one destination,
// resolved once before any day is laid out.
type destinationProfile struct {
	name         string
	nights       int
	nightlyPrice float64
	priceSource  PriceSource
	activityPool []string
}

func catalogKey(name string, caseInsensitive bool) string {
	name = strings.TrimSpace(name)
	if caseInsensitive {
		return strings.ToLower(name)
	}
	return name
}

// indexCatalog maps destination names to entries. The first entry returned
// for a name wins.
func indexCatalog(entries []CatalogEntry, caseInsensitive bool) map[string]*CatalogEntry {
	idx := make(map[string]*CatalogEntry, len(entries))
	for i := range entries {
		key := catalogKey(entries[i].Name, caseInsensitive)
		if _, ok := idx[key]; !ok {
			idx[key] = &entries[i]
		}
	}
	return idx
}

// closestPackage picks the package whose duration is nearest to nights;
// ties go to the one listed first.
func closestPackage(pkgs []CatalogPackage, nights int) *CatalogPackage {
	var best *CatalogPackage
	bestDiff := 0
	for i := range pkgs {
		diff := pkgs[i].DurationDays - nights
		if diff < 0 {
			diff = -diff
		}
		if best == nil || diff < bestDiff {
			best = &pkgs[i]
			bestDiff = diff
		}
	}
	return best
}

func resolveProfile(name string, nights int, entry *CatalogEntry, model CostModel) destinationProfile {
	p := destinationProfile{
		name:         name,
		nights:       nights,
		nightlyPrice: model.DefaultNightlyPrice,
		priceSource:  PriceFromDefault,
	}

	var pkg *CatalogPackage
	if entry != nil {
		pkg = closestPackage(entry.RelatedPackages, nights)
	}

	switch {
	case entry != nil && entry.NightlyBasePrice != nil && *entry.NightlyBasePrice > 0:
		p.nightlyPrice = *entry.NightlyBasePrice
		p.priceSource = PriceFromCatalog
	case pkg != nil && pkg.DurationDays > 0 && pkg.TotalPrice > 0:
		p.nightlyPrice = pkg.TotalPrice / float64(pkg.DurationDays)
		p.priceSource = PriceFromPackage
	}

	switch {
	case pkg != nil && len(nonBlank(pkg.Activities)) > 0:
		p.activityPool = nonBlank(pkg.Activities)
	case entry != nil && len(nonBlank(entry.Highlights)) > 0:
		h := nonBlank(entry.Highlights)
		if len(h) > model.MaxHighlights {
			h = h[:model.MaxHighlights]
		}
		p.activityPool = h
	default:
		p.activityPool = cloneStrings(model.GenericActivities)
	}
	return p
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
