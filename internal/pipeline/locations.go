package pipeline

import (
	"sort"
	"strings"

	"github.com/hyperjump/partnermap/internal/models"
)

// CountryMarker tags locations whose name contains Marker with Code.
type CountryMarker struct {
	Code   string
	Marker string
}

// CollectLocations returns the distinct points of routes sorted by name.
// Country is the Code of the first marker found in the name, else defaultCountry.
func CollectLocations(routes []models.CarrierRoute, markers []CountryMarker, defaultCountry string) []models.Location {
	set := make(map[string]struct{})
	for _, r := range routes {
		for _, p := range r.Points {
			set[p] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)

	locs := make([]models.Location, len(names))
	for i, n := range names {
		locs[i] = models.Location{Name: n, Country: countryOf(n, markers, defaultCountry)}
	}
	return locs
}

func countryOf(name string, markers []CountryMarker, defaultCountry string) string {
	for _, m := range markers {
		if strings.Contains(name, m.Marker) {
			return m.Code
		}
	}
	return defaultCountry
}
