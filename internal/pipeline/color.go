package pipeline

import (
	"sort"

	"github.com/hyperjump/partnermap/internal/models"
)

// Carriers returns the distinct carriers of routes in lexicographic order.
func Carriers(routes []models.CarrierRoute) []string {
	set := make(map[string]struct{})
	for _, r := range routes {
		set[r.Carrier] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AssignColors maps every carrier to palette[i % len(palette)], where i is the
// carrier's position in lexicographic order. palette must not be empty.
func AssignColors(routes []models.CarrierRoute, palette []string) map[string]string {
	carriers := Carriers(routes)
	colors := make(map[string]string, len(carriers))
	for i, c := range carriers {
		colors[c] = palette[i%len(palette)]
	}
	return colors
}
