package pipeline

import (
	"strconv"
	"strings"

	"github.com/hyperjump/partnermap/internal/models"
)

// routeKey identifies a route by carrier and ordered points. Every part is
// length-prefixed so distinct sequences never share a key.
func routeKey(carrier string, points []string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(carrier)))
	b.WriteByte(':')
	b.WriteString(carrier)
	for _, p := range points {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// Dedupe keeps the first route for every (carrier, points) pair and preserves order.
// It returns the kept routes and the number dropped.
func Dedupe(routes []models.CarrierRoute) ([]models.CarrierRoute, int) {
	seen := make(map[string]struct{}, len(routes))
	out := make([]models.CarrierRoute, 0, len(routes))
	for _, r := range routes {
		k := routeKey(r.Carrier, r.Points)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, len(routes) - len(out)
}
