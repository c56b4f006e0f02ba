package pipeline

import (
	"fmt"

	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/parser"
)

// RouteID formats the n-th route id, e.g. RouteID("RTE", 4, 7) == "RTE_0007".
func RouteID(prefix string, width, n int) string {
	return fmt.Sprintf("%s_%0*d", prefix, width, n)
}

// Serialize numbers routes from 1 in their current order and attaches names and colors.
func Serialize(routes []models.CarrierRoute, colors map[string]string, prefix string, width int) []models.Route {
	out := make([]models.Route, len(routes))
	for i, r := range routes {
		pts := make([]string, len(r.Points))
		copy(pts, r.Points)
		out[i] = models.Route{
			RouteID:   RouteID(prefix, width, i+1),
			Carrier:   r.Carrier,
			Color:     colors[r.Carrier],
			Points:    pts,
			RouteName: parser.JoinPoints(pts),
		}
	}
	return out
}
