// Package models defines the records produced by the route pipeline.
package models

// RawRow is one usable workbook row: a carrier and the free text of its routes.
type RawRow struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Carrier string `json:"carrier"`
	Text    string `json:"text"`
}

// Route is a named, ordered sequence of at least two points served by one carrier.
type Route struct {
	RouteID   string   `json:"route_id"`
	Carrier   string   `json:"carrier"`
	Color     string   `json:"color"`
	Points    []string `json:"points"`
	RouteName string   `json:"route_name"`
}

// Location is a distinct point name that appears in the route set.
// Lat and Lon stay nil until a geocoding step fills them in.
type Location struct {
	Name    string   `json:"name"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// CarrierRoute is a parsed route that has not been assigned an id or color yet.
type CarrierRoute struct {
	Carrier string
	Points  []string
}
