package models

import (
	"fmt"
	"sort"
)

// Result is the complete output of one build: both documents, in emission order.
type Result struct {
	Routes    []Route    `json:"routes"`
	Locations []Location `json:"locations"`
}

// Summary counts what a build produced.
type Summary struct {
	Carriers  int `json:"carriers"`
	Routes    int `json:"routes"`
	Locations int `json:"locations"`
}

// Summarize counts distinct carriers, routes and locations in r.
func (r *Result) Summarize() Summary {
	carriers := make(map[string]struct{})
	for _, rt := range r.Routes {
		carriers[rt.Carrier] = struct{}{}
	}
	return Summary{
		Carriers:  len(carriers),
		Routes:    len(r.Routes),
		Locations: len(r.Locations),
	}
}

// String returns the one-line human-readable summary.
func (s Summary) String() string {
	return fmt.Sprintf("OK: %d carriers, %d routes, %d locations", s.Carriers, s.Routes, s.Locations)
}

// Carrier describes one carrier of a build.
type Carrier struct {
	Name   string `json:"carrier"`
	Color  string `json:"color"`
	Routes int    `json:"routes"`
}

// Carriers lists the carriers of r in lexicographic order with their colour and route count.
func (r *Result) Carriers() []Carrier {
	byName := make(map[string]*Carrier)
	for _, rt := range r.Routes {
		c, ok := byName[rt.Carrier]
		if !ok {
			c = &Carrier{Name: rt.Carrier, Color: rt.Color}
			byName[rt.Carrier] = c
		}
		c.Routes++
	}
	out := make([]Carrier, 0, len(byName))
	for _, c := range byName {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
