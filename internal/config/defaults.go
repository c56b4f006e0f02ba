package config

// Well-known relative locations used when nothing else is configured.
const (
	DefaultWorkbookPath  = "data/partners.xlsx"
	DefaultRoutesPath    = "data/routes.json"
	DefaultLocationsPath = "data/locations.json"
)

// DefaultMaxDistance is the lint threshold used when lint.max_distance is not set.
const DefaultMaxDistance = 2

// DefaultPalette returns the carrier palette. A fresh slice is returned on every call.
func DefaultPalette() []string {
	return []string{
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
		"#393b79", "#637939", "#8c6d31", "#843c39", "#7b4173",
	}
}

// DefaultCorrections returns the built-in point corrections.
func DefaultCorrections() []CorrectionRule {
	return []CorrectionRule{
		{Match: []string{"Котла", "Котлп"}, Replace: "Котлас"},
		{Match: []string{"Полоцк"}, Carrier: "СКС", Replace: "Полоцк, Беларусь"},
		{Match: []string{"Минск"}, Carrier: "СКС", Replace: "Минск, Беларусь"},
	}
}

// DefaultCountries returns the built-in country markers.
func DefaultCountries() []CountryMarker {
	return []CountryMarker{
		{Code: "BY", Marker: "Беларусь"},
	}
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Input.WorkbookPath == "" {
		cfg.Input.WorkbookPath = DefaultWorkbookPath
	}
	if cfg.Output.RoutesPath == "" {
		cfg.Output.RoutesPath = DefaultRoutesPath
	}
	if cfg.Output.LocationsPath == "" {
		cfg.Output.LocationsPath = DefaultLocationsPath
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
	if cfg.Pipeline.RouteIDPrefix == "" {
		cfg.Pipeline.RouteIDPrefix = "RTE"
	}
	if cfg.Pipeline.RouteIDWidth == 0 {
		cfg.Pipeline.RouteIDWidth = 4
	}
	if cfg.Pipeline.Palette == nil {
		cfg.Pipeline.Palette = DefaultPalette()
	}
	// An explicit empty list in YAML disables the built-in rules.
	if cfg.Pipeline.Corrections == nil {
		cfg.Pipeline.Corrections = DefaultCorrections()
	}
	if cfg.Pipeline.Countries == nil {
		cfg.Pipeline.Countries = DefaultCountries()
	}
	if cfg.Pipeline.DefaultCountry == "" {
		cfg.Pipeline.DefaultCountry = "RU"
	}
	if cfg.Lint.MaxDistance == nil {
		d := DefaultMaxDistance
		cfg.Lint.MaxDistance = &d
	}
}
