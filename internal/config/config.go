// Package config provides configuration loading and structs for partnermap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Lint     LintConfig     `yaml:"lint"`
}

// InputConfig points at the partner workbook.
type InputConfig struct {
	WorkbookPath string `yaml:"workbook_path" validate:"required"`
}

// OutputConfig holds the paths of the generated documents.
// CatalogPath is optional; when set, every build is also stored in SQLite.
type OutputConfig struct {
	RoutesPath    string `yaml:"routes_path" validate:"required"`
	LocationsPath string `yaml:"locations_path" validate:"required,nefield=RoutesPath"`
	CatalogPath   string `yaml:"catalog_path,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gt=0,lt=65536"`
}

// WatchConfig holds workbook watch settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" validate:"gte=0"`
}

// PipelineConfig holds the constant tables the pipeline is built from.
type PipelineConfig struct {
	RouteIDPrefix  string           `yaml:"route_id_prefix" validate:"required"`
	RouteIDWidth   int              `yaml:"route_id_width" validate:"gte=1,lte=12"`
	Palette        []string         `yaml:"palette" validate:"min=1,dive,hexcolor,len=7"`
	Corrections    []CorrectionRule `yaml:"corrections" validate:"dive"`
	Countries      []CountryMarker  `yaml:"countries" validate:"dive"`
	DefaultCountry string           `yaml:"default_country" validate:"required"`
}

// CorrectionRule rewrites any point matching one of Match to Replace.
// When Carrier is set the rule only applies to routes of that carrier.
type CorrectionRule struct {
	Match   []string `yaml:"match" validate:"min=1,dive,required"`
	Carrier string   `yaml:"carrier,omitempty"`
	Replace string   `yaml:"replace" validate:"required"`
}

// CountryMarker assigns Code to every location whose name contains Marker.
type CountryMarker struct {
	Code   string `yaml:"code" validate:"required"`
	Marker string `yaml:"marker" validate:"required"`
}

// LintConfig holds settings for the location name lint.
// MaxDistance is a pointer so that an explicit 0 survives ApplyDefaults.
type LintConfig struct {
	MaxDistance *int `yaml:"max_distance" validate:"omitempty,gte=0"`
}

// Distance returns MaxDistance, or DefaultMaxDistance when it is unset.
func (l LintConfig) Distance() int {
	if l.MaxDistance == nil {
		return DefaultMaxDistance
	}
	return *l.MaxDistance
}

// Load reads and parses the config file at path, expands paths, applies defaults and validates.
// Returns an error if the file cannot be read, parsed or fails validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Input.WorkbookPath = expandPath(cfg.Input.WorkbookPath, configDir)
	cfg.Output.RoutesPath = expandPath(cfg.Output.RoutesPath, configDir)
	cfg.Output.LocationsPath = expandPath(cfg.Output.LocationsPath, configDir)
	if cfg.Output.CatalogPath != "" {
		cfg.Output.CatalogPath = expandPath(cfg.Output.CatalogPath, configDir)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists: the
// well-known relative locations and the built-in tables.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "~/" are relative to the
// home directory; other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
