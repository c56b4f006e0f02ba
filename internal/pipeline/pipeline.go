// Package pipeline turns workbook rows into the routes and locations documents.
//
// Rows are parsed and normalized first, then deduplicated. Colors and the
// location registry need the complete deduplicated set, so the whole input is
// processed before either is derived.
package pipeline

import (
	"errors"

	"github.com/hyperjump/partnermap/internal/config"
	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/normalize"
	"github.com/hyperjump/partnermap/internal/parser"
	"go.uber.org/zap"
)

// Pipeline holds the parser, the normalizer and the constant tables of one configuration.
type Pipeline struct {
	parser         *parser.Parser
	normalizer     *normalize.Normalizer
	palette        []string
	countries      []CountryMarker
	defaultCountry string
	idPrefix       string
	idWidth        int
	logger         *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger passed down to the parser and normalizer.
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// New builds a Pipeline from cfg. Tables are copied, so later changes to cfg have no effect.
func New(cfg *config.PipelineConfig, opts ...PipelineOption) (*Pipeline, error) {
	if len(cfg.Palette) == 0 {
		return nil, errors.New("pipeline: empty palette")
	}
	p := &Pipeline{
		palette:        append([]string(nil), cfg.Palette...),
		defaultCountry: cfg.DefaultCountry,
		idPrefix:       cfg.RouteIDPrefix,
		idWidth:        cfg.RouteIDWidth,
	}
	for _, c := range cfg.Countries {
		p.countries = append(p.countries, CountryMarker{Code: c.Code, Marker: c.Marker})
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	rules := make([]normalize.Rule, len(cfg.Corrections))
	for i, r := range cfg.Corrections {
		rules[i] = normalize.Rule{
			Match:   append([]string(nil), r.Match...),
			Carrier: r.Carrier,
			Replace: r.Replace,
		}
	}
	p.parser = parser.NewParser(parser.WithLogger(p.logger))
	p.normalizer = normalize.NewNormalizer(rules, normalize.WithLogger(p.logger))
	return p, nil
}

// Parse parses and normalizes every row, keeping duplicates.
func (p *Pipeline) Parse(rows []models.RawRow) []models.CarrierRoute {
	var out []models.CarrierRoute
	for _, row := range rows {
		cell := []zap.Field{zap.String("sheet", row.Sheet), zap.Int("row", row.Row)}
		for _, pts := range p.parser.SplitRoutes(row.Text, cell...) {
			out = append(out, models.CarrierRoute{
				Carrier: row.Carrier,
				Points:  p.normalizer.Route(row.Carrier, pts),
			})
		}
	}
	return out
}

// Run produces both documents from rows.
func (p *Pipeline) Run(rows []models.RawRow) *models.Result {
	parsed := p.Parse(rows)
	routes, dropped := Dedupe(parsed)
	if dropped > 0 {
		p.logger.Debug("duplicate routes dropped", zap.Int("count", dropped))
	}
	colors := AssignColors(routes, p.palette)
	return &models.Result{
		Routes:    Serialize(routes, colors, p.idPrefix, p.idWidth),
		Locations: CollectLocations(routes, p.countries, p.defaultCountry),
	}
}
