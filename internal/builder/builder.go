// Package builder runs a full build: read the workbook, run the pipeline and write the outputs.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/partnermap/internal/config"
	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/pipeline"
	"github.com/hyperjump/partnermap/internal/storage"
	"github.com/hyperjump/partnermap/internal/workbook"
	"github.com/hyperjump/partnermap/pkg/utils"
	"go.uber.org/zap"
)

// Builder produces the routes and locations documents from the configured workbook.
type Builder struct {
	input     config.InputConfig
	output    config.OutputConfig
	pipeline  *pipeline.Pipeline
	extractor *workbook.Extractor
	catalog   *storage.Catalog // optional
	logger    *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for build progress and row diagnostics.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithCatalog stores every successful build in c as well.
func WithCatalog(c *storage.Catalog) BuilderOption {
	return func(b *Builder) { b.catalog = c }
}

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg *config.Config, opts ...BuilderOption) (*Builder, error) {
	b := &Builder{
		input:  cfg.Input,
		output: cfg.Output,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger)
	p, err := pipeline.New(&cfg.Pipeline, pipeline.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}
	b.pipeline = p
	b.extractor = workbook.NewExtractor(workbook.WithLogger(b.logger))
	return b, nil
}

// WorkbookPath returns the workbook this builder reads.
func (b *Builder) WorkbookPath() string {
	return b.input.WorkbookPath
}

// Compute reads the workbook and runs the pipeline without writing anything.
// A missing workbook yields an error wrapping workbook.ErrSourceNotFound.
func (b *Builder) Compute(ctx context.Context) (*models.Result, error) {
	sheets, err := workbook.ReadFile(b.input.WorkbookPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := b.extractor.Extract(sheets)
	b.logger.Debug("workbook read",
		zap.String("path", b.input.WorkbookPath),
		zap.Int("sheets", len(sheets)),
		zap.Int("rows", len(rows)))
	return b.pipeline.Run(rows), nil
}

// Build computes the result and writes both documents, then the catalog when configured.
// Nothing is written unless the whole result was computed.
func (b *Builder) Build(ctx context.Context) (*models.Result, error) {
	start := time.Now()
	res, err := b.Compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := storage.WriteDocuments(b.output.RoutesPath, b.output.LocationsPath, res); err != nil {
		return nil, fmt.Errorf("failed to write documents: %w", err)
	}
	fields := []zap.Field{
		zap.String("routes_path", b.output.RoutesPath),
		zap.String("locations_path", b.output.LocationsPath),
	}
	if b.catalog != nil {
		runID, err := b.catalog.Replace(ctx, res)
		if err != nil {
			return nil, fmt.Errorf("failed to update catalog: %w", err)
		}
		fields = append(fields, zap.String("run_id", runID))
	}
	s := res.Summarize()
	fields = append(fields,
		zap.Int("carriers", s.Carriers),
		zap.Int("routes", s.Routes),
		zap.Int("locations", s.Locations),
		zap.Duration("elapsed", time.Since(start)))
	b.logger.Info("build complete", fields...)
	return res, nil
}
