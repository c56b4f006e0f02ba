package workbook

import (
	"strings"

	"github.com/hyperjump/partnermap/internal/models"
	"go.uber.org/zap"
)

const (
	carrierColumn = 0
	routesColumn  = 1
)

// Extractor turns sheets into RawRows, carrying the last carrier forward over blank cells.
type Extractor struct {
	logger *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets a logger for skipped-row diagnostics.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// carry is the per-sheet carry-forward state. The zero value means no carrier seen yet.
type carry struct {
	carrier string
}

// Extract returns the usable rows of all sheets in order. The header row of every
// sheet is skipped and the carried carrier never crosses a sheet boundary.
func (e *Extractor) Extract(sheets []Sheet) []models.RawRow {
	var out []models.RawRow
	for _, sh := range sheets {
		var state carry
		for i := 1; i < len(sh.Rows); i++ {
			var (
				row models.RawRow
				ok  bool
			)
			state, row, ok = step(state, sh.Rows[i])
			if !ok {
				if cell(sh.Rows[i], routesColumn) != "" {
					e.logger.Debug("route text without carrier skipped",
						zap.String("sheet", sh.Name), zap.Int("row", i+1))
				}
				continue
			}
			row.Sheet = sh.Name
			row.Row = i + 1
			out = append(out, row)
		}
	}
	return out
}

// step applies one row to the carry-forward state and reports whether it yields a pair.
func step(state carry, cells []string) (carry, models.RawRow, bool) {
	carrier := cell(cells, carrierColumn)
	text := cell(cells, routesColumn)
	switch {
	case carrier != "" && text != "":
		return carry{carrier: carrier}, models.RawRow{Carrier: carrier, Text: text}, true
	case carrier != "":
		return carry{carrier: carrier}, models.RawRow{}, false
	case text != "" && state.carrier != "":
		return state, models.RawRow{Carrier: state.carrier, Text: text}, true
	default:
		return state, models.RawRow{}, false
	}
}

func cell(cells []string, col int) string {
	if col >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[col])
}
