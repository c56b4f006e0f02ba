// Package parser splits free-text route cells into ordered point sequences.
//
// A cell may hold several routes separated by newlines, semicolons or pipes,
// or simply glued together with a wide gap. Each route lists its points with
// one of several arrow or dash spellings, which are all rewritten to Arrow.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Arrow is the canonical delimiter between consecutive points.
const Arrow = "→"

// MinPoints is the smallest number of points that makes an entry a route.
const MinPoints = 2

var (
	routeSeparators = regexp.MustCompile(`[\r\n;|]+`)
	spacedHyphen    = regexp.MustCompile(`[\s\x0b\x1c-\x1f\x{85}\p{Z}]-[\s\x0b\x1c-\x1f\x{85}\p{Z}]`)
	arrowVariants   = strings.NewReplacer("->", Arrow, "—", Arrow, " – ", Arrow)
)

// Parser turns raw cell text into point sequences.
type Parser struct {
	logger *zap.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLogger sets a logger that records heuristic splits and discarded entries.
func WithLogger(l *zap.Logger) ParserOption {
	return func(p *Parser) { p.logger = l }
}

// NewParser returns a Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// SplitRoutes returns every route found in raw, in order. Entries with fewer
// than MinPoints points are dropped. fields are added to the debug logs so an
// entry can be traced back to its cell.
func (p *Parser) SplitRoutes(raw string, fields ...zap.Field) [][]string {
	var out [][]string
	for _, entry := range routeSeparators.Split(trimSpace(raw), -1) {
		entry = trimSpace(entry)
		if entry == "" {
			continue
		}
		parts := splitConcatenated(entry)
		if len(parts) > 1 {
			p.logger.Debug("entry re-split on wide gap",
				append([]zap.Field{zap.String("entry", entry), zap.Int("parts", len(parts))}, fields...)...)
		}
		for _, part := range parts {
			pts := SplitPoints(part)
			if len(pts) < MinPoints {
				p.logger.Debug("entry discarded",
					append([]zap.Field{zap.String("entry", part), zap.Int("points", len(pts))}, fields...)...)
				continue
			}
			out = append(out, pts)
		}
	}
	return out
}

// SplitPoints rewrites delimiter variants to Arrow and returns the trimmed,
// non-empty tokens between them.
func SplitPoints(entry string) []string {
	s := arrowVariants.Replace(trimSpace(entry))
	s = spacedHyphen.ReplaceAllString(s, Arrow)
	var pts []string
	for _, tok := range strings.Split(s, Arrow) {
		if tok = trimSpace(tok); tok != "" {
			pts = append(pts, tok)
		}
	}
	return pts
}

// JoinPoints renders points as a route name.
func JoinPoints(points []string) string {
	return strings.Join(points, " "+Arrow+" ")
}

// isSpace is unicode.IsSpace plus the information separators U+001C to U+001F,
// which spreadsheet exports sometimes leave between routes.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// splitConcatenated cuts entry at every run of two or more whitespace runes
// that is directly followed by the start of another arrow sequence.
func splitConcatenated(entry string) []string {
	var parts []string
	start := 0
	i := 0
	for i < len(entry) {
		r, size := utf8.DecodeRuneInString(entry[i:])
		if !isSpace(r) {
			i += size
			continue
		}
		runStart, runes := i, 0
		for i < len(entry) {
			r, size = utf8.DecodeRuneInString(entry[i:])
			if !isSpace(r) {
				break
			}
			runes++
			i += size
		}
		if runes >= 2 && startsArrowSequence(entry[i:]) {
			parts = append(parts, entry[start:runStart])
			start = i
		}
	}
	return append(parts, entry[start:])
}

// startsArrowSequence reports whether s begins with a word that is followed,
// inside the word or after optional whitespace, by Arrow.
func startsArrowSequence(s string) bool {
	word := strings.IndexFunc(s, isSpace)
	if word < 0 {
		word = len(s)
	}
	if word == 0 {
		return false
	}
	_, first := utf8.DecodeRuneInString(s)
	if strings.Contains(s[first:word], Arrow) {
		return true
	}
	return strings.HasPrefix(strings.TrimLeftFunc(s[word:], isSpace), Arrow)
}
