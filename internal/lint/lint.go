// Package lint finds location names that are probably spellings of the same place.
package lint

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/partnermap/internal/models"
	"github.com/hyperjump/partnermap/internal/normalize"
	"go.uber.org/zap"
)

// Pair is two location names within the configured edit distance.
type Pair struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Distance int    `json:"distance"`
}

type name struct {
	raw       string
	base      string // comparison key without the country qualifier
	qualified bool
}

// Linter compares every pair of location names.
type Linter struct {
	maxDistance int
	markers     []string
	logger      *zap.Logger
}

// LinterOption configures a Linter.
type LinterOption func(*Linter)

// WithLogger sets a logger for skipped pairs.
func WithLogger(l *zap.Logger) LinterOption {
	return func(x *Linter) { x.logger = l }
}

// NewLinter reports pairs at most maxDistance apart. markers are country qualifiers
// such as "Беларусь" that may trail a name after a comma.
func NewLinter(maxDistance int, markers []string, opts ...LinterOption) *Linter {
	x := &Linter{maxDistance: maxDistance}
	for _, m := range markers {
		if k := normalize.Key(m); k != "" {
			x.markers = append(x.markers, k)
		}
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.logger == nil {
		x.logger = zap.NewNop()
	}
	return x
}

// Check returns the suspicious pairs among locations ordered by distance, then names.
// Names differing only by a country qualifier are not reported. A pair is also
// skipped when the distance reaches the length of the shorter name.
func (x *Linter) Check(locations []models.Location) []Pair {
	names := make([]name, len(locations))
	for i, l := range locations {
		names[i] = x.split(l.Name)
	}

	pairs := make([]Pair, 0)
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]
			if a.raw == b.raw {
				continue
			}
			if a.base == b.base && (a.qualified || b.qualified) {
				x.logger.Debug("qualifier-only difference", zap.String("a", a.raw), zap.String("b", b.raw))
				continue
			}
			d := DamerauLevenshteinDistance(a.base, b.base)
			if d > x.maxDistance {
				continue
			}
			shorter := utf8.RuneCountInString(a.base)
			if n := utf8.RuneCountInString(b.base); n < shorter {
				shorter = n
			}
			if d > 0 && d >= shorter {
				continue
			}
			p := Pair{A: a.raw, B: b.raw, Distance: d}
			if p.B < p.A {
				p.A, p.B = p.B, p.A
			}
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Distance != pairs[j].Distance {
			return pairs[i].Distance < pairs[j].Distance
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// split removes a trailing ", <marker>" from the folded name.
func (x *Linter) split(raw string) name {
	key := normalize.Key(raw)
	head, tail, found := cutLast(key, ",")
	if found {
		tail = strings.TrimSpace(tail)
		for _, m := range x.markers {
			if tail == m {
				return name{raw: raw, base: strings.TrimSpace(head), qualified: true}
			}
		}
	}
	return name{raw: raw, base: key}
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
