// Package normalize applies point-name corrections to parsed routes.
package normalize

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key returns the comparison form of s: NFC, inner whitespace collapsed, case folded.
func Key(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

// Rule replaces any point whose Key equals the Key of one of Match.
// A non-empty Carrier limits the rule to routes of that carrier.
type Rule struct {
	Match   []string
	Carrier string
	Replace string
}

type compiledRule struct {
	match   map[string]struct{}
	carrier string
	replace string
}

// Normalizer rewrites points according to an ordered rule list. The first matching rule wins.
type Normalizer struct {
	rules  []compiledRule
	logger *zap.Logger
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithLogger sets a logger that records every rewrite.
func WithLogger(l *zap.Logger) NormalizerOption {
	return func(n *Normalizer) { n.logger = l }
}

// NewNormalizer compiles rules. The rules slice is not retained.
func NewNormalizer(rules []Rule, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr := compiledRule{
			match:   make(map[string]struct{}, len(r.Match)),
			replace: r.Replace,
		}
		if strings.TrimSpace(r.Carrier) != "" {
			cr.carrier = Key(r.Carrier)
		}
		for _, m := range r.Match {
			cr.match[Key(m)] = struct{}{}
		}
		n.rules = append(n.rules, cr)
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	return n
}

// Point returns the corrected form of point on a route of carrier.
func (n *Normalizer) Point(carrier, point string) string {
	p := strings.TrimSpace(point)
	pk := Key(p)
	ck := ""
	for _, r := range n.rules {
		if r.carrier != "" {
			if ck == "" {
				ck = Key(carrier)
			}
			if ck != r.carrier {
				continue
			}
		}
		if _, ok := r.match[pk]; ok {
			n.logger.Debug("point rewritten",
				zap.String("carrier", carrier), zap.String("from", p), zap.String("to", r.replace))
			return r.replace
		}
	}
	return p
}

// Route returns a corrected copy of points.
func (n *Normalizer) Route(carrier string, points []string) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = n.Point(carrier, p)
	}
	return out
}
