// Package search provides an in-memory Bleve index over the routes and locations of a build.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/partnermap/internal/models"
)

// Hit kinds.
const (
	KindRoute    = "route"
	KindLocation = "location"
)

// DefaultLimit is used when Search is called with a non-positive limit.
const DefaultLimit = 20

// Fuzziness is the edit distance used when an exact match finds nothing.
const Fuzziness = 2

// Hit is a single search result. ID is the route id or the location name.
type Hit struct {
	Kind  string  `json:"kind"`
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type routeDoc struct {
	Kind    string `json:"kind"`
	Carrier string `json:"carrier"`
	Name    string `json:"name"`
}

type locationDoc struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Index is a read-only search index built from one result.
type Index struct {
	index bleve.Index
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// Standard analyzer lowercases and tokenizes without stemming, so Cyrillic names stay whole.
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("carrier", text)
	kind := bleve.NewKeywordFieldMapping()
	kind.IncludeInAll = false
	doc.AddFieldMappingsAt("kind", kind)
	country := bleve.NewKeywordFieldMapping()
	country.IncludeInAll = false
	doc.AddFieldMappingsAt("country", country)

	im.DefaultAnalyzer = standard.Name
	im.DefaultMapping = doc
	return im
}

// NewIndex indexes every route (by route name and carrier) and every location of res.
func NewIndex(res *models.Result) (*Index, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	batch := index.NewBatch()
	for _, r := range res.Routes {
		doc := routeDoc{Kind: KindRoute, Carrier: r.Carrier, Name: r.RouteName}
		if err := batch.Index(docID(KindRoute, r.RouteID), doc); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index route %s: %w", r.RouteID, err)
		}
	}
	for _, l := range res.Locations {
		doc := locationDoc{Kind: KindLocation, Name: l.Name, Country: l.Country}
		if err := batch.Index(docID(KindLocation, l.Name), doc); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index location %q: %w", l.Name, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index result: %w", err)
	}
	return &Index{index: index}, nil
}

func docID(kind, id string) string {
	return kind + ":" + id
}

// Search runs a match query and returns up to limit hits, best first.
// When nothing matches exactly, each query term is retried as a fuzzy term so typos still find names.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	hits, err := x.run(ctx, bleve.NewMatchQuery(query), limit)
	if err != nil || len(hits) > 0 {
		return hits, err
	}
	return x.run(ctx, buildFuzzyQuery(terms), limit)
}

func (x *Index) run(ctx context.Context, q blevequery.Query, limit int) ([]Hit, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		kind, id, ok := strings.Cut(h.ID, ":")
		if !ok {
			continue
		}
		out = append(out, Hit{Kind: kind, ID: id, Score: h.Score})
	}
	return out, nil
}

// buildFuzzyQuery matches any term within Fuzziness edits.
func buildFuzzyQuery(terms []string) blevequery.Query {
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(Fuzziness)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DocCount returns the number of indexed routes and locations.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}
