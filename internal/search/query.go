package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
)

const defaultLimit = 20

// Params describes a search. Zero filters match everything.
type Params struct {
	Query string
	Types []string

	Status   string // posts only
	FolderID string // posts only
	Tags     []string
	Language string // variants only

	Limit  int
	Offset int
	SortBy string

	IncludeFacets bool
	Highlight     bool
}

// DefaultParams ranks by relevance with facets and highlights on.
func DefaultParams() Params {
	return Params{
		Limit:         defaultLimit,
		SortBy:        SortRelevance,
		IncludeFacets: true,
		Highlight:     true,
	}
}

// Result is one page of hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
	Facets Facets `json:"facets,omitempty"`
}

// Hit is a matching post or variant.
type Hit struct {
	ID         string            `json:"id"`
	Type       DocType           `json:"type"`
	PostID     string            `json:"post_id"`
	Score      float64           `json:"score"`
	Content    string            `json:"content"`
	Language   string            `json:"language,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Facets counts hits per type, tag and language.
type Facets struct {
	Types     []FacetCount `json:"types,omitempty"`
	Tags      []FacetCount `json:"tags,omitempty"`
	Languages []FacetCount `json:"languages,omitempty"`
}

// FacetCount is one facet bucket.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

var facetSizes = map[string]int{fieldType: 5, fieldTags: 20, fieldLanguage: 10}

// Search runs p against the index.
func (i *Index) Search(ctx context.Context, p Params) (*Result, error) {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(p), p.Limit, p.Offset, false)
	req.Fields = []string{fieldType, fieldPostID, fieldContent, fieldLanguage}
	if p.SortBy == SortRecent {
		req.SortBy([]string{"-" + fieldUpdated})
	} else {
		req.SortBy([]string{"-_score"})
	}
	if p.IncludeFacets {
		for field, size := range facetSizes {
			req.AddFacet(field, bleve.NewFacetRequest(field, size))
		}
	}
	if p.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField(fieldContent)
	}

	i.mu.RLock()
	res, err := i.bleve.SearchInContext(ctx, req)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := &Result{
		Query:  p.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, m := range res.Hits {
		hit := Hit{
			ID:       m.ID,
			Score:    m.Score,
			Type:     DocType(str(m.Fields, fieldType)),
			PostID:   str(m.Fields, fieldPostID),
			Content:  str(m.Fields, fieldContent),
			Language: str(m.Fields, fieldLanguage),
		}
		for field, fragments := range m.Fragments {
			if len(fragments) == 0 {
				continue
			}
			if hit.Highlights == nil {
				hit.Highlights = make(map[string]string)
			}
			hit.Highlights[field] = fragments[0]
		}
		out.Hits = append(out.Hits, hit)
	}
	if p.IncludeFacets {
		out.Facets = Facets{
			Types:     facet(res, fieldType),
			Tags:      facet(res, fieldTags),
			Languages: facet(res, fieldLanguage),
		}
	}
	return out, nil
}

// PostIDs returns the distinct post IDs of the hits in rank order.
func (r *Result) PostIDs() []string {
	seen := make(map[string]bool, len(r.Hits))
	ids := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		if h.PostID == "" || seen[h.PostID] {
			continue
		}
		seen[h.PostID] = true
		ids = append(ids, h.PostID)
	}
	return ids
}

// buildQuery combines free text with the filters in p.
func buildQuery(p Params) query.Query {
	var must []query.Query

	if text := strings.TrimSpace(p.Query); text != "" {
		must = append(must, textQuery(text))
	}
	if len(p.Types) > 0 {
		must = append(must, oneOf(fieldType, p.Types))
	}
	if len(p.Tags) > 0 {
		must = append(must, oneOf(fieldTags, p.Tags))
	}
	for field, value := range map[string]string{
		fieldStatus:   p.Status,
		fieldFolderID: p.FolderID,
		fieldLanguage: p.Language,
	} {
		if value != "" {
			must = append(must, exact(field, value))
		}
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}

// textQuery matches content loosely, with one-edit typos and prefixes
// for search-as-you-type, and hashtags exactly.
func textQuery(text string) query.Query {
	lower := strings.ToLower(text)

	match := bleve.NewMatchQuery(text)
	match.SetField(fieldContent)
	match.SetBoost(3.0)

	fuzzy := bleve.NewFuzzyQuery(lower)
	fuzzy.SetField(fieldContent)
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)

	tag := bleve.NewTermQuery(strings.TrimPrefix(text, "#"))
	tag.SetField(fieldTags)
	tag.SetBoost(2.0)

	alts := []query.Query{match, fuzzy, tag}
	if len(text) >= 2 {
		prefix := bleve.NewPrefixQuery(lower)
		prefix.SetField(fieldContent)
		prefix.SetBoost(0.5)
		alts = append(alts, prefix)
	}
	return bleve.NewDisjunctionQuery(alts...)
}

func exact(field, value string) query.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func oneOf(field string, values []string) query.Query {
	qs := make([]query.Query, 0, len(values))
	for _, v := range values {
		qs = append(qs, exact(field, v))
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func str(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func facet(res *bleve.SearchResult, name string) []FacetCount {
	f, ok := res.Facets[name]
	if !ok || f.Terms == nil {
		return nil
	}
	var out []FacetCount
	for _, t := range f.Terms.Terms() {
		out = append(out, FacetCount{Value: t.Term, Count: t.Count})
	}
	return out
}
