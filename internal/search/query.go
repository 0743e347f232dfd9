package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// searchBatchSize is how many hits one index request fetches.
var searchBatchSize = 500

// Query selects lessons by text with optional exact filters.
type Query struct {
	Text     string
	Category string // label, slugified before matching
	Emotion  string // label, slugified before matching
	Limit    int    // 0 returns every match
}

// Search returns the IDs of matching lessons, best match first.
//
// A lesson matches when every word of the text matches its title or
// description after stemming, or when the text occurs literally (ignoring
// case) in either field. Hits are fetched in batches until the index
// reports no more, so callers filtering the IDs afterwards see all of them.
func (s *SearchIndex) Search(ctx context.Context, q Query) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bq := buildSearchQuery(q)
	var ids []string
	for {
		size := searchBatchSize
		if q.Limit > 0 {
			size = min(size, q.Limit-len(ids))
		}

		req := bleve.NewSearchRequestOptions(bq, size, len(ids), false)
		req.SortBy([]string{"-_score", "-created_at", "_id"})

		res, err := s.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("execute search: %w", err)
		}

		if ids == nil {
			ids = make([]string, 0, len(res.Hits))
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}

		done := len(res.Hits) < size || uint64(len(ids)) >= res.Total
		if done || (q.Limit > 0 && len(ids) >= q.Limit) {
			return ids, nil
		}
	}
}

// buildSearchQuery constructs the Bleve query for q.
func buildSearchQuery(q Query) query.Query {
	var queries []query.Query

	if text := strings.TrimSpace(q.Text); text != "" {
		titleMatch := bleve.NewMatchQuery(text)
		titleMatch.SetField("title")
		titleMatch.SetOperator(query.MatchQueryOperatorAnd)
		titleMatch.SetBoost(3.0)

		descMatch := bleve.NewMatchQuery(text)
		descMatch.SetField("description")
		descMatch.SetOperator(query.MatchQueryOperatorAnd)

		literal := ".*" + regexp.QuoteMeta(foldText(text)) + ".*"

		titleLiteral := bleve.NewRegexpQuery(literal)
		titleLiteral.SetField("title_lc")
		titleLiteral.SetBoost(2.0)

		descLiteral := bleve.NewRegexpQuery(literal)
		descLiteral.SetField("description_lc")
		descLiteral.SetBoost(0.5)

		queries = append(queries, bleve.NewDisjunctionQuery(titleMatch, descMatch, titleLiteral, descLiteral))
	}

	if slug := util.Slugify(q.Category); slug != "" && !util.IsAllOrEmpty(q.Category) {
		tq := bleve.NewTermQuery(slug)
		tq.SetField("category")
		queries = append(queries, tq)
	}
	if slug := util.Slugify(q.Emotion); slug != "" && !util.IsAllOrEmpty(q.Emotion) {
		tq := bleve.NewTermQuery(slug)
		tq.SetField("emotion")
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
