package retrieval

import (
	"sort"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Index ranks knowledge-base passages within a category. It is immutable
// after construction; rebuilds produce a new Index that is swapped in whole.
type Index struct {
	categories []domain.Category
	byCategory map[string]*ranker
	all        *ranker
}

// NewIndex builds an index over kb. Sections sharing a category (case-insensitively) are merged.
func NewIndex(kb *KnowledgeBase) *Index {
	ix := &Index{byCategory: make(map[string]*ranker)}
	if kb == nil {
		ix.all = newRanker(nil)
		return ix
	}

	grouped := make(map[string][]string)
	var all []string
	for _, s := range kb.Sections {
		key := strings.ToLower(string(s.Category))
		if _, seen := grouped[key]; !seen {
			ix.categories = append(ix.categories, s.Category)
		}
		grouped[key] = append(grouped[key], s.Passages...)
		all = append(all, s.Passages...)
	}
	for key, passages := range grouped {
		ix.byCategory[key] = newRanker(passages)
	}
	ix.all = newRanker(all)
	return ix
}

// Categories lists the indexed categories in knowledge-base order.
func (ix *Index) Categories() []domain.Category {
	return append([]domain.Category(nil), ix.categories...)
}

// Len returns the number of passages across all categories.
func (ix *Index) Len() int {
	return len(ix.all.passages)
}

// Rank orders every passage of category by relevance to query. An unknown
// category ranks the whole corpus.
func (ix *Index) Rank(category domain.Category, query string) []Scored {
	r, ok := ix.byCategory[strings.ToLower(string(category))]
	if !ok {
		r = ix.all
	}
	return r.rankAll(query)
}

// Relevance sums the best depth passage scores of each category for query,
// returned best-first. Ties keep knowledge-base order.
func (ix *Index) Relevance(query string, depth int) []domain.CategoryScore {
	out := make([]domain.CategoryScore, 0, len(ix.categories))
	for _, c := range ix.categories {
		ranked := ix.byCategory[strings.ToLower(string(c))].rankAll(query)
		var sum float64
		for i := 0; i < len(ranked) && i < depth; i++ {
			sum += ranked[i].Score
		}
		out = append(out, domain.CategoryScore{Label: c, Score: sum})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

func passagesOf(ranked []Scored) []string {
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Passage
	}
	return out
}
