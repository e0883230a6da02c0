package classify

import (
	"sort"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// normalizeScores maps labels onto the vocabulary, drops unknown and
// duplicate labels, fills in missing categories with zero and sorts
// best-first. Ties keep their input order.
func normalizeScores(vocab domain.Vocabulary, in []domain.CategoryScore) []domain.CategoryScore {
	seen := make(map[domain.Category]bool, len(vocab))
	out := make([]domain.CategoryScore, 0, len(vocab))
	for _, s := range in {
		c, ok := vocab.Lookup(string(s.Label))
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, domain.CategoryScore{Label: c, Score: s.Score})
	}
	for _, c := range vocab {
		if !seen[c] {
			out = append(out, domain.CategoryScore{Label: c, Score: 0})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}
