package retrieval

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Okapi BM25 parameters.
const (
	bm25K1      = 1.2
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize lowercases text and keeps alphanumeric runs of two or more characters.
func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := matches[:0]
	for _, m := range matches {
		if len(m) >= 2 {
			tokens = append(tokens, m)
		}
	}
	return tokens
}

// ranker scores a fixed set of passages against free-text queries.
// It is immutable once built and safe for concurrent reads.
type ranker struct {
	passages  []string
	termFreqs []map[string]int
	lengths   []int
	avgLength float64
	idf       map[string]float64
}

func newRanker(passages []string) *ranker {
	r := &ranker{
		passages:  passages,
		termFreqs: make([]map[string]int, len(passages)),
		lengths:   make([]int, len(passages)),
		idf:       make(map[string]float64),
	}

	docFreq := make(map[string]int)
	total := 0
	for i, p := range passages {
		tokens := tokenize(p)
		r.lengths[i] = len(tokens)
		total += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			if tf[tok] == 0 {
				docFreq[tok]++
			}
			tf[tok]++
		}
		r.termFreqs[i] = tf
	}
	if len(passages) > 0 {
		r.avgLength = float64(total) / float64(len(passages))
	}

	n := float64(len(passages))
	for term, df := range docFreq {
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
		if idf < 0 {
			idf = bm25Epsilon
		}
		r.idf[term] = idf
	}
	return r
}

func (r *ranker) score(i int, query []string) float64 {
	if r.avgLength == 0 {
		return 0
	}
	tf := r.termFreqs[i]
	dl := float64(r.lengths[i])
	var s float64
	for _, tok := range query {
		idf, ok := r.idf[tok]
		if !ok {
			continue
		}
		f := float64(tf[tok])
		if f == 0 {
			continue
		}
		s += idf * f * (bm25K1 + 1) / (f + bm25K1*(1-bm25B+bm25B*dl/r.avgLength))
	}
	return s
}

// Scored is a passage with its relevance to a query.
type Scored struct {
	Passage string
	Score   float64
}

// rankAll orders every passage by relevance, best first. Passages with equal
// scores keep their knowledge-base order.
func (r *ranker) rankAll(query string) []Scored {
	q := tokenize(query)
	out := make([]Scored, len(r.passages))
	for i, p := range r.passages {
		out[i] = Scored{Passage: p, Score: r.score(i, q)}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}
