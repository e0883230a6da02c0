package retrieval

// SelectBand picks the passages to hand to the drafter from a best-first ranking.
// The first attempt and any attempt following a category change get the top
// band [0, topK); other retries get the next band [topK, 2*topK) so the same
// evidence is not repeated. Short rankings yield whatever is available.
func SelectBand(ranked []string, topK, attempt int, categoryChanged bool) []string {
	if topK <= 0 {
		return nil
	}
	start := 0
	if attempt != 0 && !categoryChanged {
		start = topK
	}
	if start >= len(ranked) {
		return []string{}
	}
	end := start + topK
	if end > len(ranked) {
		end = len(ranked)
	}
	return append([]string(nil), ranked[start:end]...)
}
