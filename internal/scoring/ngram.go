package scoring

// ContentOverlap measures bigram overlap between candidate and reference
// as an F-measure of clipped bigram counts (ROUGE-2 style). Degrades to
// unigrams when either text is a single token.
func ContentOverlap(candidate, reference string) float64 {
	candTokens := tokenize(candidate)
	refTokens := tokenize(reference)
	if len(candTokens) == 0 || len(refTokens) == 0 {
		return 0
	}

	n := 2
	if len(candTokens) < 2 || len(refTokens) < 2 {
		n = 1
	}

	candGrams := ngramCounts(candTokens, n)
	refGrams := ngramCounts(refTokens, n)

	var overlap, candTotal, refTotal int
	for gram, count := range candGrams {
		candTotal += count
		if refCount, ok := refGrams[gram]; ok {
			// Clipped count: a repeated n-gram only matches as many
			// times as it appears in the reference.
			overlap += min(count, refCount)
		}
	}
	for _, count := range refGrams {
		refTotal += count
	}

	if overlap == 0 {
		return 0
	}
	precision := float64(overlap) / float64(candTotal)
	recall := float64(overlap) / float64(refTotal)
	return 2 * precision * recall / (precision + recall)
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		gram := tokens[i]
		for j := 1; j < n; j++ {
			gram += "\x00" + tokens[i+j]
		}
		counts[gram]++
	}
	return counts
}
