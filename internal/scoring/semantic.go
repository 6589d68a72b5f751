package scoring

import "math"

// SemanticSimilarity approximates semantic closeness as the cosine
// similarity of token-frequency vectors. Result is in [0, 1]; identical
// texts score 1, texts with no shared tokens score 0.
func SemanticSimilarity(candidate, reference string) float64 {
	candFreq := termFrequencies(tokenize(candidate))
	refFreq := termFrequencies(tokenize(reference))
	if len(candFreq) == 0 || len(refFreq) == 0 {
		return 0
	}

	var dot, candNorm, refNorm float64
	for token, cf := range candFreq {
		candNorm += cf * cf
		if rf, ok := refFreq[token]; ok {
			dot += cf * rf
		}
	}
	for _, rf := range refFreq {
		refNorm += rf * rf
	}

	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(candNorm) * math.Sqrt(refNorm))
}

func termFrequencies(tokens []string) map[string]float64 {
	freq := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}
