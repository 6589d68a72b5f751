package scoring

import "strings"

// Section and keyword markers for the structural heuristics. Meeting
// records in this system are primarily Traditional Chinese; English
// equivalents are accepted so mixed-language minutes are not penalized.
var (
	requiredSections = [][]string{
		{"會議", "meeting"},
		{"討論", "discussion"},
		{"決議", "決定", "decision", "resolution"},
		{"待辦", "行動項目", "action item"},
	}

	professionalKeywords = [][]string{
		{"決議", "decision"},
		{"討論", "discussion"},
		{"報告", "report"},
		{"提案", "proposal"},
		{"建議", "recommendation"},
		{"執行", "execution"},
		{"負責人", "owner"},
		{"期限", "deadline"},
	}
)

// StructureScore rates candidate minutes without a reference: length
// adequacy, presence of the expected sections, markdown formatting,
// vocabulary richness, and professional-register keywords, averaged in
// [0, 1].
func StructureScore(candidate string) float64 {
	if strings.TrimSpace(candidate) == "" {
		return 0
	}
	lower := strings.ToLower(candidate)

	parts := []float64{
		lengthScore(candidate),
		sectionScore(lower),
		formatScore(candidate),
		richnessScore(candidate),
		keywordScore(lower),
	}
	var sum float64
	for _, p := range parts {
		sum += p
	}
	return sum / float64(len(parts))
}

// lengthScore saturates at 500 tokens: shorter minutes are penalized
// proportionally, longer ones are not rewarded further.
func lengthScore(text string) float64 {
	count := len(tokenize(text))
	if count == 0 {
		return 0
	}
	if count >= 500 {
		return 1
	}
	return float64(count) / 500
}

func sectionScore(lower string) float64 {
	found := 0
	for _, variants := range requiredSections {
		if containsAny(lower, variants) {
			found++
		}
	}
	return float64(found) / float64(len(requiredSections))
}

func formatScore(text string) float64 {
	score := 0.0
	if strings.Contains(text, "##") {
		score += 0.3
	}
	if strings.Contains(text, "- ") || strings.Contains(text, "1.") {
		score += 0.3
	}
	if strings.Contains(text, "**") || strings.Contains(text, "*") {
		score += 0.2
	}
	if strings.Contains(text, "`") {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

func richnessScore(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
	}
	ratio := float64(len(unique)) / float64(len(tokens)) * 2
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

func keywordScore(lower string) float64 {
	found := 0
	for _, variants := range professionalKeywords {
		if containsAny(lower, variants) {
			found++
		}
	}
	return float64(found) / float64(len(professionalKeywords))
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
