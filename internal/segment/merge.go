package segment

import (
	"strings"
)

// Merge buckets. A line matching several buckets lands in the first one
// by this fixed priority: decisions bind stronger than the discussion
// that produced them, and action items stronger than the topic they
// belong to.
var mergeBuckets = []struct {
	heading  string
	keywords []string
}{
	{"決議事項", []string{"決議", "決定", "結論", "decision", "resolved", "resolution"}},
	{"行動項目", []string{"行動項目", "待辦", "負責人", "期限", "action item", "todo", "deadline"}},
	{"議題摘要", []string{"議題", "主題", "議程", "topic", "agenda"}},
	{"討論內容", nil}, // catch-all
}

// Output order differs from matching priority: the merged document reads
// topics, discussion, decisions, actions.
var mergeOutputOrder = []string{"議題摘要", "討論內容", "決議事項", "行動項目"}

// MergeMinutes combines per-segment minutes into one document by
// rule-based keyword bucketing. Lines are classified into topic,
// discussion, decision, and action sections and deduplicated; markdown
// headings from the fragments are dropped since the merged document
// carries its own. No AI calls.
func MergeMinutes(records []string) string {
	buckets := make(map[string][]string, len(mergeBuckets))
	seen := make(map[string]bool)

	for _, record := range records {
		for _, line := range strings.Split(record, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key := normalizeLine(line)
			if seen[key] {
				continue
			}
			seen[key] = true

			bucket := classifyLine(line)
			buckets[bucket] = append(buckets[bucket], line)
		}
	}

	var b strings.Builder
	b.WriteString("# 會議記錄\n")
	for _, heading := range mergeOutputOrder {
		lines := buckets[heading]
		if len(lines) == 0 {
			continue
		}
		b.WriteString("\n## ")
		b.WriteString(heading)
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func classifyLine(line string) string {
	lower := strings.ToLower(line)
	for _, bucket := range mergeBuckets {
		if bucket.keywords == nil {
			return bucket.heading
		}
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.heading
			}
		}
	}
	return mergeBuckets[len(mergeBuckets)-1].heading
}

// normalizeLine is the dedup key: list markers and spacing differences
// between fragments must not defeat deduplication.
func normalizeLine(line string) string {
	line = strings.TrimLeft(line, "-*•0123456789. \t")
	return strings.ToLower(strings.Join(strings.Fields(line), " "))
}
