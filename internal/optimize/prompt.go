package optimize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/colabbrave/minuteforge/internal/strategy"
	"github.com/colabbrave/minuteforge/internal/types"
)

const (
	// defaultRole anchors the generation prompt when the combination
	// carries no role strategy.
	defaultRole = "你是一位專業的會議記錄專員，具備豐富的行政經驗，擅長將口語化的會議逐字稿轉換為結構化、專業的會議記錄。"

	// Excerpt caps keep prompts inside the model's useful context.
	referenceExcerptChars = 2000
	critiqueMinutesChars  = 800
	critiqueRefChars      = 500
)

// assemblePrompt builds the generation prompt from the selected
// combination. Deterministic given its inputs: the same combination,
// transcript, reference, and suggestion always produce the same prompt.
func assemblePrompt(catalog *strategy.Catalog, combo types.Combination, transcript, reference string, suggestion *types.ImprovementSuggestion) string {
	var b strings.Builder

	b.WriteString("# 會議記錄優化任務\n\n")
	b.WriteString("## 角色定義\n")
	b.WriteString(roleDefinition(catalog, combo))
	b.WriteString("\n\n")

	b.WriteString("## 優化策略\n")
	for _, id := range combo {
		s, ok := catalog.Get(id)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "### %s - %s\n", s.Dimension, s.Name)
		b.WriteString(s.Description)
		b.WriteString("\n")
		if s.PromptFragment != "" {
			b.WriteString(s.PromptFragment)
			b.WriteString("\n")
		}
		if len(s.Sections) > 0 {
			fmt.Fprintf(&b, "- **必要章節**: %s\n", strings.Join(s.Sections, "、"))
		}
		b.WriteString("\n")
	}

	if hasFocus(suggestion) {
		b.WriteString("## 特別改進重點\n")
		if len(suggestion.WeakestMetrics) > 0 {
			fmt.Fprintf(&b, "- 待改善指標: %s\n", strings.Join(suggestion.WeakestMetrics, "、"))
		}
		if suggestion.DimensionFocus != "" {
			fmt.Fprintf(&b, "- 重點維度: %s\n", suggestion.DimensionFocus)
		}
		if suggestion.Rationale != "" {
			fmt.Fprintf(&b, "- 調整理由: %s\n", suggestion.Rationale)
		}
		b.WriteString("\n")
	}

	if reference != "" {
		b.WriteString("## 參考範例\n")
		b.WriteString("以下是一份優質的會議記錄範例，請參考其格式和風格：\n```markdown\n")
		b.WriteString(headRunes(reference, referenceExcerptChars))
		b.WriteString("\n```\n\n")
	}

	b.WriteString("## 輸出格式要求\n")
	b.WriteString(formatRequirements(catalog, combo))
	b.WriteString("\n\n")

	b.WriteString("## 會議逐字稿\n")
	b.WriteString("請根據以上策略和要求，將以下逐字稿轉換為專業的會議記錄：\n\n```\n")
	b.WriteString(transcript)
	b.WriteString("\n```\n\n## 輸出\n請輸出完整的會議記錄（僅輸出會議記錄內容，不要包含其他說明）：\n")

	return b.String()
}

// hasFocus reports whether the suggestion carries anything worth
// surfacing as an improvement-focus block.
func hasFocus(s *types.ImprovementSuggestion) bool {
	if s == nil {
		return false
	}
	return len(s.WeakestMetrics) > 0 || s.DimensionFocus != "" || s.Rationale != ""
}

// roleDefinition resolves the first role-dimension strategy in the
// combination, falling back to the default role.
func roleDefinition(catalog *strategy.Catalog, combo types.Combination) string {
	for _, id := range combo {
		s, ok := catalog.Get(id)
		if !ok || s.Dimension != types.DimensionRole {
			continue
		}
		if s.RoleDefinition != "" {
			return s.RoleDefinition
		}
	}
	return defaultRole
}

// formatRequirements derives output format rules from the combination:
// structure strategies contribute required sections, format strategies a
// layout style, and language strategies a tone.
func formatRequirements(catalog *strategy.Catalog, combo types.Combination) string {
	reqs := []string{"請輸出標準的 Markdown 格式會議記錄"}

	sectioned := false
	for _, id := range combo {
		s, ok := catalog.Get(id)
		if !ok {
			continue
		}
		switch s.Dimension {
		case types.DimensionStructure:
			if !sectioned && len(s.Sections) > 0 {
				reqs = append(reqs, "必須包含以下章節："+strings.Join(s.Sections, "、"))
				sectioned = true
			}
		case types.DimensionFormat:
			if s.FormatHint != "" {
				reqs = append(reqs, s.FormatHint)
			}
		case types.DimensionLanguage:
			if s.ToneHint != "" {
				reqs = append(reqs, s.ToneHint)
			}
		}
	}
	if !sectioned {
		reqs = append(reqs, "包含：會議標題、會議資訊、討論事項、決議事項、待辦事項")
	}

	var b strings.Builder
	for i, r := range reqs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(r)
	}
	return b.String()
}

// critiquePrompt asks the judge for a structured critique of the latest
// round: weakest metrics, strategy adjustments, a dimension to focus on,
// and a rationale, as a single JSON object.
func critiquePrompt(catalog *strategy.Catalog, history types.History, reference string) string {
	latest := history.Latest()
	if latest == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("# 會議記錄策略優化分析師\n\n")
	b.WriteString("你是一位專業的提示詞優化專家，負責分析會議記錄生成結果並提供結構化的策略改進建議。\n\n")

	b.WriteString("## 當前狀況分析\n### 使用策略組合\n")
	b.WriteString(strings.Join(latest.Strategies, ", "))
	b.WriteString("\n\n### 評分詳情\n")
	if scores, err := json.MarshalIndent(latest.Scores, "", "  "); err == nil {
		b.Write(scores)
	}
	b.WriteString("\n")

	if len(history) > 1 {
		prev := history[len(history)-2].OverallScore()
		curr := latest.OverallScore()
		fmt.Fprintf(&b, "\n### 得分趨勢\n分數變化: %+.4f (%.4f → %.4f)\n", curr-prev, prev, curr)
	}

	b.WriteString("\n### 生成內容\n")
	b.WriteString(headRunes(latest.Minutes, critiqueMinutesChars))
	b.WriteString("\n\n## 可用策略資源\n")
	b.WriteString(availableStrategies(catalog))

	b.WriteString("\n## 任務要求\n")
	b.WriteString("請基於上述分析，以JSON格式輸出結構化的策略改進建議：\n\n")
	b.WriteString("```json\n{\n")
	b.WriteString("  \"weakest_metrics\": [\"指標名稱\"],\n")
	b.WriteString("  \"remove_strategies\": [\"需要移除的策略ID\"],\n")
	b.WriteString("  \"add_strategies\": [\"建議新增的策略ID\"],\n")
	b.WriteString("  \"dimension_focus\": \"role|structure|content|format|language|quality\",\n")
	b.WriteString("  \"rationale\": \"調整理由說明\"\n")
	b.WriteString("}\n```\n\n")
	b.WriteString("請確保建議的策略ID存在於可用策略列表中，並避免策略衝突。\n")

	if reference != "" {
		b.WriteString("\n## 參考標準會議記錄\n")
		b.WriteString(headRunes(reference, critiqueRefChars))
		b.WriteString("\n\n請對比參考標準，在建議中重點說明如何縮小差距。\n")
	}

	return b.String()
}

// availableStrategies lists the catalog grouped by dimension so the
// judge only proposes ids that exist.
func availableStrategies(catalog *strategy.Catalog) string {
	var b strings.Builder
	for _, dim := range types.Dimensions {
		ids := catalog.ByDimension(dim)
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n", dim)
		for _, id := range ids {
			s, _ := catalog.Get(id)
			fmt.Fprintf(&b, "- `%s`: %s\n", id, s.Name)
		}
	}
	return b.String()
}

// segmentPrompt builds the reduced single-pass prompt used for one
// segment of an over-length transcript.
func segmentPrompt(segmentText string) string {
	var b strings.Builder
	b.WriteString("# 會議記錄片段整理\n\n")
	b.WriteString("你是一位專業的會議記錄專員。以下是一段會議逐字稿的片段，")
	b.WriteString("請將其整理為結構化的會議記錄片段，保留議題、討論重點、決議與行動項目。\n\n")
	b.WriteString("## 逐字稿片段\n```\n")
	b.WriteString(segmentText)
	b.WriteString("\n```\n\n## 輸出\n")
	b.WriteString("請以 Markdown 條列輸出該片段的會議記錄內容（僅輸出內容，不要包含其他說明）：\n")
	return b.String()
}

// headRunes returns at most n leading characters of s.
func headRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
