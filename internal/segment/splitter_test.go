package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colabbrave/minuteforge/internal/types"
)

// proseOfLength builds text of exactly n characters out of sentence-
// terminated lines so natural breakpoints exist throughout.
func proseOfLength(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("The committee discussed the quarterly budget and resource allocation. \n")
	}
	return b.String()[:n]
}

func assertCoverage(t *testing.T, segments []*types.Segment, totalChars int) {
	t.Helper()
	require.NotEmpty(t, segments)
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, totalChars, segments[len(segments)-1].End)
	for i := 1; i < len(segments); i++ {
		assert.LessOrEqual(t, segments[i].Start, segments[i-1].End,
			"gap between segments %d and %d", segments[i-1].ID, segments[i].ID)
	}
}

func TestShortTextIsSingleSegment(t *testing.T) {
	text := proseOfLength(3000)

	segments := DeterministicSplit(text, 4000, 200)
	require.Len(t, segments, 1)
	assert.Equal(t, text, segments[0].Text)
	assert.Equal(t, 0, segments[0].Start)
	assert.Equal(t, 3000, segments[0].End)
	assert.False(t, segments[0].AIOptimized)
}

func TestLongTextSplitsWithinBounds(t *testing.T) {
	// 12,000 chars at max 4000 with 200 overlap: 3-4 segments, each at
	// most max+overlap, covering the whole input with no gap.
	text := proseOfLength(12000)

	segments := DeterministicSplit(text, 4000, 200)
	require.GreaterOrEqual(t, len(segments), 3)
	require.LessOrEqual(t, len(segments), 4)

	for _, seg := range segments {
		assert.LessOrEqual(t, seg.End-seg.Start, 4200, "segment %d too long", seg.ID)
	}
	assertCoverage(t, segments, 12000)
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	// One paragraph break placed inside the search window before the
	// 4000-char boundary; the cut must land right after it.
	para1 := proseOfLength(3800)
	text := para1 + "\n\n" + proseOfLength(3000)

	segments := DeterministicSplit(text, 4000, 0)
	require.GreaterOrEqual(t, len(segments), 2)
	assert.Equal(t, 3802, segments[0].End, "expected cut after the paragraph break")
}

func TestSplitHardCutsWithoutBreakpoints(t *testing.T) {
	text := strings.Repeat("x", 9000)

	segments := DeterministicSplit(text, 4000, 200)
	require.Len(t, segments, 3)
	assert.Equal(t, 4000, segments[0].End)
	assert.Equal(t, 8000, segments[1].End)
	assertCoverage(t, segments, 9000)
}

func TestSplitOverlapClampedAtStart(t *testing.T) {
	text := proseOfLength(8200)

	segments := DeterministicSplit(text, 4000, 200)
	for i := 1; i < len(segments); i++ {
		assert.GreaterOrEqual(t, segments[i].Start, 0)
	}
}

func TestSplitCoverageProperty(t *testing.T) {
	for _, n := range []int{4097, 5000, 10000, 20000} {
		text := proseOfLength(n)
		segments := DeterministicSplit(text, 4000, 200)

		covered := 0
		prevEnd := 0
		for _, seg := range segments {
			start := seg.Start
			if start < prevEnd {
				start = prevEnd // ignore overlap regions
			}
			covered += seg.End - start
			prevEnd = seg.End
		}
		assert.GreaterOrEqual(t, float64(covered), 0.95*float64(n), "length %d under-covered", n)
	}
}

func TestSplitHandlesMultibyteText(t *testing.T) {
	text := strings.Repeat("委員會討論了季度預算與資源分配。\n", 400) // ~6,800 chars

	segments := DeterministicSplit(text, 4000, 200)
	require.GreaterOrEqual(t, len(segments), 2)
	total := utf8.RuneCountInString(text)
	assertCoverage(t, segments, total)
	for _, seg := range segments {
		assert.LessOrEqual(t, seg.End-seg.Start, 4200)
	}
}
