// Package segment splits oversized transcripts into coherent chunks,
// optionally refines chunk boundaries with an AI judge, evaluates the
// result, and merges per-segment outputs back into one document. The
// deterministic splitter is the single source of truth for cut points:
// the AI path only adjusts them and falls back to it when quality gating
// fails.
package segment

import (
	"strings"

	"github.com/colabbrave/minuteforge/internal/logger"
	"github.com/colabbrave/minuteforge/internal/types"
)

const (
	// searchWindow is how far back from a window boundary the splitter
	// looks for a natural breakpoint.
	searchWindow = 500

	// minSpacing is the minimum distance between breakpoints, preventing
	// degenerate tiny segments.
	minSpacing = 500
)

// Offsets are character (rune) positions throughout this package so the
// same limits apply to Chinese and English transcripts.

// DeterministicSplit cuts text into segments of at most maxLength
// characters at natural breakpoints, with each segment after the first
// starting overlap characters before the previous cut. It makes no AI
// calls. Text at or under maxLength comes back as a single segment.
func DeterministicSplit(text string, maxLength, overlap int) []*types.Segment {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return []*types.Segment{{
			ID:    1,
			Text:  text,
			Start: 0,
			End:   len(runes),
		}}
	}

	breakpoints := findBreakpoints(runes, maxLength)
	logger.Debug("deterministic split: %d breakpoints over %d chars", len(breakpoints), len(runes))

	return buildSegments(runes, breakpoints, overlap)
}

// findBreakpoints scans forward in maxLength-sized windows and returns
// the cut positions, ending with len(runes).
func findBreakpoints(runes []rune, maxLength int) []int {
	var breakpoints []int
	current := 0

	for current < len(runes) {
		end := current + maxLength
		if end >= len(runes) {
			breakpoints = append(breakpoints, len(runes))
			break
		}

		bp := naturalBreakpoint(runes, current, end)
		breakpoints = append(breakpoints, bp)
		current = bp
	}
	return breakpoints
}

// naturalBreakpoint finds the best cut inside the trailing search window
// before end. Candidates in priority order: a paragraph break (double
// newline), sentence-final punctuation followed by newline or space, a
// comma followed by newline. The rightmost qualifying match wins; with no
// qualifying match the window boundary itself is the hard cut.
func naturalBreakpoint(runes []rune, current, end int) int {
	searchStart := end - searchWindow
	if searchStart < current {
		searchStart = current
	}

	matchers := []func([]rune, int) int{
		matchParagraphBreak,
		matchSentenceEnd,
		matchCommaNewline,
	}

	for _, match := range matchers {
		// Rightmost first so the segment stays close to maxLength.
		for pos := end - 1; pos >= searchStart; pos-- {
			cut := match(runes, pos)
			if cut < 0 || cut > end {
				continue
			}
			if cut <= current+minSpacing {
				break // everything further left is closer still
			}
			return cut
		}
	}
	return end
}

// matchParagraphBreak matches "\n\n" starting at pos, returning the cut
// position after the break, or -1.
func matchParagraphBreak(runes []rune, pos int) int {
	if pos+1 < len(runes) && runes[pos] == '\n' && runes[pos+1] == '\n' {
		return pos + 2
	}
	return -1
}

// matchSentenceEnd matches sentence-final punctuation followed by a
// newline or space.
func matchSentenceEnd(runes []rune, pos int) int {
	if pos+1 >= len(runes) || !isSentenceFinal(runes[pos]) {
		return -1
	}
	next := runes[pos+1]
	if next == '\n' || next == ' ' || next == '　' {
		return pos + 2
	}
	return -1
}

// matchCommaNewline matches a comma followed by a newline.
func matchCommaNewline(runes []rune, pos int) int {
	if pos+1 >= len(runes) {
		return -1
	}
	if (runes[pos] == '，' || runes[pos] == ',') && runes[pos+1] == '\n' {
		return pos + 2
	}
	return -1
}

func isSentenceFinal(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?':
		return true
	}
	return false
}

// buildSegments materializes segments from breakpoints, starting each
// segment after the first overlap characters early (clamped to 0).
func buildSegments(runes []rune, breakpoints []int, overlap int) []*types.Segment {
	var segments []*types.Segment
	for i, end := range breakpoints {
		start := 0
		if i > 0 {
			start = breakpoints[i-1] - overlap
			if start < 0 {
				start = 0
			}
		}

		text := strings.TrimSpace(string(runes[start:end]))
		if text == "" {
			continue
		}
		segments = append(segments, &types.Segment{
			ID:    len(segments) + 1,
			Text:  text,
			Start: start,
			End:   end,
		})
	}
	return segments
}
