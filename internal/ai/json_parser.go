package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/colabbrave/minuteforge/internal/logger"
)

// Pre-compiled patterns: compiling per parse call is an order of
// magnitude slower than reusing these.
var (
	// Fenced block patterns: ```json\n{...}\n```, ```{...}```, etc.
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	// Cleanup patterns for common LLM JSON quirks.
	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRegex       = regexp.MustCompile(`([{,]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)//.*$`)
	multiLineCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Greedy object/array extraction: first { to last }, so nested
	// structures survive.
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	arrayRegex  = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// maxParseInput bounds parse input to keep a runaway response from
// exhausting memory.
const maxParseInput = 10 * 1024 * 1024

// ParseResult is the outcome of parsing LLM output as JSON. Malformed
// input is an expected case, modeled as a value rather than an error:
// callers must handle both variants and never see a panic.
type ParseResult[T any] struct {
	Success bool
	Data    T
	Error   string
}

// Parse extracts the first well-formed JSON value of type T from raw LLM
// output, tolerating the usual formatting quirks. Strategy order:
//
//  1. direct parse
//  2. strip markdown code fences (a fenced ```json block wins) and retry
//  3. fix trailing commas, unquoted keys, and comments, then retry
//  4. extract the brace-bounded region from surrounding prose and retry
func Parse[T any](text string, context string) ParseResult[T] {
	if len(text) > maxParseInput {
		return parseFailure[T]("input exceeds size limit", context)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parseFailure[T]("empty input", context)
	}

	if result, err := tryDirectParse[T](trimmed); err == nil {
		return ParseResult[T]{Success: true, Data: result}
	}

	withoutFences := removeCodeFences(trimmed)
	if withoutFences != trimmed {
		if result, err := tryDirectParse[T](withoutFences); err == nil {
			return ParseResult[T]{Success: true, Data: result}
		}
	}

	cleaned := cleanupJSON(withoutFences)
	if result, err := tryDirectParse[T](cleaned); err == nil {
		return ParseResult[T]{Success: true, Data: result}
	}

	if extracted := extractJSON(cleaned); extracted != "" {
		if result, err := tryDirectParse[T](extracted); err == nil {
			return ParseResult[T]{Success: true, Data: result}
		}
	}

	return parseFailure[T]("no parsable JSON found", context)
}

// ParseOrDefault parses JSON and falls back to the given value when no
// strategy succeeds.
func ParseOrDefault[T any](text string, fallback T, context string) T {
	result := Parse[T](text, context)
	if result.Success {
		return result.Data
	}
	logger.Debug("JSON parse failed (%s), using fallback: %s", context, result.Error)
	return fallback
}

func tryDirectParse[T any](text string) (T, error) {
	var result T
	err := json.Unmarshal([]byte(text), &result)
	return result, err
}

// removeCodeFences strips markdown fences. A fence wrapping the whole
// response is preferred; otherwise the first fenced block anywhere wins.
func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		if m := codeFenceAnyRegex.FindStringSubmatch(text); m != nil {
			cleaned = m[1]
		}
	}
	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.Trim(cleaned, "`")
	}
	return strings.TrimSpace(cleaned)
}

// cleanupJSON fixes trailing commas, unquoted keys, and // or /* */
// comments. Single quotes are left alone: rewriting them would corrupt
// valid JSON containing apostrophes.
func cleanupJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	cleaned = unquotedKeyRegex.ReplaceAllString(cleaned, `$1"$2":`)
	cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = multiLineCommentRegex.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// extractJSON pulls a JSON object or array out of mixed prose. The first
// JSON-like character decides the type so an object is not extracted out
// of a surrounding array.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '[':
			if m := arrayRegex.FindString(text); m != "" {
				return m
			}
		case '{':
			if m := objectRegex.FindString(text); m != "" {
				return m
			}
		}
	}
	if m := objectRegex.FindString(text); m != "" {
		return m
	}
	return arrayRegex.FindString(text)
}

func parseFailure[T any](message, context string) ParseResult[T] {
	var zero T
	if context != "" {
		message = context + ": " + message
	}
	return ParseResult[T]{Success: false, Data: zero, Error: message}
}
