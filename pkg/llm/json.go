package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// leadingThinkPattern strips a <think>...</think> block emitted before
// the answer by some reasoning models.
var leadingThinkPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// ExtractJSON pulls the first JSON document out of a model response that
// may be wrapped in thinking tags, markdown fences, or prose.
func ExtractJSON(response string) (string, error) {
	cleaned := leadingThinkPattern.ReplaceAllString(response, "")

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if doc, ok := balancedSlice(cleaned, '{', '}'); ok && json.Valid([]byte(doc)) {
			return doc, nil
		}
	}
	if arrStart >= 0 {
		if doc, ok := balancedSlice(cleaned, '[', ']'); ok && json.Valid([]byte(doc)) {
			return doc, nil
		}
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// balancedSlice returns the first bracket-balanced substring starting at
// openChar, tracking string literals so brackets inside quoted values do
// not affect the depth count.
func balancedSlice(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	doc, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return result, nil
}
