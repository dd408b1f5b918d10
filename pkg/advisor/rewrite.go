package advisor

import (
	"strings"
)

// ReorderWhereText rewrites the body of a custom query's WHERE clause so
// its top-level AND fragments follow cardinality order. It returns false
// when the body contains a top-level OR (reordering would change
// semantics) or when no fragment moved. Fragments that match no
// predicate column keep their original relative order at the end; they
// are never dropped.
func (a *Advisor) ReorderWhereText(whereBody string, recommended []string) (string, bool) {
	fragments, hasOr := splitTopLevelAnd(whereBody)
	if hasOr || len(fragments) < 2 {
		return "", false
	}

	used := make([]bool, len(fragments))
	ordered := make([]string, 0, len(fragments))

	// Match each recommended column to its textual fragment by substring
	// containment of the column name.
	for _, column := range recommended {
		needle := strings.ToLower(column)
		for i, frag := range fragments {
			if used[i] {
				continue
			}
			if strings.Contains(strings.ToLower(frag), needle) {
				ordered = append(ordered, frag)
				used[i] = true
				break
			}
		}
	}

	// Leftover fragments stay in source order at the end.
	for i, frag := range fragments {
		if !used[i] {
			ordered = append(ordered, frag)
		}
	}

	rewritten := strings.Join(ordered, " AND ")
	if rewritten == strings.Join(fragments, " AND ") {
		return "", false
	}
	return rewritten, true
}

// splitTopLevelAnd splits a WHERE body on AND connectives outside any
// parentheses or string literals. The AND that closes a BETWEEN range
// binds to the BETWEEN operator, not to the predicate list, and never
// starts a new fragment. hasOr reports a top-level OR, which
// disqualifies the body from textual reordering.
func splitTopLevelAnd(body string) (fragments []string, hasOr bool) {
	var current strings.Builder
	depth := 0
	inString := false
	pendingBetween := false

	lower := strings.ToLower(body)
	i := 0
	for i < len(body) {
		ch := body[i]

		switch {
		case inString:
			if ch == '\'' {
				inString = false
			}
			current.WriteByte(ch)
			i++
		case ch == '\'':
			inString = true
			current.WriteByte(ch)
			i++
		case ch == '(':
			depth++
			current.WriteByte(ch)
			i++
		case ch == ')':
			depth--
			current.WriteByte(ch)
			i++
		case depth == 0 && hasKeywordAt(lower, i, "between"):
			pendingBetween = true
			current.WriteString(body[i : i+len("between")])
			i += len("between")
		case depth == 0 && pendingBetween && hasKeywordAt(lower, i, "and"):
			pendingBetween = false
			current.WriteString(body[i : i+len("and")])
			i += len("and")
		case depth == 0 && hasKeywordAt(lower, i, "and"):
			if frag := strings.TrimSpace(current.String()); frag != "" {
				fragments = append(fragments, frag)
			}
			current.Reset()
			i += 3
		case depth == 0 && hasKeywordAt(lower, i, "or"):
			hasOr = true
			current.WriteByte(ch)
			i++
		default:
			current.WriteByte(ch)
			i++
		}
	}

	if frag := strings.TrimSpace(current.String()); frag != "" {
		fragments = append(fragments, frag)
	}
	return fragments, hasOr
}

// whereTerminators are the clause keywords that end a WHERE body.
var whereTerminators = []string{"group", "order", "having", "limit", "offset", "for"}

// WhereBody extracts the text of the top-level WHERE clause from a full
// query, ending at the next top-level clause keyword or at the end of
// the text. It returns false when the query has no top-level WHERE.
func WhereBody(query string) (string, bool) {
	lower := strings.ToLower(query)
	depth := 0
	inString := false
	start := -1

	i := 0
	for i < len(query) {
		ch := query[i]

		switch {
		case inString:
			if ch == '\'' {
				inString = false
			}
			i++
		case ch == '\'':
			inString = true
			i++
		case ch == '(':
			depth++
			i++
		case ch == ')':
			depth--
			i++
		case depth == 0 && start < 0 && hasKeywordAt(lower, i, "where"):
			i += len("where")
			start = i
		case depth == 0 && start >= 0 && whereEndsAt(lower, i):
			return strings.TrimSpace(query[start:i]), true
		default:
			i++
		}
	}

	if start < 0 {
		return "", false
	}
	return strings.TrimSpace(query[start:]), true
}

func whereEndsAt(lower string, i int) bool {
	for _, kw := range whereTerminators {
		if hasKeywordAt(lower, i, kw) {
			return true
		}
	}
	return false
}

// hasKeywordAt reports whether the lowercase text has the keyword as a
// whole word starting at position i.
func hasKeywordAt(lower string, i int, keyword string) bool {
	if !strings.HasPrefix(lower[i:], keyword) {
		return false
	}
	if i > 0 && isWordChar(lower[i-1]) {
		return false
	}
	end := i + len(keyword)
	if end < len(lower) && isWordChar(lower[end]) {
		return false
	}
	return true
}

func isWordChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
}
