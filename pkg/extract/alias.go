package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// aliasScanPattern matches "FROM <table> <alias>" / "JOIN <table> [AS] <alias>"
// in raw statement text. This is the best-effort fallback for qualifiers the
// structured FROM/JOIN items did not explain; it can mismatch on deeply
// nested or vendor-specific dialects, so it only runs after the structured
// alias map has been consulted.
const aliasScanPattern = `(?i)\b(?:from|join)\s+([A-Za-z_][A-Za-z0-9_$.]*)\s+(?:as\s+)?%s\b`

// resolveAliasInText scans raw statement text for a FROM/JOIN item whose
// alias matches the given qualifier and returns the physical table name,
// snake-cased when the statement referenced a CamelCase entity name.
// Returns "" when no match is found.
func resolveAliasInText(text, alias string) string {
	if text == "" || alias == "" {
		return ""
	}

	re, err := regexp.Compile(fmt.Sprintf(aliasScanPattern, regexp.QuoteMeta(alias)))
	if err != nil {
		return ""
	}

	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	table := m[1]
	// Strip a schema qualifier: "public.orders" -> "orders".
	if idx := strings.LastIndex(table, "."); idx >= 0 {
		table = table[idx+1:]
	}
	return CamelToSnake(table)
}

// CamelToSnake converts a CamelCase entity name to its snake_case table
// form: "OrderItem" -> "order_item". Already-lowercase input is returned
// folded but otherwise unchanged.
func CamelToSnake(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Insert an underscore at lower->Upper boundaries and before
			// the last letter of an acronym run ("HTTPCode" -> http_code).
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
