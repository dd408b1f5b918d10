package logging

import "regexp"

const (
	// MaxQueryLogLength is the maximum length of a query to log.
	MaxQueryLogLength = 200
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// Matches password=xxx, pwd=xxx, pass=xxx in connection strings.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches user:pass@host credentials in URL-style connection strings.
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// SanitizeConnectionString removes credentials from a connection string
// before it is logged.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeQuery truncates a SQL query for logging. Analyzed query text
// comes from source code, but embedded literals can still be long or
// sensitive.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	sanitized := TruncateString(query, MaxQueryLogLength)
	return passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

// TruncateString truncates s to maxLen, appending an ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
