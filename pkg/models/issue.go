package models

import "strings"

// Severity ranks how costly the current predicate order is likely to be.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// OptimizationIssue is the advisor's verdict for one query method whose
// AND-connected WHERE predicates are ordered sub-optimally. Created at
// most once per method and immutable after creation; consumed by the
// source-rewriting collaborator and by reporting.
type OptimizationIssue struct {
	UnitID           string   `json:"unit_id"`
	MethodID         string   `json:"method_id"`
	CurrentOrder     []string `json:"current_order"`
	RecommendedOrder []string `json:"recommended_order"`
	Severity         Severity `json:"severity"`
	Description      string   `json:"description"`
}

// IndexSuggestion proposes a new index for a table. Columns are ordered;
// for multi-column suggestions the order matches the recommended
// predicate order so the leading column stays seekable.
type IndexSuggestion struct {
	Table       string   `json:"table"`
	Columns     []string `json:"columns"`
	MultiColumn bool     `json:"multi_column"`
}

// Key returns the canonical dedup key: "table|column" for single-column
// suggestions, "table|col1,col2,..." for multi-column ones.
func (s IndexSuggestion) Key() string {
	return s.Table + "|" + strings.Join(s.Columns, ",")
}

// ParseSuggestionKey reverses Key. Checkpoints and the consolidator
// carry suggestions in key form; reporting needs them structured again.
func ParseSuggestionKey(key string, multiColumn bool) (IndexSuggestion, bool) {
	table, cols, ok := strings.Cut(key, "|")
	if !ok || table == "" || cols == "" {
		return IndexSuggestion{}, false
	}
	return IndexSuggestion{
		Table:       table,
		Columns:     strings.Split(cols, ","),
		MultiColumn: multiColumn,
	}, true
}
