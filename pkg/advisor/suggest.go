package advisor

import "github.com/querylens/querylens-engine/pkg/models"

// SuggestIndexes checks the recommended predicate order of one method
// against existing indexes and returns the coverage gaps. The two checks
// are independent: a missing leading-column index yields a single-column
// suggestion, a missing covering index over the full recommended
// sequence yields a multi-column one; a method can produce zero, one,
// or both. Only predicates on the leading predicate's table participate,
// since an index spans a single table.
func (a *Advisor) SuggestIndexes(preds []models.Predicate) []models.IndexSuggestion {
	if len(preds) == 0 {
		return nil
	}

	recommended := SortByCardinality(preds)
	table := recommended[0].Table
	if table == "" {
		return nil
	}

	columns := make([]string, 0, len(recommended))
	for _, p := range recommended {
		if p.Table == table {
			columns = append(columns, p.Column)
		}
	}

	var suggestions []models.IndexSuggestion

	if !a.classifier.HasIndexWithLeadingColumn(table, columns[0]) {
		suggestions = append(suggestions, models.IndexSuggestion{
			Table:   table,
			Columns: []string{columns[0]},
		})
	}

	if len(columns) >= 2 && !a.classifier.HasIndexCoveringColumns(table, columns) {
		suggestions = append(suggestions, models.IndexSuggestion{
			Table:       table,
			Columns:     columns,
			MultiColumn: true,
		})
	}

	return suggestions
}
