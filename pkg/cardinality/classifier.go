// Package cardinality classifies column selectivity from schema
// metadata. The classifier is built once per analysis run from index
// descriptors, type hints and user overrides, and is immutable after
// construction, so it can be shared freely across components.
package cardinality

import (
	"strings"

	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/models"
)

// lowSelectivityPrefixes and friends implement the naming-convention
// fallback: columns that look like flags or soft-delete markers carry
// few distinct values. The heuristic only applies when no type hint
// exists for the column; explicit metadata is authoritative.
var (
	lowSelectivityPrefixes = []string{"is_", "has_", "can_", "should_"}
	lowSelectivitySuffixes = []string{"_flag", "_enabled", "_active"}
	lowSelectivityNames    = map[string]bool{
		"active":  true,
		"enabled": true,
		"deleted": true,
		"visible": true,
	}
)

// Overrides are user-supplied column lists that short-circuit the
// classification cascade. Columns are matched case-insensitively by
// name only, ignoring the table. High wins when a column appears in
// both sets.
type Overrides struct {
	High []string
	Low  []string
}

// Classifier answers selectivity and index-coverage questions for
// (table, column) pairs. All lookups are case-folded; unknown input
// degrades to the safest neutral answer and never fails.
type Classifier struct {
	highOverride map[string]bool
	lowOverride  map[string]bool

	// table -> set of columns, precomputed per index kind group.
	primaryKeyColumns map[string]map[string]bool
	uniqueColumns     map[string]map[string]bool

	// table -> all index descriptors for that table (columns folded).
	indexesByTable map[string][]models.IndexDescriptor

	// "table|column" -> type hint category.
	typeHints map[string]models.TypeCategory

	logger *zap.Logger
}

// New builds a classifier from a schema snapshot. The inputs are copied
// into internal lookup structures; the caller may discard them afterwards.
func New(indexes []models.IndexDescriptor, hints []models.ColumnTypeHint, overrides Overrides, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Classifier{
		highOverride:      make(map[string]bool, len(overrides.High)),
		lowOverride:       make(map[string]bool, len(overrides.Low)),
		primaryKeyColumns: make(map[string]map[string]bool),
		uniqueColumns:     make(map[string]map[string]bool),
		indexesByTable:    make(map[string][]models.IndexDescriptor),
		typeHints:         make(map[string]models.TypeCategory, len(hints)),
		logger:            logger.Named("cardinality"),
	}

	for _, col := range overrides.High {
		c.highOverride[fold(col)] = true
	}
	for _, col := range overrides.Low {
		c.lowOverride[fold(col)] = true
	}

	for _, idx := range indexes {
		if len(idx.Columns) == 0 {
			logger.Warn("Ignoring index descriptor without columns",
				zap.String("table", idx.Table),
				zap.String("kind", string(idx.Kind)))
			continue
		}

		table := fold(idx.Table)
		folded := models.IndexDescriptor{
			Table:   table,
			Kind:    idx.Kind,
			Columns: foldAll(idx.Columns),
		}
		c.indexesByTable[table] = append(c.indexesByTable[table], folded)

		switch {
		case idx.Kind == models.IndexKindPrimaryKey:
			addColumns(c.primaryKeyColumns, table, folded.Columns)
		case idx.Kind.IsUnique():
			addColumns(c.uniqueColumns, table, folded.Columns)
		}
	}

	for _, h := range hints {
		c.typeHints[fold(h.Table)+"|"+fold(h.Column)] = h.Category
	}

	return c
}

// Classify returns the selectivity class for a column. The cascade is:
// user overrides, primary-key membership, unique membership, type hints
// (Boolean/Enum are Low), then the naming-convention fallback, which
// applies only when no type hint exists at all. Anything else is Medium,
// which is also the answer for missing identity.
func (c *Classifier) Classify(table, column string) models.CardinalityLevel {
	if table == "" || column == "" {
		return models.CardinalityMedium
	}

	table = fold(table)
	column = fold(column)

	// Overrides first; High wins when a column is listed in both.
	if c.highOverride[column] {
		return models.CardinalityHigh
	}
	if c.lowOverride[column] {
		return models.CardinalityLow
	}

	if c.primaryKeyColumns[table][column] {
		return models.CardinalityHigh
	}
	if c.uniqueColumns[table][column] {
		return models.CardinalityHigh
	}

	if hint, ok := c.typeHints[table+"|"+column]; ok {
		if hint == models.TypeCategoryBoolean || hint == models.TypeCategoryEnum {
			return models.CardinalityLow
		}
		// Explicit metadata suppresses the naming heuristic even when
		// the category is Other.
		return models.CardinalityMedium
	}

	if looksLowSelectivity(column) {
		return models.CardinalityLow
	}

	return models.CardinalityMedium
}

// HasIndexWithLeadingColumn reports whether some index on table has
// column as its first element.
func (c *Classifier) HasIndexWithLeadingColumn(table, column string) bool {
	if table == "" || column == "" {
		return false
	}

	column = fold(column)
	for _, idx := range c.indexesByTable[fold(table)] {
		if idx.Columns[0] == column {
			return true
		}
	}
	return false
}

// HasIndexCoveringColumns reports whether some index on table has the
// given ordered column sequence as an exact, in-order prefix of its own
// column list. Extra trailing index columns are allowed; gaps or
// reordering are not covering.
func (c *Classifier) HasIndexCoveringColumns(table string, columns []string) bool {
	if table == "" || len(columns) == 0 {
		return false
	}

	wanted := foldAll(columns)
	for _, idx := range c.indexesByTable[fold(table)] {
		if prefixMatch(idx.Columns, wanted) {
			return true
		}
	}
	return false
}

func prefixMatch(indexColumns, wanted []string) bool {
	if len(indexColumns) < len(wanted) {
		return false
	}
	for i, col := range wanted {
		if indexColumns[i] != col {
			return false
		}
	}
	return true
}

func looksLowSelectivity(column string) bool {
	for _, prefix := range lowSelectivityPrefixes {
		if strings.HasPrefix(column, prefix) {
			return true
		}
	}
	for _, suffix := range lowSelectivitySuffixes {
		if strings.HasSuffix(column, suffix) {
			return true
		}
	}
	return lowSelectivityNames[column]
}

func addColumns(dst map[string]map[string]bool, table string, columns []string) {
	set := dst[table]
	if set == nil {
		set = make(map[string]bool, len(columns))
		dst[table] = set
	}
	for _, col := range columns {
		set[col] = true
	}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func foldAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = fold(col)
	}
	return out
}
