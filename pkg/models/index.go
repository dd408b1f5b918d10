package models

// IndexKind distinguishes the origin of an index definition. Primary keys
// and unique indexes imply high selectivity on their member columns.
type IndexKind string

const (
	IndexKindPrimaryKey       IndexKind = "primary_key"
	IndexKindUniqueConstraint IndexKind = "unique_constraint"
	IndexKindUniqueIndex      IndexKind = "unique_index"
	IndexKindRegularIndex     IndexKind = "regular_index"
)

// IsUnique returns true for index kinds that guarantee distinct values.
func (k IndexKind) IsUnique() bool {
	return k == IndexKindPrimaryKey || k == IndexKindUniqueConstraint || k == IndexKindUniqueIndex
}

// IndexDescriptor describes one index as reported by schema metadata.
// Column order is significant: the first element is the leading column,
// and only a predicate on the leading column can use the index for
// seek-style access. Built once at analysis-run start and never mutated.
type IndexDescriptor struct {
	Table   string    `json:"table" yaml:"table"`
	Kind    IndexKind `json:"kind" yaml:"kind"`
	Columns []string  `json:"columns" yaml:"columns"` // ordered, non-empty
}

// TypeCategory is the coarse column-type classification supplied by
// entity metadata. Boolean and Enum columns carry few distinct values.
type TypeCategory string

const (
	TypeCategoryBoolean TypeCategory = "boolean"
	TypeCategoryEnum    TypeCategory = "enum"
	TypeCategoryOther   TypeCategory = "other"
)

// ColumnTypeHint is an optional per-column type annotation. Absence of a
// hint (as opposed to TypeCategoryOther) enables the naming-convention
// fallback in the classifier.
type ColumnTypeHint struct {
	Table    string       `json:"table" yaml:"table"`
	Column   string       `json:"column" yaml:"column"`
	Category TypeCategory `json:"category" yaml:"category"`
}
