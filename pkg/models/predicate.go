package models

// ParameterRef threads a predicate back to the formal parameter that
// supplies its value. It is an opaque handle into the caller's parameter
// model: either a positional index or a named placeholder. The analysis
// core never interprets it beyond equality.
type ParameterRef struct {
	// Index is the zero-based positional index, or -1 when the
	// placeholder is named.
	Index int `json:"index"`
	// Name is the named-placeholder identity, empty for positional.
	Name string `json:"name,omitempty"`
}

// UnclassifiedPredicate is one atomic WHERE-clause comparison as produced
// by the extraction walker, before the cardinality classifier has run.
// It is immutable; Classified converts it into a Predicate.
type UnclassifiedPredicate struct {
	// Table is the resolved physical table, empty when alias resolution
	// failed and the caller must fall back to its default table.
	Table    string
	Column   string
	Operator string
	// Position is the 0-based source-order index within the owning WHERE
	// clause. Assigned once at extraction time and never renumbered.
	Position int
	Param    *ParameterRef
}

// Classified attaches a cardinality verdict, producing the final
// immutable Predicate.
func (p UnclassifiedPredicate) Classified(level CardinalityLevel) Predicate {
	return Predicate{
		Table:       p.Table,
		Column:      p.Column,
		Operator:    p.Operator,
		Cardinality: level,
		Position:    p.Position,
		Param:       p.Param,
	}
}

// Predicate is a fully classified WHERE-clause predicate. Reordering
// produces a new sequence of Predicates referencing the old positions;
// Position is never mutated in place.
type Predicate struct {
	Table       string           `json:"table,omitempty"`
	Column      string           `json:"column"`
	Operator    string           `json:"operator"`
	Cardinality CardinalityLevel `json:"cardinality"`
	Position    int              `json:"position"`
	Param       *ParameterRef    `json:"param,omitempty"`
}

// JoinPredicate is a column-to-column comparison from a JOIN ON clause.
// Column-to-literal comparisons inside ON clauses are filtering, not
// joining, and are never represented here.
type JoinPredicate struct {
	LeftTable   string `json:"left_table"`
	LeftColumn  string `json:"left_column"`
	RightTable  string `json:"right_table"`
	RightColumn string `json:"right_column"`
	Operator    string `json:"operator"`
	Position    int    `json:"position"`
}
