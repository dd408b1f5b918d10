package sqlast

// Expr is a predicate expression. The concrete variants form a closed
// set: Comparison, Between, In, IsNull, Like, And, Or, Column, Value.
type Expr interface {
	exprNode()
}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
)

// Column references a column, optionally qualified by a table or alias.
type Column struct {
	Table string
	Name  string
}

// Placeholder identifies a bind parameter: positional (Index >= 0) or
// named.
type Placeholder struct {
	Index int
	Name  string
}

// Value is a literal or bind-parameter operand. Placeholder is nil for
// plain literals.
type Value struct {
	Literal     string
	Placeholder *Placeholder
}

// Comparison is a binary comparison between two operands.
type Comparison struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

// Between is `operand [NOT] BETWEEN low AND high`.
type Between struct {
	Operand Expr
	Low     Expr
	High    Expr
	Negated bool
}

// In is `operand [NOT] IN (...)`.
type In struct {
	Operand Expr
	Items   []Expr
	Negated bool
}

// IsNull is `operand IS [NOT] NULL`.
type IsNull struct {
	Operand Expr
	Negated bool
}

// Like is `left [NOT] LIKE right`.
type Like struct {
	Left    Expr
	Right   Expr
	Negated bool
}

// And is a logical conjunction. Left precedes Right in source order.
type And struct {
	Left  Expr
	Right Expr
}

// Or is a logical disjunction. Predicates inside an Or are still
// extracted, but the advisor never reorders across an Or boundary.
type Or struct {
	Left  Expr
	Right Expr
}

func (*Column) exprNode()     {}
func (*Value) exprNode()      {}
func (*Comparison) exprNode() {}
func (*Between) exprNode()    {}
func (*In) exprNode()         {}
func (*IsNull) exprNode()     {}
func (*Like) exprNode()       {}
func (*And) exprNode()        {}
func (*Or) exprNode()         {}
