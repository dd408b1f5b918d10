// Package sqlast defines the parsed-statement contract between the
// SQL-parsing collaborator and the analysis core. It is a closed set of
// statement and expression variants; consumers dispatch with type
// switches over these types rather than visitor double-dispatch, so the
// compiler can check exhaustiveness at each switch site.
package sqlast

// Statement is a parsed SQL statement. The concrete types are Select,
// Update and Delete.
type Statement interface {
	// RawText returns the original statement text, used only for the
	// best-effort alias-resolution fallback.
	RawText() string
	stmtNode()
}

// FromItem is one entry of a FROM clause: either a physical table
// reference or a derived-table subquery.
type FromItem interface {
	fromNode()
}

// TableRef references a physical table, optionally aliased.
type TableRef struct {
	Name  string
	Alias string
}

// SubqueryRef is a derived table: a nested SELECT with an optional alias.
type SubqueryRef struct {
	Select *Select
	Alias  string
}

func (TableRef) fromNode()    {}
func (SubqueryRef) fromNode() {}

// JoinKind is the textual join type (INNER, LEFT, RIGHT, FULL, CROSS).
type JoinKind string

const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL"
	JoinCross JoinKind = "CROSS"
)

// Join is one JOIN clause: the joined item and its ON condition.
type Join struct {
	Kind   JoinKind
	Target FromItem
	On     Expr
}

// SetOpKind is a set operation connecting two SELECTs.
type SetOpKind string

const (
	SetUnion     SetOpKind = "UNION"
	SetIntersect SetOpKind = "INTERSECT"
	SetExcept    SetOpKind = "EXCEPT"
)

// SetOp is one branch of a compound SELECT (UNION/INTERSECT/EXCEPT).
type SetOp struct {
	Kind   SetOpKind
	Select *Select
}

// Select is a SELECT statement, possibly compound and possibly nested.
type Select struct {
	Text   string
	From   []FromItem
	Joins  []Join
	Where  Expr
	SetOps []SetOp
}

// Update is an UPDATE statement. Depending on the producing parser the
// target may arrive as the singular Table, as a Tables list, or only as
// a generic From item; consumers try each in that order.
type Update struct {
	Text   string
	Table  *TableRef
	Tables []TableRef
	From   []FromItem
	Where  Expr
}

// Delete is a DELETE statement, with the same target-table duality as
// Update.
type Delete struct {
	Text   string
	Table  *TableRef
	Tables []TableRef
	From   []FromItem
	Where  Expr
}

func (s *Select) RawText() string { return s.Text }
func (u *Update) RawText() string { return u.Text }
func (d *Delete) RawText() string { return d.Text }

func (*Select) stmtNode() {}
func (*Update) stmtNode() {}
func (*Delete) stmtNode() {}
