package extract

import (
	"github.com/querylens/querylens-engine/pkg/models"
	"github.com/querylens/querylens-engine/pkg/sqlast"
)

// extractWhere visits a WHERE expression tree. AND is traversed
// left-then-right so source order is preserved; OR is traversed into
// both branches (its predicates still count) while recording that the
// clause is no longer reorderable.
func (e *extraction) extractWhere(expr sqlast.Expr, defaultTable string) {
	if expr == nil {
		return
	}

	switch x := expr.(type) {
	case *sqlast.And:
		e.extractWhere(x.Left, defaultTable)
		e.extractWhere(x.Right, defaultTable)
	case *sqlast.Or:
		e.hasOr = true
		e.extractWhere(x.Left, defaultTable)
		e.extractWhere(x.Right, defaultTable)
	case *sqlast.Comparison:
		col, operand := comparisonColumn(x.Left, x.Right)
		if col == nil {
			e.walker.logger.Debug("Skipping comparison without column operand")
			return
		}
		e.addWherePredicate(col, string(x.Op), operand, defaultTable)
	case *sqlast.Between:
		col, ok := x.Operand.(*sqlast.Column)
		if !ok {
			return
		}
		op := "BETWEEN"
		if x.Negated {
			op = "NOT BETWEEN"
		}
		e.addWherePredicate(col, op, x.Low, defaultTable)
	case *sqlast.In:
		col, ok := x.Operand.(*sqlast.Column)
		if !ok {
			return
		}
		op := "IN"
		if x.Negated {
			op = "NOT IN"
		}
		var operand sqlast.Expr
		if len(x.Items) > 0 {
			operand = x.Items[0]
		}
		e.addWherePredicate(col, op, operand, defaultTable)
	case *sqlast.IsNull:
		col, ok := x.Operand.(*sqlast.Column)
		if !ok {
			return
		}
		op := "IS NULL"
		if x.Negated {
			op = "IS NOT NULL"
		}
		e.addWherePredicate(col, op, nil, defaultTable)
	case *sqlast.Like:
		col, operand := comparisonColumn(x.Left, x.Right)
		if col == nil {
			return
		}
		op := "LIKE"
		if x.Negated {
			op = "NOT LIKE"
		}
		e.addWherePredicate(col, op, operand, defaultTable)
	default:
		// Bare columns, values, or shapes this walker does not model.
		e.walker.logger.Debug("Skipping unrecognized WHERE expression shape")
	}
}

// addWherePredicate resolves the column's table, assigns the next WHERE
// position, classifies, and appends. The unclassified form exists only
// between construction and classification.
func (e *extraction) addWherePredicate(col *sqlast.Column, operator string, operand sqlast.Expr, defaultTable string) {
	unclassified := models.UnclassifiedPredicate{
		Table:    e.resolveQualifier(col.Table, defaultTable),
		Column:   col.Name,
		Operator: operator,
		Position: e.wherePos,
		Param:    placeholderRef(operand),
	}
	e.wherePos++

	level := e.walker.classifier.Classify(unclassified.Table, unclassified.Column)
	e.where = append(e.where, unclassified.Classified(level))
}

// extractJoinOn collects column-to-column comparisons from a JOIN ON
// expression. Column-to-literal comparisons belong to filtering, not
// joining, and are ignored here.
func (e *extraction) extractJoinOn(expr sqlast.Expr, defaultTable string) {
	if expr == nil {
		return
	}

	switch x := expr.(type) {
	case *sqlast.And:
		e.extractJoinOn(x.Left, defaultTable)
		e.extractJoinOn(x.Right, defaultTable)
	case *sqlast.Comparison:
		left, lok := x.Left.(*sqlast.Column)
		right, rok := x.Right.(*sqlast.Column)
		if !lok || !rok {
			return
		}
		e.joins = append(e.joins, models.JoinPredicate{
			LeftTable:   e.resolveQualifier(left.Table, defaultTable),
			LeftColumn:  left.Name,
			RightTable:  e.resolveQualifier(right.Table, defaultTable),
			RightColumn: right.Name,
			Operator:    string(x.Op),
			Position:    e.joinPos,
		})
		e.joinPos++
	default:
		e.walker.logger.Debug("Skipping non-join expression in ON clause")
	}
}

// comparisonColumn picks the column operand of a binary comparison,
// preferring the left side, and returns the opposite operand.
func comparisonColumn(left, right sqlast.Expr) (*sqlast.Column, sqlast.Expr) {
	if col, ok := left.(*sqlast.Column); ok {
		return col, right
	}
	if col, ok := right.(*sqlast.Column); ok {
		return col, left
	}
	return nil, nil
}

// placeholderRef converts an operand's bind placeholder, if any, into a
// parameter reference.
func placeholderRef(operand sqlast.Expr) *models.ParameterRef {
	v, ok := operand.(*sqlast.Value)
	if !ok || v.Placeholder == nil {
		return nil
	}

	ref := models.ParameterRef{Index: v.Placeholder.Index, Name: v.Placeholder.Name}
	if ref.Name != "" && ref.Index == 0 {
		// Named placeholders carry no positional identity.
		ref.Index = -1
	}
	return &ref
}
