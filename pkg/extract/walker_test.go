package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/cardinality"
	"github.com/querylens/querylens-engine/pkg/models"
	"github.com/querylens/querylens-engine/pkg/sqlast"
)

func testWalker(t *testing.T) *Walker {
	t.Helper()
	classifier := cardinality.New([]models.IndexDescriptor{
		{Table: "orders", Kind: models.IndexKindPrimaryKey, Columns: []string{"id"}},
		{Table: "users", Kind: models.IndexKindPrimaryKey, Columns: []string{"id"}},
	}, nil, cardinality.Overrides{}, zap.NewNop())
	return NewWalker(classifier, zap.NewNop())
}

func col(table, name string) *sqlast.Column {
	return &sqlast.Column{Table: table, Name: name}
}

func param(index int) *sqlast.Value {
	return &sqlast.Value{Placeholder: &sqlast.Placeholder{Index: index}}
}

func eq(c *sqlast.Column, operand sqlast.Expr) *sqlast.Comparison {
	return &sqlast.Comparison{Op: sqlast.OpEq, Left: c, Right: operand}
}

func TestExtract_SimpleWhere(t *testing.T) {
	stmt := &sqlast.Select{
		Text: "SELECT * FROM orders WHERE status = ? AND id = ?",
		From: []sqlast.FromItem{sqlast.TableRef{Name: "orders"}},
		Where: &sqlast.And{
			Left:  eq(col("", "status"), param(0)),
			Right: eq(col("", "id"), param(1)),
		},
	}

	res := testWalker(t).Extract(stmt, "")

	require.Len(t, res.Where, 2)
	assert.False(t, res.WhereHasOr)

	assert.Equal(t, "orders", res.Where[0].Table)
	assert.Equal(t, "status", res.Where[0].Column)
	assert.Equal(t, "=", res.Where[0].Operator)
	assert.Equal(t, 0, res.Where[0].Position)
	require.NotNil(t, res.Where[0].Param)
	assert.Equal(t, 0, res.Where[0].Param.Index)

	assert.Equal(t, "id", res.Where[1].Column)
	assert.Equal(t, 1, res.Where[1].Position)
	assert.Equal(t, models.CardinalityHigh, res.Where[1].Cardinality)
	assert.Equal(t, models.CardinalityMedium, res.Where[0].Cardinality)
}

func TestExtract_OrStillExtractsButFlags(t *testing.T) {
	stmt := &sqlast.Select{
		From: []sqlast.FromItem{sqlast.TableRef{Name: "orders"}},
		Where: &sqlast.Or{
			Left: &sqlast.And{
				Left:  eq(col("", "a"), param(0)),
				Right: eq(col("", "b"), param(1)),
			},
			Right: eq(col("", "c"), param(2)),
		},
	}

	res := testWalker(t).Extract(stmt, "")

	assert.True(t, res.WhereHasOr)
	require.Len(t, res.Where, 3)
	for i, p := range res.Where {
		assert.Equal(t, i, p.Position)
	}
}

func TestExtract_OperatorShapes(t *testing.T) {
	stmt := &sqlast.Select{
		From: []sqlast.FromItem{sqlast.TableRef{Name: "orders"}},
		Where: &sqlast.And{
			Left: &sqlast.And{
				Left: &sqlast.And{
					Left:  &sqlast.Between{Operand: col("", "created_at"), Low: param(0), High: param(1)},
					Right: &sqlast.In{Operand: col("", "status"), Items: []sqlast.Expr{param(2)}, Negated: true},
				},
				Right: &sqlast.IsNull{Operand: col("", "deleted_at"), Negated: true},
			},
			Right: &sqlast.Like{Left: col("", "name"), Right: param(3)},
		},
	}

	res := testWalker(t).Extract(stmt, "")

	require.Len(t, res.Where, 4)
	assert.Equal(t, "BETWEEN", res.Where[0].Operator)
	assert.Equal(t, "NOT IN", res.Where[1].Operator)
	assert.Equal(t, "IS NOT NULL", res.Where[2].Operator)
	assert.Nil(t, res.Where[2].Param)
	assert.Equal(t, "LIKE", res.Where[3].Operator)
}

func TestExtract_JoinPredicates(t *testing.T) {
	stmt := &sqlast.Select{
		Text: "SELECT * FROM orders o JOIN users u ON o.user_id = u.id AND u.active = 1",
		From: []sqlast.FromItem{sqlast.TableRef{Name: "orders", Alias: "o"}},
		Joins: []sqlast.Join{
			{
				Kind:   sqlast.JoinInner,
				Target: sqlast.TableRef{Name: "users", Alias: "u"},
				On: &sqlast.And{
					Left: eq(col("o", "user_id"), col("u", "id")),
					// Column-to-literal inside ON is filtering, not joining.
					Right: eq(col("u", "active"), &sqlast.Value{Literal: "1"}),
				},
			},
		},
		Where: eq(col("o", "status"), param(0)),
	}

	res := testWalker(t).Extract(stmt, "")

	require.Len(t, res.Joins, 1)
	j := res.Joins[0]
	assert.Equal(t, "orders", j.LeftTable)
	assert.Equal(t, "user_id", j.LeftColumn)
	assert.Equal(t, "users", j.RightTable)
	assert.Equal(t, "id", j.RightColumn)
	assert.Equal(t, 0, j.Position)

	// WHERE and JOIN streams are numbered independently.
	require.Len(t, res.Where, 1)
	assert.Equal(t, 0, res.Where[0].Position)
	assert.Equal(t, "orders", res.Where[0].Table)
}

func TestExtract_SubqueryAndSetOps(t *testing.T) {
	inner := &sqlast.Select{
		From:  []sqlast.FromItem{sqlast.TableRef{Name: "users"}},
		Where: eq(col("", "email"), param(0)),
	}
	union := &sqlast.Select{
		From:  []sqlast.FromItem{sqlast.TableRef{Name: "orders"}},
		Where: eq(col("", "archived"), param(1)),
	}
	stmt := &sqlast.Select{
		From:   []sqlast.FromItem{sqlast.SubqueryRef{Select: inner, Alias: "u"}},
		Where:  eq(col("", "status"), param(2)),
		SetOps: []sqlast.SetOp{{Kind: sqlast.SetUnion, Select: union}},
	}

	w := testWalker(t)
	res := w.Extract(stmt, "orders")

	// Positions are continuous across nesting within one call,
	// depth-first: subquery, own WHERE, then set-op branches.
	require.Len(t, res.Where, 3)
	assert.Equal(t, []string{"email", "status", "archived"}, columnsOf(res.Where))
	for i, p := range res.Where {
		assert.Equal(t, i, p.Position)
	}

	// Counters reset per Extract call.
	again := w.Extract(stmt, "orders")
	assert.Equal(t, 0, again.Where[0].Position)
}

func TestExtract_UpdateDeleteTargetResolution(t *testing.T) {
	where := eq(col("", "status"), param(0))

	tests := []struct {
		name string
		stmt sqlast.Statement
		want string
	}{
		{
			name: "update with singular table",
			stmt: &sqlast.Update{Table: &sqlast.TableRef{Name: "Orders"}, Where: where},
			want: "orders",
		},
		{
			name: "update with table list",
			stmt: &sqlast.Update{Tables: []sqlast.TableRef{{Name: "orders"}}, Where: where},
			want: "orders",
		},
		{
			name: "delete with generic from item",
			stmt: &sqlast.Delete{From: []sqlast.FromItem{sqlast.TableRef{Name: "orders"}}, Where: where},
			want: "orders",
		},
		{
			name: "delete falls back to caller default",
			stmt: &sqlast.Delete{Where: where},
			want: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := testWalker(t).Extract(tt.stmt, "fallback")
			require.Len(t, res.Where, 1)
			assert.Equal(t, tt.want, res.Where[0].Table)
		})
	}
}

func TestExtract_AliasResolution(t *testing.T) {
	tests := []struct {
		name  string
		stmt  *sqlast.Select
		want  string
		query string
	}{
		{
			name: "structured alias",
			stmt: &sqlast.Select{
				From:  []sqlast.FromItem{sqlast.TableRef{Name: "customer_orders", Alias: "co"}},
				Where: eq(col("co", "status"), param(0)),
			},
			want: "customer_orders",
		},
		{
			name: "underscore qualifier taken literally",
			stmt: &sqlast.Select{
				From:  []sqlast.FromItem{sqlast.TableRef{Name: "orders"}},
				Where: eq(col("order_items", "sku"), param(0)),
			},
			want: "order_items",
		},
		{
			name: "raw text fallback with camel case entity",
			stmt: &sqlast.Select{
				Text:  "SELECT oi.sku FROM orders o JOIN OrderItems oi ON o.id = oi.order_id WHERE oi.sku = ?",
				From:  []sqlast.FromItem{sqlast.TableRef{Name: "orders", Alias: "o"}},
				Where: eq(col("oi", "sku"), param(0)),
			},
			want: "order_items",
		},
		{
			name: "unresolvable qualifier falls back to default table",
			stmt: &sqlast.Select{
				From:  []sqlast.FromItem{sqlast.TableRef{Name: "orders"}},
				Where: eq(col("x", "status"), param(0)),
			},
			want: "orders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := testWalker(t).Extract(tt.stmt, "")
			require.Len(t, res.Where, 1)
			assert.Equal(t, tt.want, res.Where[0].Table)
		})
	}
}

func TestExtract_NilAndMalformedInput(t *testing.T) {
	w := testWalker(t)

	res := w.Extract(nil, "orders")
	assert.Empty(t, res.Where)
	assert.Empty(t, res.Joins)

	// A comparison between two literals has no column to extract; the
	// branch is skipped, not fatal.
	stmt := &sqlast.Select{
		From: []sqlast.FromItem{sqlast.TableRef{Name: "orders"}},
		Where: &sqlast.And{
			Left:  &sqlast.Comparison{Op: sqlast.OpEq, Left: &sqlast.Value{Literal: "1"}, Right: &sqlast.Value{Literal: "1"}},
			Right: eq(col("", "status"), param(0)),
		},
	}
	res = w.Extract(stmt, "")
	require.Len(t, res.Where, 1)
	assert.Equal(t, "status", res.Where[0].Column)
	assert.Equal(t, 0, res.Where[0].Position)
}

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OrderItem", "order_item"},
		{"OrderItems", "order_items"},
		{"orders", "orders"},
		{"HTTPCode", "http_code"},
		{"userID", "user_id"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CamelToSnake(tt.in), tt.in)
	}
}

func columnsOf(preds []models.Predicate) []string {
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = p.Column
	}
	return out
}
