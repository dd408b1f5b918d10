package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/cardinality"
	"github.com/querylens/querylens-engine/pkg/models"
)

func testAdvisor(t *testing.T) *Advisor {
	t.Helper()
	classifier := cardinality.New([]models.IndexDescriptor{
		{Table: "orders", Kind: models.IndexKindPrimaryKey, Columns: []string{"id"}},
		{Table: "orders", Kind: models.IndexKindRegularIndex, Columns: []string{"customer_id", "status"}},
	}, nil, cardinality.Overrides{}, zap.NewNop())
	return New(classifier, zap.NewNop())
}

func pred(table, column string, level models.CardinalityLevel, position int) models.Predicate {
	return models.Predicate{Table: table, Column: column, Operator: "=", Cardinality: level, Position: position}
}

func TestAdvise_RecommendsReorder(t *testing.T) {
	a := testAdvisor(t)
	preds := []models.Predicate{
		pred("orders", "is_active", models.CardinalityLow, 0),
		pred("orders", "status", models.CardinalityMedium, 1),
		pred("orders", "id", models.CardinalityHigh, 2),
	}

	issue := a.Advise("unit-1", "findActive", preds, true)

	require.NotNil(t, issue)
	assert.Equal(t, "unit-1", issue.UnitID)
	assert.Equal(t, "findActive", issue.MethodID)
	assert.Equal(t, []string{"is_active", "status", "id"}, issue.CurrentOrder)
	assert.Equal(t, []string{"id", "status", "is_active"}, issue.RecommendedOrder)
	assert.Equal(t, models.SeverityHigh, issue.Severity)
	assert.Contains(t, issue.Description, "selectivity")
}

func TestAdvise_Ineligible(t *testing.T) {
	a := testAdvisor(t)
	misordered := []models.Predicate{
		pred("orders", "is_active", models.CardinalityLow, 0),
		pred("orders", "id", models.CardinalityHigh, 1),
	}

	t.Run("single predicate", func(t *testing.T) {
		assert.Nil(t, a.Advise("u", "m", misordered[:1], true))
	})

	t.Run("or anywhere disables advice", func(t *testing.T) {
		// a = ? AND b = ? OR c = ? never produces an issue, regardless
		// of relative cardinalities.
		assert.Nil(t, a.Advise("u", "m", misordered, false))
	})

	t.Run("already ordered", func(t *testing.T) {
		ordered := []models.Predicate{
			pred("orders", "id", models.CardinalityHigh, 0),
			pred("orders", "status", models.CardinalityMedium, 1),
		}
		assert.Nil(t, a.Advise("u", "m", ordered, true))
	})
}

func TestAdvise_Severity(t *testing.T) {
	a := testAdvisor(t)

	tests := []struct {
		name  string
		preds []models.Predicate
		want  models.Severity
	}{
		{
			name: "low leads while high exists",
			preds: []models.Predicate{
				pred("orders", "deleted", models.CardinalityLow, 0),
				pred("orders", "id", models.CardinalityHigh, 1),
			},
			want: models.SeverityHigh,
		},
		{
			name: "medium leads ahead of high",
			preds: []models.Predicate{
				pred("orders", "status", models.CardinalityMedium, 0),
				pred("orders", "id", models.CardinalityHigh, 1),
			},
			want: models.SeverityMedium,
		},
		{
			name: "any other disagreement",
			preds: []models.Predicate{
				pred("orders", "deleted", models.CardinalityLow, 0),
				pred("orders", "status", models.CardinalityMedium, 1),
			},
			want: models.SeverityLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := a.Advise("u", "m", tt.preds, true)
			require.NotNil(t, issue)
			assert.Equal(t, tt.want, issue.Severity)
		})
	}
}

func TestSortByCardinality_StableAndIdempotent(t *testing.T) {
	sorted := []models.Predicate{
		pred("orders", "id", models.CardinalityHigh, 0),
		pred("orders", "a", models.CardinalityMedium, 1),
		pred("orders", "b", models.CardinalityMedium, 2),
		pred("orders", "deleted", models.CardinalityLow, 3),
	}

	again := SortByCardinality(sorted)
	assert.Equal(t, sorted, again, "sorting a sorted list must not swap equal-cardinality predicates")

	// Ties break by original position ascending.
	shuffled := []models.Predicate{sorted[2], sorted[3], sorted[1], sorted[0]}
	resorted := SortByCardinality(shuffled)
	assert.Equal(t, sorted, resorted)
}

func TestBuildPositionMapping(t *testing.T) {
	t.Run("round trip with trailing argument", func(t *testing.T) {
		mapping, ok := BuildPositionMapping(
			[]string{"a", "b", "c"},
			[]string{"c", "a", "b"},
			4,
		)
		require.True(t, ok)
		assert.Equal(t, map[int]int{0: 2, 1: 0, 2: 1, 3: 3}, mapping)
	})

	t.Run("not a permutation", func(t *testing.T) {
		_, ok := BuildPositionMapping([]string{"a", "b"}, []string{"a", "c"}, 2)
		assert.False(t, ok)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, ok := BuildPositionMapping([]string{"a", "b"}, []string{"a"}, 2)
		assert.False(t, ok)
	})

	t.Run("more columns than arguments", func(t *testing.T) {
		_, ok := BuildPositionMapping([]string{"a", "b", "c"}, []string{"c", "b", "a"}, 2)
		assert.False(t, ok)
	})

	t.Run("duplicate columns map one to one", func(t *testing.T) {
		mapping, ok := BuildPositionMapping(
			[]string{"a", "a", "b"},
			[]string{"b", "a", "a"},
			3,
		)
		require.True(t, ok)
		assert.Equal(t, map[int]int{0: 2, 1: 0, 2: 1}, mapping)
	})
}

func TestReorderWhereText(t *testing.T) {
	a := testAdvisor(t)

	t.Run("reorders fragments by recommendation", func(t *testing.T) {
		out, ok := a.ReorderWhereText(
			"o.is_active = :active AND o.id = :id",
			[]string{"id", "is_active"},
		)
		require.True(t, ok)
		assert.Equal(t, "o.id = :id AND o.is_active = :active", out)
	})

	t.Run("top level or bails out", func(t *testing.T) {
		_, ok := a.ReorderWhereText(
			"is_active = :a AND id = :b OR status = :c",
			[]string{"id", "is_active", "status"},
		)
		assert.False(t, ok)
	})

	t.Run("parenthesized or is not top level", func(t *testing.T) {
		out, ok := a.ReorderWhereText(
			"is_active = :a AND (status = :b OR status = :c) AND id = :d",
			[]string{"id", "is_active"},
		)
		require.True(t, ok)
		assert.Equal(t, "id = :d AND is_active = :a AND (status = :b OR status = :c)", out)
	})

	t.Run("unmatched fragments keep source order at the end", func(t *testing.T) {
		out, ok := a.ReorderWhereText(
			"deleted = false AND LOWER(name) LIKE :q AND id = :id",
			[]string{"id", "deleted"},
		)
		require.True(t, ok)
		assert.Equal(t, "id = :id AND deleted = false AND LOWER(name) LIKE :q", out)
	})

	t.Run("no movement means no rewrite", func(t *testing.T) {
		_, ok := a.ReorderWhereText(
			"id = :id AND deleted = false",
			[]string{"id", "deleted"},
		)
		assert.False(t, ok)
	})

	t.Run("between range stays one fragment", func(t *testing.T) {
		out, ok := a.ReorderWhereText(
			"created_at BETWEEN ? AND ? AND status = ? AND id = ?",
			[]string{"id", "created_at", "status"},
		)
		require.True(t, ok)
		assert.Equal(t, "id = ? AND created_at BETWEEN ? AND ? AND status = ?", out)
	})

	t.Run("not between range stays one fragment", func(t *testing.T) {
		out, ok := a.ReorderWhereText(
			"amount NOT BETWEEN :lo AND :hi AND id = :id",
			[]string{"id", "amount"},
		)
		require.True(t, ok)
		assert.Equal(t, "id = :id AND amount NOT BETWEEN :lo AND :hi", out)
	})
}

func TestWhereBody(t *testing.T) {
	t.Run("to end of text", func(t *testing.T) {
		body, ok := WhereBody("SELECT * FROM orders WHERE status = ? AND id = ?")
		require.True(t, ok)
		assert.Equal(t, "status = ? AND id = ?", body)
	})

	t.Run("stops at trailing clause", func(t *testing.T) {
		body, ok := WhereBody("SELECT * FROM orders WHERE status = ? ORDER BY created_at LIMIT 10")
		require.True(t, ok)
		assert.Equal(t, "status = ?", body)
	})

	t.Run("ignores where inside subquery", func(t *testing.T) {
		body, ok := WhereBody(
			"SELECT * FROM orders o JOIN (SELECT id FROM users WHERE active = true) u ON u.id = o.user_id WHERE o.status = ?")
		require.True(t, ok)
		assert.Equal(t, "o.status = ?", body)
	})

	t.Run("no where clause", func(t *testing.T) {
		_, ok := WhereBody("SELECT * FROM orders")
		assert.False(t, ok)
	})
}

func TestSuggestIndexes(t *testing.T) {
	a := testAdvisor(t)

	t.Run("both gaps", func(t *testing.T) {
		preds := []models.Predicate{
			pred("orders", "deleted", models.CardinalityLow, 0),
			pred("orders", "tenant_id", models.CardinalityHigh, 1),
		}
		suggestions := a.SuggestIndexes(preds)
		require.Len(t, suggestions, 2)
		assert.Equal(t, []string{"tenant_id"}, suggestions[0].Columns)
		assert.False(t, suggestions[0].MultiColumn)
		assert.Equal(t, []string{"tenant_id", "deleted"}, suggestions[1].Columns)
		assert.True(t, suggestions[1].MultiColumn)
	})

	t.Run("covered by existing index", func(t *testing.T) {
		preds := []models.Predicate{
			pred("orders", "status", models.CardinalityMedium, 0),
			pred("orders", "customer_id", models.CardinalityHigh, 1),
		}
		// Recommended order (customer_id, status) is a prefix of the
		// existing (customer_id, status) index.
		assert.Empty(t, a.SuggestIndexes(preds))
	})

	t.Run("leading covered but sequence not", func(t *testing.T) {
		preds := []models.Predicate{
			pred("orders", "deleted", models.CardinalityLow, 0),
			pred("orders", "customer_id", models.CardinalityHigh, 1),
		}
		suggestions := a.SuggestIndexes(preds)
		require.Len(t, suggestions, 1)
		assert.True(t, suggestions[0].MultiColumn)
		assert.Equal(t, []string{"customer_id", "deleted"}, suggestions[0].Columns)
	})

	t.Run("no table resolved", func(t *testing.T) {
		preds := []models.Predicate{pred("", "a", models.CardinalityHigh, 0)}
		assert.Nil(t, a.SuggestIndexes(preds))
	})
}

func TestProposeMethodName(t *testing.T) {
	t.Run("reorders fragments", func(t *testing.T) {
		name, ok := ProposeMethodName(
			"findByIsActiveAndStatusAndId",
			[]string{"is_active", "status", "id"},
			[]string{"id", "status", "is_active"},
		)
		require.True(t, ok)
		assert.Equal(t, "findByIdAndStatusAndIsActive", name)
	})

	t.Run("no change proposes nothing", func(t *testing.T) {
		_, ok := ProposeMethodName("findByIdAndStatus", []string{"id", "status"}, []string{"id", "status"})
		assert.False(t, ok)
	})

	t.Run("fragment mismatch", func(t *testing.T) {
		_, ok := ProposeMethodName("findByEmail", []string{"status"}, []string{"status"})
		assert.False(t, ok)
	})

	t.Run("no By convention", func(t *testing.T) {
		_, ok := ProposeMethodName("findAll", []string{"id"}, []string{"id"})
		assert.False(t, ok)
	})
}
