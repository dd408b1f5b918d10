package consolidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens-engine/pkg/models"
)

func TestConsolidator_DedupAcrossMethods(t *testing.T) {
	c := New()

	// The same suggestion arriving from two different methods collapses
	// into one entry.
	c.Add(models.IndexSuggestion{Table: "orders", Columns: []string{"status"}})
	c.Add(models.IndexSuggestion{Table: "orders", Columns: []string{"status"}})

	single, multi := c.Finalize()
	require.Len(t, single, 1)
	assert.Equal(t, "orders|status", single[0])
	assert.Empty(t, multi)
}

func TestConsolidator_InsertionOrder(t *testing.T) {
	c := New()
	c.AddAll([]models.IndexSuggestion{
		{Table: "orders", Columns: []string{"b"}},
		{Table: "orders", Columns: []string{"a"}},
		{Table: "orders", Columns: []string{"a", "b"}, MultiColumn: true},
		{Table: "users", Columns: []string{"a"}},
		{Table: "orders", Columns: []string{"b"}}, // duplicate
	})

	single, multi := c.Finalize()
	assert.Equal(t, []string{"orders|b", "orders|a", "users|a"}, single)
	assert.Equal(t, []string{"orders|a,b"}, multi)
}

func TestConsolidator_ColumnOrderIsSignificant(t *testing.T) {
	c := New()
	c.Add(models.IndexSuggestion{Table: "t", Columns: []string{"a", "b"}, MultiColumn: true})
	c.Add(models.IndexSuggestion{Table: "t", Columns: []string{"b", "a"}, MultiColumn: true})

	_, multi := c.Finalize()
	assert.Equal(t, []string{"t|a,b", "t|b,a"}, multi)
}
