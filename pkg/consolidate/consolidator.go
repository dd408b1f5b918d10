// Package consolidate aggregates per-method index suggestions into a
// deduplicated, run-wide set ready for export.
package consolidate

import (
	"sync"

	"github.com/querylens/querylens-engine/pkg/models"
)

// Consolidator deduplicates index suggestions by their canonical key as
// they arrive and preserves insertion order, so output is deterministic
// across runs given the same input order. Safe for concurrent use; the
// suggestion sets are the only state shared across units.
type Consolidator struct {
	mu sync.Mutex

	seen        map[string]bool
	singleOrder []string
	multiOrder  []string
}

// New creates an empty consolidator.
func New() *Consolidator {
	return &Consolidator{seen: make(map[string]bool)}
}

// Add records a suggestion unless its key was seen before. Malformed
// keys are accepted as opaque strings.
func (c *Consolidator) Add(s models.IndexSuggestion) {
	key := s.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seen[key] {
		return
	}
	c.seen[key] = true

	if s.MultiColumn {
		c.multiOrder = append(c.multiOrder, key)
	} else {
		c.singleOrder = append(c.singleOrder, key)
	}
}

// AddAll records each suggestion in order.
func (c *Consolidator) AddAll(suggestions []models.IndexSuggestion) {
	for _, s := range suggestions {
		c.Add(s)
	}
}

// Finalize returns the accumulated single-column and multi-column keys
// in insertion order. The consolidator remains usable afterwards.
func (c *Consolidator) Finalize() (single, multi []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	single = make([]string, len(c.singleOrder))
	copy(single, c.singleOrder)
	multi = make([]string, len(c.multiOrder))
	copy(multi, c.multiOrder)
	return single, multi
}
