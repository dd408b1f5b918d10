// Package schema supplies the classifier's inputs: index descriptors and
// column type hints, loaded from a live database or a YAML snapshot.
package schema

import (
	"context"

	"github.com/querylens/querylens-engine/pkg/models"
)

// Source loads schema metadata at analysis-run start. Implementations
// exist per dialect plus a file-backed snapshot for offline runs.
type Source interface {
	// LoadIndexes returns every index as an ordered column list.
	LoadIndexes(ctx context.Context) ([]models.IndexDescriptor, error)

	// LoadTypeHints returns per-column type categories. Sources that
	// cannot determine a column's category omit the column entirely so
	// the classifier's naming fallback stays available.
	LoadTypeHints(ctx context.Context) ([]models.ColumnTypeHint, error)

	Close() error
}
