// Package file loads schema metadata from a YAML snapshot. Snapshots are
// used for offline runs and as test fixtures.
package file

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/querylens/querylens-engine/pkg/models"
)

// snapshot is the on-disk document shape:
//
//	tables:
//	  - name: orders
//	    indexes:
//	      - kind: primary_key
//	        columns: [id]
//	    columns:
//	      - name: archived
//	        category: boolean
type snapshot struct {
	Tables []tableEntry `yaml:"tables"`
}

type tableEntry struct {
	Name    string        `yaml:"name"`
	Indexes []indexEntry  `yaml:"indexes"`
	Columns []columnEntry `yaml:"columns"`
}

type indexEntry struct {
	Kind    string   `yaml:"kind"`
	Columns []string `yaml:"columns"`
}

type columnEntry struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// Source reads a snapshot file once and serves it from memory.
type Source struct {
	indexes []models.IndexDescriptor
	hints   []models.ColumnTypeHint
	logger  *zap.Logger
}

// NewSource parses the snapshot at path. The whole document is validated
// up front so a malformed snapshot fails the run before any analysis.
func NewSource(path string, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema snapshot: %w", err)
	}

	var doc snapshot
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema snapshot %s: %w", path, err)
	}

	s := &Source{logger: logger}
	for _, tbl := range doc.Tables {
		if tbl.Name == "" {
			logger.Warn("Skipping snapshot table with empty name")
			continue
		}
		for _, idx := range tbl.Indexes {
			kind, ok := parseKind(idx.Kind)
			if !ok {
				return nil, fmt.Errorf("table %s: unknown index kind %q", tbl.Name, idx.Kind)
			}
			if len(idx.Columns) == 0 {
				logger.Warn("Skipping snapshot index with no columns",
					zap.String("table", tbl.Name))
				continue
			}
			s.indexes = append(s.indexes, models.IndexDescriptor{
				Table:   tbl.Name,
				Kind:    kind,
				Columns: idx.Columns,
			})
		}
		for _, col := range tbl.Columns {
			cat, ok := parseCategory(col.Category)
			if !ok {
				return nil, fmt.Errorf("table %s column %s: unknown category %q",
					tbl.Name, col.Name, col.Category)
			}
			s.hints = append(s.hints, models.ColumnTypeHint{
				Table:    tbl.Name,
				Column:   col.Name,
				Category: cat,
			})
		}
	}

	logger.Info("Loaded schema snapshot",
		zap.String("path", path),
		zap.Int("indexes", len(s.indexes)),
		zap.Int("type_hints", len(s.hints)))

	return s, nil
}

func (s *Source) LoadIndexes(ctx context.Context) ([]models.IndexDescriptor, error) {
	return s.indexes, nil
}

func (s *Source) LoadTypeHints(ctx context.Context) ([]models.ColumnTypeHint, error) {
	return s.hints, nil
}

func (s *Source) Close() error { return nil }

func parseKind(raw string) (models.IndexKind, bool) {
	switch models.IndexKind(raw) {
	case models.IndexKindPrimaryKey, models.IndexKindUniqueConstraint,
		models.IndexKindUniqueIndex, models.IndexKindRegularIndex:
		return models.IndexKind(raw), true
	}
	return "", false
}

func parseCategory(raw string) (models.TypeCategory, bool) {
	switch models.TypeCategory(raw) {
	case models.TypeCategoryBoolean, models.TypeCategoryEnum, models.TypeCategoryOther:
		return models.TypeCategory(raw), true
	}
	return "", false
}
