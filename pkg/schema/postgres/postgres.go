// Package postgres reads index and column metadata from a live
// PostgreSQL database via pg_index and information_schema.
package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/config"
	"github.com/querylens/querylens-engine/pkg/logging"
	"github.com/querylens/querylens-engine/pkg/models"
	"github.com/querylens/querylens-engine/pkg/retry"
)

// Source holds a pgx pool for the lifetime of one analysis run.
type Source struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// User-provided fields are URL-escaped to handle special characters in
// passwords (e.g., @, /, #, ?) that would otherwise break URL parsing.
func buildConnectionString(cfg config.SchemaConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.ResolvedHost(),
		cfg.Port,
		url.QueryEscape(cfg.Database),
		sslMode,
	)
}

// NewSource connects to the configured database. The pool is owned by
// the Source and released on Close.
func NewSource(ctx context.Context, cfg config.SchemaConfig, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connStr := buildConnectionString(cfg)
	logger.Debug("Connecting to postgres",
		zap.String("conn", logging.SanitizeConnectionString(connStr)))

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return pool.Ping(ctx)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Source{pool: pool, logger: logger}, nil
}

func (s *Source) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// LoadIndexes returns every index on user tables with its ordered column
// list. pg_index is used instead of information_schema because it
// correctly reports primary keys created as unique indexes (common with
// GORM/ORMs) and preserves key column order.
func (s *Source) LoadIndexes(ctx context.Context) ([]models.IndexDescriptor, error) {
	const query = `
		SELECT
			t.relname AS table_name,
			i.relname AS index_name,
			ix.indisprimary,
			ix.indisunique,
			a.attname AS column_name
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY t.relname, i.relname, k.ord
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer rows.Close()

	var (
		indexes []models.IndexDescriptor
		current string
	)
	for rows.Next() {
		var (
			table, index, column string
			isPrimary, isUnique  bool
		)
		if err := rows.Scan(&table, &index, &isPrimary, &isUnique, &column); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}

		key := table + "." + index
		if key != current {
			current = key
			indexes = append(indexes, models.IndexDescriptor{
				Table: table,
				Kind:  kindFor(isPrimary, isUnique),
			})
		}
		last := &indexes[len(indexes)-1]
		last.Columns = append(last.Columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}

	s.logger.Debug("Discovered postgres indexes", zap.Int("count", len(indexes)))
	return indexes, nil
}

// LoadTypeHints categorizes every user-table column. Boolean columns and
// enum-typed columns carry few distinct values; everything else is
// reported as "other" because the live data type is authoritative and
// the naming fallback should not second-guess it.
func (s *Source) LoadTypeHints(ctx context.Context) ([]models.ColumnTypeHint, error) {
	const query = `
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			COALESCE(t.typtype = 'e', false) AS is_enum
		FROM information_schema.columns c
		LEFT JOIN pg_type t ON t.typname = c.udt_name
		WHERE c.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY c.table_name, c.ordinal_position
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query column types: %w", err)
	}
	defer rows.Close()

	var hints []models.ColumnTypeHint
	for rows.Next() {
		var (
			table, column, dataType string
			isEnum                  bool
		)
		if err := rows.Scan(&table, &column, &dataType, &isEnum); err != nil {
			return nil, fmt.Errorf("scan column type row: %w", err)
		}

		category := models.TypeCategoryOther
		switch {
		case dataType == "boolean":
			category = models.TypeCategoryBoolean
		case isEnum:
			category = models.TypeCategoryEnum
		}

		hints = append(hints, models.ColumnTypeHint{
			Table:    table,
			Column:   column,
			Category: category,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column types: %w", err)
	}

	return hints, nil
}

func kindFor(isPrimary, isUnique bool) models.IndexKind {
	switch {
	case isPrimary:
		return models.IndexKindPrimaryKey
	case isUnique:
		return models.IndexKindUniqueIndex
	default:
		return models.IndexKindRegularIndex
	}
}
