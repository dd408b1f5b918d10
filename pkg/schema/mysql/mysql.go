// Package mysql reads index and column metadata from MySQL/MariaDB via
// information_schema.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/config"
	"github.com/querylens/querylens-engine/pkg/models"
)

// Source holds a database handle for the lifetime of one analysis run.
type Source struct {
	db     *sql.DB
	logger *zap.Logger
}

func buildDSN(cfg config.SchemaConfig) string {
	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.ResolvedHost(), cfg.Port)
	mc.DBName = cfg.Database
	return mc.FormatDSN()
}

// NewSource opens a connection to the configured database.
func NewSource(cfg config.SchemaConfig, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}

	return &Source{db: db, logger: logger}, nil
}

func (s *Source) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadIndexes returns every index in the connected schema.
// information_schema.statistics lists one row per key column in
// seq_in_index order; the PRIMARY index name is reserved for the
// primary key.
func (s *Source) LoadIndexes(ctx context.Context) ([]models.IndexDescriptor, error) {
	const query = `
		SELECT
			table_name,
			index_name,
			non_unique,
			column_name
		FROM information_schema.statistics
		WHERE table_schema = DATABASE()
		ORDER BY table_name, index_name, seq_in_index
	`

	rows, err := s.db.QueryContext(ctx, query)
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
			nonUnique            int
		)
		if err := rows.Scan(&table, &index, &nonUnique, &column); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}

		key := table + "." + index
		if key != current {
			current = key
			indexes = append(indexes, models.IndexDescriptor{
				Table: table,
				Kind:  kindFor(index, nonUnique),
			})
		}
		last := &indexes[len(indexes)-1]
		last.Columns = append(last.Columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}

	s.logger.Debug("Discovered mysql indexes", zap.Int("count", len(indexes)))
	return indexes, nil
}

// LoadTypeHints categorizes every column in the connected schema.
// tinyint(1) is the conventional MySQL boolean; enum is native.
func (s *Source) LoadTypeHints(ctx context.Context) ([]models.ColumnTypeHint, error) {
	const query = `
		SELECT
			table_name,
			column_name,
			data_type,
			column_type
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		ORDER BY table_name, ordinal_position
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query column types: %w", err)
	}
	defer rows.Close()

	var hints []models.ColumnTypeHint
	for rows.Next() {
		var table, column, dataType, columnType string
		if err := rows.Scan(&table, &column, &dataType, &columnType); err != nil {
			return nil, fmt.Errorf("scan column type row: %w", err)
		}

		hints = append(hints, models.ColumnTypeHint{
			Table:    table,
			Column:   column,
			Category: categoryFor(dataType, columnType),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column types: %w", err)
	}

	return hints, nil
}

func kindFor(indexName string, nonUnique int) models.IndexKind {
	switch {
	case indexName == "PRIMARY":
		return models.IndexKindPrimaryKey
	case nonUnique == 0:
		return models.IndexKindUniqueIndex
	default:
		return models.IndexKindRegularIndex
	}
}

func categoryFor(dataType, columnType string) models.TypeCategory {
	switch {
	case strings.EqualFold(dataType, "enum"):
		return models.TypeCategoryEnum
	case strings.EqualFold(columnType, "tinyint(1)"):
		return models.TypeCategoryBoolean
	default:
		return models.TypeCategoryOther
	}
}
