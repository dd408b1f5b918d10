// Package mssql reads index and column metadata from SQL Server via the
// sys catalog views.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/config"
	"github.com/querylens/querylens-engine/pkg/models"
)

// Source holds a database handle for the lifetime of one analysis run.
type Source struct {
	db     *sql.DB
	logger *zap.Logger
}

func buildConnectionString(cfg config.SchemaConfig) string {
	query := url.Values{}
	query.Add("database", cfg.Database)
	if cfg.SSLMode == "disable" {
		query.Add("encrypt", "false")
	} else {
		query.Add("encrypt", "true")
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.ResolvedHost(),
		cfg.Port,
		query.Encode(),
	)
}

// NewSource opens a connection to the configured database.
func NewSource(cfg config.SchemaConfig, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}

	return &Source{db: db, logger: logger}, nil
}

func (s *Source) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadIndexes returns every index on user tables. sys.index_columns
// preserves key ordinal order; included (non-key) columns are excluded
// because only key columns participate in seek-style access.
func (s *Source) LoadIndexes(ctx context.Context) ([]models.IndexDescriptor, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT
	    t.name AS table_name,
	    i.name AS index_name,
	    i.is_primary_key,
	    i.is_unique_constraint,
	    i.is_unique,
	    c.name AS column_name
	FROM sys.indexes i
	INNER JOIN sys.tables t ON t.object_id = i.object_id
	INNER JOIN sys.index_columns ic
	    ON ic.object_id = i.object_id AND ic.index_id = i.index_id
	INNER JOIN sys.columns c
	    ON c.object_id = ic.object_id AND c.column_id = ic.column_id
	WHERE t.is_ms_shipped = 0
	  AND i.type > 0
	  AND ic.is_included_column = 0
	ORDER BY t.name, i.name, ic.key_ordinal
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
			table, index, column           string
			isPK, isUqConstraint, isUnique bool
		)
		if err := rows.Scan(&table, &index, &isPK, &isUqConstraint, &isUnique, &column); err != nil {
			return nil, fmt.Errorf("scan index row: %w", err)
		}

		key := table + "." + index
		if key != current {
			current = key
			indexes = append(indexes, models.IndexDescriptor{
				Table: table,
				Kind:  kindFor(isPK, isUqConstraint, isUnique),
			})
		}
		last := &indexes[len(indexes)-1]
		last.Columns = append(last.Columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}

	s.logger.Debug("Discovered sqlserver indexes", zap.Int("count", len(indexes)))
	return indexes, nil
}

// LoadTypeHints categorizes every user-table column. SQL Server has no
// native enum type, so only bit maps to boolean; everything else is
// reported as "other".
func (s *Source) LoadTypeHints(ctx context.Context) ([]models.ColumnTypeHint, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT
	    t.name AS table_name,
	    c.name AS column_name,
	    tp.name AS data_type
	FROM sys.columns c
	INNER JOIN sys.tables t ON t.object_id = c.object_id
	INNER JOIN sys.types tp ON tp.user_type_id = c.user_type_id
	WHERE t.is_ms_shipped = 0
	ORDER BY t.name, c.column_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query column types: %w", err)
	}
	defer rows.Close()

	var hints []models.ColumnTypeHint
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("scan column type row: %w", err)
		}

		category := models.TypeCategoryOther
		if dataType == "bit" {
			category = models.TypeCategoryBoolean
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

func kindFor(isPK, isUqConstraint, isUnique bool) models.IndexKind {
	switch {
	case isPK:
		return models.IndexKindPrimaryKey
	case isUqConstraint:
		return models.IndexKindUniqueConstraint
	case isUnique:
		return models.IndexKindUniqueIndex
	default:
		return models.IndexKindRegularIndex
	}
}
