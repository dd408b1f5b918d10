package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/apperrors"
	"github.com/querylens/querylens-engine/pkg/config"
	"github.com/querylens/querylens-engine/pkg/schema/file"
	"github.com/querylens/querylens-engine/pkg/schema/mssql"
	"github.com/querylens/querylens-engine/pkg/schema/mysql"
	"github.com/querylens/querylens-engine/pkg/schema/postgres"
)

// New builds the Source for the configured dialect.
func New(ctx context.Context, cfg config.SchemaConfig, logger *zap.Logger) (Source, error) {
	switch cfg.Dialect {
	case "file":
		return file.NewSource(cfg.SnapshotPath, logger)
	case "postgres":
		return postgres.NewSource(ctx, cfg, logger)
	case "mysql":
		return mysql.NewSource(cfg, logger)
	case "mssql":
		return mssql.NewSource(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedDialect, cfg.Dialect)
	}
}
