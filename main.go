package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/querylens/querylens-engine/pkg/cardinality"
	"github.com/querylens/querylens-engine/pkg/checkpoint"
	"github.com/querylens/querylens-engine/pkg/config"
	"github.com/querylens/querylens-engine/pkg/llm"
	"github.com/querylens/querylens-engine/pkg/logging"
	"github.com/querylens/querylens-engine/pkg/report"
	"github.com/querylens/querylens-engine/pkg/schema"
	"github.com/querylens/querylens-engine/pkg/services"

	"go.uber.org/zap"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting querylens-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("schema_dialect", cfg.Schema.Dialect),
		zap.String("units_path", cfg.UnitsPath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Run failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	source, err := schema.New(ctx, cfg.Schema, logger)
	if err != nil {
		return err
	}
	defer source.Close() //nolint:errcheck

	indexes, err := source.LoadIndexes(ctx)
	if err != nil {
		return err
	}
	hints, err := source.LoadTypeHints(ctx)
	if err != nil {
		return err
	}

	classifier := cardinality.New(indexes, hints, cardinality.Overrides{
		High: cfg.HighCardinality,
		Low:  cfg.LowCardinality,
	}, logger)

	var reviewer *llm.Reviewer
	if cfg.LLM.Enabled {
		client, err := llm.NewClient(llm.ClientConfig{
			Endpoint: cfg.LLM.Endpoint,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			Timeout:  time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		}, logger)
		if err != nil {
			return err
		}
		reviewer = llm.NewReviewer(client, cfg.LLM.BatchSize, logger)
	}

	cp := checkpoint.NewManager(cfg.CheckpointPath, logger)
	units := services.NewJSONUnitSource(cfg.UnitsPath, logger)
	runner := services.NewAnalysisRunner(units, classifier, cp, reviewer, logger)

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if err := report.WriteIndexes(cfg.IndexReportPath, result.Summary.SessionID,
		result.SingleIndexes, result.MultiIndexes); err != nil {
		return err
	}
	if err := report.WriteSummary(cfg.SummaryPath, result.Summary); err != nil {
		return err
	}

	logger.Info("Run complete",
		zap.Int("units_processed", result.Summary.UnitsProcessed),
		zap.Int("units_skipped", result.Summary.UnitsSkipped),
		zap.Int("units_failed", result.Summary.UnitsFailed),
		zap.Int("issues", result.Summary.IssueCount),
		zap.Int("suggested_indexes", result.Summary.SingleIndexes+result.Summary.MultiIndexes),
		zap.String("index_report", cfg.IndexReportPath),
		zap.String("summary", cfg.SummaryPath))

	return nil
}
