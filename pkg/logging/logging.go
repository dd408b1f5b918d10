// Package logging builds the process logger and sanitizes values that
// may carry credentials or very long SQL before they reach a log line.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the root logger. Development environments get the console
// encoder, everything else structured JSON at Info.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "local", "dev", "development":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
