package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for querylens-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values.
// Secrets (passwords, API keys) must only come from environment
// variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// CheckpointPath is where run progress is persisted between
	// interrupted runs.
	CheckpointPath string `yaml:"checkpoint_path" env:"CHECKPOINT_PATH" env-default:".querylens-checkpoint.json"`

	// UnitsPath is the JSON export of analysis units produced by the
	// source-model collaborator.
	UnitsPath string `yaml:"units_path" env:"UNITS_PATH" env-default:"units.json"`

	// Report output locations.
	IndexReportPath string `yaml:"index_report_path" env:"INDEX_REPORT_PATH" env-default:"suggested-indexes.yaml"`
	SummaryPath     string `yaml:"summary_path" env:"SUMMARY_PATH" env-default:"run-summary.json"`

	// Cardinality override lists, comma-separated column names.
	HighCardinalityStr string `yaml:"high_cardinality_columns" env:"HIGH_CARDINALITY_COLUMNS" env-default:""`
	LowCardinalityStr  string `yaml:"low_cardinality_columns" env:"LOW_CARDINALITY_COLUMNS" env-default:""`

	// HighCardinality and LowCardinality are parsed from the string
	// forms (not from the config file).
	HighCardinality []string `yaml:"-"`
	LowCardinality  []string `yaml:"-"`

	Schema SchemaConfig `yaml:"schema"`
	LLM    LLMConfig    `yaml:"llm"`
}

// SchemaConfig selects where index descriptors and column type hints
// come from.
type SchemaConfig struct {
	// Dialect is one of: file, postgres, mysql, mssql.
	Dialect string `yaml:"dialect" env:"SCHEMA_DIALECT" env-default:"file"`

	// SnapshotPath is the YAML schema snapshot, used when Dialect=file.
	SnapshotPath string `yaml:"snapshot_path" env:"SCHEMA_SNAPSHOT_PATH" env-default:"schema.yaml"`

	Host     string `yaml:"host" env:"SCHEMA_DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SCHEMA_DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"SCHEMA_DB_USER" env-default:""`
	Password string `yaml:"-" env:"SCHEMA_DB_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"SCHEMA_DB_NAME" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"SCHEMA_DB_SSLMODE" env-default:"disable"`
}

// LLMConfig configures the optional second-opinion model call.
type LLMConfig struct {
	Enabled        bool   `yaml:"enabled" env:"LLM_ENABLED" env-default:"false"`
	Endpoint       string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model          string `yaml:"model" env:"LLM_MODEL" env-default:""`
	APIKey         string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"60"`
	// BatchSize is how many methods are folded into one prompt.
	BatchSize int `yaml:"batch_size" env:"LLM_BATCH_SIZE" env-default:"5"`
}

// Load reads config.yaml (when present) with environment overrides.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	cfg.parseComplexFields()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after
// loading.
func (c *Config) parseComplexFields() {
	c.HighCardinality = splitColumns(c.HighCardinalityStr)
	c.LowCardinality = splitColumns(c.LowCardinalityStr)
}

func (c *Config) validate() error {
	switch c.Schema.Dialect {
	case "file", "postgres", "mysql", "mssql":
	default:
		return fmt.Errorf("unknown schema dialect %q", c.Schema.Dialect)
	}

	if c.LLM.Enabled {
		if c.LLM.Endpoint == "" {
			return fmt.Errorf("llm enabled but no endpoint configured")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm enabled but no model configured")
		}
	}
	return nil
}

func splitColumns(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
