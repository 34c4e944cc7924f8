package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Dosada05/esports-bracket/models"
)

const (
	SnapshotBackendFS = "fs"
	SnapshotBackendR2 = "r2"
)

// Config holds every application setting. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	DatabaseURL  string     `env:"DATABASE_URL"`
	JWTSecretKey string     `env:"JWT_SECRET_KEY"`
	ServerPort   int        `env:"SERVER_PORT" envDefault:"8080"`
	AppEnv       string     `env:"APP_ENV" envDefault:"development"`
	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	CORSOrigins  []string   `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	SnapshotBackend string `env:"SNAPSHOT_BACKEND" envDefault:"fs"`
	SnapshotDir     string `env:"SNAPSHOT_DIR" envDefault:"data/brackets"`
	R2              R2Config

	BracketCapacity int      `env:"BRACKET_CAPACITY" envDefault:"16"`
	StageLabels     []string `env:"BRACKET_STAGE_LABELS" envDefault:"1/8,1/4,1/2,1" envSeparator:","`

	SchedulerInterval  time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
	SnapshotAutoRepair bool          `env:"SNAPSHOT_AUTO_REPAIR" envDefault:"false"`

	OperatorUsername string `env:"OPERATOR_USERNAME"`
	OperatorPassword string `env:"OPERATOR_PASSWORD"`
}

type R2Config struct {
	AccountID       string `env:"R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	BucketName      string `env:"R2_BUCKET_NAME"`
	Endpoint        string `env:"R2_ENDPOINT"`
	Prefix          string `env:"R2_PREFIX" envDefault:"brackets"`
	UsePathStyle    bool   `env:"R2_USE_PATH_STYLE" envDefault:"false"`
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY environment variable is not set")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive, got %s", c.SchedulerInterval)
	}

	switch c.SnapshotBackend {
	case SnapshotBackendFS:
		if c.SnapshotDir == "" {
			return errors.New("SNAPSHOT_DIR is required for the fs snapshot backend")
		}
	case SnapshotBackendR2:
		if c.R2.AccountID == "" && c.R2.Endpoint == "" {
			return errors.New("R2_ACCOUNT_ID or R2_ENDPOINT is required for the r2 snapshot backend")
		}
		if c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.BucketName == "" {
			return errors.New("R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME are required for the r2 snapshot backend")
		}
	default:
		return fmt.Errorf("SNAPSHOT_BACKEND must be %q or %q, got %q", SnapshotBackendFS, SnapshotBackendR2, c.SnapshotBackend)
	}

	if err := c.Bracket().Validate(); err != nil {
		return fmt.Errorf("invalid bracket configuration: %w", err)
	}
	return nil
}

func (c *Config) Bracket() models.BracketConfig {
	return models.BracketConfig{
		Capacity:    c.BracketCapacity,
		StageLabels: c.StageLabels,
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
