package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeJumpMinutes = 360
	DefaultConversation    = "default"
)

type ProjectConfig struct {
	Project      string          `yaml:"project"`
	Version      int             `yaml:"version"`
	Conversation string          `yaml:"conversation"`
	Database     DatabaseConfig  `yaml:"database"`
	Sources      []string        `yaml:"sources"`
	Exclude      []string        `yaml:"exclude"`
	Canonical    map[int]int     `yaml:"canonical"`
	Chapters     ChaptersConfig  `yaml:"chapters"`
	Logging      LoggingConfig   `yaml:"logging"`
	Telemetry    TelemetryConfig `yaml:"telemetry"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type ChaptersConfig struct {
	TimeJumpMinutes int   `yaml:"time_jump_minutes"`
	LocationChange  *bool `yaml:"location_change"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// envOverrides are applied on top of the YAML file.
type envOverrides struct {
	DSN          string `env:"CHRONICLE_DATABASE_DSN"`
	Conversation string `env:"CHRONICLE_CONVERSATION"`
	LogLevel     string `env:"CHRONICLE_LOG_LEVEL"`
	OTLPEndpoint string `env:"CHRONICLE_OTLP_ENDPOINT"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	applyDefaults(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

// LocationChangeEnabled reports whether a place change closes a chapter.
func (c ChaptersConfig) LocationChangeEnabled() bool {
	return c.LocationChange == nil || *c.LocationChange
}

func applyEnv(cfg *ProjectConfig) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if overrides.DSN != "" {
		cfg.Database.DSN = overrides.DSN
	}
	if overrides.Conversation != "" {
		cfg.Conversation = overrides.Conversation
	}
	if overrides.LogLevel != "" {
		cfg.Logging.Level = overrides.LogLevel
	}
	if overrides.OTLPEndpoint != "" {
		cfg.Telemetry.OTLPEndpoint = overrides.OTLPEndpoint
	}
	return nil
}

func applyDefaults(cfg *ProjectConfig) {
	if strings.TrimSpace(cfg.Conversation) == "" {
		cfg.Conversation = DefaultConversation
	}
	if cfg.Chapters.TimeJumpMinutes == 0 {
		cfg.Chapters.TimeJumpMinutes = DefaultTimeJumpMinutes
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return fmt.Errorf("database dsn is required")
	}
	if !strings.HasPrefix(dsn, "sqlite://") && !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("unsupported database dsn scheme: %s", dsn)
	}
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source directory is required")
	}
	for i, source := range cfg.Sources {
		if strings.TrimSpace(source) == "" {
			return fmt.Errorf("source %d is empty", i)
		}
	}
	for turn, variant := range cfg.Canonical {
		if turn < 0 || variant < 0 {
			return fmt.Errorf("canonical variant %d=%d must not be negative", turn, variant)
		}
	}
	if cfg.Chapters.TimeJumpMinutes < 0 {
		return fmt.Errorf("chapters.time_jump_minutes must not be negative")
	}
	return nil
}
