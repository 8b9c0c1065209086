package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all environment-driven settings for the maintenance engine.
type Config struct {
	ServiceName string
	LogLevel    string

	DatabaseURL   string
	MigrationsDir string

	HTTPListenAddr    string
	MetricsListenAddr string

	// LLM collaborator (OpenAI-compatible chat completions).
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Code-remediation provider.
	RemediationURL    string
	RemediationAPIKey string

	// Web-intelligence collaborator.
	WebIntelURL string

	CampaignTemplatesPath string

	// Maintenance cycle intervals.
	AuditInterval     time.Duration
	SyncInterval      time.Duration
	HealthInterval    time.Duration
	GeneratorInterval time.Duration

	// Timeouts for external calls made inside cycles.
	ExternalCallTimeout time.Duration
	MigrationTimeout    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:           getEnv("SERVICE_NAME", "maintenance-engine"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		MigrationsDir:         getEnv("MIGRATIONS_DIR", "migrations"),
		HTTPListenAddr:        getEnv("HTTP_LISTEN_ADDR", ":8080"),
		MetricsListenAddr:     getEnv("METRICS_LISTEN_ADDR", ":9090"),
		LLMBaseURL:            getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:             getEnv("LLM_API_KEY", ""),
		LLMModel:              getEnv("LLM_MODEL", "gpt-4o-mini"),
		RemediationURL:        getEnv("REMEDIATION_URL", ""),
		RemediationAPIKey:     getEnv("REMEDIATION_API_KEY", ""),
		WebIntelURL:           getEnv("WEBINTEL_URL", ""),
		CampaignTemplatesPath: getEnv("CAMPAIGN_TEMPLATES_PATH", "campaign_templates.yaml"),
	}

	var err error
	if cfg.AuditInterval, err = getDuration("AUDIT_INTERVAL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = getDuration("SYNC_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HealthInterval, err = getDuration("HEALTH_INTERVAL", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GeneratorInterval, err = getDuration("GENERATOR_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ExternalCallTimeout, err = getDuration("EXTERNAL_CALL_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MigrationTimeout, err = getDuration("MIGRATION_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required settings are present for the given role.
func (c *Config) Validate(role string) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s: DATABASE_URL is required", role)
	}
	if c.AuditInterval <= 0 || c.SyncInterval <= 0 || c.HealthInterval <= 0 {
		return fmt.Errorf("%s: cycle intervals must be positive", role)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
