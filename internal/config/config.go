// Package config centralizes runtime configuration for the API server, the
// worker, and the CLI. Values come from an optional config.yml plus
// environment variables; env always wins.
package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	Address     string `yaml:"address" env:"PLANPRESS_ADDRESS" env-default:":8001"`
	TemplateDir string `yaml:"template_dir" env:"PLANPRESS_TEMPLATE_DIR" env-default:"templates"`
	// PublicBaseURL prefixes the signed view URLs the API hands out.
	PublicBaseURL string `yaml:"public_base_url" env:"PLANPRESS_PUBLIC_BASE_URL" env-default:"http://localhost:8001"`

	// DatabaseURL empty means the in-memory document store.
	DatabaseURL string `yaml:"database_url" env:"PLANPRESS_DATABASE_URL"`

	// RedisAddr empty means documents render on the inline worker pool
	// instead of going through asynq.
	RedisAddr     string `yaml:"redis_addr" env:"PLANPRESS_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"PLANPRESS_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"PLANPRESS_REDIS_DB" env-default:"0"`

	// S3Endpoint empty means artifacts land in ArtifactDir on disk.
	S3Endpoint     string `yaml:"s3_endpoint" env:"PLANPRESS_S3_ENDPOINT"`
	S3AccessKey    string `yaml:"s3_access_key" env:"PLANPRESS_S3_ACCESS_KEY"`
	S3SecretKey    string `yaml:"s3_secret_key" env:"PLANPRESS_S3_SECRET_KEY"`
	S3UseSSL       bool   `yaml:"s3_use_ssl" env:"PLANPRESS_S3_USE_SSL" env-default:"false"`
	S3Region       string `yaml:"s3_region" env:"PLANPRESS_S3_REGION" env-default:"us-east-1"`
	DocumentBucket string `yaml:"document_bucket" env:"PLANPRESS_DOCUMENT_BUCKET" env-default:"planpress-documents"`
	ArtifactDir    string `yaml:"artifact_dir" env:"PLANPRESS_ARTIFACT_DIR" env-default:"artifacts"`

	SigningSecret string        `yaml:"signing_secret" env:"PLANPRESS_SIGNING_SECRET"`
	SignedURLTTL  time.Duration `yaml:"signed_url_ttl" env:"PLANPRESS_SIGNED_TTL" env-default:"15m"`

	WorkerConcurrency int    `yaml:"worker_concurrency" env:"PLANPRESS_WORKERS" env-default:"2"`
	LogLevel          string `yaml:"log_level" env:"PLANPRESS_LOG_LEVEL" env-default:"info"`

	// APIBaseURL is what the CLI client talks to.
	APIBaseURL string `yaml:"api_base_url" env:"PLANPRESS_API_URL" env-default:"http://localhost:8001"`
	// PollInterval paces the document status poller.
	PollInterval time.Duration `yaml:"poll_interval" env:"PLANPRESS_POLL_INTERVAL" env-default:"3s"`
}

// Load reads config.yml when present, then environment variables.
func Load() (*Config, error) {
	var cfg Config
	const configPath = "config.yml"
	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if cfg.SigningSecret == "" {
		cfg.SigningSecret = randomSecret()
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 2
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	return &cfg, nil
}

// UsePostgres, UseAsynq, and UseMinio report which backing services are
// configured; each falls back to the standalone implementation when unset.
func (c *Config) UsePostgres() bool { return c.DatabaseURL != "" }
func (c *Config) UseAsynq() bool    { return c.RedisAddr != "" }
func (c *Config) UseMinio() bool    { return c.S3Endpoint != "" }

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "planpress-fallback-secret"
	}
	return fmt.Sprintf("%x", buf)
}
