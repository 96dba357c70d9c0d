package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DirectoryMemory   = "memory"
	DirectoryBolt     = "bolt"
	DirectoryPostgres = "postgres"

	ArtifactMemory = "memory"
	ArtifactRedis  = "redis"
)

// Application settings
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig    `envPrefix:"LOG_"`
	Generation GenerationConfig `envPrefix:"GEN_"`
	Directory  DirectoryConfig  `envPrefix:"DIRECTORY_"`
	Artifacts  ArtifactConfig   `envPrefix:"ARTIFACT_"`
	Webhook    WebhookConfig    `envPrefix:"WEBHOOK_"`
}

// Server settings
type ServerConfig struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// Logging settings
type LoggingConfig struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"3"`
}

type GenerationConfig struct {
	BatchSize          int           `env:"BATCH_SIZE" envDefault:"50"`
	RecordsPerSecond   float64       `env:"RECORDS_PER_SECOND" envDefault:"0"`
	JobTimeout         time.Duration `env:"JOB_TIMEOUT" envDefault:"5m"`
	DefaultRadiusMiles float64       `env:"DEFAULT_RADIUS_MILES" envDefault:"5"`
	SubmitRate         float64       `env:"SUBMIT_RATE" envDefault:"5"`
	SubmitBurst        int           `env:"SUBMIT_BURST" envDefault:"10"`
	JobRetention       time.Duration `env:"JOB_RETENTION" envDefault:"24h"`
}

// Location directory backend
type DirectoryConfig struct {
	Driver        string        `env:"DRIVER" envDefault:"memory"`
	BoltPath      string        `env:"BOLT_PATH" envDefault:"locations.db"`
	PostgresURL   string        `env:"POSTGRES_URL"`
	RunMigrations bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	SeedFile      string        `env:"SEED_FILE"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// Artifact cache backend
type ArtifactConfig struct {
	Driver        string        `env:"DRIVER" envDefault:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL           time.Duration `env:"TTL" envDefault:"24h"`
}

// Completion webhook; disabled when URL is empty
type WebhookConfig struct {
	URL     string        `env:"URL"`
	Secret  string        `env:"SECRET"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Directory.Driver {
	case DirectoryMemory, DirectoryBolt:
	case DirectoryPostgres:
		if c.Directory.PostgresURL == "" {
			errs = append(errs, errors.New("DIRECTORY_POSTGRES_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown directory driver %q", c.Directory.Driver))
	}

	switch c.Artifacts.Driver {
	case ArtifactMemory, ArtifactRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown artifact driver %q", c.Artifacts.Driver))
	}

	if c.Generation.BatchSize <= 0 {
		errs = append(errs, errors.New("GEN_BATCH_SIZE must be positive"))
	}
	if c.Generation.RecordsPerSecond < 0 {
		errs = append(errs, errors.New("GEN_RECORDS_PER_SECOND must not be negative"))
	}
	if c.Generation.DefaultRadiusMiles <= 0 {
		errs = append(errs, errors.New("GEN_DEFAULT_RADIUS_MILES must be positive"))
	}
	if c.Generation.JobRetention < 0 {
		errs = append(errs, errors.New("GEN_JOB_RETENTION must not be negative"))
	}

	return errors.Join(errs...)
}
