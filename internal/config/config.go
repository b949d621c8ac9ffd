package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the insights engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Features  FeaturesConfig  `yaml:"features"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Drift     DriftConfig     `yaml:"drift"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds cache store settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ArtifactsConfig locates the trained model bundle.
// Type is "local" (directory on disk) or "s3" (downloaded at startup).
type ArtifactsConfig struct {
	Type         string `yaml:"type"`
	LocalPath    string `yaml:"local_path"`
	S3Bucket     string `yaml:"s3_bucket"`
	S3Prefix     string `yaml:"s3_prefix"`
	S3Region     string `yaml:"s3_region"`
	ModelVersion string `yaml:"model_version"`
}

// FeaturesConfig controls the feature cache.
type FeaturesConfig struct {
	CacheTTLMinutes int `yaml:"cache_ttl_minutes"`
	QueryTimeoutSec int `yaml:"query_timeout_seconds"`
}

// StrategyConfig controls recommendation generation.
type StrategyConfig struct {
	DefaultLimit       int     `yaml:"default_limit"`
	FallbackBaseScore  float64 `yaml:"fallback_base_score"`
	EligibilityPenalty float64 `yaml:"eligibility_penalty"`
	JitterPercent      float64 `yaml:"jitter_percent"`
}

// DriftConfig controls the drift monitor.
type DriftConfig struct {
	Threshold          float64 `yaml:"threshold"`
	MinSamples         int     `yaml:"min_samples"`
	WindowSize         int     `yaml:"window_size"`
	BaselineAccuracy   float64 `yaml:"baseline_accuracy"`
	CheckIntervalMin   int     `yaml:"check_interval_minutes"`
	RetrainCooldownMin int     `yaml:"retrain_cooldown_minutes"`
	RetrainQueue       string  `yaml:"retrain_queue"`
}

// CacheTTL returns the feature cache TTL as a duration.
func (f FeaturesConfig) CacheTTL() time.Duration {
	return time.Duration(f.CacheTTLMinutes) * time.Minute
}

// QueryTimeout returns the per-query deadline for aggregate extraction.
func (f FeaturesConfig) QueryTimeout() time.Duration {
	return time.Duration(f.QueryTimeoutSec) * time.Second
}

// CheckInterval returns how often the drift worker runs.
func (d DriftConfig) CheckInterval() time.Duration {
	return time.Duration(d.CheckIntervalMin) * time.Minute
}

// RetrainCooldown returns the minimum gap between retrain triggers.
func (d DriftConfig) RetrainCooldown() time.Duration {
	return time.Duration(d.RetrainCooldownMin) * time.Minute
}

// Load reads configuration from a YAML file and applies defaults.
// A missing file is not an error; defaults still apply.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = 30
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Artifacts.Type == "" {
		cfg.Artifacts.Type = "local"
	}
	if cfg.Artifacts.LocalPath == "" {
		cfg.Artifacts.LocalPath = "./ml_artifacts"
	}
	if cfg.Artifacts.S3Region == "" {
		cfg.Artifacts.S3Region = "us-east-1"
	}
	if cfg.Artifacts.ModelVersion == "" {
		cfg.Artifacts.ModelVersion = "1.0"
	}
	if cfg.Features.CacheTTLMinutes == 0 {
		cfg.Features.CacheTTLMinutes = 60
	}
	if cfg.Features.QueryTimeoutSec == 0 {
		cfg.Features.QueryTimeoutSec = 10
	}
	if cfg.Strategy.DefaultLimit == 0 {
		cfg.Strategy.DefaultLimit = 5
	}
	if cfg.Strategy.FallbackBaseScore == 0 {
		cfg.Strategy.FallbackBaseScore = 50
	}
	if cfg.Strategy.EligibilityPenalty == 0 {
		cfg.Strategy.EligibilityPenalty = 0.3
	}
	if cfg.Strategy.JitterPercent == 0 {
		cfg.Strategy.JitterPercent = 5
	}
	if cfg.Drift.Threshold == 0 {
		cfg.Drift.Threshold = 0.15
	}
	if cfg.Drift.MinSamples == 0 {
		cfg.Drift.MinSamples = 10
	}
	if cfg.Drift.WindowSize == 0 {
		cfg.Drift.WindowSize = 100
	}
	if cfg.Drift.BaselineAccuracy == 0 {
		cfg.Drift.BaselineAccuracy = 0.85
	}
	if cfg.Drift.CheckIntervalMin == 0 {
		cfg.Drift.CheckIntervalMin = 60
	}
	if cfg.Drift.RetrainCooldownMin == 0 {
		cfg.Drift.RetrainCooldownMin = 24 * 60
	}
	if cfg.Drift.RetrainQueue == "" {
		cfg.Drift.RetrainQueue = "insights:retrain:queue"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ML_ARTIFACTS_PATH"); v != "" {
		cfg.Artifacts.Type = "local"
		cfg.Artifacts.LocalPath = v
	}
	if v := os.Getenv("ML_ARTIFACTS_S3_BUCKET"); v != "" {
		cfg.Artifacts.Type = "s3"
		cfg.Artifacts.S3Bucket = v
	}
	if v := os.Getenv("ML_ARTIFACTS_S3_PREFIX"); v != "" {
		cfg.Artifacts.S3Prefix = v
	}
	if v := os.Getenv("ML_ARTIFACTS_S3_REGION"); v != "" {
		cfg.Artifacts.S3Region = v
	}
	if v := os.Getenv("MODEL_VERSION"); v != "" {
		cfg.Artifacts.ModelVersion = v
	}

	return cfg, nil
}
