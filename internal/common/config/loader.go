// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPrimaryURL      = "https://souvikg544-draw-zero-shot.hf.space"
	DefaultFallbackURL     = "https://souvikg544-quickdraw-classifier.hf.space"
	DefaultCallPath        = "/gradio_api/call/classify_image_api"
	DefaultTimeoutMs       = 300000
	DefaultTopK            = 5
	DefaultProbeTimeoutMs  = 5000
	DefaultSubstituteDelay = 1500
	DefaultImageSize       = 256
	DefaultJobHeadroomMs   = 10000
)

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"backends.primary.url":          "PREDICTOR_PRIMARY_URL",
	"backends.fallback.url":         "PREDICTOR_FALLBACK_URL",
	"prediction.timeout":            "PREDICTOR_TIMEOUT",
	"prediction.top_k":              "PREDICTOR_TOP_K",
	"availability.backend":          "PREDICTOR_AVAILABILITY_BACKEND",
	"database.redis.address":        "REDIS_ADDRESS",
	"database.redis.password":       "REDIS_PASSWORD",
	"server.address":                "PREDICTOR_SERVER_ADDRESS",
	"camunda.broker_address":        "ZEEBE_ADDRESS",
	"logging.level":                 "LOG_LEVEL",
	"observability.jaeger_endpoint": "JAEGER_ENDPOINT",
}

// Load reads configs/config.yaml (optional), merges config.<APP_ENVIRONMENT>.yaml
// over it and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath("../../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

// Defaults returns a validated configuration built only from defaults and
// the environment.
func Defaults() (*Config, error) {
	return finish(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sketch-predictor"
	}

	if cfg.Backends.Primary.URL == "" {
		cfg.Backends.Primary.URL = DefaultPrimaryURL
	}
	if cfg.Backends.Fallback.URL == "" {
		cfg.Backends.Fallback.URL = DefaultFallbackURL
	}
	if cfg.Backends.Primary.Name == "" {
		cfg.Backends.Primary.Name = "primary"
	}
	if cfg.Backends.Fallback.Name == "" {
		cfg.Backends.Fallback.Name = "fallback"
	}
	if cfg.Backends.SubmitPath == "" {
		cfg.Backends.SubmitPath = DefaultCallPath
	}
	if cfg.Backends.ResultPath == "" {
		cfg.Backends.ResultPath = cfg.Backends.SubmitPath
	}

	if cfg.Prediction.Timeout <= 0 {
		cfg.Prediction.Timeout = DefaultTimeoutMs
	}
	if cfg.Prediction.TopK <= 0 {
		cfg.Prediction.TopK = DefaultTopK
	}
	if cfg.Prediction.ProbeTimeout <= 0 {
		cfg.Prediction.ProbeTimeout = DefaultProbeTimeoutMs
	}
	if cfg.Prediction.SubstituteDelay < 0 {
		cfg.Prediction.SubstituteDelay = 0
	} else if cfg.Prediction.SubstituteDelay == 0 {
		cfg.Prediction.SubstituteDelay = DefaultSubstituteDelay
	}
	if cfg.Prediction.ImageSize == 0 {
		cfg.Prediction.ImageSize = DefaultImageSize
	}

	if cfg.Availability.Backend == "" {
		cfg.Availability.Backend = "memory"
	}
	if cfg.Availability.Key == "" {
		cfg.Availability.Key = "sketch-predictor:availability"
	}
	if cfg.Availability.TTL <= 0 {
		cfg.Availability.TTL = 600000
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 5
	}
	if cfg.Camunda.Timeout <= 0 {
		cfg.Camunda.Timeout = minJobTimeout(cfg) + DefaultJobHeadroomMs
	}
	if cfg.Camunda.JobTimeout <= 0 {
		cfg.Camunda.JobTimeout = cfg.Camunda.Timeout + DefaultJobHeadroomMs
	}
	if cfg.Camunda.WorkerName == "" {
		cfg.Camunda.WorkerName = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if err := validateBackendURL("backends.primary.url", cfg.Backends.Primary.URL); err != nil {
		return err
	}
	if err := validateBackendURL("backends.fallback.url", cfg.Backends.Fallback.URL); err != nil {
		return err
	}

	switch cfg.Availability.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when availability.backend is redis")
		}
	default:
		return fmt.Errorf("availability.backend must be memory or redis, got %q", cfg.Availability.Backend)
	}

	if cfg.Camunda.Enabled {
		if cfg.Camunda.BrokerAddress == "" {
			return fmt.Errorf("camunda.broker_address is required when camunda.enabled is true")
		}
		if cfg.Camunda.Timeout < minJobTimeout(cfg) {
			return fmt.Errorf("camunda.timeout must cover two prediction attempts plus the substitute delay (%dms), got %dms",
				minJobTimeout(cfg), cfg.Camunda.Timeout)
		}
		if cfg.Camunda.JobTimeout <= cfg.Camunda.Timeout {
			return fmt.Errorf("camunda.job_timeout must exceed camunda.timeout, got %dms <= %dms",
				cfg.Camunda.JobTimeout, cfg.Camunda.Timeout)
		}
	}
	return nil
}

func validateBackendURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// minJobTimeout is the worst case of one predict call: both remote attempts
// time out, then the substitute waits out its delay.
func minJobTimeout(cfg *Config) int {
	return cfg.Prediction.Timeout*2 + cfg.Prediction.SubstituteDelay
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
