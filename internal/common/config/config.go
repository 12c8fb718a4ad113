// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Backends      BackendsConfig      `mapstructure:"backends"`
	Prediction    PredictionConfig    `mapstructure:"prediction"`
	Availability  AvailabilityConfig  `mapstructure:"availability"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Server        ServerConfig        `mapstructure:"server"`
	Camunda       CamundaConfig       `mapstructure:"camunda"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Progression   ProgressionConfig   `mapstructure:"progression"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendsConfig holds the two classification service instances. Both share
// the same call paths.
type BackendsConfig struct {
	Primary    BackendConfig `mapstructure:"primary"`
	Fallback   BackendConfig `mapstructure:"fallback"`
	SubmitPath string        `mapstructure:"submit_path"`
	ResultPath string        `mapstructure:"result_path"`
}

type BackendConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type PredictionConfig struct {
	Timeout         int  `mapstructure:"timeout"`          // milliseconds, per remote attempt
	TopK            int  `mapstructure:"top_k"`
	ProbeTimeout    int  `mapstructure:"probe_timeout"`    // milliseconds
	SubstituteDelay int  `mapstructure:"substitute_delay"` // milliseconds
	ImageSize       uint `mapstructure:"image_size"`       // pixels, square
}

type AvailabilityConfig struct {
	Backend string `mapstructure:"backend"` // memory | redis
	Key     string `mapstructure:"key"`
	TTL     int    `mapstructure:"ttl"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	WorkerName    string `mapstructure:"worker_name"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"`       // milliseconds, handler deadline per job
	JobTimeout    int    `mapstructure:"job_timeout"`   // milliseconds, broker lock per activated job
	PollInterval  int    `mapstructure:"poll_interval"` // milliseconds, 0 keeps the client default
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// ProgressionConfig maps a class level to its ordered pages of words.
type ProgressionConfig struct {
	Levels map[string][]PageConfig `mapstructure:"levels"`
}

type PageConfig struct {
	Number int      `mapstructure:"number"`
	Words  []string `mapstructure:"words"`
}

// RequestTimeout returns the per-attempt timeout.
func (p PredictionConfig) RequestTimeout() time.Duration {
	return GetDuration(p.Timeout)
}

// ProbeTimeoutDuration returns the availability probe timeout.
func (p PredictionConfig) ProbeTimeoutDuration() time.Duration {
	return GetDuration(p.ProbeTimeout)
}

// SubstituteDelayDuration returns the emulated latency of the local substitute.
func (p PredictionConfig) SubstituteDelayDuration() time.Duration {
	return GetDuration(p.SubstituteDelay)
}
