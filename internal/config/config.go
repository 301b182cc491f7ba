package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string
	Port        int
	Environment string
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// prometheus
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	// redis, optional; without a host summaries are kept in process
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// exercises
	ExercisesDir string `toml:"exercises_dir"`
	// sessions
	SessionIdleTimeout       Duration `toml:"session_idle_timeout"`
	SummaryTTL               Duration `toml:"summary_ttl"`
	SummaryCacheSizeMB       int      `toml:"summary_cache_size_mb"`
	NewSessionsAllowedPerMin int      `toml:"new_sessions_allowed_per_min"`
	AllowedOrigins           []string `toml:"allowed_origins"`
}

// Duration decodes TOML strings like "10m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no [%s] section in config", env)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.SessionIdleTimeout.Duration <= 0 {
		c.SessionIdleTimeout.Duration = 10 * time.Minute
	}
	if c.SummaryTTL.Duration <= 0 {
		c.SummaryTTL.Duration = time.Hour
	}
	if c.SummaryCacheSizeMB <= 0 {
		c.SummaryCacheSizeMB = 16
	}
	if c.NewSessionsAllowedPerMin <= 0 {
		c.NewSessionsAllowedPerMin = 30
	}
	if c.RedisHost != "" && c.RedisPort == "" {
		c.RedisPort = "6379"
	}
}

// Load reads the TOML file at path and returns the section of env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return t.Get(env)
}
