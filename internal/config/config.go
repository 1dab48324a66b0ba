package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Agent  AgentConfig  `yaml:"agent" mapstructure:"agent"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// AgentConfig configures the backend agent connection.
type AgentConfig struct {
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	BerryConnection string  `yaml:"berry_connection" mapstructure:"berry_connection"`
	TokenConnection string  `yaml:"token_connection" mapstructure:"token_connection"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// BatchConfig configures batch discovery and fetch behavior.
type BatchConfig struct {
	ProbeLimit    int `yaml:"probe_limit" mapstructure:"probe_limit"`
	ChunkSize     int `yaml:"chunk_size" mapstructure:"chunk_size"`
	ListTTLMins   int `yaml:"list_ttl_mins" mapstructure:"list_ttl_mins"`
	DetailRetries int `yaml:"detail_retries" mapstructure:"detail_retries"`
	RetryStepSecs int `yaml:"retry_step_secs" mapstructure:"retry_step_secs"`
}

// CacheConfig configures the persisted snapshot.
type CacheConfig struct {
	SnapshotPath string `yaml:"snapshot_path" mapstructure:"snapshot_path"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COLDCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("agent.base_url", "http://localhost:8000")
	v.SetDefault("agent.berry_connection", "sonic")
	v.SetDefault("agent.token_connection", "educhain")
	v.SetDefault("agent.timeout_secs", 60)
	v.SetDefault("agent.rate_limit", 0)
	v.SetDefault("batch.probe_limit", 50)
	v.SetDefault("batch.chunk_size", 5)
	v.SetDefault("batch.list_ttl_mins", 5)
	v.SetDefault("batch.detail_retries", 3)
	v.SetDefault("batch.retry_step_secs", 2)
	v.SetDefault("cache.snapshot_path", "coldchain.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
