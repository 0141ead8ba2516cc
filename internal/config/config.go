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
	Estimator EstimatorConfig `yaml:"estimator" mapstructure:"estimator"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Market    MarketConfig    `yaml:"market" mapstructure:"market"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// EstimatorConfig configures the concurrent estimation pool.
type EstimatorConfig struct {
	Workers            int     `yaml:"workers" mapstructure:"workers"`
	RateLimitDelaySecs float64 `yaml:"rate_limit_delay_secs" mapstructure:"rate_limit_delay_secs"`
	OnlineSources      bool    `yaml:"online_sources" mapstructure:"online_sources"`
}

// CacheConfig configures the listings cache.
type CacheConfig struct {
	Enabled  bool    `yaml:"enabled" mapstructure:"enabled"`
	Dir      string  `yaml:"dir" mapstructure:"dir"`
	TTLHours float64 `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// MarketConfig configures the marketplace search client.
type MarketConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read-only API server.
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
	v.SetEnvPrefix("INVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("estimator.workers", 4)
	v.SetDefault("estimator.rate_limit_delay_secs", 0.3)
	v.SetDefault("estimator.online_sources", true)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", ".cache")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("market.base_url", "https://www.armslist.com")
	v.SetDefault("market.timeout_secs", 15)
	v.SetDefault("market.max_retries", 2)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "inventory.db")
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
