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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Providers  ProviderConfig   `yaml:"providers" mapstructure:"providers"`
	Features   FeatureConfig    `yaml:"features" mapstructure:"features"`
	Activity   ActivityConfig   `yaml:"activity" mapstructure:"activity"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the PostgreSQL connection shared with the runner.
type StoreConfig struct {
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	ShutdownSecs    int      `yaml:"shutdown_secs" mapstructure:"shutdown_secs"`
}

// ProviderConfig carries the runner's provider credentials. The dashboard
// never calls these APIs; it only reports which providers are configured.
type ProviderConfig struct {
	AnthropicKey string `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	OpenAIKey    string `yaml:"openai_key" mapstructure:"openai_key"`
	VectorKey    string `yaml:"vector_key" mapstructure:"vector_key"`
	VectorIndex  string `yaml:"vector_index" mapstructure:"vector_index"`
	DefaultLLM   string `yaml:"default_llm" mapstructure:"default_llm"`
}

// FeatureConfig holds dashboard feature flags.
type FeatureConfig struct {
	FactReview   bool `yaml:"fact_review" mapstructure:"fact_review"`
	CostTracking bool `yaml:"cost_tracking" mapstructure:"cost_tracking"`
	FailedRetry  bool `yaml:"failed_retry" mapstructure:"failed_retry"`
}

// ActivityConfig configures activity feed classification.
type ActivityConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// MonitoringConfig configures background metrics checks and alerting.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
	StalledAfterMins     int     `yaml:"stalled_after_mins" mapstructure:"stalled_after_mins"`
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
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit_per_sec", 50.0)
	v.SetDefault("server.rate_limit_burst", 100)
	v.SetDefault("server.shutdown_secs", 10)
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("providers.default_llm", "claude-haiku-4-5-20251001")
	v.SetDefault("features.fact_review", true)
	v.SetDefault("features.cost_tracking", true)
	v.SetDefault("features.failed_retry", true)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.cost_threshold_usd", 50.0)
	v.SetDefault("monitoring.stalled_after_mins", 30)

	// Keys without a natural default still have to be registered, or viper
	// never feeds their env values into Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("providers.anthropic_key", "")
	v.SetDefault("providers.openai_key", "")
	v.SetDefault("providers.vector_key", "")
	v.SetDefault("providers.vector_index", "")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("activity.rules_path", "")

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

// Validate checks that required settings are present for database-backed
// commands.
func (c *Config) Validate() error {
	if c.Store.DatabaseURL == "" {
		return eris.New("database URL is required (ENRICH_STORE_DATABASE_URL)")
	}
	return nil
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
