package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	NER       NERConfig       `yaml:"ner" mapstructure:"ner"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Policy    PolicyConfig    `yaml:"policy" mapstructure:"policy"`
	Research  ResearchConfig  `yaml:"research" mapstructure:"research"`
	Activity  ActivityConfig  `yaml:"activity" mapstructure:"activity"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the local database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	HaikuModel string `yaml:"haiku_model" mapstructure:"haiku_model"`
}

// NERConfig holds named-entity recognition service settings.
type NERConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FetchConfig configures the HTTP fetcher.
type FetchConfig struct {
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries       int     `yaml:"retries" mapstructure:"retries"`
	HostRate      float64 `yaml:"host_rate" mapstructure:"host_rate"`
	HostRateBurst int     `yaml:"host_rate_burst" mapstructure:"host_rate_burst"`
}

// RenderConfig configures the headless-browser fallback.
type RenderConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PolicyConfig configures the crawl policy gate.
type PolicyConfig struct {
	FailOpen  bool   `yaml:"fail_open" mapstructure:"fail_open"`
	CheckTOS  bool   `yaml:"check_tos" mapstructure:"check_tos"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ResearchConfig configures the pipeline itself.
type ResearchConfig struct {
	MaxArticles     int `yaml:"max_articles" mapstructure:"max_articles"`
	FactConcurrency int `yaml:"fact_concurrency" mapstructure:"fact_concurrency"`
	CacheTTLHours   int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// CacheTTL returns the result-cache lifetime as a duration.
func (c ResearchConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// ActivityConfig configures the append-only activity log.
type ActivityConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
}

// ServerConfig configures the webhook server.
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
	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "research.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_companies", 5)
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("fetch.retries", 2)
	v.SetDefault("fetch.host_rate", 2.0)
	v.SetDefault("fetch.host_rate_burst", 4)
	v.SetDefault("render.enabled", true)
	v.SetDefault("render.timeout_secs", 30)
	v.SetDefault("policy.fail_open", true)
	v.SetDefault("policy.check_tos", false)
	v.SetDefault("policy.user_agent", "*")
	v.SetDefault("research.max_articles", 5)
	v.SetDefault("research.fact_concurrency", 5)
	v.SetDefault("research.cache_ttl_hours", 24)
	v.SetDefault("activity.dir", "logs")
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("ner.base_url", "http://localhost:8090")

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
