package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MetaAPI  MetaAPIConfig  `mapstructure:"metaapi"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Rate     RateConfig     `mapstructure:"rate"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	ReadOnly bool   `mapstructure:"read_only"`
}

type AuthConfig struct {
	RequireAPIKey bool   `mapstructure:"require_api_key"`
	APIKey        string `mapstructure:"api_key"`
	AdminKey      string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr                  string `mapstructure:"addr"`
	Password              string `mapstructure:"password"`
	DB                    int    `mapstructure:"db"`
	IdempotencyTTLSeconds int    `mapstructure:"idempotency_ttl_seconds"`
}

type MetaAPIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	RiskBaseURL    string `mapstructure:"risk_base_url"`
	AuthToken      string `mapstructure:"auth_token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RetryCount     int    `mapstructure:"retry_count"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url"`
}

type NotifyConfig struct {
	MailerURL string `mapstructure:"mailer_url"`
	APIKey    string `mapstructure:"api_key"`
}

type RefreshConfig struct {
	FreshnessMinutes   int `mapstructure:"freshness_minutes"`
	SweepIntervalHours int `mapstructure:"sweep_interval_hours"`
}

type RateConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// FreshnessWindow is how long a cached metrics snapshot stays authoritative.
func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.Refresh.FreshnessMinutes) * time.Minute
}

// SweepInterval is the cadence of the background refresh of active accounts.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Refresh.SweepIntervalHours) * time.Hour
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. PROPGATE_METAAPI_AUTH_TOKEN
	viper.SetEnvPrefix("propgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_only", false)
	viper.SetDefault("auth.require_api_key", false)
	viper.SetDefault("auth.admin_key", "")
	viper.SetDefault("redis.idempotency_ttl_seconds", 86400)
	viper.SetDefault("metaapi.base_url", "https://metastats-api-v1.london.agiliumtrade.ai")
	viper.SetDefault("metaapi.risk_base_url", "https://risk-management-api-v1.london.agiliumtrade.ai")
	viper.SetDefault("metaapi.timeout_seconds", 15)
	viper.SetDefault("metaapi.retry_count", 2)
	viper.SetDefault("stripe.base_url", "https://api.stripe.com")
	viper.SetDefault("refresh.freshness_minutes", 30)
	viper.SetDefault("refresh.sweep_interval_hours", 12)
	viper.SetDefault("rate.qps", 10)
	viper.SetDefault("rate.burst", 20)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
