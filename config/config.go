package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"settlement-ledger/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Log          LogConfig          `mapstructure:"log"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Mode         string `mapstructure:"mode"` // debug, release, test
	RateLimitRPM int    `mapstructure:"rate_limit_rpm"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// LedgerConfig carries the settlement parameters of a deployment.
type LedgerConfig struct {
	Currency              string        `mapstructure:"currency"`
	SoftThreshold         int64         `mapstructure:"soft_threshold"`
	HardThreshold         int64         `mapstructure:"hard_threshold"`
	DefaultCommissionRate string        `mapstructure:"default_commission_rate"` // decimal string, e.g. "0.10"
	MaxAttempts           int           `mapstructure:"max_attempts"`
	SettlementCacheTTL    time.Duration `mapstructure:"settlement_cache_ttl"`
}

// Policy returns the wallet policy described by the thresholds.
func (l LedgerConfig) Policy() (domain.WalletPolicy, error) {
	p := domain.WalletPolicy{SoftThreshold: l.SoftThreshold, HardThreshold: l.HardThreshold}
	if err := p.Validate(); err != nil {
		return domain.WalletPolicy{}, err
	}
	return p, nil
}

// CommissionRate parses the default commission rate.
func (l LedgerConfig) CommissionRate() (decimal.Decimal, error) {
	return domain.ParseRate(l.DefaultCommissionRate)
}

// NotificationConfig configures the outbound driver notification webhook.
// An empty WebhookURL means notifications are only logged.
type NotificationConfig struct {
	WebhookURL    string        `mapstructure:"webhook_url"`
	Secret        string        `mapstructure:"secret"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SSL_ (Settlement Ledger).
// Nested keys use underscore: SSL_DATABASE_HOST, SSL_LEDGER_HARD_THRESHOLD, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.rate_limit_rpm", 600)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "settlement_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.lock_timeout", "5s")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "settlement-ledger")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("ledger.currency", "VND")
	v.SetDefault("ledger.soft_threshold", domain.DefaultSoftThreshold)
	v.SetDefault("ledger.hard_threshold", domain.DefaultHardThreshold)
	v.SetDefault("ledger.default_commission_rate", "0.10")
	v.SetDefault("ledger.max_attempts", 5)
	v.SetDefault("ledger.settlement_cache_ttl", "24h")
	v.SetDefault("notification.webhook_url", "")
	v.SetDefault("notification.secret", "")
	v.SetDefault("notification.timeout", "10s")
	v.SetDefault("notification.max_attempts", 3)
	v.SetDefault("notification.retry_interval", "2s")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SSL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SSL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Ledger.MaxAttempts < 1 {
		cfg.Ledger.MaxAttempts = 1
	}
	if _, err := cfg.Ledger.Policy(); err != nil {
		return nil, fmt.Errorf("invalid ledger thresholds: %w", err)
	}
	if _, err := cfg.Ledger.CommissionRate(); err != nil {
		return nil, fmt.Errorf("invalid default commission rate: %w", err)
	}

	return &cfg, nil
}
