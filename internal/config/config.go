package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Feeds    FeedsConfig    `mapstructure:"feeds"`
	NBBO     NBBOConfig     `mapstructure:"nbbo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// FeedsConfig holds the feed subscriptions plus the connection and
// shutdown tuning shared by every venue adapter.
type FeedsConfig struct {
	Subscriptions []FeedSubscription `mapstructure:"subscriptions"`

	ReconnectBaseMs    int `mapstructure:"reconnect_base_ms"`
	ReconnectMaxMs     int `mapstructure:"reconnect_max_ms"`
	PingIntervalSec    int `mapstructure:"ping_interval_sec"`
	ShutdownTimeoutSec int `mapstructure:"shutdown_timeout_sec"` // 0 = unbounded phase-1 gather
}

type FeedSubscription struct {
	Venue    string   `mapstructure:"venue"`
	Symbols  []string `mapstructure:"symbols"`
	Channels []string `mapstructure:"channels"`
}

type NBBOConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Venues  []string `mapstructure:"venues"`
	Symbols []string `mapstructure:"symbols"`
}

type RedisConfig struct {
	Addr             string `mapstructure:"addr"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	ChannelPrefix    string `mapstructure:"channel_prefix"`
	LatestTTLSeconds int    `mapstructure:"latest_ttl_seconds"`
}

type DatabaseConfig struct {
	DSN             string `mapstructure:"dsn"`
	BatchSize       int    `mapstructure:"batch_size"`
	FlushIntervalMs int    `mapstructure:"flush_interval_ms"`
	BufferSize      int    `mapstructure:"buffer_size"`
}

func (f FeedsConfig) ReconnectBase() time.Duration {
	return time.Duration(f.ReconnectBaseMs) * time.Millisecond
}

func (f FeedsConfig) ReconnectMax() time.Duration {
	return time.Duration(f.ReconnectMaxMs) * time.Millisecond
}

func (f FeedsConfig) PingInterval() time.Duration {
	return time.Duration(f.PingIntervalSec) * time.Second
}

func (f FeedsConfig) ShutdownTimeout() time.Duration {
	return time.Duration(f.ShutdownTimeoutSec) * time.Second
}

func (r RedisConfig) LatestTTL() time.Duration {
	return time.Duration(r.LatestTTLSeconds) * time.Second
}

func (d DatabaseConfig) FlushInterval() time.Duration {
	return time.Duration(d.FlushIntervalMs) * time.Millisecond
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. TICKGATE_SERVER_PORT, TICKGATE_REDIS_ADDR
	viper.SetEnvPrefix("tickgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("feeds.reconnect_base_ms", 1000)
	viper.SetDefault("feeds.reconnect_max_ms", 30000)
	viper.SetDefault("feeds.ping_interval_sec", 15)
	viper.SetDefault("feeds.shutdown_timeout_sec", 30)
	viper.SetDefault("nbbo.enabled", false)
	viper.SetDefault("redis.channel_prefix", "tickgate")
	viper.SetDefault("redis.latest_ttl_seconds", 60)
	viper.SetDefault("database.batch_size", 500)
	viper.SetDefault("database.flush_interval_ms", 1000)
	viper.SetDefault("database.buffer_size", 10000)

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
