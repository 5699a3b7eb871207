package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Sim     SimConfig     `mapstructure:"sim"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Watcher WatcherConfig `mapstructure:"watcher"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

// SimConfig seeds the defaults every freshly created session starts with.
type SimConfig struct {
	UpdateIntervalMs int     `mapstructure:"update_interval_ms"`
	Volatility       float64 `mapstructure:"volatility"`
	Currency         string  `mapstructure:"currency"`
}

type RedisConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLMinutes int    `mapstructure:"ttl_minutes"` // archived-session eviction horizon
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// WatcherConfig drives the polling sync client.
type WatcherConfig struct {
	ServerURL       string `mapstructure:"server_url"`
	UserID          string `mapstructure:"user_id"`
	InstanceID      string `mapstructure:"instance_id"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec"`
	TimeoutSec      int    `mapstructure:"timeout_sec"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Load .env file into System Environment (if it exists)
	// This ensures variables like APP_PORT are available as real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	// 2. Set Defaults (12-Factor App: Dev/Prod Parity)
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("sim.update_interval_ms", 2000)
	v.SetDefault("sim.volatility", 2.5)
	v.SetDefault("sim.currency", "USD")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl_minutes", 1440)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "ticker_ticks")

	v.SetDefault("watcher.server_url", "http://localhost:8080")
	v.SetDefault("watcher.user_id", "local-user")
	v.SetDefault("watcher.instance_id", "local-instance")
	v.SetDefault("watcher.poll_interval_sec", 5)
	v.SetDefault("watcher.timeout_sec", 10)

	// 3. Configure Viper to read Environment Variables
	// This maps dot-notation to underscores (e.g., "app.port" -> "APP_PORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Explicitly Bind Env Vars to Keys
	// This is crucial for Viper to map flat Env Vars (APP_PORT) to nested structs (App.Port)
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "sim.update_interval_ms", "sim.volatility", "sim.currency")
	bindEnv(v, "redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.ttl_minutes")
	bindEnv(v, "kafka.enabled", "kafka.brokers", "kafka.topic")
	bindEnv(v, "watcher.server_url", "watcher.user_id", "watcher.instance_id",
		"watcher.poll_interval_sec", "watcher.timeout_sec")

	// 5. Unmarshal into Struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	// 6. Basic Validation
	if cfg.Sim.UpdateIntervalMs < 1000 {
		return nil, fmt.Errorf("sim.update_interval_ms must be >= 1000")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
