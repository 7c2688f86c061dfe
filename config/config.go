package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	FoodData    FoodDataConfig
	Cache       CacheConfig
	RateLimit   RateLimitConfig
	Matching    MatchingConfig
	Aggregation AggregationConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the gorm dialect and its DSN
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn"`
	Debug  bool   `mapstructure:"debug"`
}

// FoodDataConfig holds FoodData Central API configuration. An empty key
// disables food import.
type FoodDataConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Debug   bool   `mapstructure:"debug"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`   // requests per minute
	FoodData int `mapstructure:"fooddata"` // requests per hour
}

// MatchingConfig tunes the food import matcher
type MatchingConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
	Fuzzy         bool    `mapstructure:"fuzzy"`
}

// AggregationConfig controls how summaries are computed
type AggregationConfig struct {
	DishWeightPolicy string `mapstructure:"dish_weight_policy"` // "ignore" or "scale"
	Timezone         string `mapstructure:"timezone"`
	MaxSeriesDays    int    `mapstructure:"max_series_days"` // 0 uses the service default
}

// Location resolves the configured timezone; empty means the process local zone.
func (a AggregationConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(a.Timezone)
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mealtracker/")

	// MEALTRACKER_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("MEALTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile reads ./.env when present. Variables already set in the
// environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values. Every key gets a default so
// AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "mealtracker.db")
	v.SetDefault("database.debug", false)

	v.SetDefault("fooddata.api_key", "")
	v.SetDefault("fooddata.base_url", "https://api.nal.usda.gov/fdc")
	v.SetDefault("fooddata.debug", false)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "720h") // 30 days

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.fooddata", 1000)

	v.SetDefault("matching.min_confidence", 40.0)
	v.SetDefault("matching.fuzzy", true)

	v.SetDefault("aggregation.dish_weight_policy", "ignore")
	v.SetDefault("aggregation.timezone", "")
	v.SetDefault("aggregation.max_series_days", 366)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.Driver != "sqlite" && config.Database.Driver != "postgres" {
		return fmt.Errorf("database driver must be 'sqlite' or 'postgres', got: %s", config.Database.Driver)
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set MEALTRACKER_DATABASE_DSN)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	if config.RateLimit.PerIP <= 0 || config.RateLimit.FoodData <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}

	if config.Matching.MinConfidence < 0 || config.Matching.MinConfidence > 100 {
		return fmt.Errorf("matching min_confidence must be within 0..100, got: %v", config.Matching.MinConfidence)
	}

	switch config.Aggregation.DishWeightPolicy {
	case "", "ignore", "scale":
	default:
		return fmt.Errorf("dish weight policy must be 'ignore' or 'scale', got: %s", config.Aggregation.DishWeightPolicy)
	}

	if config.Aggregation.MaxSeriesDays < 0 {
		return fmt.Errorf("aggregation max_series_days must not be negative, got: %d", config.Aggregation.MaxSeriesDays)
	}

	if _, err := config.Aggregation.Location(); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", config.Aggregation.Timezone, err)
	}

	return nil
}
