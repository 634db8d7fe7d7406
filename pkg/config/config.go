package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Database: postgres:// URL or sqlite file path
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis (optional hot cache tier; empty disables it)
	RedisURL string `mapstructure:"REDIS_URL"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// EPG generation
	EPGTimezone      string `mapstructure:"EPG_TIMEZONE"`
	EPGDaysAhead     int    `mapstructure:"EPG_DAYS_AHEAD"`
	EPGLookbackHours int    `mapstructure:"EPG_LOOKBACK_HOURS"`
	MaxTeamWorkers   int    `mapstructure:"MAX_TEAM_WORKERS"`

	// External providers
	ESPNRateLimit      int           `mapstructure:"ESPN_RATE_LIMIT"`
	TheSportsDBAPIKey  string        `mapstructure:"THESPORTSDB_API_KEY"`
	ProviderTimeout    time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	ProviderRetryCount int           `mapstructure:"PROVIDER_RETRY_COUNT"`

	// Downstream manager
	DispatcharrURL      string `mapstructure:"DISPATCHARR_URL"`
	DispatcharrUsername string `mapstructure:"DISPATCHARR_USERNAME"`
	DispatcharrPassword string `mapstructure:"DISPATCHARR_PASSWORD"`

	// Scheduler
	GenerationInterval string `mapstructure:"GENERATION_INTERVAL"`
	SchedulerEnabled   bool   `mapstructure:"SCHEDULER_ENABLED"`

	// Circuit breaker
	CircuitBreakerThreshold int `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "9195")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "teamarr.db")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("EPG_TIMEZONE", "America/Detroit")
	viper.SetDefault("EPG_DAYS_AHEAD", 3)
	viper.SetDefault("EPG_LOOKBACK_HOURS", 6)
	viper.SetDefault("MAX_TEAM_WORKERS", 100)
	viper.SetDefault("ESPN_RATE_LIMIT", 10)
	viper.SetDefault("THESPORTSDB_API_KEY", "3") // free tier key
	viper.SetDefault("PROVIDER_TIMEOUT", "10s")
	viper.SetDefault("PROVIDER_RETRY_COUNT", 3)
	viper.SetDefault("DISPATCHARR_URL", "")
	viper.SetDefault("DISPATCHARR_USERNAME", "")
	viper.SetDefault("DISPATCHARR_PASSWORD", "")
	viper.SetDefault("GENERATION_INTERVAL", "1h")
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	if corsStr := viper.GetString("CORS_ORIGINS"); corsStr != "" {
		config.CorsOrigins = strings.Split(corsStr, ",")
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
