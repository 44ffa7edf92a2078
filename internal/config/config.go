package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Forecast    ForecastConfig   `mapstructure:"forecast"`
	MarketData  MarketDataConfig `mapstructure:"market_data"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	DatabaseURL  string `mapstructure:"database_url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ForecastConfig controls the default shape of an analysis run.
type ForecastConfig struct {
	HorizonYears       int      `mapstructure:"horizon_years"`
	Simulations        int      `mapstructure:"simulations"`
	Seed               int64    `mapstructure:"seed"`
	EnsembleModels     []string `mapstructure:"ensemble_models"`
	MonteCarloWorkers  int      `mapstructure:"monte_carlo_workers"`
	RevenueUnitDivisor float64  `mapstructure:"revenue_unit_divisor"`
	MaxHorizonYears    int      `mapstructure:"max_horizon_years"`
	MaxSimulations     int      `mapstructure:"max_simulations"`
	MetricsTopN        int      `mapstructure:"metrics_top_n"`
}

type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Endpoint       string  `mapstructure:"endpoint"`
	ServiceVersion string  `mapstructure:"service_version"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

type MarketDataConfig struct {
	BaseURL            string   `mapstructure:"base_url"`
	APIKey             string   `mapstructure:"api_key"`
	Symbols            []string `mapstructure:"symbols"`
	Interval           int      `mapstructure:"interval"`
	Timespan           string   `mapstructure:"timespan"`
	CollectionInterval string   `mapstructure:"collection_interval"`
	CallsPerMinute     int      `mapstructure:"calls_per_minute"`
	LookbackDays       int      `mapstructure:"lookback_days"`
	SnapshotTTL        string   `mapstructure:"snapshot_ttl"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind specific environment variables
	if err := viper.BindEnv("market_data.api_key", "POLYGON_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind POLYGON_API_KEY environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	if config.Forecast.HorizonYears < 0 {
		return nil, fmt.Errorf("forecast horizon_years must not be negative, got %d", config.Forecast.HorizonYears)
	}
	if config.Forecast.Simulations < 1 {
		return nil, fmt.Errorf("forecast simulations must be at least 1, got %d", config.Forecast.Simulations)
	}
	if config.MarketData.CollectionInterval != "" {
		if _, err := time.ParseDuration(config.MarketData.CollectionInterval); err != nil {
			return nil, fmt.Errorf("invalid market data collection interval: %w", err)
		}
	}
	if config.MarketData.SnapshotTTL != "" {
		if _, err := time.ParseDuration(config.MarketData.SnapshotTTL); err != nil {
			return nil, fmt.Errorf("invalid snapshot TTL: %w", err)
		}
	}

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Set database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "revcast")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Forecast
	viper.SetDefault("forecast.horizon_years", 5)
	viper.SetDefault("forecast.simulations", 1000)
	viper.SetDefault("forecast.seed", 42)
	viper.SetDefault("forecast.ensemble_models", []string{"Polynomial_2", "Exponential Smoothing", "Gradient Boosting"})
	viper.SetDefault("forecast.monte_carlo_workers", 0)
	viper.SetDefault("forecast.revenue_unit_divisor", 1e9)
	viper.SetDefault("forecast.max_horizon_years", 30)
	viper.SetDefault("forecast.max_simulations", 100000)
	viper.SetDefault("forecast.metrics_top_n", 3)

	// Telemetry
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.endpoint", "")
	viper.SetDefault("telemetry.service_version", "1.0.0")
	viper.SetDefault("telemetry.sample_rate", 1.0)

	// Market data
	viper.SetDefault("market_data.base_url", "https://api.polygon.io")
	viper.SetDefault("market_data.api_key", "")
	viper.SetDefault("market_data.symbols", []string{"SPY", "QQQ", "AAPL", "MSFT", "GOOGL", "TSLA", "NVDA", "AMZN"})
	viper.SetDefault("market_data.interval", 5)
	viper.SetDefault("market_data.timespan", "minute")
	viper.SetDefault("market_data.collection_interval", "5m")
	viper.SetDefault("market_data.calls_per_minute", 5)
	viper.SetDefault("market_data.lookback_days", 60)
	viper.SetDefault("market_data.snapshot_ttl", "15m")
}
