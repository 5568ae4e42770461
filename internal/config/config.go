// Package config provides configuration management for the Prop Edge engine.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/prop-edge/internal/simulate"
	"github.com/yourusername/prop-edge/internal/tier"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider" validate:"required"`
	Engine    EngineConfig    `mapstructure:"engine" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	Sports    []SportConfig   `mapstructure:"sports" validate:"required,min=1,dive"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents snapshot database configuration. Persistence is
// optional; an empty host disables it.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// Enabled reports whether snapshot persistence is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// ProviderConfig represents odds provider API configuration
type ProviderConfig struct {
	BaseURL        string  `mapstructure:"base_url" validate:"required,url"`
	APIKey         string  `mapstructure:"api_key"`
	Regions        string  `mapstructure:"regions" validate:"required"`
	OddsFormat     string  `mapstructure:"odds_format" validate:"required,oneof=decimal american"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries     int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	MaxEvents      int     `mapstructure:"max_events" validate:"required,gt=0"`
}

// EngineConfig represents the evaluation engine tunables
type EngineConfig struct {
	Simulation simulate.Config  `mapstructure:"simulation"`
	Tiers      []tier.Threshold `mapstructure:"tiers"`
	MaxWorkers int              `mapstructure:"max_workers" validate:"required,gt=0"`
	// Per-sport sigma for point-differential and total models; fallbacks
	// apply when a sport is absent.
	SpreadSigma       map[string]float64 `mapstructure:"spread_sigma"`
	TotalSigma        map[string]float64 `mapstructure:"total_sigma"`
	PropSigmaFloor    float64            `mapstructure:"prop_sigma_floor"`
	PropSigmaFraction float64            `mapstructure:"prop_sigma_fraction"`
}

// CacheConfig represents result cache configuration
type CacheConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=memory redis"`
	TTLSeconds    int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// TTL returns the cache time-to-live as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// SportConfig maps a short sport label to provider keys and markets.
type SportConfig struct {
	Label        string   `mapstructure:"label" validate:"required,sport"`
	ProviderKey  string   `mapstructure:"provider_key" validate:"required"`
	GameMarkets  []string `mapstructure:"game_markets"`
	PropMarkets  []string `mapstructure:"prop_markets"`
	YesNoMarkets []string `mapstructure:"yes_no_markets"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// SchedulerConfig represents background refresh configuration
type SchedulerConfig struct {
	Enabled                bool `mapstructure:"enabled"`
	RefreshIntervalSeconds int  `mapstructure:"refresh_interval_seconds" validate:"omitempty,gt=0"`
}

// MetricsConfig represents metrics exposure configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SportByLabel returns the sport configuration for a short label.
func (c *Config) SportByLabel(label string) (*SportConfig, bool) {
	for i := range c.Sports {
		if c.Sports[i].Label == label {
			return &c.Sports[i], true
		}
	}
	return nil, false
}
