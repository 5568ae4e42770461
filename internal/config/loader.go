// Package config provides configuration management for the Prop Edge engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment
// variables. Environment variable placeholders in the YAML file (${VAR})
// are expanded before parsing.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with defaults for every engine knob,
// so a missing file still yields a runnable development config.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PROP_EDGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "prop-edge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("provider.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("provider.regions", "us")
	v.SetDefault("provider.odds_format", "decimal")
	v.SetDefault("provider.timeout_seconds", 30)
	v.SetDefault("provider.max_retries", 4)
	v.SetDefault("provider.rate_limit", 5.0)
	v.SetDefault("provider.max_events", 20)

	v.SetDefault("engine.max_workers", 8)
	v.SetDefault("engine.simulation.sample_count", 50000)
	v.SetDefault("engine.simulation.weight_average", 0.50)
	v.SetDefault("engine.simulation.weight_adverse", 0.25)
	v.SetDefault("engine.simulation.weight_favorable", 0.25)
	v.SetDefault("engine.simulation.spread_delta.floor", 3.0)
	v.SetDefault("engine.simulation.total_delta.floor", 7.0)
	v.SetDefault("engine.simulation.prop_delta.use_sigma", true)
	v.SetDefault("engine.spread_sigma", map[string]float64{"NFL": 13.0, "NBA": 12.0})
	v.SetDefault("engine.total_sigma", map[string]float64{"NFL": 10.0, "NBA": 15.0})
	v.SetDefault("engine.prop_sigma_floor", 3.0)
	v.SetDefault("engine.prop_sigma_fraction", 0.25)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 300)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.refresh_interval_seconds", 300)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("sports", []map[string]interface{}{
		{
			"label":        "NFL",
			"provider_key": "americanfootball_nfl",
			"game_markets": []string{"h2h", "spreads", "totals"},
			"prop_markets": []string{
				"player_pass_yds", "player_rush_yds", "player_receptions",
				"player_reception_yds", "player_anytime_td",
			},
			"yes_no_markets": []string{"player_anytime_td"},
		},
		{
			"label":        "NBA",
			"provider_key": "basketball_nba",
			"game_markets": []string{"h2h", "spreads", "totals"},
			"prop_markets": []string{
				"player_points", "player_rebounds", "player_assists",
				"player_points_rebounds_assists", "player_threes",
			},
		},
	})
}
