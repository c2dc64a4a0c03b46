// Package config loads the meteobot configuration: the shared core sections
// plus weather provider, storage, session and journal settings.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/meteobot/core/config"
	"github.com/m3rciful/meteobot/core/database"
	"github.com/m3rciful/meteobot/meteo/weather"
)

// WeatherConfig points the bot at an OpenWeatherMap-compatible provider.
type WeatherConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"WEATHER_BASE_URL"`
	APIKey         string `yaml:"api_key" envconfig:"WEATHER_API_KEY"`
	Lang           string `yaml:"lang" envconfig:"WEATHER_LANG"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"WEATHER_TIMEOUT_SECONDS"`
}

// Timeout returns the per-lookup HTTP timeout.
func (w WeatherConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// SessionsConfig controls idle session eviction. A zero TTL keeps sessions
// for the lifetime of the process.
type SessionsConfig struct {
	IdleTTLMinutes       int `yaml:"idle_ttl_minutes" envconfig:"SESSIONS_IDLE_TTL_MINUTES"`
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" envconfig:"SESSIONS_SWEEP_INTERVAL_MINUTES"`
}

// IdleTTL returns the eviction age.
func (s SessionsConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

// SweepInterval returns how often the janitor runs.
func (s SessionsConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalMinutes) * time.Minute
}

// JournalConfig sizes the in-memory journal and the /stats recent list.
type JournalConfig struct {
	Capacity int `yaml:"capacity"`
	Recent   int `yaml:"recent"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Weather  WeatherConfig   `yaml:"weather"`
	Database database.Config `yaml:"database"`
	Sessions SessionsConfig  `yaml:"sessions"`
	Journal  JournalConfig   `yaml:"journal"`
}

// CoreConfig exposes the shared core sections.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, .env and the environment, then validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Read(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	c.Weather.APIKey = strings.TrimSpace(c.Weather.APIKey)
	if c.Weather.APIKey == "" {
		return fmt.Errorf("weather.api_key is required")
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = weather.DefaultBaseURL
	}
	if c.Weather.Lang == "" {
		c.Weather.Lang = weather.DefaultLang
	}
	if c.Weather.TimeoutSeconds < 0 {
		return fmt.Errorf("weather.timeout_seconds must be >= 0")
	}
	if c.Weather.TimeoutSeconds == 0 {
		c.Weather.TimeoutSeconds = 10
	}

	if c.Sessions.IdleTTLMinutes < 0 || c.Sessions.SweepIntervalMinutes < 0 {
		return fmt.Errorf("sessions.idle_ttl_minutes and sessions.sweep_interval_minutes must be >= 0")
	}
	if c.Sessions.IdleTTLMinutes > 0 && c.Sessions.SweepIntervalMinutes == 0 {
		c.Sessions.SweepIntervalMinutes = max(1, c.Sessions.IdleTTLMinutes/2)
	}

	if c.Journal.Capacity <= 0 {
		c.Journal.Capacity = 100
	}
	if c.Journal.Recent <= 0 {
		c.Journal.Recent = 10
	}

	if err := c.Database.Normalize(); err != nil {
		return err
	}
	return nil
}
