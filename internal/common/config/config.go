package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Session SessionConfig `mapstructure:"session"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig holds settings for the Klicks backend REST API.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// RequestTimeout converts the millisecond setting to a duration.
func (a APIConfig) RequestTimeout() time.Duration {
	return time.Duration(a.Timeout) * time.Millisecond
}

// RedisConfig holds settings for the local session store.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig controls background profile refresh behaviour.
type SessionConfig struct {
	RefreshInterval int `mapstructure:"refresh_interval"` // seconds
}

// RefreshEvery converts the second setting to a duration.
func (s SessionConfig) RefreshEvery() time.Duration {
	return time.Duration(s.RefreshInterval) * time.Second
}

// MetricsConfig holds the prometheus scrape endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
