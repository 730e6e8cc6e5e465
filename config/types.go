package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Pocket  PocketConfig  `mapstructure:"pocket"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PocketConfig holds Pocket API credentials and transport settings
type PocketConfig struct {
	ConsumerKey string        `mapstructure:"consumer_key"`
	AccessToken string        `mapstructure:"access_token"`
	RedirectURI string        `mapstructure:"redirect_uri"`
	BaseURL     string        `mapstructure:"base_url"`
	SiteURL     string        `mapstructure:"site_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
