package config

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables overriding them.
var envBindings = map[string]string{
	"pocket.consumer_key": "POCKET_CONSUMER_KEY",
	"pocket.access_token": "POCKET_ACCESS_TOKEN",
	"pocket.redirect_uri": "POCKET_REDIRECT_URI",
	"logging.level":       "POCKET_LOG_LEVEL",
}

// Load loads the configuration from file and environment.
// A missing config file is not an error when configPath is empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "error binding %s", env)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pockettags")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".pockettags"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, errors.Wrap(err, "error reading config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("pocket.redirect_uri", "https://getpocket.com")
	v.SetDefault("pocket.base_url", "https://getpocket.com/v3")
	v.SetDefault("pocket.site_url", "https://getpocket.com")
	v.SetDefault("pocket.timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Pocket.Timeout <= 0 {
		return errors.New("pocket.timeout must be positive")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return errors.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return errors.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
