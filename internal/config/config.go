// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application. The account handle and
// the optional bearer credential are supplied externally; the core only reads
// them.
type Config struct {
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	AccountHandle string `mapstructure:"ACCOUNT_HANDLE"`
	GithubToken   string `mapstructure:"GITHUB_TOKEN"`
	APIBaseURL    string `mapstructure:"API_BASE_URL"`
	CachePath     string `mapstructure:"CACHE_PATH"`
	ListenAddr    string `mapstructure:"LISTEN_ADDR"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CACHE_PATH", "gitdash.db")
	viper.SetDefault("LISTEN_ADDR", ":8080")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields. GITHUB_TOKEN is deliberately optional:
	// unauthenticated requests work, at a lower rate limit.
	if cfg.AccountHandle == "" {
		return nil, errors.New("ACCOUNT_HANDLE is a required configuration field")
	}

	return &cfg, nil
}
