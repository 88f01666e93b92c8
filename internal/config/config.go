// Package config handles the XDG configuration directory and
// environment-driven API settings.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"taskcli/internal/apperr"
)

// AppName is the application directory name.
const AppName = "taskcli"

// Env holds settings read from the environment.
type Env struct {
	// BaseURL is the remote API endpoint, e.g. "https://tasks.example.com".
	BaseURL string `env:"API_BASE_URL" env-default:""`

	// Timeout is the fixed per-request timeout for the transport.
	Timeout time.Duration `env:"API_TIMEOUT" env-default:"10s"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// API holds the remote endpoint settings.
	API Env

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a Config with the default or specified config directory
// and loads API settings from the environment. A .env file in the
// config directory or the working directory is applied first,
// best-effort; real environment variables win (godotenv does not
// override variables that are already set).
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Load()

	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, apperr.Wrap(apperr.Config, "read environment", err)
	}

	return &Config{Dir: dir, API: env}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// RequireBaseURL returns the API base URL or a Config error when the
// environment does not provide one.
func (c *Config) RequireBaseURL() (string, error) {
	if c.API.BaseURL == "" {
		return "", apperr.New(apperr.Config, "API_BASE_URL not set (export it or add it to .env)")
	}
	return c.API.BaseURL, nil
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
