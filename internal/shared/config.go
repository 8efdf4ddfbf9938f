package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Database DatabaseConfig `toml:"database"`
	Export   ExportConfig   `toml:"export"`
}

// ServerConfig locates the collector backend.
type ServerConfig struct {
	// BaseURL is the backend base URL. Required in any non-local
	// deployment; locally requests default to the dev server.
	BaseURL string `toml:"base_url"`
	// Origin is the backend origin trusted for login completion
	// messages. Defaults to the origin of BaseURL.
	Origin string `toml:"origin"`
}

// AuthConfig contains credential storage and login flow settings.
type AuthConfig struct {
	TokenPath    string `toml:"token_path"`
	ResultPath   string `toml:"result_path"`
	CallbackPort int    `toml:"callback_port"`
	// LoginTimeoutSeconds bounds how long `auth login` waits for the
	// browser flow to complete before reporting a stuck login.
	LoginTimeoutSeconds int `toml:"login_timeout_seconds"`
}

// CatalogConfig controls track prefetching behavior.
type CatalogConfig struct {
	// Prefetch is "eager" (fetch every playlist's tracks as soon as the
	// playlist list loads) or "lazy" (fetch on first expand).
	Prefetch  string  `toml:"prefetch"`
	RateLimit float64 `toml:"rate_limit"`
	Workers   int     `toml:"workers"`
}

// DatabaseConfig contains catalog cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ExportConfig contains download defaults.
type ExportConfig struct {
	Format    string `toml:"format"`
	OutputDir string `toml:"output_dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Environment variables loaded via [LoadEnv] take precedence over file values
// for the backend base URL.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads a .env file if one exists in the working directory.
// Missing files are not an error; a present-but-unreadable file is.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// applyEnv overlays environment variables on top of file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("SPOTCOLLECT_API_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("SPOTCOLLECT_ORIGIN"); v != "" {
		c.Server.Origin = v
	}
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
