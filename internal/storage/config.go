// Manages server configuration stored in config.yaml.

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the name of the server configuration file in the data directory.
const ConfigFile = "config.yaml"

// ServerConfig stores all server-wide configuration.
// Loaded from config.yaml, created with defaults if missing.
type ServerConfig struct {
	// DataFile is the book collection file, relative to the data directory
	// unless absolute.
	DataFile string `yaml:"data_file"`

	// MaxRequestBodyBytes limits the size of any single HTTP request body.
	// 0 means unlimited.
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`

	// RateLimits defines rate limiting configuration.
	RateLimits RateLimits `yaml:"rate_limits"`

	// History records every write of the data file as a git commit.
	History History `yaml:"history"`
}

// RateLimits defines rate limiting configuration (requests per minute per
// client IP).
type RateLimits struct {
	// ReadPerMin limits GET requests. 0 means unlimited.
	ReadPerMin int `yaml:"read_per_min"`

	// WritePerMin limits POST, PUT and DELETE requests. 0 means unlimited.
	WritePerMin int `yaml:"write_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.ReadPerMin < 0 {
		return errors.New("read_per_min must be non-negative")
	}
	if r.WritePerMin < 0 {
		return errors.New("write_per_min must be non-negative")
	}
	return nil
}

// History configures the git change history of the data directory.
type History struct {
	Enabled     bool   `yaml:"enabled"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Validate checks that an enabled history has an author.
func (h *History) Validate() error {
	if !h.Enabled {
		return nil
	}
	if h.AuthorName == "" {
		return errors.New("author_name is required when enabled")
	}
	if !strings.Contains(h.AuthorEmail, "@") {
		return fmt.Errorf("invalid author_email %q", h.AuthorEmail)
	}
	return nil
}

// DefaultServerConfig returns the configuration written on first start.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		DataFile:            "books.json",
		MaxRequestBodyBytes: 1024 * 1024, // 1 MiB
		RateLimits: RateLimits{
			ReadPerMin:  6000,
			WritePerMin: 600,
		},
		History: History{
			AuthorName:  "bookshelf",
			AuthorEmail: "bookshelf@localhost",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *ServerConfig) Validate() error {
	if c.DataFile == "" {
		return errors.New("data_file is required")
	}
	if c.MaxRequestBodyBytes < 0 {
		return errors.New("max_request_body_bytes must be non-negative")
	}
	if err := c.RateLimits.Validate(); err != nil {
		return fmt.Errorf("rate_limits: %w", err)
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}

// DataPath returns the absolute or dataDir-relative path of the book file.
func (c *ServerConfig) DataPath(dataDir string) string {
	if filepath.IsAbs(c.DataFile) {
		return c.DataFile
	}
	return filepath.Join(dataDir, c.DataFile)
}

// LoadServerConfig loads configuration from dataDir/config.yaml.
// Creates the file with defaults if it doesn't exist. Fields absent from an
// existing file keep their default value.
func LoadServerConfig(dataDir string) (*ServerConfig, error) {
	path := filepath.Join(dataDir, ConfigFile)

	cfg := DefaultServerConfig()
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFile, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/config.yaml.
func (c *ServerConfig) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, ConfigFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigFile, err)
	}
	return nil
}
