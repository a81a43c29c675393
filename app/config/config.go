package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/sieve/web/server/handler"
	"go.hackfix.me/sieve/xtime"
)

// Default configuration values.
const (
	DefaultServerAddress   = ":8080"
	DefaultErrorLevel      = handler.ErrorLevelMinimal
	DefaultMaxBodySize     = 1024 * 1024 // 1MiB
	DefaultTokenExpiration = 30 * 24 * time.Hour
)

// DefaultAllowedClients allows requests from any IPv4 or IPv6 address.
var DefaultAllowedClients = []string{"0.0.0.0/0", "::/0"}

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Server Server
	Token  Token

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}

	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Server defines configuration options specific to the HTTP server.
type Server struct {
	// Address is the network address in [host]:port format the server will listen on.
	Address sql.Null[string] `json:"address"`
	// ErrorLevel is the amount of error detail returned to API clients.
	ErrorLevel sql.Null[handler.ErrorLevel] `json:"error_level"`
	// MaxBodySize is the maximum size of request bodies in bytes.
	MaxBodySize sql.Null[int64] `json:"max_body_size"`
	// AllowedClients are the IP addresses allowed to access the API, in plain,
	// CIDR or range notation.
	AllowedClients []string `json:"allowed_clients"`
}

// Token defines configuration options of API tokens.
type Token struct {
	// Expiration is the amount of time new tokens are valid for, unless
	// specified when creating them. It serializes from/to xtime.Duration string
	// values. Minimum value: 1 minute.
	Expiration sql.Null[time.Duration] `json:"expiration"`
}

type cfgWrapper struct {
	Server srvCfgWrapper   `json:"server"`
	Token  tokenCfgWrapper `json:"token"`
}
type srvCfgWrapper struct {
	Address        string   `json:"address,omitempty"`
	ErrorLevel     string   `json:"error_level,omitempty"`
	MaxBodySize    int64    `json:"max_body_size,omitempty"`
	AllowedClients []string `json:"allowed_clients,omitempty"`
}
type tokenCfgWrapper struct {
	Expiration string `json:"expiration,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	if c.Server.Address.Valid {
		w.Server.Address = c.Server.Address.V
	}
	if c.Server.ErrorLevel.Valid {
		w.Server.ErrorLevel = string(c.Server.ErrorLevel.V)
	}
	if c.Server.MaxBodySize.Valid {
		w.Server.MaxBodySize = c.Server.MaxBodySize.V
	}
	w.Server.AllowedClients = c.Server.AllowedClients

	if c.Token.Expiration.Valid {
		w.Token.Expiration = xtime.FormatDuration(c.Token.Expiration.V, time.Minute)
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types and parse duration strings into time.Duration values.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	if w.Server.Address != "" {
		c.Server.Address = sql.Null[string]{V: w.Server.Address, Valid: true}
	}
	if w.Server.ErrorLevel != "" {
		lvl, err := handler.ErrorLevelFromString(w.Server.ErrorLevel)
		if err != nil {
			return err
		}
		c.Server.ErrorLevel = sql.Null[handler.ErrorLevel]{V: lvl, Valid: true}
	}
	if w.Server.MaxBodySize < 0 {
		return fmt.Errorf("invalid max body size %d", w.Server.MaxBodySize)
	}
	if w.Server.MaxBodySize > 0 {
		c.Server.MaxBodySize = sql.Null[int64]{V: w.Server.MaxBodySize, Valid: true}
	}
	if len(w.Server.AllowedClients) > 0 {
		c.Server.AllowedClients = w.Server.AllowedClients
	}

	if w.Token.Expiration != "" {
		dur, err := xtime.ParseDuration(w.Token.Expiration)
		if err != nil {
			return fmt.Errorf("failed parsing token expiration: %w", err)
		}
		if dur < time.Minute {
			return fmt.Errorf("token expiration must be at least 1 minute, got '%s'", w.Token.Expiration)
		}
		c.Token.Expiration = sql.Null[time.Duration]{V: dur, Valid: true}
	}

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	if !c.Server.Address.Valid {
		c.Server.Address = sql.Null[string]{V: DefaultServerAddress, Valid: true}
	}
	if !c.Server.ErrorLevel.Valid {
		c.Server.ErrorLevel = sql.Null[handler.ErrorLevel]{V: DefaultErrorLevel, Valid: true}
	}
	if !c.Server.MaxBodySize.Valid {
		c.Server.MaxBodySize = sql.Null[int64]{V: DefaultMaxBodySize, Valid: true}
	}
	if len(c.Server.AllowedClients) == 0 {
		c.Server.AllowedClients = DefaultAllowedClients
	}
	if !c.Token.Expiration.Valid {
		c.Token.Expiration = sql.Null[time.Duration]{V: DefaultTokenExpiration, Valid: true}
	}
}
