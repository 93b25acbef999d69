package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Config is the top-level tagctl configuration.
type Config struct {
	Jellyfin JellyfinConfig `mapstructure:"jellyfin" yaml:"jellyfin"`
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
	Serve    ServeConfig    `mapstructure:"serve" yaml:"serve"`
}

// JellyfinConfig holds the upstream server connection settings. The API
// key itself lives only in the environment; the file records which
// variable to read it from.
type JellyfinConfig struct {
	Base      string `mapstructure:"base" yaml:"base"`
	APIKeyEnv string `mapstructure:"api_key_env" yaml:"api_key_env"`
	APIKey    string `mapstructure:"-" yaml:"-"` // resolved at runtime, never written
}

// DefaultsConfig remembers the working context between sessions.
type DefaultsConfig struct {
	UserID    string   `mapstructure:"user_id" yaml:"user_id,omitempty"`
	LibraryID string   `mapstructure:"library_id" yaml:"library_id,omitempty"`
	Types     []string `mapstructure:"types" yaml:"types,omitempty"`
	WriteNFO  bool     `mapstructure:"write_nfo" yaml:"write_nfo,omitempty"`
	// Backend points the client at an already-running proxy. Empty means
	// auto-start a loopback proxy in-process.
	Backend string `mapstructure:"backend" yaml:"backend,omitempty"`
}

// ServeConfig is the listener address for the standalone proxy.
type ServeConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// Addr returns the proxy listen address in host:port form.
func (s ServeConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RequireConnection reports a configuration error when the server
// address or credential is still missing. Called at the point of use so
// the message can appear before any network attempt.
func (c *Config) RequireConnection() error {
	if c.Jellyfin.Base == "" {
		return errors.New("no Jellyfin server configured: set jellyfin.base in the config file, TAGCTL_JELLYFIN_BASE, or pass --server")
	}
	if c.Jellyfin.APIKey == "" {
		env := c.Jellyfin.APIKeyEnv
		if env == "" {
			env = DefaultAPIKeyEnv
		}
		return fmt.Errorf("no API key found: set %s (or TAGCTL_API_KEY), or pass --api-key", env)
	}
	return nil
}
