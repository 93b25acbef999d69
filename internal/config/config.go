package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultAPIKeyEnv is the environment variable the API key is read from
// when the config does not name another one.
const DefaultAPIKeyEnv = "JELLYFIN_API_KEY"

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tagctl", "config.yml")
}

// Path returns the active config file path: $TAGCTL_CONFIG when set, the
// default otherwise.
func Path() string {
	if p := os.Getenv("TAGCTL_CONFIG"); p != "" {
		return p
	}
	return DefaultPath()
}

// Load reads the config from disk and the environment. A missing file is
// not an error — first runs start from defaults and the pickers fill in
// the rest.
func Load() (*Config, error) {
	v := viper.New()

	// Empty defaults register the keys so AutomaticEnv can see them.
	v.SetDefault("jellyfin.base", "")
	v.SetDefault("jellyfin.api_key_env", DefaultAPIKeyEnv)
	v.SetDefault("defaults.user_id", "")
	v.SetDefault("defaults.library_id", "")
	v.SetDefault("defaults.write_nfo", false)
	v.SetDefault("defaults.backend", "")
	v.SetDefault("serve.host", "127.0.0.1")
	v.SetDefault("serve.port", 8080)

	v.SetEnvPrefix("TAGCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(Path())

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Resolve the credential from env (never stored in the file).
	keyEnv := cfg.Jellyfin.APIKeyEnv
	if keyEnv == "" {
		keyEnv = DefaultAPIKeyEnv
	}
	cfg.Jellyfin.APIKey = os.Getenv(keyEnv)
	if cfg.Jellyfin.APIKey == "" {
		cfg.Jellyfin.APIKey = os.Getenv("TAGCTL_API_KEY")
	}

	return &cfg, nil
}

// Save writes the config to the active path. Callers gate this on the
// user's remember choice; Save itself always writes.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(cfg)
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
