package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const appName = "spotx"

// Config represents the application settings loaded from a TOML file.
type Config struct {
	Spotify     SpotifyConfig     `toml:"spotify"`
	Credentials CredentialsConfig `toml:"credentials"`
	Cache       CacheConfig       `toml:"cache"`
	Resolver    ResolverConfig    `toml:"resolver"`
	Log         LogConfig         `toml:"log"`
}

// SpotifyConfig contains the authorization server and catalog API endpoints.
type SpotifyConfig struct {
	AccountsURL  string `toml:"accounts_url"`
	APIURL       string `toml:"api_url"`
	RedirectURI  string `toml:"redirect_uri"`
	Scope        string `toml:"scope"`
	CallbackAddr string `toml:"callback_addr"`
}

// CredentialsConfig locates the credential store file.
type CredentialsConfig struct {
	Path       string `toml:"path"`
	LegacyPath string `toml:"legacy_path"`
}

// CacheConfig contains search cache settings.
type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	Path    string   `toml:"path"`
	TTL     Duration `toml:"ttl"`
}

// ResolverConfig contains batch search settings.
type ResolverConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration wraps [time.Duration] so it can be written as a string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigDir returns the per-user directory holding spotx settings and credentials.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultConfigPath returns the settings file location.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CredentialsPath resolves the credential store location, defaulting to the config dir.
func (c *Config) CredentialsPath() (string, error) {
	if c.Credentials.Path != "" {
		return ExpandHome(c.Credentials.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.toml"), nil
}

// LegacyPath resolves the legacy settings file, or "" when none is configured.
func (c *Config) LegacyPath() (string, error) {
	if c.Credentials.LegacyPath == "" {
		return "", nil
	}
	return ExpandHome(c.Credentials.LegacyPath)
}

// CachePath resolves the search cache database location.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return ExpandHome(c.Cache.Path)
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache dir: %w", err)
	}
	return filepath.Join(dir, appName, "cache.db"), nil
}

// ExpandHome replaces a leading "~" with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
