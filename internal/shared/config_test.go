package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Spotify.AccountsURL != "https://accounts.spotify.com" {
			t.Errorf("expected accounts URL https://accounts.spotify.com, got %s", config.Spotify.AccountsURL)
		}

		if config.Spotify.RedirectURI != "http://localhost:8888" {
			t.Errorf("expected redirect URI http://localhost:8888, got %s", config.Spotify.RedirectURI)
		}

		if config.Spotify.CallbackAddr != ":8888" {
			t.Errorf("expected callback addr :8888, got %s", config.Spotify.CallbackAddr)
		}

		if config.Spotify.Scope != "playlist-modify-public" {
			t.Errorf("expected scope playlist-modify-public, got %s", config.Spotify.Scope)
		}

		if config.Cache.TTL.Duration != 168*time.Hour {
			t.Errorf("expected cache ttl 168h, got %v", config.Cache.TTL)
		}

		if config.Resolver.Workers != 4 {
			t.Errorf("expected 4 resolver workers, got %d", config.Resolver.Workers)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Spotify.APIURL != defaultConfig.Spotify.APIURL {
			t.Errorf("created config api url doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[spotify]
accounts_url = "http://127.0.0.1:9999"
callback_addr = "127.0.0.1:9000"

[cache]
enabled = false
ttl = "30m"

[resolver]
workers = 8
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Spotify.AccountsURL != "http://127.0.0.1:9999" {
			t.Errorf("expected overridden accounts URL, got %s", config.Spotify.AccountsURL)
		}

		if config.Spotify.APIURL != "https://api.spotify.com/v1" {
			t.Errorf("expected default api URL to survive, got %s", config.Spotify.APIURL)
		}

		if config.Cache.Enabled {
			t.Error("expected cache to be disabled")
		}

		if config.Cache.TTL.Duration != 30*time.Minute {
			t.Errorf("expected ttl 30m, got %v", config.Cache.TTL)
		}

		if config.Resolver.Workers != 8 {
			t.Errorf("expected 8 workers, got %d", config.Resolver.Workers)
		}
	})

	t.Run("LoadConfig rejects bad duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[cache]\nttl = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid duration")
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "out", "config.toml")
		config := DefaultConfig()
		config.Log.Level = "debug"
		config.Cache.TTL = Duration{time.Hour}

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload: %v", err)
		}
		if loaded.Log.Level != "debug" || loaded.Cache.TTL.Duration != time.Hour {
			t.Errorf("round trip lost values: %+v", loaded)
		}
	})

	t.Run("paths", func(t *testing.T) {
		config := DefaultConfig()
		config.Credentials.Path = "/tmp/spotx/credentials.toml"
		config.Cache.Path = "/tmp/spotx/cache.db"

		if p, err := config.CredentialsPath(); err != nil || p != "/tmp/spotx/credentials.toml" {
			t.Errorf("CredentialsPath() = %q, %v", p, err)
		}
		if p, err := config.CachePath(); err != nil || p != "/tmp/spotx/cache.db" {
			t.Errorf("CachePath() = %q, %v", p, err)
		}

		config.Credentials.LegacyPath = ""
		if p, err := config.LegacyPath(); err != nil || p != "" {
			t.Errorf("LegacyPath() = %q, %v", p, err)
		}
	})

	t.Run("ExpandHome", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}

		got, err := ExpandHome("~/.config/spotify/config.yaml")
		if err != nil {
			t.Fatalf("ExpandHome failed: %v", err)
		}
		if !strings.HasPrefix(got, home) || !strings.HasSuffix(got, filepath.Join(".config", "spotify", "config.yaml")) {
			t.Errorf("ExpandHome() = %q", got)
		}

		if got, _ := ExpandHome("/abs/path"); got != "/abs/path" {
			t.Errorf("absolute path changed: %q", got)
		}
	})
}
