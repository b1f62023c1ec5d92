package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		t.Setenv(EnvRapidAPIKey, "")
		config := DefaultConfig()

		if config.Database.Path != ":memory:" {
			t.Errorf("expected database path :memory:, got %s", config.Database.Path)
		}

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}

		if config.Catalog.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("expected catalog proxy URL http://127.0.0.1:8080, got %s", config.Catalog.ProxyURL)
		}

		if config.Lyrics.GapThreshold != 8.0 {
			t.Errorf("expected gap threshold 8.0, got %v", config.Lyrics.GapThreshold)
		}

		if config.Lyrics.Delay.Duration != 500*time.Millisecond {
			t.Errorf("expected lyrics delay 500ms, got %v", config.Lyrics.Delay)
		}

		if config.Hub.DefaultVolume != 100 {
			t.Errorf("expected default volume 100, got %d", config.Hub.DefaultVolume)
		}

		if config.Hub.DefaultStartOffset != 20 {
			t.Errorf("expected default start offset 20, got %d", config.Hub.DefaultStartOffset)
		}

		if config.Lyrics.RapidAPIKey != "" {
			t.Errorf("expected empty RapidAPI key, got %s", config.Lyrics.RapidAPIKey)
		}

		if config.Server.Addr() != "127.0.0.1:8000" {
			t.Errorf("unexpected addr %s", config.Server.Addr())
		}
	})

	t.Run("environment overrides credentials", func(t *testing.T) {
		t.Setenv(EnvRapidAPIKey, "from-env")
		t.Setenv(EnvRapidAPIHost, "lyrics.example.com")

		config := DefaultConfig()
		if config.Lyrics.RapidAPIKey != "from-env" {
			t.Errorf("expected key from env, got %s", config.Lyrics.RapidAPIKey)
		}
		if config.Lyrics.RapidAPIHost != "lyrics.example.com" {
			t.Errorf("expected host from env, got %s", config.Lyrics.RapidAPIHost)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

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
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 9000

[cache]
ttl = "1m"

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 9000 {
			t.Errorf("expected server port 9000, got %d", config.Server.Port)
		}

		if config.Cache.TTL.Duration != time.Minute {
			t.Errorf("expected cache ttl 1m, got %v", config.Cache.TTL)
		}

		if config.Catalog.SearchCandidates != 3 {
			t.Errorf("expected unset keys to keep defaults, got search_candidates=%d", config.Catalog.SearchCandidates)
		}

		if config.Log.ParsedLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", config.Log.ParsedLevel())
		}
	})

	t.Run("LoadConfig errors", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig for missing file, got %v", err)
		}

		configPath := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(configPath, []byte("[cache]\nttl = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for malformed duration, got %v", err)
		}
	})

	t.Run("unknown log level falls back to info", func(t *testing.T) {
		if lvl := (LogConfig{Level: "loud"}).ParsedLevel(); lvl != log.InfoLevel {
			t.Errorf("expected info level, got %v", lvl)
		}
	})
}
