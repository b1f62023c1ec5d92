package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvRapidAPIKey  = "RAPIDAPI_KEY"
	EnvRapidAPIHost = "RAPIDAPI_HOST"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Lyrics   LyricsConfig   `toml:"lyrics"`
	Hub      HubConfig      `toml:"hub"`
	Cache    CacheConfig    `toml:"cache"`
	Database DatabaseConfig `toml:"database"`
	Charts   ChartsConfig   `toml:"charts"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig points at the ytmusicapi proxy.
type CatalogConfig struct {
	ProxyURL         string   `toml:"proxy_url"`
	SearchCandidates int      `toml:"search_candidates"`
	Timeout          Duration `toml:"timeout"`
}

// LyricsConfig holds the lyrics fallback credentials and segmentation settings.
type LyricsConfig struct {
	RapidAPIKey  string   `toml:"rapidapi_key"`
	RapidAPIHost string   `toml:"rapidapi_host"`
	Delay        Duration `toml:"delay"`
	Timeout      Duration `toml:"timeout"`
	GapThreshold float64  `toml:"gap_threshold"`
}

// HubConfig contains synchronization hub settings.
type HubConfig struct {
	DefaultVolume      int      `toml:"default_volume"`
	WriteTimeout       Duration `toml:"write_timeout"`
	DefaultStartOffset int      `toml:"default_start_offset"`
}

// CacheConfig sizes the aggregation result cache.
type CacheConfig struct {
	Size int      `toml:"size"`
	TTL  Duration `toml:"ttl"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ChartsConfig controls the background chart catalog build.
type ChartsConfig struct {
	MaxWorkers   int    `toml:"max_workers"`
	PlaylistSize int    `toml:"playlist_size"`
	Country      string `toml:"country"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// ParsedLevel returns the configured [log.Level], defaulting to info.
func (l LogConfig) ParsedLevel() log.Level {
	if lvl, err := log.ParseLevel(l.Level); err == nil {
		return lvl
	}
	return log.InfoLevel
}

// Duration decodes TOML strings like "500ms" into a [time.Duration].
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidConfig, text)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Missing keys keep the embedded defaults and environment credentials override the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	return config, nil
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

func (c *Config) applyEnv() {
	if key := os.Getenv(EnvRapidAPIKey); key != "" {
		c.Lyrics.RapidAPIKey = key
	}
	if host := os.Getenv(EnvRapidAPIHost); host != "" {
		c.Lyrics.RapidAPIHost = host
	}
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
