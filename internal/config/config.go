// Package config manages sitestore configuration and locates the data
// directory. Values come from a TOML file, then SITESTORE_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

const (
	RootDir    = ".sitestore"
	ConfigFile = "config"
	EnvPrefix  = "SITESTORE"
	// EnvDir overrides root discovery.
	EnvDir = "SITESTORE_DIR"
)

// ErrNotInitialized is returned by Load when no configuration file exists.
var ErrNotInitialized = errors.New("sitestore is not initialized (run sitestore init)")

// Config is the sitestore configuration.
type Config struct {
	Backend                string            `toml:"backend" envconfig:"BACKEND"`
	AppVersion             string            `toml:"app_version" envconfig:"APP_VERSION"`
	QuotaBytes             int64             `toml:"quota_bytes" envconfig:"QUOTA_BYTES"`
	BytesPerChar           int               `toml:"bytes_per_char" envconfig:"BYTES_PER_CHAR"`
	WarnThreshold          float64           `toml:"warn_threshold" envconfig:"WARN_THRESHOLD"`
	UsageCacheSeconds      int               `toml:"usage_cache_seconds" envconfig:"USAGE_CACHE_SECONDS"`
	WarningCooldownSeconds int               `toml:"warning_cooldown_seconds" envconfig:"WARNING_COOLDOWN_SECONDS"`
	ActivityRetentionDays  int               `toml:"activity_retention_days" envconfig:"ACTIVITY_RETENTION_DAYS"`
	SyncIntervalMS         int               `toml:"sync_interval_ms" envconfig:"SYNC_INTERVAL_MS"`
	WebhookURLs            []string          `toml:"webhook_urls" envconfig:"WEBHOOK_URLS"`
	LegacyKeys             map[string]string `toml:"legacy_keys" envconfig:"LEGACY_KEYS"`
	LogLevel               string            `toml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat              string            `toml:"log_format" envconfig:"LOG_FORMAT"`

	path string // root directory
}

// Default returns the default configuration, not bound to a directory.
func Default() *Config {
	return &Config{
		Backend:                "bbolt",
		AppVersion:             "1.0.0",
		QuotaBytes:             5 * 1024 * 1024,
		BytesPerChar:           2,
		WarnThreshold:          0.8,
		UsageCacheSeconds:      10,
		WarningCooldownSeconds: 60,
		ActivityRetentionDays:  30,
		SyncIntervalMS:         500,
		WebhookURLs:            []string{},
		LegacyKeys:             map[string]string{},
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// FindRoot returns the data directory: $SITESTORE_DIR, else the nearest
// .sitestore directory walking up from the working directory, else the XDG
// data directory.
func FindRoot() (string, error) {
	if explicit := os.Getenv(EnvDir); explicit != "" {
		return explicit, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, RootDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return DataHome(), nil
}

// DataHome returns the per-user data directory.
func DataHome() string {
	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "sitestore")
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "sitestore")
}

// Load reads the configuration from the discovered root and applies
// environment overrides.
func Load() (*Config, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(root)
}

// LoadFrom reads the configuration from root and applies environment
// overrides. Fields missing from the file keep their defaults.
func LoadFrom(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.path = root
	return cfg, nil
}

// Initialize creates root and writes the default configuration there.
func Initialize(root string) (*Config, error) {
	if _, err := os.Stat(filepath.Join(root, ConfigFile)); err == nil {
		return nil, fmt.Errorf("sitestore already initialized at %s", root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", root, err)
	}

	cfg := Default()
	cfg.path = root
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to its root.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no root directory")
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(c.path, ConfigFile), data, 0o644)
}

// Validate rejects values the store cannot run with.
func (c *Config) Validate() error {
	switch c.Backend {
	case "bbolt", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}
	if c.QuotaBytes <= 0 {
		return fmt.Errorf("quota_bytes must be positive, got %d", c.QuotaBytes)
	}
	if c.WarnThreshold <= 0 || c.WarnThreshold > 1 {
		return fmt.Errorf("warn_threshold must be in (0, 1], got %v", c.WarnThreshold)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log_format %q", c.LogFormat)
	}
	return nil
}

// Root returns the data directory.
func (c *Config) Root() string {
	return c.path
}

func (c *Config) UsageCacheTTL() time.Duration {
	return time.Duration(c.UsageCacheSeconds) * time.Second
}

func (c *Config) WarningCooldown() time.Duration {
	return time.Duration(c.WarningCooldownSeconds) * time.Second
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMS) * time.Millisecond
}
