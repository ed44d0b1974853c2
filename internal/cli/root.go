// Package cli implements the sitestore command-line interface.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/kilupskalvis/sitestore/internal/config"
	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/kv"
	"github.com/kilupskalvis/sitestore/internal/notify"
	"github.com/kilupskalvis/sitestore/internal/store"
	"github.com/spf13/cobra"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config   *config.Config
	Logger   *slog.Logger
	Backend  kv.Backend
	Bus      *events.Bus
	Store    *store.Store
	Webhooks *notify.WebhookNotifier

	closed bool
}

// Close waits for pending webhook deliveries and releases the backend.
func (c *cmdContext) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.Webhooks.Wait()
	if c.Backend != nil {
		if err := c.Backend.Close(); err != nil {
			c.Logger.Warn("close backend", "error", err)
		}
	}
}

// fail releases resources, then prints an error and exits.
func (c *cmdContext) fail(format string, args ...interface{}) {
	c.Close()
	exitError(format, args...)
}

// initContext loads config, opens the backend and runs the legacy migration.
func initContext() *cmdContext {
	c := initContextNoMigrate()
	report := c.Store.MigrateLegacy(legacyPairs(c.Config.LegacyKeys, c.Logger))
	if len(report.Migrated) > 0 || len(report.Failed) > 0 {
		c.Logger.Info("legacy migration", "migrated", len(report.Migrated), "failed", len(report.Failed))
	}
	return c
}

func initContextNoMigrate() *cmdContext {
	cfg, err := loadConfig()
	if err != nil {
		exitError("%v", err)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	backend, err := kv.Open(cfg.Backend, cfg.Root())
	if err != nil {
		exitError("failed to open %s backend: %v", cfg.Backend, err)
	}
	if sq, ok := backend.(*kv.SQLite); ok && cfg.SyncInterval() > 0 {
		sq.PollInterval = cfg.SyncInterval()
	}
	quota := kv.WithQuota(backend, cfg.QuotaBytes, cfg.BytesPerChar)

	bus := events.NewBus(logger)
	webhooks := notify.NewWebhookNotifier(&notify.WebhookConfig{URLs: cfg.WebhookURLs}, logger)
	webhooks.Attach(bus)

	st := store.New(quota, bus, store.Options{
		Logger:          logger,
		Actor:           func() string { return actorFlag },
		Quota:           quotaConfig(cfg),
		RetentionDays:   cfg.ActivityRetentionDays,
		OnQuotaExceeded: webhooks.NotifyQuotaExceeded,
	})

	return &cmdContext{
		Config:   cfg,
		Logger:   logger,
		Backend:  quota,
		Bus:      bus,
		Store:    st,
		Webhooks: webhooks,
	}
}

func loadConfig() (*config.Config, error) {
	if dirFlag != "" {
		return config.LoadFrom(dirFlag)
	}
	return config.Load()
}

func quotaConfig(cfg *config.Config) store.QuotaConfig {
	qc := store.QuotaConfig{
		QuotaBytes:      cfg.QuotaBytes,
		BytesPerChar:    cfg.BytesPerChar,
		WarnThreshold:   cfg.WarnThreshold,
		UsageCacheTTL:   cfg.UsageCacheTTL(),
		WarningCooldown: cfg.WarningCooldown(),
	}
	// Zero seconds in the file means no caching, not "use the default".
	if cfg.UsageCacheSeconds == 0 {
		qc.UsageCacheTTL = -1
	}
	return qc
}

// legacyPairs turns the configured old->new mapping into migration pairs in a
// stable order. Targets that are not store keys are dropped.
func legacyPairs(m map[string]string, logger *slog.Logger) []store.LegacyKey {
	olds := make([]string, 0, len(m))
	for old := range m {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	pairs := make([]store.LegacyKey, 0, len(olds))
	for _, old := range olds {
		target := store.Key(m[old])
		if _, ok := store.TopicFor(target); !ok {
			logger.Warn("legacy key target is not a store key", "old_key", old, "new_key", target)
			continue
		}
		pairs = append(pairs, store.LegacyKey{Old: old, New: target})
	}
	return pairs
}

// newLogger builds the process logger from a level and a format name.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

var (
	dirFlag   string
	actorFlag string
)

var rootCmd = &cobra.Command{
	Use:   "sitestore",
	Short: "Local data store for the site",
	Long: `sitestore manages the local data store behind the website: content
collections, form submissions, the activity log and backups. Writes stay
under a fixed storage quota; old submissions are evicted when it is full.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Data directory (default: $SITESTORE_DIR, then the nearest .sitestore, then the XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "User recorded in the activity log")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(watchCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
