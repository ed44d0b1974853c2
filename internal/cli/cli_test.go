package cli

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kilupskalvis/sitestore/internal/config"
	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/kv"
	"github.com/kilupskalvis/sitestore/internal/models"
	"github.com/kilupskalvis/sitestore/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}

func TestNewLogger_DefaultsToTextInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("bogus", "", &buf)

	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestLegacyPairs_SortedAndFiltered(t *testing.T) {
	pairs := legacyPairs(map[string]string{
		"team":     string(store.KeyTeam),
		"services": string(store.KeyServices),
		"bogus":    "not_a_key",
	}, discardLogger())

	assert.Equal(t, []store.LegacyKey{
		{Old: "services", New: store.KeyServices},
		{Old: "team", New: store.KeyTeam},
	}, pairs)
}

func TestQuotaConfig_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.QuotaBytes = 4096
	cfg.WarningCooldownSeconds = 5

	qc := quotaConfig(cfg)
	assert.Equal(t, int64(4096), qc.QuotaBytes)
	assert.Equal(t, 2, qc.BytesPerChar)
	assert.Equal(t, 10*time.Second, qc.UsageCacheTTL)
	assert.Equal(t, 5*time.Second, qc.WarningCooldown)

	cfg.UsageCacheSeconds = 0
	assert.Negative(t, int64(quotaConfig(cfg).UsageCacheTTL))
}

func TestCollectionViews_ListAndDelete(t *testing.T) {
	mem := kv.NewMemory()
	defer mem.Close()
	st := store.New(mem, events.NewBus(discardLogger()), store.Options{Logger: discardLogger()})
	require.NoError(t, st.Contacts().Replace([]models.Contact{
		{ID: "c1", Name: "Cy", Email: "cy@example.com"},
		{ID: "c2", Name: "Di", Email: "di@example.com"},
	}))

	view, err := lookupView("Contacts")
	require.NoError(t, err)

	rows := view.rows(st)
	require.Len(t, rows, 2)
	assert.Equal(t, "c1", rows[0][0])
	assert.Len(t, rows[0], len(view.header))

	removed, err := view.delete(st, "c1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, st.Contacts().All(), 1)
}

func TestLookupView_Unknown(t *testing.T) {
	_, err := lookupView("widgets")
	assert.ErrorContains(t, err, "unknown collection")
}

func TestCollectionNames_CoverEveryCollection(t *testing.T) {
	assert.Equal(t, []string{
		"applications", "contacts", "jobs", "newsletter",
		"services", "team", "testimonials", "users",
	}, collectionNames())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "5.0 MiB", formatBytes(5*1024*1024))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "ñá…", truncate("ñáéíó", 3))
}

func TestWriteCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeCompletion(rootCmd, shell, &buf))
			assert.Contains(t, buf.String(), "sitestore")
		})
	}

	assert.Error(t, writeCompletion(rootCmd, "tcsh", io.Discard))
}
