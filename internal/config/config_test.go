package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_WritesDefaults(t *testing.T) {
	root := filepath.Join(t.TempDir(), RootDir)

	cfg, err := Initialize(root)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root())

	loaded, err := LoadFrom(root)
	require.NoError(t, err)
	assert.Equal(t, "bbolt", loaded.Backend)
	assert.Equal(t, int64(5*1024*1024), loaded.QuotaBytes)
	assert.Equal(t, 30, loaded.ActivityRetentionDays)
	assert.Equal(t, 10*time.Second, loaded.UsageCacheTTL())
	assert.Equal(t, 500*time.Millisecond, loaded.SyncInterval())
}

func TestInitialize_AlreadyExists(t *testing.T) {
	root := t.TempDir()
	_, err := Initialize(root)
	require.NoError(t, err)

	_, err = Initialize(root)
	assert.Error(t, err)
}

func TestLoadFrom_NotInitialized(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	root := t.TempDir()
	content := `
backend = "sqlite"
quota_bytes = 1024

[legacy_keys]
services = "sitestore_services"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFile), []byte(content), 0o644))

	cfg, err := LoadFrom(root)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, int64(1024), cfg.QuotaBytes)
	assert.Equal(t, 2, cfg.BytesPerChar)
	assert.Equal(t, map[string]string{"services": "sitestore_services"}, cfg.LegacyKeys)
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	_, err := Initialize(root)
	require.NoError(t, err)

	t.Setenv("SITESTORE_BACKEND", "memory")
	t.Setenv("SITESTORE_QUOTA_BYTES", "2048")
	t.Setenv("SITESTORE_WEBHOOK_URLS", "http://a.test/hook,http://b.test/hook")

	cfg, err := LoadFrom(root)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, int64(2048), cfg.QuotaBytes)
	assert.Equal(t, []string{"http://a.test/hook", "http://b.test/hook"}, cfg.WebhookURLs)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFrom_RejectsBadValues(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFile), []byte(`backend = "redis"`), 0o644))

	_, err := LoadFrom(root)
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestSave_PersistsChanges(t *testing.T) {
	root := t.TempDir()
	cfg, err := Initialize(root)
	require.NoError(t, err)

	cfg.WebhookURLs = []string{"http://hooks.test"}
	require.NoError(t, cfg.Save())

	loaded, err := LoadFrom(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://hooks.test"}, loaded.WebhookURLs)
}

func TestFindRoot_EnvWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDir, dir)

	root, err := FindRoot()
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestFindRoot_WalksUp(t *testing.T) {
	t.Setenv(EnvDir, "")
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, RootDir), 0o755))
	nested := filepath.Join(base, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	root, err := FindRoot()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(base, RootDir))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindRoot_FallsBackToDataHome(t *testing.T) {
	t.Setenv(EnvDir, "")
	t.Setenv("XDG_DATA_HOME", filepath.Join(t.TempDir(), "data"))
	t.Chdir(t.TempDir())

	root, err := FindRoot()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_DATA_HOME"), "sitestore"), root)
}
