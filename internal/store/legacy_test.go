package store

import (
	"errors"
	"testing"

	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/kv"
	"github.com/kilupskalvis/sitestore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateLegacy(t *testing.T) {
	st, mem, _ := newTestStore(t)
	services := countTopic(st, events.TopicServices)

	require.NoError(t, mem.Set("old_services", `[{"id":"s1","title":"Cleaning"}]`))
	require.NoError(t, mem.Set("old_team", `[{"id":"t1","name":"Legacy"}]`))
	require.NoError(t, mem.Set(string(KeyTeam), `[{"id":"t2","name":"Current"}]`))
	require.NoError(t, mem.Set("old_jobs", `not json`))
	require.NoError(t, mem.Set("old_users", `[{"id":"u1","username":"admin"}]`))
	require.NoError(t, mem.Set(string(KeyUsers), `[]`))

	report := st.MigrateLegacy([]LegacyKey{
		{Old: "old_services", New: KeyServices},
		{Old: "old_team", New: KeyTeam},
		{Old: "old_missing", New: KeyContacts},
		{Old: "old_jobs", New: KeyJobs},
		{Old: "old_users", New: KeyUsers},
	})

	assert.Equal(t, []string{"old_services", "old_users"}, report.Migrated)
	assert.Equal(t, []string{"old_team", "old_missing"}, report.Skipped)
	require.Contains(t, report.Failed, "old_jobs")

	assert.Equal(t, []models.Service{{ID: "s1", Title: "Cleaning"}}, st.Services().All())
	assert.Equal(t, 1, *services)
	assert.Equal(t, "Current", st.Team().All()[0].Name, "newer data is never overwritten")
	assert.Equal(t, "admin", st.Users().All()[0].Username, "empty targets are filled")

	_, ok, _ := mem.Get("old_services")
	assert.False(t, ok, "migrated legacy key removed")
	_, ok, _ = mem.Get("old_team")
	assert.True(t, ok, "skipped legacy key kept")
	_, ok, _ = mem.Get("old_jobs")
	assert.True(t, ok, "failed legacy key kept")
}

func TestMigrateLegacy_Idempotent(t *testing.T) {
	st, mem, _ := newTestStore(t)
	require.NoError(t, mem.Set("old_services", `[{"id":"s1","title":"Cleaning"}]`))
	pairs := []LegacyKey{{Old: "old_services", New: KeyServices}}

	first := st.MigrateLegacy(pairs)
	second := st.MigrateLegacy(pairs)

	assert.Len(t, first.Migrated, 1)
	assert.Empty(t, second.Migrated)
	assert.Equal(t, []string{"old_services"}, second.Skipped)
	assert.Len(t, st.Services().All(), 1)
}

func TestMigrateLegacy_WriteFailureIsolated(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set("old_a", `[]`))
	require.NoError(t, mem.Set("old_b", `[{"id":"j1","title":"Cleaner"}]`))
	backend := &failingBackend{Backend: mem, failKey: string(KeyContacts), err: errors.New("readonly")}
	st := New(backend, nil, Options{Logger: discardLogger()})

	report := st.MigrateLegacy([]LegacyKey{
		{Old: "old_a", New: KeyContacts},
		{Old: "old_b", New: KeyJobs},
	})

	assert.Contains(t, report.Failed, "old_a")
	assert.Equal(t, []string{"old_b"}, report.Migrated)
	assert.Len(t, st.Jobs().All(), 1)
}

func TestIsEmptyValue(t *testing.T) {
	for _, v := range []string{"", " ", "null", "[]", "{}"} {
		assert.True(t, isEmptyValue(v), v)
	}
	assert.False(t, isEmptyValue(`[{"id":"x"}]`))
}
