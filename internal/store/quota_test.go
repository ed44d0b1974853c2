package store

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/kv"
	"github.com/kilupskalvis/sitestore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usageOf(t *testing.T, b kv.Backend) int64 {
	t.Helper()
	var total int64
	require.NoError(t, b.ForEach(func(k, v string) error {
		total += kv.Footprint(k, v, 2)
		return nil
	}))
	return total
}

func seedContacts(t *testing.T, b kv.Backend, n int) []models.Contact {
	t.Helper()
	contacts := make([]models.Contact, 0, n)
	// Stored newest first so eviction has to sort.
	for i := n; i >= 1; i-- {
		contacts = append(contacts, models.Contact{
			ID:          "c" + string(rune('a'+i)),
			Name:        "Visitor",
			Email:       "visitor@example.com",
			Message:     strings.Repeat("m", 200),
			SubmittedAt: at(i),
		})
	}
	st := New(b, nil, Options{Logger: discardLogger()})
	require.NoError(t, st.Contacts().Replace(contacts))
	return contacts
}

func TestQuotaConfig_Defaults(t *testing.T) {
	cfg := QuotaConfig{}.withDefaults()

	assert.Equal(t, int64(DefaultQuotaBytes), cfg.QuotaBytes)
	assert.Equal(t, DefaultBytesPerChar, cfg.BytesPerChar)
	assert.Equal(t, DefaultWarnThreshold, cfg.WarnThreshold)
	assert.Equal(t, DefaultUsageCacheTTL, cfg.UsageCacheTTL)
	assert.Equal(t, DefaultWarningCooldown, cfg.WarningCooldown)

	assert.Equal(t, time.Duration(0), QuotaConfig{UsageCacheTTL: -1}.withDefaults().UsageCacheTTL)
}

func TestQuotaMonitor_State(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set("x", strings.Repeat("a", 39))) // 80 bytes
	st := New(mem, nil, Options{Logger: discardLogger(), Quota: QuotaConfig{QuotaBytes: 100, UsageCacheTTL: -1}})

	state := st.Quota().State()
	assert.Equal(t, int64(80), state.UsageBytes)
	assert.InDelta(t, 80.0, state.UsagePercentage, 0.001)
	assert.Equal(t, int64(100), state.QuotaBytes)
	assert.False(t, state.NearCapacity, "exactly at threshold is not above it")

	cfg := st.Quota().Config()
	assert.Equal(t, int64(100), cfg.QuotaBytes)
	assert.Equal(t, DefaultWarnThreshold, cfg.WarnThreshold)
	assert.Equal(t, time.Duration(0), cfg.UsageCacheTTL)

	require.NoError(t, mem.Set("y", ""))
	assert.True(t, st.Quota().State().NearCapacity)
}

func TestEstimator_CachesWithinTTL(t *testing.T) {
	mem := kv.NewMemory()
	clock := newTestClock()
	st := New(mem, nil, Options{Logger: discardLogger(), Now: clock.Now})

	require.NoError(t, mem.Set("a", "1"))
	assert.Equal(t, int64(4), st.Quota().State().UsageBytes)

	require.NoError(t, mem.Set("b", "2"))
	assert.Equal(t, int64(4), st.Quota().State().UsageBytes, "cached")

	clock.Advance(11 * time.Second)
	assert.Equal(t, int64(8), st.Quota().State().UsageBytes)

	require.NoError(t, mem.Set("c", "3"))
	st.Quota().Invalidate()
	assert.Equal(t, int64(12), st.Quota().State().UsageBytes)
}

func TestQuotaMonitor_WarningThrottled(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set("x", strings.Repeat("a", 45)))
	clock := newTestClock()
	st := New(mem, nil, Options{
		Logger: discardLogger(),
		Now:    clock.Now,
		Quota:  QuotaConfig{QuotaBytes: 100, UsageCacheTTL: -1, WarningCooldown: time.Minute},
	})

	var warnings []QuotaState
	st.Bus().Subscribe(events.TopicStorageWarning, func(e events.Event) {
		warnings = append(warnings, e.Data.(QuotaState))
	})

	assert.True(t, st.Quota().CheckNearCapacity())
	assert.True(t, st.Quota().CheckNearCapacity())
	require.Len(t, warnings, 1)
	assert.True(t, warnings[0].NearCapacity)

	// Writes check capacity first and share the same throttle.
	require.NoError(t, st.Jobs().Replace(nil))
	assert.Len(t, warnings, 1)

	clock.Advance(61 * time.Second)
	st.Quota().CheckNearCapacity()
	assert.Len(t, warnings, 2)
}

func TestQuotaMonitor_NoWarningBelowThreshold(t *testing.T) {
	st, _, _ := newTestStore(t)
	n := countTopic(st, events.TopicStorageWarning)

	assert.False(t, st.Quota().CheckNearCapacity())
	assert.Equal(t, 0, *n)
}

// ==================== Eviction ====================

func TestEvict_RemovesOldestFifthPerCollection(t *testing.T) {
	mem := kv.NewMemory()
	seedContacts(t, mem, 10)
	st := New(mem, nil, Options{Logger: discardLogger()})
	require.NoError(t, st.Services().Replace([]models.Service{{ID: "s1", Title: "Keep me"}}))
	n := countTopic(st, events.TopicContacts)

	ok := st.Evict(1)

	assert.True(t, ok)
	assert.Equal(t, 1, *n)
	remaining := st.Contacts().All()
	require.Len(t, remaining, 8)
	for _, c := range remaining {
		assert.True(t, c.SubmittedAt.After(at(2)), "oldest two removed, got %s", c.SubmittedAt)
	}
	// Survivors keep stored (newest-first) order.
	assert.Equal(t, at(10), remaining[0].SubmittedAt)
	assert.Equal(t, at(3), remaining[7].SubmittedAt)

	assert.Len(t, st.Services().All(), 1, "content collections are never evicted")
}

func TestEvict_ReportsInsufficientFreedBytes(t *testing.T) {
	mem := kv.NewMemory()
	seedContacts(t, mem, 10)
	st := New(mem, nil, Options{Logger: discardLogger()})

	ok := st.Evict(1 << 30)

	assert.False(t, ok)
	assert.LessOrEqual(t, len(st.Contacts().All()), 8)
}

func TestEvict_EachCollectionIndependently(t *testing.T) {
	mem := kv.NewMemory()
	seedContacts(t, mem, 5)
	st := New(mem, nil, Options{Logger: discardLogger()})
	require.NoError(t, st.Subscribers().Replace([]models.Subscriber{
		{ID: "n1", Email: "a@example.com", SubscribedAt: at(2)},
		{ID: "n2", Email: "b@example.com", SubscribedAt: at(1)},
		{ID: "n3", Email: "c@example.com", SubscribedAt: at(3)},
	}))
	// Applications are corrupt; eviction must still process the others.
	require.NoError(t, mem.Set(string(KeyApplications), "{bad"))

	st.Evict(1)

	assert.Len(t, st.Contacts().All(), 4)
	subs := st.Subscribers().All()
	require.Len(t, subs, 2)
	assert.Equal(t, "n1", subs[0].ID)
	assert.Equal(t, "n3", subs[1].ID)
}

func TestEvict_SaveFailureDoesNotBlockOthers(t *testing.T) {
	mem := kv.NewMemory()
	seedContacts(t, mem, 5)
	seed := New(mem, nil, Options{Logger: discardLogger()})
	require.NoError(t, seed.Applications().Replace([]models.Application{
		{ID: "a1", AppliedAt: at(1)}, {ID: "a2", AppliedAt: at(2)},
	}))

	backend := &failingBackend{Backend: mem, failKey: string(KeyContacts), err: errors.New("locked")}
	st := New(backend, nil, Options{Logger: discardLogger()})

	st.Evict(1)

	assert.Len(t, st.Contacts().All(), 5)
	assert.Len(t, st.Applications().All(), 1)
}

func TestSetCollection_EvictsAndRetriesOnQuota(t *testing.T) {
	mem := kv.NewMemory()
	seedContacts(t, mem, 10)
	quota := usageOf(t, mem) + 50

	var observed []*StorageQuotaError
	st := New(kv.WithQuota(mem, quota, 2), nil, Options{
		Logger:          discardLogger(),
		Quota:           QuotaConfig{QuotaBytes: quota},
		OnQuotaExceeded: func(e *StorageQuotaError) { observed = append(observed, e) },
	})
	services := countTopic(st, events.TopicServices)

	err := st.Services().Replace([]models.Service{{ID: "s1", Title: strings.Repeat("t", 100)}})

	require.NoError(t, err)
	assert.Len(t, st.Services().All(), 1)
	assert.Len(t, st.Contacts().All(), 8)
	assert.Equal(t, 1, *services)
	assert.Empty(t, observed)
}

func TestSetCollection_QuotaErrorWhenEvictionInsufficient(t *testing.T) {
	mem := kv.NewMemory()
	seedContacts(t, mem, 10)
	quota := usageOf(t, mem) + 50

	var observed []*StorageQuotaError
	st := New(kv.WithQuota(mem, quota, 2), nil, Options{
		Logger:          discardLogger(),
		Quota:           QuotaConfig{QuotaBytes: quota},
		OnQuotaExceeded: func(e *StorageQuotaError) { observed = append(observed, e) },
	})
	services := countTopic(st, events.TopicServices)

	err := st.Services().Replace([]models.Service{{ID: "s1", Title: strings.Repeat("t", 20000)}})

	require.Error(t, err)
	assert.ErrorIs(t, err, kv.ErrQuotaExceeded)

	var qerr *StorageQuotaError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, string(KeyServices), qerr.Key)
	assert.Equal(t, quota, qerr.QuotaBytes)
	assert.Greater(t, qerr.UsageBytes, int64(0))
	assert.Greater(t, qerr.UsagePercentage, 0.0)
	assert.Contains(t, qerr.Error(), "storage quota exceeded")

	require.Len(t, observed, 1)
	assert.Same(t, qerr, observed[0])
	assert.Equal(t, 0, *services)
	assert.Empty(t, st.Services().All())
}

func TestSetCollection_EvictionSkipsCollectionBeingWritten(t *testing.T) {
	mem := kv.NewMemory()
	seedContacts(t, mem, 10)
	quota := usageOf(t, mem) + 50

	st := New(kv.WithQuota(mem, quota, 2), nil, Options{
		Logger: discardLogger(),
		Quota:  QuotaConfig{QuotaBytes: quota},
	})

	err := st.Contacts().Add(models.Contact{
		ID:          "c-new",
		Name:        "Late visitor",
		Message:     strings.Repeat("n", 200),
		SubmittedAt: at(20),
	})

	require.ErrorIs(t, err, kv.ErrQuotaExceeded)
	assert.Len(t, st.Contacts().All(), 10, "no contacts are dropped when the write still fails")
}

func TestSetCollection_EvictsOtherSubmissionsForNewContact(t *testing.T) {
	mem := kv.NewMemory()
	seedContacts(t, mem, 10)
	seed := New(mem, nil, Options{Logger: discardLogger()})
	subs := make([]models.Subscriber, 0, 10)
	for i := 1; i <= 10; i++ {
		subs = append(subs, models.Subscriber{
			ID:           "n" + string(rune('a'+i)),
			Email:        "reader@example.com",
			Name:         strings.Repeat("r", 300),
			SubscribedAt: at(i),
		})
	}
	require.NoError(t, seed.Subscribers().Replace(subs))
	quota := usageOf(t, mem) + 50

	st := New(kv.WithQuota(mem, quota, 2), nil, Options{
		Logger: discardLogger(),
		Quota:  QuotaConfig{QuotaBytes: quota},
	})

	err := st.Contacts().Add(models.Contact{
		ID:          "c-new",
		Name:        "Late visitor",
		Message:     strings.Repeat("n", 200),
		SubmittedAt: at(20),
	})

	require.NoError(t, err)
	contacts := st.Contacts().All()
	assert.Len(t, contacts, 11)
	assert.Equal(t, "c-new", contacts[10].ID)

	remaining := st.Subscribers().All()
	require.Len(t, remaining, 8)
	assert.Equal(t, "nd", remaining[0].ID, "the two oldest subscribers are evicted")
}
