package notify

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder collects decoded webhook payloads.
type recorder struct {
	mu       sync.Mutex
	received []QuotaEvent
	calls    int
	status   int
}

func (r *recorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls++
		var event QuotaEvent
		if err := json.NewDecoder(req.Body).Decode(&event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.received = append(r.received, event)
		if r.status != 0 {
			w.WriteHeader(r.status)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func newNotifier(t *testing.T, urls ...string) *WebhookNotifier {
	t.Helper()
	wn := NewWebhookNotifier(&WebhookConfig{URLs: urls, Backoff: time.Millisecond}, discardLogger())
	require.NotNil(t, wn)
	return wn
}

func TestNewWebhookNotifier_NilConfig(t *testing.T) {
	assert.Nil(t, NewWebhookNotifier(nil, discardLogger()))
}

func TestNewWebhookNotifier_EmptyURLs(t *testing.T) {
	assert.Nil(t, NewWebhookNotifier(&WebhookConfig{}, discardLogger()))
}

func TestWebhookNotifier_NilReceiver(t *testing.T) {
	var wn *WebhookNotifier
	wn.NotifyQuotaExceeded(&store.StorageQuotaError{Key: "k"})
	wn.NotifyWarning(store.QuotaState{})
	wn.Attach(events.NewBus(discardLogger()))()
	wn.Wait()
}

func TestWebhookNotifier_NotifyQuotaExceeded(t *testing.T) {
	rec := &recorder{}
	ts := httptest.NewServer(rec.handler())
	defer ts.Close()

	wn := newNotifier(t, ts.URL)
	wn.NotifyQuotaExceeded(&store.StorageQuotaError{
		Key:             "sitestore_contacts",
		UsageBytes:      5000,
		UsagePercentage: 97.5,
		QuotaBytes:      5128,
	})
	wn.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.received, 1)
	got := rec.received[0]
	assert.Equal(t, EventQuotaExceeded, got.Event)
	assert.Equal(t, "sitestore_contacts", got.Key)
	assert.Equal(t, int64(5000), got.UsageBytes)
	assert.Equal(t, int64(5128), got.QuotaBytes)
	assert.Contains(t, got.Message, "quota exceeded")
	assert.NotEmpty(t, got.Timestamp)
}

func TestWebhookNotifier_AttachForwardsWarnings(t *testing.T) {
	rec := &recorder{}
	ts := httptest.NewServer(rec.handler())
	defer ts.Close()

	bus := events.NewBus(discardLogger())
	wn := newNotifier(t, ts.URL)
	detach := wn.Attach(bus)

	bus.EmitWith(events.TopicStorageWarning, store.QuotaState{UsageBytes: 90, UsagePercentage: 90, QuotaBytes: 100, NearCapacity: true})
	wn.Wait()

	detach()
	bus.EmitWith(events.TopicStorageWarning, store.QuotaState{UsagePercentage: 95})
	wn.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.received, 1)
	assert.Equal(t, EventStorageWarn, rec.received[0].Event)
	assert.Equal(t, 90.0, rec.received[0].UsagePercentage)
}

func TestWebhookNotifier_MultipleURLs(t *testing.T) {
	rec1, rec2 := &recorder{}, &recorder{}
	ts1 := httptest.NewServer(rec1.handler())
	defer ts1.Close()
	ts2 := httptest.NewServer(rec2.handler())
	defer ts2.Close()

	wn := newNotifier(t, ts1.URL, ts2.URL)
	wn.NotifyWarning(store.QuotaState{UsagePercentage: 85})
	wn.Wait()

	assert.Equal(t, 1, rec1.calls)
	assert.Equal(t, 1, rec2.calls)
}

func TestWebhookNotifier_Post_RetriesOn5xx(t *testing.T) {
	rec := &recorder{status: http.StatusServiceUnavailable}
	ts := httptest.NewServer(rec.handler())
	defer ts.Close()

	wn := newNotifier(t, ts.URL)
	err := wn.post(ts.URL, []byte(`{}`))

	assert.Error(t, err)
	assert.Equal(t, 3, rec.calls)
}

func TestWebhookNotifier_Post_4xxNoRetry(t *testing.T) {
	rec := &recorder{status: http.StatusBadRequest}
	ts := httptest.NewServer(rec.handler())
	defer ts.Close()

	wn := newNotifier(t, ts.URL)
	err := wn.post(ts.URL, []byte(`{}`))

	assert.Error(t, err)
	assert.Equal(t, 1, rec.calls)
}
