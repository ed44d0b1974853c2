// Package notify delivers storage quota events to external observers.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/store"
)

// Event names.
const (
	EventQuotaExceeded = "quota_exceeded"
	EventStorageWarn   = "storage_warning"
)

// QuotaEvent is the payload sent to webhook URLs.
type QuotaEvent struct {
	Event           string  `json:"event"`
	Key             string  `json:"key,omitempty"`
	UsageBytes      int64   `json:"usage_bytes"`
	UsagePercentage float64 `json:"usage_percentage"`
	QuotaBytes      int64   `json:"quota_bytes"`
	Message         string  `json:"message"`
	Timestamp       string  `json:"timestamp"`
}

// WebhookConfig holds the list of configured webhook URLs.
type WebhookConfig struct {
	URLs []string
	// Backoff is the base delay between retries (default 1s).
	Backoff time.Duration
}

// WebhookNotifier sends HTTP POST notifications to configured webhook URLs.
// A nil notifier is valid and does nothing.
type WebhookNotifier struct {
	config *WebhookConfig
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

// NewWebhookNotifier creates a webhook notifier. Returns nil if no URLs are configured.
func NewWebhookNotifier(cfg *WebhookConfig, logger *slog.Logger) *WebhookNotifier {
	if cfg == nil || len(cfg.URLs) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &WebhookNotifier{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		now:    time.Now,
	}
}

// NotifyQuotaExceeded reports a write the store could not complete.
// It matches store.Options.OnQuotaExceeded.
func (wn *WebhookNotifier) NotifyQuotaExceeded(qe *store.StorageQuotaError) {
	if wn == nil || qe == nil {
		return
	}
	wn.dispatch(&QuotaEvent{
		Event:           EventQuotaExceeded,
		Key:             qe.Key,
		UsageBytes:      qe.UsageBytes,
		UsagePercentage: qe.UsagePercentage,
		QuotaBytes:      qe.QuotaBytes,
		Message:         qe.Error(),
	})
}

// NotifyWarning reports that usage crossed the warning threshold.
func (wn *WebhookNotifier) NotifyWarning(st store.QuotaState) {
	if wn == nil {
		return
	}
	wn.dispatch(&QuotaEvent{
		Event:           EventStorageWarn,
		UsageBytes:      st.UsageBytes,
		UsagePercentage: st.UsagePercentage,
		QuotaBytes:      st.QuotaBytes,
		Message:         fmt.Sprintf("storage is %.1f%% full", st.UsagePercentage),
	})
}

// Attach forwards storage warnings published on bus. The returned function
// detaches the notifier.
func (wn *WebhookNotifier) Attach(bus *events.Bus) func() {
	if wn == nil || bus == nil {
		return func() {}
	}
	return bus.Subscribe(events.TopicStorageWarning, func(e events.Event) {
		if st, ok := e.Data.(store.QuotaState); ok {
			wn.NotifyWarning(st)
		}
	})
}

// Wait blocks until every pending delivery has finished.
func (wn *WebhookNotifier) Wait() {
	if wn == nil {
		return
	}
	wn.wg.Wait()
}

// dispatch delivers the event asynchronously; it does not block the caller.
func (wn *WebhookNotifier) dispatch(event *QuotaEvent) {
	event.Timestamp = wn.now().UTC().Format(time.RFC3339)
	wn.wg.Add(1)
	go func() {
		defer wn.wg.Done()
		wn.send(event)
	}()
}

// send delivers the webhook event to all configured URLs.
func (wn *WebhookNotifier) send(event *QuotaEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		wn.logger.Error("webhook: marshal event", "error", err)
		return
	}

	for _, url := range wn.config.URLs {
		if err := wn.post(url, data); err != nil {
			wn.logger.Warn("webhook: delivery failed", "url", url, "error", err)
		} else {
			wn.logger.Debug("webhook: delivered", "url", url, "event", event.Event)
		}
	}
}

// post sends a single webhook POST with retry (up to 2 retries).
func (wn *WebhookNotifier) post(url string, data []byte) error {
	const maxRetries = 2

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * wn.config.Backoff)
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "sitestore/1.0")

		resp, err := wn.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return lastErr // don't retry 4xx
		}
	}

	return lastErr
}
