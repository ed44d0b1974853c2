package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/kv"
)

// QuotaConfig describes the capacity ceiling and how usage is measured.
type QuotaConfig struct {
	// QuotaBytes is the fixed, conservative capacity ceiling.
	QuotaBytes int64
	// BytesPerChar converts UTF-16 code units into bytes.
	BytesPerChar int
	// WarnThreshold is the usage fraction above which the store is near capacity.
	WarnThreshold float64
	// UsageCacheTTL is how long an estimate is reused before rescanning.
	UsageCacheTTL time.Duration
	// WarningCooldown is the minimum gap between storage warnings.
	WarningCooldown time.Duration
}

// Defaults for QuotaConfig.
const (
	DefaultQuotaBytes      = 5 * 1024 * 1024
	DefaultBytesPerChar    = 2
	DefaultWarnThreshold   = 0.8
	DefaultUsageCacheTTL   = 10 * time.Second
	DefaultWarningCooldown = 60 * time.Second
)

func (c QuotaConfig) withDefaults() QuotaConfig {
	if c.QuotaBytes <= 0 {
		c.QuotaBytes = DefaultQuotaBytes
	}
	if c.BytesPerChar <= 0 {
		c.BytesPerChar = DefaultBytesPerChar
	}
	if c.WarnThreshold <= 0 || c.WarnThreshold > 1 {
		c.WarnThreshold = DefaultWarnThreshold
	}
	if c.UsageCacheTTL < 0 {
		c.UsageCacheTTL = 0
	} else if c.UsageCacheTTL == 0 {
		c.UsageCacheTTL = DefaultUsageCacheTTL
	}
	if c.WarningCooldown == 0 {
		c.WarningCooldown = DefaultWarningCooldown
	}
	return c
}

// QuotaState is the derived capacity picture. It is never persisted.
type QuotaState struct {
	UsageBytes      int64   `json:"usageBytes"`
	UsagePercentage float64 `json:"usagePercentage"`
	QuotaBytes      int64   `json:"quotaBytes"`
	NearCapacity    bool    `json:"nearCapacity"`
}

// Estimator sums the footprint of every stored pair, caching the total for a
// short window to avoid rescanning on every call.
type Estimator struct {
	backend      kv.Backend
	bytesPerChar int
	ttl          time.Duration
	now          func() time.Time
	logger       *slog.Logger

	mu       sync.Mutex
	cached   int64
	cachedAt time.Time
	valid    bool
}

func newEstimator(b kv.Backend, cfg QuotaConfig, now func() time.Time, logger *slog.Logger) *Estimator {
	return &Estimator{
		backend:      b,
		bytesPerChar: cfg.BytesPerChar,
		ttl:          cfg.UsageCacheTTL,
		now:          now,
		logger:       logger,
	}
}

// Usage returns the estimated footprint in bytes.
func (e *Estimator) Usage() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if e.valid && now.Sub(e.cachedAt) < e.ttl {
		return e.cached
	}

	var total int64
	err := e.backend.ForEach(func(k, v string) error {
		total += kv.Footprint(k, v, e.bytesPerChar)
		return nil
	})
	if err != nil {
		e.logger.Warn("store: usage scan failed", "error", err)
		return e.cached
	}

	e.cached, e.cachedAt, e.valid = total, now, true
	return total
}

// Invalidate drops the cached estimate.
func (e *Estimator) Invalidate() {
	e.mu.Lock()
	e.valid = false
	e.mu.Unlock()
}

// QuotaMonitor classifies usage and throttles storage warnings.
type QuotaMonitor struct {
	est    *Estimator
	bus    *events.Bus
	cfg    QuotaConfig
	now    func() time.Time
	logger *slog.Logger

	lastWarning time.Time
	warned      bool
}

func newQuotaMonitor(est *Estimator, bus *events.Bus, cfg QuotaConfig, now func() time.Time, logger *slog.Logger) *QuotaMonitor {
	return &QuotaMonitor{est: est, bus: bus, cfg: cfg, now: now, logger: logger}
}

// State returns the current usage classification.
func (q *QuotaMonitor) State() QuotaState {
	usage := q.est.Usage()
	pct := float64(usage) / float64(q.cfg.QuotaBytes) * 100
	return QuotaState{
		UsageBytes:      usage,
		UsagePercentage: pct,
		QuotaBytes:      q.cfg.QuotaBytes,
		NearCapacity:    pct > q.cfg.WarnThreshold*100,
	}
}

// CheckNearCapacity reports whether usage is above the warning threshold and,
// at most once per cooldown, logs and emits a storage warning.
func (q *QuotaMonitor) CheckNearCapacity() bool {
	st := q.State()
	if !st.NearCapacity {
		return false
	}

	now := q.now()
	if q.warned && now.Sub(q.lastWarning) < q.cfg.WarningCooldown {
		return true
	}
	q.warned, q.lastWarning = true, now

	q.logger.Warn("store: storage near capacity",
		"usage_bytes", st.UsageBytes,
		"usage_percentage", st.UsagePercentage,
		"quota_bytes", st.QuotaBytes)
	q.bus.EmitWith(events.TopicStorageWarning, st)
	return true
}

// Invalidate drops the cached usage estimate.
func (q *QuotaMonitor) Invalidate() {
	q.est.Invalidate()
}

// Config returns the effective quota configuration.
func (q *QuotaMonitor) Config() QuotaConfig { return q.cfg }
