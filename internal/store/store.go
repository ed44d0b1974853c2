// Package store is the reactive collection store. Collections are JSON arrays
// persisted whole under fixed keys of a kv.Backend; every successful write
// emits the collection's topic on the notification bus.
//
// A Store is constructed once per process and shared by reference. It is not
// safe for concurrent use: callers serialize access.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kilupskalvis/sitestore/internal/events"
	"github.com/kilupskalvis/sitestore/internal/kv"
	"github.com/kilupskalvis/sitestore/internal/models"
)

// Key is a storage key holding one collection.
type Key string

const (
	KeyServices     Key = "sitestore_services"
	KeyTeam         Key = "sitestore_team"
	KeyTestimonials Key = "sitestore_testimonials"
	KeyJobs         Key = "sitestore_jobs"
	KeyUsers        Key = "sitestore_users"
	KeyContacts     Key = "sitestore_contacts"
	KeyNewsletter   Key = "sitestore_newsletter"
	KeyApplications Key = "sitestore_applications"
	KeyActivityLogs Key = "sitestore_activity_logs"
	KeySettings     Key = "sitestore_settings"
)

var keyTopics = map[Key]events.Topic{
	KeyServices:     events.TopicServices,
	KeyTeam:         events.TopicTeam,
	KeyTestimonials: events.TopicTestimonials,
	KeyJobs:         events.TopicJobs,
	KeyUsers:        events.TopicUsers,
	KeyContacts:     events.TopicContacts,
	KeyNewsletter:   events.TopicNewsletter,
	KeyApplications: events.TopicApplications,
	KeyActivityLogs: events.TopicActivityLogs,
	KeySettings:     events.TopicSettings,
}

// TopicFor returns the topic emitted when key is written.
func TopicFor(key Key) (events.Topic, bool) {
	t, ok := keyTopics[key]
	return t, ok
}

// Errors returned by collection operations.
var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("duplicate record id")
	ErrMissingID   = errors.New("record id is required")
)

// StorageQuotaError is returned when a write fails for lack of capacity even
// after eviction. errors.Is(err, kv.ErrQuotaExceeded) reports true.
type StorageQuotaError struct {
	Key             string
	UsageBytes      int64
	UsagePercentage float64
	QuotaBytes      int64
}

func (e *StorageQuotaError) Error() string {
	return fmt.Sprintf("storage quota exceeded writing %s: %.1f%% used (%d of %d bytes); export a backup and remove old submissions",
		e.Key, e.UsagePercentage, e.UsageBytes, e.QuotaBytes)
}

func (e *StorageQuotaError) Unwrap() error { return kv.ErrQuotaExceeded }

// WriteStatus classifies the outcome of a single backend write.
type WriteStatus int

const (
	WriteOK WriteStatus = iota
	WriteQuotaExceeded
	WriteFailed
)

func (s WriteStatus) String() string {
	switch s {
	case WriteOK:
		return "ok"
	case WriteQuotaExceeded:
		return "quota_exceeded"
	default:
		return "failed"
	}
}

// WriteResult is the outcome of one write attempt.
type WriteResult struct {
	Status WriteStatus
	Err    error
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	Logger *slog.Logger
	// Now is the clock used for timestamps, cooldowns and retention.
	Now func() time.Time
	// Actor returns the identity recorded on activity log entries.
	Actor func() string
	Quota QuotaConfig
	// RetentionDays is the activity log retention (default 30).
	RetentionDays int
	// OnQuotaExceeded is called before a StorageQuotaError is returned, for
	// observers outside the store (banners, webhooks).
	OnQuotaExceeded func(*StorageQuotaError)
}

// DefaultRetentionDays is the activity log retention used when none is configured.
const DefaultRetentionDays = 30

// Store is the persistent collection store.
type Store struct {
	backend         kv.Backend
	bus             *events.Bus
	quota           *QuotaMonitor
	logger          *slog.Logger
	now             func() time.Time
	actor           func() string
	retentionDays   int
	onQuotaExceeded func(*StorageQuotaError)
}

// New creates a Store over backend, publishing changes on bus.
func New(backend kv.Backend, bus *events.Bus, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = DefaultRetentionDays
	}
	if bus == nil {
		bus = events.NewBus(opts.Logger)
	}
	qc := opts.Quota.withDefaults()

	return &Store{
		backend:         backend,
		bus:             bus,
		quota:           newQuotaMonitor(newEstimator(backend, qc, opts.Now, opts.Logger), bus, qc, opts.Now, opts.Logger),
		logger:          opts.Logger,
		now:             opts.Now,
		actor:           opts.Actor,
		retentionDays:   opts.RetentionDays,
		onQuotaExceeded: opts.OnQuotaExceeded,
	}
}

// Bus returns the notification bus the store publishes on.
func (s *Store) Bus() *events.Bus { return s.bus }

// Quota returns the quota monitor.
func (s *Store) Quota() *QuotaMonitor { return s.quota }

// Now returns the store's current time.
func (s *Store) Now() time.Time { return s.now() }

// GetCollection reads the value under key. A missing, null or malformed value
// yields def; read failures are logged and never returned.
func GetCollection[T any](s *Store, key Key, def T) T {
	raw, ok, err := s.backend.Get(string(key))
	if err != nil {
		s.logger.Warn("store: read failed", "key", key, "error", err)
		return def
	}
	if !ok || raw == "" || raw == "null" {
		return def
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Warn("store: malformed value, using default", "key", key, "error", err)
		return def
	}
	return v
}

// SetCollection replaces the whole value under key and emits its topic.
// A write refused for capacity triggers eviction and one retry; if that also
// fails a *StorageQuotaError is returned.
func SetCollection[T any](s *Store, key Key, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.setRaw(key, string(data))
}

func (s *Store) setRaw(key Key, data string) error {
	// Warn before writing so repeated near-full writes share one throttled warning.
	s.quota.CheckNearCapacity()

	res := s.tryWrite(key, data)
	if res.Status == WriteQuotaExceeded {
		needed := int64(kv.CodeUnits(data)) * int64(s.quota.cfg.BytesPerChar)
		s.logger.Warn("store: write refused for capacity, evicting", "key", key, "needed_bytes", needed)
		s.evict(needed, key)
		res = s.tryWrite(key, data)
	}

	switch res.Status {
	case WriteOK:
		s.emitKey(key)
		return nil
	case WriteQuotaExceeded:
		qerr := s.quotaError(key)
		s.logger.Error("store: storage quota exceeded",
			"key", key,
			"usage_bytes", qerr.UsageBytes,
			"usage_percentage", qerr.UsagePercentage,
			"quota_bytes", qerr.QuotaBytes)
		if s.onQuotaExceeded != nil {
			s.onQuotaExceeded(qerr)
		}
		return qerr
	default:
		s.logger.Error("store: write failed", "key", key, "error", res.Err)
		return res.Err
	}
}

// tryWrite performs one backend write and classifies the result.
func (s *Store) tryWrite(key Key, data string) WriteResult {
	err := s.backend.Set(string(key), data)
	switch {
	case err == nil:
		return WriteResult{Status: WriteOK}
	case errors.Is(err, kv.ErrQuotaExceeded):
		return WriteResult{Status: WriteQuotaExceeded, Err: err}
	default:
		return WriteResult{Status: WriteFailed, Err: err}
	}
}

func (s *Store) quotaError(key Key) *StorageQuotaError {
	s.quota.Invalidate()
	st := s.quota.State()
	return &StorageQuotaError{
		Key:             string(key),
		UsageBytes:      st.UsageBytes,
		UsagePercentage: st.UsagePercentage,
		QuotaBytes:      st.QuotaBytes,
	}
}

func (s *Store) emitKey(key Key) {
	if t, ok := keyTopics[key]; ok {
		s.bus.Emit(t)
	}
}

// Settings returns the site settings document.
func (s *Store) Settings() models.Settings {
	return GetCollection(s, KeySettings, models.Settings{})
}

// SetSettings replaces the site settings document.
func (s *Store) SetSettings(v models.Settings) error {
	if err := SetCollection(s, KeySettings, v); err != nil {
		return err
	}
	s.AddActivityLog(models.ActivityLogEntry{
		Action:     models.ActionUpdate,
		EntityType: "settings",
		EntityID:   "settings",
		EntityName: "Site settings",
	})
	return nil
}
