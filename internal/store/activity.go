package store

import (
	"time"

	"github.com/kilupskalvis/sitestore/internal/models"
)

// ActivityLogs returns the activity log, oldest first.
func (s *Store) ActivityLogs() []models.ActivityLogEntry {
	v := GetCollection(s, KeyActivityLogs, []models.ActivityLogEntry{})
	if v == nil {
		return []models.ActivityLogEntry{}
	}
	return v
}

// SetActivityLogs replaces the whole activity log.
func (s *Store) SetActivityLogs(entries []models.ActivityLogEntry) error {
	if entries == nil {
		entries = []models.ActivityLogEntry{}
	}
	return SetCollection(s, KeyActivityLogs, entries)
}

// AddActivityLog assigns an id and timestamp to entry, appends it and runs the
// retention sweep. Failures are logged and swallowed: the log is best effort
// and must never fail the operation being recorded.
func (s *Store) AddActivityLog(entry models.ActivityLogEntry) {
	now := s.now()
	entry.ID = models.NewID(now)
	entry.Timestamp = now
	if entry.User == "" && s.actor != nil {
		entry.User = s.actor()
	}
	if entry.User == "" {
		entry.User = models.DefaultActor
	}

	logs := append(s.ActivityLogs(), entry)
	if err := s.SetActivityLogs(logs); err != nil {
		s.logger.Warn("store: activity log write failed", "action", entry.Action, "entity_type", entry.EntityType, "error", err)
		return
	}

	if _, err := s.CleanupActivityLogs(s.retentionDays); err != nil {
		s.logger.Warn("store: activity log cleanup failed", "error", err)
	}
}

// CleanupActivityLogs removes entries older than days (the configured
// retention when days <= 0). The log is only rewritten, and its topic only
// emitted, when something was removed.
func (s *Store) CleanupActivityLogs(days int) (int, error) {
	if days <= 0 {
		days = s.retentionDays
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	logs := s.ActivityLogs()
	kept := make([]models.ActivityLogEntry, 0, len(logs))
	for _, e := range logs {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}

	removed := len(logs) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.SetActivityLogs(kept); err != nil {
		return 0, err
	}
	s.logger.Debug("store: activity log cleaned", "removed", removed, "retention_days", days)
	return removed, nil
}

// ClearActivityLogs removes every entry.
func (s *Store) ClearActivityLogs() error {
	return s.SetActivityLogs(nil)
}

func (s *Store) logChange(action models.Action, entity string, rec models.Record) {
	s.AddActivityLog(models.ActivityLogEntry{
		Action:     action,
		EntityType: entity,
		EntityID:   rec.RecordID(),
		EntityName: rec.Label(),
	})
}
