package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LegacyKey maps a key from the previous storage layout onto its current key.
type LegacyKey struct {
	Old string
	New Key
}

// MigrationReport summarizes a legacy migration run.
type MigrationReport struct {
	Migrated []string
	Skipped  []string
	Failed   map[string]error
}

// MigrateLegacy copies values stored under legacy keys to their current keys
// and removes the legacy keys. A pair is skipped when the legacy key is absent
// or the current key already holds data; a failing pair never stops the rest.
// Running it again is harmless.
func (s *Store) MigrateLegacy(pairs []LegacyKey) MigrationReport {
	report := MigrationReport{Failed: make(map[string]error)}

	for _, p := range pairs {
		migrated, err := s.migrateOne(p)
		switch {
		case err != nil:
			s.logger.Warn("store: legacy migration failed", "old_key", p.Old, "new_key", p.New, "error", err)
			report.Failed[p.Old] = err
		case migrated:
			s.logger.Info("store: migrated legacy key", "old_key", p.Old, "new_key", p.New)
			report.Migrated = append(report.Migrated, p.Old)
		default:
			report.Skipped = append(report.Skipped, p.Old)
		}
	}
	return report
}

func (s *Store) migrateOne(p LegacyKey) (bool, error) {
	old, ok, err := s.backend.Get(p.Old)
	if err != nil {
		return false, fmt.Errorf("read legacy value: %w", err)
	}
	if !ok {
		return false, nil
	}

	current, ok, err := s.backend.Get(string(p.New))
	if err != nil {
		return false, fmt.Errorf("read current value: %w", err)
	}
	if ok && !isEmptyValue(current) {
		return false, nil
	}

	if !json.Valid([]byte(old)) {
		return false, fmt.Errorf("legacy value under %s is not valid JSON", p.Old)
	}
	if err := s.setRaw(p.New, old); err != nil {
		return false, err
	}
	if err := s.backend.Remove(p.Old); err != nil {
		return true, fmt.Errorf("remove legacy key: %w", err)
	}
	return true, nil
}

func isEmptyValue(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}
