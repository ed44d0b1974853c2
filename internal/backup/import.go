package backup

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilupskalvis/sitestore/internal/models"
)

// Strategy selects how a snapshot is combined with local data.
type Strategy string

const (
	// StrategyReplace overwrites every collection with the snapshot's.
	StrategyReplace Strategy = "replace"
	// StrategyMerge unions snapshot and local records, the snapshot winning
	// on conflict.
	StrategyMerge Strategy = "merge"
)

// ParseStrategy converts a user-supplied strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyReplace:
		return StrategyReplace, nil
	case StrategyMerge:
		return StrategyMerge, nil
	default:
		return "", fmt.Errorf("unknown import strategy %q (want replace or merge)", s)
	}
}

// Import restores snap with the given strategy.
func (c *Codec) Import(snap *Snapshot, strategy Strategy) error {
	switch strategy {
	case StrategyReplace:
		return c.ImportReplace(snap)
	case StrategyMerge:
		return c.ImportMerge(snap)
	default:
		return fmt.Errorf("unknown import strategy %q", strategy)
	}
}

// ImportJSON validates data, then decodes and restores it. The validation
// result is returned even when the import is rejected.
func (c *Codec) ImportJSON(data []byte, strategy Strategy) (ValidationResult, error) {
	res := ValidateJSON(data)
	if !res.IsValid {
		return res, fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(res.Errors, "; "))
	}
	snap, err := Decode(data)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return res, c.Import(snap, strategy)
}

// ImportReplace overwrites every collection, including the activity log, with
// the snapshot's contents. Collections absent from the snapshot become empty.
func (c *Codec) ImportReplace(snap *Snapshot) error {
	steps := []struct {
		name  string
		write func() error
	}{
		{"services", func() error { return c.st.Services().Replace(snap.Services) }},
		{"team", func() error { return c.st.Team().Replace(snap.Team) }},
		{"testimonials", func() error { return c.st.Testimonials().Replace(snap.Testimonials) }},
		{"jobs", func() error { return c.st.Jobs().Replace(snap.Jobs) }},
		{"users", func() error { return c.st.Users().Replace(snap.Users) }},
		{"contacts", func() error { return c.st.Contacts().Replace(snap.Contacts) }},
		{"newsletter", func() error { return c.st.Subscribers().Replace(snap.Newsletter) }},
		{"applications", func() error { return c.st.Applications().Replace(snap.Applications) }},
		{"activity logs", func() error { return c.st.SetActivityLogs(snap.ActivityLogs) }},
	}
	for _, step := range steps {
		if err := step.write(); err != nil {
			return fmt.Errorf("restore %s: %w", step.name, err)
		}
	}

	c.logImport(snap, StrategyReplace)
	return nil
}

// ImportMerge unions the snapshot with local data. Records matched by id are
// taken from the snapshot, users keep their local password hash when the
// snapshot has none, newsletter subscribers are matched by contact and the
// activity log keeps the newer entry.
func (c *Codec) ImportMerge(snap *Snapshot) error {
	steps := []struct {
		name  string
		write func() error
	}{
		{"services", func() error {
			return c.st.Services().Replace(mergeByID(snap.Services, c.st.Services().All()))
		}},
		{"team", func() error {
			return c.st.Team().Replace(mergeByID(snap.Team, c.st.Team().All()))
		}},
		{"testimonials", func() error {
			return c.st.Testimonials().Replace(mergeByID(snap.Testimonials, c.st.Testimonials().All()))
		}},
		{"jobs", func() error {
			return c.st.Jobs().Replace(mergeByID(snap.Jobs, c.st.Jobs().All()))
		}},
		{"users", func() error {
			return c.st.Users().Replace(mergeUsers(snap.Users, c.st.Users().All()))
		}},
		{"contacts", func() error {
			return c.st.Contacts().Replace(mergeByID(snap.Contacts, c.st.Contacts().All()))
		}},
		{"newsletter", func() error {
			return c.st.Subscribers().Replace(mergeNewer(snap.Newsletter, c.st.Subscribers().All(),
				models.Subscriber.DedupKey,
				func(s models.Subscriber) time.Time { return s.SubscribedAt }))
		}},
		{"applications", func() error {
			return c.st.Applications().Replace(mergeByID(snap.Applications, c.st.Applications().All()))
		}},
		{"activity logs", func() error {
			return c.st.SetActivityLogs(mergeNewer(snap.ActivityLogs, c.st.ActivityLogs(),
				models.ActivityLogEntry.RecordID,
				func(e models.ActivityLogEntry) time.Time { return e.Timestamp }))
		}},
	}
	for _, step := range steps {
		if err := step.write(); err != nil {
			return fmt.Errorf("merge %s: %w", step.name, err)
		}
	}

	c.logImport(snap, StrategyMerge)
	return nil
}

func (c *Codec) logImport(snap *Snapshot, strategy Strategy) {
	id := snap.BackupID
	if id == "" {
		id = "unknown"
	}
	c.st.AddActivityLog(models.ActivityLogEntry{
		Action:     models.ActionImport,
		EntityType: "backup",
		EntityID:   id,
		EntityName: backupName(snap),
		Details:    fmt.Sprintf("Imported backup using %s strategy", strategy),
	})
}

// mergeByID returns the snapshot records in their order followed by local
// records whose id the snapshot does not contain.
func mergeByID[T models.Record](incoming, existing []T) []T {
	out := make([]T, 0, len(incoming)+len(existing))
	pos := make(map[string]int, len(incoming)+len(existing))
	for _, r := range incoming {
		if i, ok := pos[r.RecordID()]; ok {
			out[i] = r
			continue
		}
		pos[r.RecordID()] = len(out)
		out = append(out, r)
	}
	for _, r := range existing {
		if _, ok := pos[r.RecordID()]; ok {
			continue
		}
		pos[r.RecordID()] = len(out)
		out = append(out, r)
	}
	return out
}

func mergeUsers(incoming, existing []models.User) []models.User {
	local := make(map[string]models.User, len(existing))
	for _, u := range existing {
		local[u.ID] = u
	}
	merged := mergeByID(incoming, existing)
	for i, u := range merged {
		if u.PasswordHash != "" {
			continue
		}
		if prev, ok := local[u.ID]; ok {
			merged[i].PasswordHash = prev.PasswordHash
		}
	}
	return merged
}

// mergeNewer unions records sharing a key, keeping the one with the later
// timestamp. Ties go to the snapshot.
func mergeNewer[T any](incoming, existing []T, key func(T) string, ts func(T) time.Time) []T {
	out := make([]T, 0, len(incoming)+len(existing))
	pos := make(map[string]int, len(incoming)+len(existing))
	add := func(r T, winsTie bool) {
		k := key(r)
		i, ok := pos[k]
		if !ok {
			pos[k] = len(out)
			out = append(out, r)
			return
		}
		cur, next := ts(out[i]), ts(r)
		if next.After(cur) || (winsTie && next.Equal(cur)) {
			out[i] = r
		}
	}
	for _, r := range incoming {
		add(r, true)
	}
	for _, r := range existing {
		add(r, false)
	}
	return out
}
