// Package backup exports the store as a versioned snapshot, validates
// snapshots from untrusted sources, and restores them with a replace or merge
// strategy.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kilupskalvis/sitestore/internal/models"
	"github.com/kilupskalvis/sitestore/internal/store"
)

// FormatVersion is the snapshot format version, independent of the
// application version.
const FormatVersion = "1.0.0"

// ErrInvalidSnapshot is returned when an import payload fails validation.
var ErrInvalidSnapshot = errors.New("invalid backup")

// Snapshot is a point-in-time export of every collection.
type Snapshot struct {
	Version      string                    `json:"version"`
	AppVersion   string                    `json:"appVersion"`
	BackupID     string                    `json:"backupId"`
	Description  string                    `json:"description,omitempty"`
	Services     []models.Service          `json:"services"`
	Team         []models.TeamMember       `json:"team"`
	Testimonials []models.Testimonial      `json:"testimonials"`
	Jobs         []models.Job              `json:"jobs"`
	Users        []models.User             `json:"users"`
	Contacts     []models.Contact          `json:"contacts"`
	Newsletter   []models.Subscriber       `json:"newsletter"`
	Applications []models.Application      `json:"applications"`
	ActivityLogs []models.ActivityLogEntry `json:"activityLogs"`
	ExportedAt   time.Time                 `json:"exportedAt"`
}

// Counts returns the number of records per collection field.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"services":     len(s.Services),
		"team":         len(s.Team),
		"testimonials": len(s.Testimonials),
		"jobs":         len(s.Jobs),
		"users":        len(s.Users),
		"contacts":     len(s.Contacts),
		"newsletter":   len(s.Newsletter),
		"applications": len(s.Applications),
		"activityLogs": len(s.ActivityLogs),
	}
}

// Codec exports and restores snapshots of one store.
type Codec struct {
	st         *store.Store
	appVersion string
}

// New creates a Codec for st stamping exports with appVersion.
func New(st *store.Store, appVersion string) *Codec {
	return &Codec{st: st, appVersion: appVersion}
}

// Export captures every collection and the activity log. The export itself is
// recorded in the activity log after the snapshot is taken.
func (c *Codec) Export(description string) *Snapshot {
	snap := &Snapshot{
		Version:      FormatVersion,
		AppVersion:   c.appVersion,
		BackupID:     "backup-" + uuid.NewString(),
		Description:  description,
		Services:     c.st.Services().All(),
		Team:         c.st.Team().All(),
		Testimonials: c.st.Testimonials().All(),
		Jobs:         c.st.Jobs().All(),
		Users:        c.st.Users().All(),
		Contacts:     c.st.Contacts().All(),
		Newsletter:   c.st.Subscribers().All(),
		Applications: c.st.Applications().All(),
		ActivityLogs: c.st.ActivityLogs(),
		ExportedAt:   c.st.Now().UTC(),
	}

	total := 0
	for _, n := range snap.Counts() {
		total += n
	}
	c.st.AddActivityLog(models.ActivityLogEntry{
		Action:     models.ActionExport,
		EntityType: "backup",
		EntityID:   snap.BackupID,
		EntityName: backupName(snap),
		Details:    fmt.Sprintf("Exported %d records", total),
	})
	return snap
}

// WriteJSON encodes snap as indented JSON.
func WriteJSON(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Decode parses a snapshot without validating it.
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	return &snap, nil
}

func backupName(snap *Snapshot) string {
	if snap.Description != "" {
		return snap.Description
	}
	if snap.ExportedAt.IsZero() {
		return "Backup"
	}
	return "Backup " + snap.ExportedAt.Format("2006-01-02 15:04")
}
