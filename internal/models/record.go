// Package models defines the records stored by sitestore.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is implemented by every collection entry. IDs are assigned by the
// writer at creation time and never regenerated.
type Record interface {
	RecordID() string
	Label() string
}

// Activatable is implemented by records carrying an active flag.
type Activatable interface {
	IsActive() bool
}

// Patch is a typed partial update merged shallowly onto a stored record.
type Patch[T any] interface {
	Apply(rec *T)
}

// PatchFunc adapts a function to the Patch interface.
type PatchFunc[T any] func(rec *T)

// Apply calls f(rec).
func (f PatchFunc[T]) Apply(rec *T) { f(rec) }

// NewID returns a collision-resistant record ID: unix millis plus a random suffix.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
