package models

import "time"

// Action is the kind of change recorded in the activity log.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
	ActionRestore    Action = "restore"
	ActionExport     Action = "export"
	ActionImport     Action = "import"
)

// DefaultActor is recorded when the acting user is unknown.
const DefaultActor = "System"

// ActivityLogEntry is an immutable audit record. EntityName is captured at
// action time so it outlives the target record.
type ActivityLogEntry struct {
	ID         string    `json:"id"`
	Action     Action    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	EntityName string    `json:"entityName"`
	User       string    `json:"user"`
	Timestamp  time.Time `json:"timestamp"`
	Details    string    `json:"details,omitempty"`
}

func (e ActivityLogEntry) RecordID() string { return e.ID }
func (e ActivityLogEntry) Label() string    { return string(e.Action) + " " + e.EntityName }
