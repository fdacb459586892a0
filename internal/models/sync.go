package models

import "time"

// SyncDirection indicates which side of the bidirectional pipeline a sync
// pass is running.
type SyncDirection string

// Recognized sync directions.
const (
	SyncForward  SyncDirection = "forward"  // relational -> concept
	SyncBackward SyncDirection = "backward" // concept -> relational
)

// SyncCheckpoint records the last successfully synchronized position for one
// (tenant, direction, table) tuple, so a restarted synchronizer resumes
// instead of rescanning.
type SyncCheckpoint struct {
	TenantID    string        `json:"tenant_id"`
	Direction   SyncDirection `json:"direction"`
	Table       string        `json:"table"`
	Cursor      string        `json:"cursor"` // opaque: a relational PK or a concept updated_at+id
	LastRunAt   time.Time     `json:"last_run_at"`
	LastSuccessAt time.Time   `json:"last_success_at"`
}

// ConflictResolution names the strategy applied when the same entity changed
// on both sides since the last checkpoint.
type ConflictResolution string

// Recognized conflict resolutions (spec §4.4).
const (
	ResolveLastWriteWins   ConflictResolution = "last_write_wins"
	ResolvePreferRelational ConflictResolution = "prefer_relational"
	ResolvePreferConcept   ConflictResolution = "prefer_concept"
	ResolveManual          ConflictResolution = "manual"
)

// SyncQuarantineEntry holds a row the synchronizer could not reconcile
// automatically, parked for manual or policy-driven resolution.
type SyncQuarantineEntry struct {
	ID          int64          `json:"id"`
	TenantID    string         `json:"-"`
	Direction   SyncDirection  `json:"direction"`
	Table       string         `json:"table"`
	EntityID    string         `json:"entity_id"`
	Reason      string         `json:"reason"`
	LeftValue   map[string]any `json:"left_value,omitempty"`
	RightValue  map[string]any `json:"right_value,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
}

// SyncRunSummary reports the outcome of a single synchronizer pass.
type SyncRunSummary struct {
	Direction     SyncDirection `json:"direction"`
	TenantID      string        `json:"tenant_id"`
	Table         string        `json:"table"`
	RowsScanned   int           `json:"rows_scanned"`
	RowsApplied   int           `json:"rows_applied"`
	Conflicts     int           `json:"conflicts"`
	Quarantined   int           `json:"quarantined"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Err           string        `json:"error,omitempty"`
}

// MappingRule describes how a single relational table's rows translate into
// concepts and relations during the forward sync pass.
type MappingRule struct {
	Table          string             `json:"table"`
	IDColumn       string             `json:"id_column"`
	TypeValue      string             `json:"type_value"`
	LabelColumns   []string           `json:"label_columns"`   // concatenated to form the concept label
	PropertyMap    map[string]string  `json:"property_map"`    // relational column -> concept property key
	WritebackCols  []string           `json:"writeback_columns,omitempty"` // concept property keys the backward pass may write
	ConflictPolicy ConflictResolution `json:"conflict_policy"` // selectable per mapping rule, spec §4.4
}
