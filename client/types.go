package client

import (
	"encoding/json"
	"time"
)

// Concept represents a labeled entity in the semantic concept graph.
type Concept struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Label        string         `json:"label"`
	Properties   map[string]any `json:"properties"`
	Embedding    []float32      `json:"embedding,omitempty"`
	AccessCount  int            `json:"access_count"`
	LastAccessed *time.Time     `json:"last_accessed,omitempty"`
	Strength     float64        `json:"strength"`
	SupersededBy *string        `json:"superseded_by,omitempty"`
	UserBoosted  bool           `json:"user_boosted"`
	Source       string         `json:"source,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ScoredConcept pairs a Concept with a similarity score from semantic search.
type ScoredConcept struct {
	Concept
	Score float64 `json:"score"`
}

// Relation represents a directed, typed edge between two concepts.
type Relation struct {
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	Type         string         `json:"type"`
	Properties   map[string]any `json:"properties"`
	Weight       float64        `json:"weight"`
	AccessCount  int            `json:"access_count"`
	LastAccessed *time.Time     `json:"last_accessed,omitempty"`
	Strength     float64        `json:"strength_score"`
	SupersededBy *string        `json:"superseded_by,omitempty"`
	UserBoosted  bool           `json:"user_boosted"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CreateConceptRequest is the payload for creating a concept.
type CreateConceptRequest struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
	Source     string         `json:"source,omitempty"`
}

// UpdateConceptRequest is the payload for updating a concept.
type UpdateConceptRequest struct {
	Type       *string        `json:"type,omitempty"`
	Label      *string        `json:"label,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// CreateRelationRequest is the payload for creating a relation.
type CreateRelationRequest struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Weight     *float64       `json:"weight,omitempty"`
}

// PatchPropertiesRequest is the payload for partially updating properties.
type PatchPropertiesRequest struct {
	Properties map[string]any `json:"properties"`
}

// UpdateRelationRequest is the payload for updating a relation.
type UpdateRelationRequest struct {
	Properties map[string]any `json:"properties,omitempty"`
	Weight     *float64       `json:"weight,omitempty"`
}

// MergeConceptsRequest is the payload for merging a duplicate concept into a
// surviving one. WinnerID is always taken from the path, not the body, so
// callers only need to set LoserID.
type MergeConceptsRequest struct {
	LoserID  string `json:"loser_id"`
	WinnerID string `json:"winner_id"`
}

// MergeConceptsResult reports the outcome of a concept merge.
type MergeConceptsResult struct {
	LoserID          string `json:"loser_id"`
	WinnerID         string `json:"winner_id"`
	RelationsMoved   int    `json:"relations_moved"`
	RelationsDropped int    `json:"relations_dropped"`
	LoserDeleted     bool   `json:"loser_deleted"`
}

// NeighborResult holds concepts and relations directly connected to a concept.
type NeighborResult struct {
	Concepts  []Concept  `json:"concepts"`
	Relations []Relation `json:"relations"`
}

// TraverseResult holds a subgraph discovered by BFS traversal.
type TraverseResult struct {
	Concepts  []Concept  `json:"concepts"`
	Relations []Relation `json:"relations"`
}

// ContextResult holds a concept with its immediate neighborhood.
type ContextResult struct {
	Concept   Concept    `json:"concept"`
	Neighbors []Concept  `json:"neighbors"`
	Relations []Relation `json:"relations"`
}

// PathResult holds the shortest path found between two concepts.
type PathResult struct {
	Concepts  []Concept  `json:"concepts"`
	Relations []Relation `json:"relations"`
	Hops      int        `json:"hops"`
	Found     bool       `json:"found"`
}

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PropertyChange represents a single property value change.
type PropertyChange struct {
	ID          int64           `json:"id"`
	ConceptID   string          `json:"concept_id"`
	PropertyKey string          `json:"property_key"`
	OldValue    json.RawMessage `json:"old_value"`
	NewValue    json.RawMessage `json:"new_value"`
	ChangedAt   time.Time       `json:"changed_at"`
	Reason      *string         `json:"reason,omitempty"`
	ChangedBy   *string         `json:"changed_by,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	Concepts           int     `json:"concepts"`
	Relations          int     `json:"relations"`
	EntityTypes        int     `json:"entity_types"`
	AvgStrength        float64 `json:"avg_strength"`
	EmbeddingsComplete int     `json:"embeddings_complete"`
	EmbeddingsPending  int     `json:"embeddings_pending"`
}

// ListOptions holds common pagination parameters.
type ListOptions struct {
	Limit  int
	Offset int
}

// ConceptListOptions holds parameters for listing concepts.
type ConceptListOptions struct {
	Type        string
	MinStrength float64
	Limit       int
	Offset      int
}

// RelationListOptions holds parameters for listing relations.
type RelationListOptions struct {
	Source string
	Target string
	Type   string
	Limit  int
	Offset int
}

// SearchOptions holds parameters for search queries.
type SearchOptions struct {
	Type        string
	MinStrength float64
	Limit       int
}

// AuditQueryOptions holds parameters for querying audit logs.
type AuditQueryOptions struct {
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// QueryRequest is the payload submitted to the Query Router.
type QueryRequest struct {
	Query     string         `json:"query"`
	Filters   map[string]any `json:"filters,omitempty"`
	Limit     int            `json:"limit,omitempty"`
	ForceKind string         `json:"force_kind,omitempty"`
}

// RouteDecision records how a query was classified and why.
type RouteDecision struct {
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Reason     string  `json:"reason,omitempty"`
}

// QueryResult is the response returned by the Query Router's execute endpoint.
type QueryResult struct {
	Decision    RouteDecision   `json:"decision"`
	Concepts    []ScoredConcept `json:"concepts,omitempty"`
	Degraded    bool            `json:"degraded"`
	FromCache   bool            `json:"from_cache"`
	ElapsedMS   int64           `json:"elapsed_ms"`
	Fingerprint string          `json:"fingerprint"`
}

// ExplainResult is the response returned by the explain endpoint: the
// decision the router would make plus the signals behind it, unexecuted.
type ExplainResult struct {
	Decision      RouteDecision      `json:"decision"`
	Signals       map[string]float64 `json:"signals"`
	EvolutionBias float64            `json:"evolution_bias"`
}

// EvolutionSnapshot is the Evolution Tracker's externally visible state.
type EvolutionSnapshot struct {
	Phase        string    `json:"phase"`
	Bias         float64   `json:"bias"`
	WindowSize   int       `json:"window_size"`
	SemanticFrac float64   `json:"semantic_fraction"`
	ResolvedFrac float64   `json:"resolved_fraction"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EvolutionEvaluation reports the outcome of an out-of-band advancement check.
type EvolutionEvaluation struct {
	Advanced  bool   `json:"advanced"`
	FromPhase string `json:"from_phase"`
	ToPhase   string `json:"to_phase"`
	Reason    string `json:"reason"`
}

// QuotaUsage reports a tenant's current consumption across all tracked windows.
type QuotaUsage struct {
	QPMUsed         float64   `json:"qpm_used"`
	QPMLimit        int       `json:"qpm_limit"`
	APIQPSUsed      float64   `json:"api_qps_used"`
	APIQPSLimit     int       `json:"api_qps_limit"`
	MonthlyUsed     int64     `json:"monthly_used"`
	MonthlyLimit    int64     `json:"monthly_limit"`
	MonthlyResetsAt time.Time `json:"monthly_resets_at"`
}

// SyncSummary reports the outcome of a single synchronizer pass.
type SyncSummary struct {
	Direction   string `json:"direction"`
	Table       string `json:"table"`
	RowsScanned int    `json:"rows_scanned"`
	RowsApplied int    `json:"rows_applied"`
	Conflicts   int    `json:"conflicts"`
	Quarantined int    `json:"quarantined"`
	Err         string `json:"error,omitempty"`
}

// SyncCheckpoint is a per-(direction, table) synchronizer cursor.
type SyncCheckpoint struct {
	Direction     string    `json:"direction"`
	Table         string    `json:"table"`
	Cursor        string    `json:"cursor"`
	LastRunAt     time.Time `json:"last_run_at"`
	LastSuccessAt time.Time `json:"last_success_at"`
}

// SyncQuarantineEntry is a row the synchronizer could not reconcile automatically.
type SyncQuarantineEntry struct {
	ID         int64          `json:"id"`
	Direction  string         `json:"direction"`
	Table      string         `json:"table"`
	EntityID   string         `json:"entity_id"`
	Reason     string         `json:"reason"`
	LeftValue  map[string]any `json:"left_value,omitempty"`
	RightValue map[string]any `json:"right_value,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
}
