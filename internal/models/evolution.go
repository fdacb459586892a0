package models

import "time"

// EvolutionPhase represents one of the three stages of schema maturity the
// Evolution Tracker recognizes, each biasing the router toward a different
// mix of intents as the concept graph fills in.
type EvolutionPhase string

// Recognized evolution phases, in ascending order of maturity.
const (
	PhaseRelational EvolutionPhase = "relational" // sparse concept graph, bias toward sql
	PhaseTransition EvolutionPhase = "transition"  // balanced bias
	PhaseSemantic   EvolutionPhase = "semantic"    // mature concept graph, bias toward semantic/hybrid
)

// PhaseTargets holds the advancement thresholds (fraction of queries that
// must already be resolving well under semantic/hybrid routing) for moving
// from one phase to the next.
type PhaseTargets struct {
	RelationalToTransition float64 // default 0.20
	TransitionToSemantic   float64 // default 0.50
	SemanticCeiling        float64 // default 0.80, informational only
}

// QueryOutcome is a single observation fed into the Evolution Tracker's
// sliding window: what kind of query ran, whether it resolved successfully,
// and how confident the router was.
type QueryOutcome struct {
	Kind       IntentKind
	Confidence float64
	Resolved   bool // true if the query returned at least one result item (row or concept)
	Degraded   bool
	LatencyMS  int64 // elapsed time of the layer(s) this query exercised
	At         time.Time
}

// EvolutionState is the Evolution Tracker's externally visible snapshot:
// the current phase, the routing bias it implies, and the window's summary
// statistics.
type EvolutionState struct {
	Phase           EvolutionPhase `json:"phase"`
	Bias            float64        `json:"bias"` // -1 (favor sql) .. +1 (favor semantic)
	WindowSize      int            `json:"window_size"`
	SemanticFrac    float64        `json:"semantic_fraction"`
	ResolvedFrac    float64        `json:"resolved_fraction"`
	UpdatedAt       time.Time      `json:"updated_at"`
	AdvancedAt      *time.Time     `json:"advanced_at,omitempty"`
}

// AdvanceResult reports whether an evaluation moved the tracker to a new phase.
type AdvanceResult struct {
	Advanced  bool           `json:"advanced"`
	FromPhase EvolutionPhase `json:"from_phase"`
	ToPhase   EvolutionPhase `json:"to_phase"`
	Reason    string         `json:"reason"`
}
