// Package evolution implements the Evolution Tracker (spec §4.5): a
// per-tenant rolling window of query outcomes that self-tunes the Query
// Router's semantic/sql bias as the concept graph matures, advancing
// through PhaseRelational -> PhaseTransition -> PhaseSemantic.
package evolution

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/metrics"
	"github.com/persistorai/persistor/internal/models"
)

// windowSize is the rolling-window capacity of spec §4.5: "last 1000
// queries; older discarded."
const windowSize = 1000

// phaseBias maps each phase to the signed routing bias the Intent Analyzer
// applies to semantic/hybrid confidence (spec §4.1 step 5). The spec
// describes a four-tier concept_ratio {0.1, 0.3, 0.7, 1.0} keyed by a
// numeric phase the rest of this codebase's three-phase enum does not
// carry; bias expresses the same self-tuning signal on a [-1, 1] scale
// without requiring a fourth phase (see DESIGN.md open question).
var phaseBias = map[models.EvolutionPhase]float64{
	models.PhaseRelational: -0.6,
	models.PhaseTransition: 0.0,
	models.PhaseSemantic:   0.6,
}

var phaseOrder = []models.EvolutionPhase{
	models.PhaseRelational,
	models.PhaseTransition,
	models.PhaseSemantic,
}

// stateStore persists per-tenant evolution state across restarts. Satisfied
// by internal/store.EvolutionStore; declared locally so this package does
// not depend on the storage layer's concrete types.
type stateStore interface {
	Load(ctx context.Context, tenantID string) (models.EvolutionState, bool, error)
	Save(ctx context.Context, tenantID string, state models.EvolutionState) error
}

// Targets holds the advancement thresholds, wired from internal/config.
type Targets struct {
	RelationalToTransition float64
	TransitionToSemantic   float64
	SemanticCeiling        float64
}

// tenantWindow is the rolling window and derived phase state for one
// tenant, guarded by its own RWMutex: single writer (Observe), many
// readers (Snapshot), per spec §5.
type tenantWindow struct {
	mu         sync.RWMutex
	outcomes   []models.QueryOutcome
	next       int
	count      int
	phase      models.EvolutionPhase
	advancedAt *time.Time
}

// Tracker is the Evolution Tracker. One Tracker instance serves every
// tenant; per-tenant state lives in an internal map guarded by its own lock
// for the map itself (tenant windows are looked up, then locked
// independently — adding a tenant never blocks observers of another).
type Tracker struct {
	mu      sync.Mutex
	tenants map[string]*tenantWindow
	targets Targets
	store   stateStore
	log     *logrus.Logger
}

// New creates a Tracker. store may be nil, in which case state is
// in-memory only and does not survive a restart.
func New(targets Targets, store stateStore, log *logrus.Logger) *Tracker {
	return &Tracker{
		tenants: make(map[string]*tenantWindow),
		targets: targets,
		store:   store,
		log:     log,
	}
}

func (t *Tracker) window(tenantID string) *tenantWindow {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.tenants[tenantID]
	if !ok {
		w = &tenantWindow{phase: models.PhaseRelational}
		t.tenants[tenantID] = w
	}

	return w
}

// Hydrate loads a tenant's persisted phase state, if any, ahead of serving
// its first request. Safe to call repeatedly; a later call only overwrites
// phase/advancedAt, never the in-memory rolling window.
func (t *Tracker) Hydrate(ctx context.Context, tenantID string) error {
	if t.store == nil {
		return nil
	}

	state, ok, err := t.store.Load(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("hydrating evolution state: %w", err)
	}

	if !ok {
		return nil
	}

	w := t.window(tenantID)

	w.mu.Lock()
	w.phase = state.Phase
	w.advancedAt = state.AdvancedAt
	w.mu.Unlock()

	metrics.EvolutionPhase.WithLabelValues(tenantID).Set(float64(phaseIndex(state.Phase)))

	return nil
}

// Observe records one routed query's outcome into tenantID's rolling
// window, overwriting the oldest entry once the window is full.
func (t *Tracker) Observe(tenantID string, outcome models.QueryOutcome) {
	w := t.window(tenantID)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.outcomes == nil {
		w.outcomes = make([]models.QueryOutcome, 0, windowSize)
	}

	if len(w.outcomes) < windowSize {
		w.outcomes = append(w.outcomes, outcome)
	} else {
		w.outcomes[w.next] = outcome
		w.next = (w.next + 1) % windowSize
	}

	w.count++
}

// Bias returns tenantID's current routing bias, the quantity the Intent
// Analyzer multiplies into semantic/hybrid confidence.
func (t *Tracker) Bias(tenantID string) float64 {
	w := t.window(tenantID)

	w.mu.RLock()
	defer w.mu.RUnlock()

	return phaseBias[w.phase]
}

// Snapshot returns tenantID's current evolution state.
func (t *Tracker) Snapshot(tenantID string) models.EvolutionState {
	w := t.window(tenantID)

	w.mu.RLock()
	defer w.mu.RUnlock()

	semanticFrac, resolvedFrac := fractions(w.outcomes)

	return models.EvolutionState{
		Phase:        w.phase,
		Bias:         phaseBias[w.phase],
		WindowSize:   len(w.outcomes),
		SemanticFrac: semanticFrac,
		ResolvedFrac: resolvedFrac,
		UpdatedAt:    time.Now(),
		AdvancedAt:   w.advancedAt,
	}
}

func fractions(outcomes []models.QueryOutcome) (semanticFrac, resolvedFrac float64) {
	if len(outcomes) == 0 {
		return 0, 0
	}

	var semanticCount, resolvedCount int

	for _, o := range outcomes {
		if o.Kind == models.IntentSemantic || o.Kind == models.IntentHybrid {
			semanticCount++
		}

		if o.Resolved {
			resolvedCount++
		}
	}

	total := float64(len(outcomes))

	return float64(semanticCount) / total, float64(resolvedCount) / total
}

// EvaluateAdvancement implements spec §4.5's four preconditions exactly:
// the concept-query fraction clears the next phase's target, average
// confidence on successful semantic queries is >= 0.70, p95 semantic
// latency is within 2x p95 sql latency (or <= 500ms absolute), and at
// least 1000 queries have been observed since the last advancement.
// Regression is never automatic (spec §4.5): this only ever advances.
func (t *Tracker) EvaluateAdvancement(ctx context.Context, tenantID string) (*models.AdvanceResult, error) {
	w := t.window(tenantID)

	w.mu.Lock()

	idx := phaseIndex(w.phase)
	if idx == len(phaseOrder)-1 {
		w.mu.Unlock()
		return &models.AdvanceResult{Advanced: false, FromPhase: w.phase, ToPhase: w.phase, Reason: "already at ceiling phase"}, nil
	}

	if len(w.outcomes) < windowSize {
		reason := fmt.Sprintf("only %d of %d required queries observed since last advancement", len(w.outcomes), windowSize)
		w.mu.Unlock()

		return &models.AdvanceResult{Advanced: false, FromPhase: w.phase, ToPhase: w.phase, Reason: reason}, nil
	}

	target := t.targetFor(idx + 1)

	semanticFrac, _ := fractions(w.outcomes)
	avgConfidence := averageSemanticConfidence(w.outcomes)
	semanticP95, sqlP95 := latencyP95s(w.outcomes)

	latencyOK := semanticP95 <= 500*time.Millisecond || semanticP95 <= 2*sqlP95

	var reason string

	advance := true

	switch {
	case semanticFrac < target:
		advance = false
		reason = fmt.Sprintf("semantic fraction %.2f below target %.2f", semanticFrac, target)
	case avgConfidence < 0.70:
		advance = false
		reason = fmt.Sprintf("average semantic confidence %.2f below 0.70", avgConfidence)
	case !latencyOK:
		advance = false
		reason = fmt.Sprintf("semantic p95 %s exceeds bound (2x sql p95 %s, 500ms absolute)", semanticP95, sqlP95)
	default:
		reason = fmt.Sprintf("semantic fraction %.2f >= target %.2f, confidence %.2f, latency within bound", semanticFrac, target, avgConfidence)
	}

	if !advance {
		w.mu.Unlock()
		return &models.AdvanceResult{Advanced: false, FromPhase: w.phase, ToPhase: w.phase, Reason: reason}, nil
	}

	from := w.phase
	to := phaseOrder[idx+1]
	now := time.Now()
	w.phase = to
	w.advancedAt = &now
	w.outcomes = nil
	w.count = 0
	w.next = 0

	w.mu.Unlock()

	metrics.EvolutionPhase.WithLabelValues(tenantID).Set(float64(phaseIndex(to)))

	if t.store != nil {
		if err := t.store.Save(ctx, tenantID, t.Snapshot(tenantID)); err != nil {
			if t.log != nil {
				t.log.WithError(err).WithField("tenant_id", tenantID).Warn("persisting evolution phase advancement")
			}

			return nil, fmt.Errorf("persisting phase advancement: %w", err)
		}
	}

	return &models.AdvanceResult{Advanced: true, FromPhase: from, ToPhase: to, Reason: reason}, nil
}

func (t *Tracker) targetFor(idx int) float64 {
	switch idx {
	case 1:
		return t.targets.RelationalToTransition
	case 2:
		return t.targets.TransitionToSemantic
	default:
		return t.targets.SemanticCeiling
	}
}

func phaseIndex(phase models.EvolutionPhase) int {
	for i, p := range phaseOrder {
		if p == phase {
			return i
		}
	}

	return 0
}

func averageSemanticConfidence(outcomes []models.QueryOutcome) float64 {
	var sum float64

	var count int

	for _, o := range outcomes {
		if (o.Kind == models.IntentSemantic || o.Kind == models.IntentHybrid) && o.Resolved {
			sum += o.Confidence
			count++
		}
	}

	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

// latencyP95s computes the p95 latency observed for the semantic/hybrid
// layer and the sql layer separately, over the current window.
func latencyP95s(outcomes []models.QueryOutcome) (semanticP95, sqlP95 time.Duration) {
	var semanticMS, sqlMS []int64

	for _, o := range outcomes {
		switch o.Kind {
		case models.IntentSemantic, models.IntentHybrid:
			semanticMS = append(semanticMS, o.LatencyMS)
		case models.IntentSQL:
			sqlMS = append(sqlMS, o.LatencyMS)
		}
	}

	return percentile95(semanticMS), percentile95(sqlMS)
}

func percentile95(valuesMS []int64) time.Duration {
	if len(valuesMS) == 0 {
		return 0
	}

	sorted := make([]int64, len(valuesMS))
	copy(sorted, valuesMS)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted))*0.95 + 0.5)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return time.Duration(sorted[idx]) * time.Millisecond
}
