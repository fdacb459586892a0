package evolution_test

import (
	"context"
	"testing"

	"github.com/persistorai/persistor/internal/evolution"
	"github.com/persistorai/persistor/internal/models"
)

func newTestTracker() *evolution.Tracker {
	targets := evolution.Targets{RelationalToTransition: 0.20, TransitionToSemantic: 0.50, SemanticCeiling: 0.80}
	return evolution.New(targets, nil, nil)
}

func TestNewTenantStartsInRelationalPhase(t *testing.T) {
	tr := newTestTracker()

	snap := tr.Snapshot("tenant-a")
	if snap.Phase != models.PhaseRelational {
		t.Errorf("Snapshot phase = %q, want %q", snap.Phase, models.PhaseRelational)
	}
}

func TestObserveAccumulatesIntoWindow(t *testing.T) {
	tr := newTestTracker()

	for i := 0; i < 5; i++ {
		tr.Observe("tenant-b", models.QueryOutcome{Kind: models.IntentSemantic, Confidence: 0.9, Resolved: true})
	}

	snap := tr.Snapshot("tenant-b")
	if snap.WindowSize != 5 {
		t.Errorf("Snapshot window size = %d, want 5", snap.WindowSize)
	}

	if snap.SemanticFrac != 1.0 {
		t.Errorf("Snapshot semantic fraction = %v, want 1.0", snap.SemanticFrac)
	}
}

func TestEvaluateAdvancementRefusesBelowQueryFloor(t *testing.T) {
	tr := newTestTracker()
	tr.Observe("tenant-c", models.QueryOutcome{Kind: models.IntentSemantic, Confidence: 0.9, Resolved: true})

	result, err := tr.EvaluateAdvancement(context.Background(), "tenant-c")
	if err != nil {
		t.Fatalf("EvaluateAdvancement: %v", err)
	}

	if result.Advanced {
		t.Error("EvaluateAdvancement with <1000 observed queries: expected no advancement")
	}
}

func TestEvaluateAdvancementAdvancesWhenThresholdsClear(t *testing.T) {
	tr := newTestTracker()

	for i := 0; i < 1000; i++ {
		tr.Observe("tenant-d", models.QueryOutcome{
			Kind: models.IntentSemantic, Confidence: 0.95, Resolved: true, LatencyMS: 10,
		})
	}

	result, err := tr.EvaluateAdvancement(context.Background(), "tenant-d")
	if err != nil {
		t.Fatalf("EvaluateAdvancement: %v", err)
	}

	if !result.Advanced {
		t.Fatalf("EvaluateAdvancement with all-semantic high-confidence window: expected advancement, got reason %q", result.Reason)
	}

	if result.FromPhase != models.PhaseRelational || result.ToPhase != models.PhaseTransition {
		t.Errorf("EvaluateAdvancement = %+v, want relational -> transition", result)
	}
}

func TestEvaluateAdvancementRefusesOnLowConfidence(t *testing.T) {
	tr := newTestTracker()

	for i := 0; i < 1000; i++ {
		tr.Observe("tenant-e", models.QueryOutcome{
			Kind: models.IntentSemantic, Confidence: 0.2, Resolved: true, LatencyMS: 10,
		})
	}

	result, err := tr.EvaluateAdvancement(context.Background(), "tenant-e")
	if err != nil {
		t.Fatalf("EvaluateAdvancement: %v", err)
	}

	if result.Advanced {
		t.Error("EvaluateAdvancement with low confidence: expected no advancement")
	}
}

func TestBiasReflectsPhase(t *testing.T) {
	tr := newTestTracker()

	if bias := tr.Bias("tenant-f"); bias >= 0 {
		t.Errorf("Bias for fresh tenant (relational phase) = %v, want negative", bias)
	}
}
