package intent_test

import (
	"errors"
	"testing"

	"github.com/persistorai/persistor/internal/intent"
	"github.com/persistorai/persistor/internal/models"
)

func TestAnalyzeStrongSQLPrefix(t *testing.T) {
	d := intent.NewDeterministic()

	decision, _, err := d.Analyze("SELECT * FROM concepts WHERE id = 1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if decision.Kind != models.IntentSQL || decision.Confidence != 1.0 {
		t.Errorf("Analyze strong-sql query = %+v, want kind=sql confidence=1.0", decision)
	}
}

func TestAnalyzeSemanticDominant(t *testing.T) {
	d := intent.NewDeterministic()

	decision, signals, err := d.Analyze("find concepts similar to things related to quantum computing")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if decision.Kind != models.IntentSemantic {
		t.Errorf("Analyze semantic query kind = %q, want %q (signals=%v)", decision.Kind, models.IntentSemantic, signals)
	}
}

func TestAnalyzeHybridOnMixedSignal(t *testing.T) {
	d := intent.NewDeterministic()

	decision, _, err := d.Analyze("show me rows from the orders table where similar products were bought")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if decision.Kind != models.IntentHybrid && decision.Kind != models.IntentSQL && decision.Kind != models.IntentSemantic {
		t.Errorf("Analyze mixed query kind = %q, want one of sql/semantic/hybrid", decision.Kind)
	}
}

func TestAnalyzeEmptyQueryFails(t *testing.T) {
	d := intent.NewDeterministic()

	_, _, err := d.Analyze("   ")
	if !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("Analyze empty query: got %v, want ErrEmptyQuery", err)
	}
}

func TestApplyBiasBoostsSemanticConfidence(t *testing.T) {
	decision := models.RouteDecision{Kind: models.IntentSemantic, Confidence: 0.5}

	boosted := intent.ApplyBias(decision, 0.4)
	if boosted.Confidence != 0.7 {
		t.Errorf("ApplyBias confidence = %v, want 0.7", boosted.Confidence)
	}
}

func TestApplyBiasClampsAtOne(t *testing.T) {
	decision := models.RouteDecision{Kind: models.IntentSemantic, Confidence: 0.9}

	boosted := intent.ApplyBias(decision, 1.0)
	if boosted.Confidence != 1.0 {
		t.Errorf("ApplyBias confidence = %v, want clamped to 1.0", boosted.Confidence)
	}
}

func TestApplyBiasLeavesSQLDecisionsUnchanged(t *testing.T) {
	decision := models.RouteDecision{Kind: models.IntentSQL, Confidence: 0.8}

	unchanged := intent.ApplyBias(decision, 0.9)
	if unchanged.Confidence != 0.8 {
		t.Errorf("ApplyBias on sql decision confidence = %v, want unchanged 0.8", unchanged.Confidence)
	}
}
