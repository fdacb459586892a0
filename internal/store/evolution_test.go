package store_test

import (
	"context"
	"testing"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

func TestEvolutionStoreLoadMissingReturnsNotOK(t *testing.T) {
	base, tenantID := setupTestBase(t)
	es := store.NewEvolutionStore(base)

	_, ok, err := es.Load(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if ok {
		t.Error("Load for a tenant with no saved state: expected ok=false")
	}
}

func TestEvolutionStoreSaveThenLoadRoundTrips(t *testing.T) {
	base, tenantID := setupTestBase(t)
	es := store.NewEvolutionStore(base)
	ctx := context.Background()

	want := models.EvolutionState{
		Phase:        models.PhaseTransition,
		Bias:         0.25,
		WindowSize:   512,
		SemanticFrac: 0.4,
		ResolvedFrac: 0.9,
	}

	if err := es.Save(ctx, tenantID, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := es.Load(ctx, tenantID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !ok {
		t.Fatal("Load after Save: expected ok=true")
	}

	if got.Phase != want.Phase || got.Bias != want.Bias || got.WindowSize != want.WindowSize {
		t.Errorf("Load after Save = %+v, want %+v", got, want)
	}
}

func TestEvolutionStoreSaveTwiceUpdatesInPlace(t *testing.T) {
	base, tenantID := setupTestBase(t)
	es := store.NewEvolutionStore(base)
	ctx := context.Background()

	if err := es.Save(ctx, tenantID, models.EvolutionState{Phase: models.PhaseRelational, Bias: -1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := es.Save(ctx, tenantID, models.EvolutionState{Phase: models.PhaseSemantic, Bias: 1}); err != nil {
		t.Fatalf("Save (second): %v", err)
	}

	got, ok, err := es.Load(ctx, tenantID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !ok || got.Phase != models.PhaseSemantic || got.Bias != 1 {
		t.Errorf("Load after two Saves = %+v, want phase=semantic bias=1", got)
	}
}
