package store_test

import (
	"context"
	"testing"

	"github.com/persistorai/persistor/internal/store"
)

func TestBoostConceptSetsUserBoosted(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cs := store.NewConceptStore(base, newFakeVectorStore())
	ss := store.NewStrengthStore(base)
	ctx := context.Background()

	c := createTestConcept(t, cs, tenantID, "Boosted Concept")

	boosted, err := ss.BoostConcept(ctx, tenantID, c.ID)
	if err != nil {
		t.Fatalf("BoostConcept: %v", err)
	}

	if !boosted.UserBoosted {
		t.Error("BoostConcept: expected user_boosted = true")
	}
}

func TestRecalculateStrengthSkipsBoosted(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cs := store.NewConceptStore(base, newFakeVectorStore())
	ss := store.NewStrengthStore(base)
	ctx := context.Background()

	boosted := createTestConcept(t, cs, tenantID, "Already Boosted")
	plain := createTestConcept(t, cs, tenantID, "Plain Concept")

	if _, err := ss.BoostConcept(ctx, tenantID, boosted.ID); err != nil {
		t.Fatalf("BoostConcept: %v", err)
	}

	boostedBefore, err := cs.GetConcept(ctx, tenantID, boosted.ID)
	if err != nil {
		t.Fatalf("GetConcept: %v", err)
	}

	if _, err := ss.RecalculateStrength(ctx, tenantID); err != nil {
		t.Fatalf("RecalculateStrength: %v", err)
	}

	boostedAfter, err := cs.GetConcept(ctx, tenantID, boosted.ID)
	if err != nil {
		t.Fatalf("GetConcept: %v", err)
	}

	if boostedAfter.Strength != boostedBefore.Strength {
		t.Errorf("RecalculateStrength changed a boosted concept's strength: %v -> %v", boostedBefore.Strength, boostedAfter.Strength)
	}

	if _, err := cs.GetConcept(ctx, tenantID, plain.ID); err != nil {
		t.Fatalf("GetConcept(plain): %v", err)
	}
}
