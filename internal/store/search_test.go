package store_test

import (
	"context"
	"testing"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

func TestFullTextSearch(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cs := store.NewConceptStore(base, newFakeVectorStore())
	ss := store.NewSearchStore(base)
	ctx := context.Background()

	// Create concepts with distinctive labels for full-text search.
	for _, label := range []string{
		"Quantum photosynthesis research",
		"Quantum entanglement experiment",
		"Classical music composition",
	} {
		req := models.CreateConceptRequest{Type: "concept", Label: label}
		_ = req.Validate()

		if _, err := cs.CreateConcept(ctx, tenantID, req, nil); err != nil {
			t.Fatalf("CreateConcept(%s): %v", label, err)
		}
	}

	// Search for "quantum" — should find 2 concepts.
	results, err := ss.FullTextSearch(ctx, tenantID, "quantum", "", 0, 10)
	if err != nil {
		t.Fatalf("FullTextSearch: %v", err)
	}

	if len(results) != 2 {
		t.Errorf("FullTextSearch(quantum) = %d results, want 2", len(results))
	}

	// Search for "classical" — should find 1 concept.
	results, err = ss.FullTextSearch(ctx, tenantID, "classical", "", 0, 10)
	if err != nil {
		t.Fatalf("FullTextSearch: %v", err)
	}

	if len(results) != 1 {
		t.Errorf("FullTextSearch(classical) = %d results, want 1", len(results))
	}

	// Search with type filter.
	results, err = ss.FullTextSearch(ctx, tenantID, "quantum", "nonexistent", 0, 10)
	if err != nil {
		t.Fatalf("FullTextSearch with type filter: %v", err)
	}

	if len(results) != 0 {
		t.Errorf("FullTextSearch with bad type filter = %d results, want 0", len(results))
	}
}

func TestFetchByIDsScored(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cs := store.NewConceptStore(base, newFakeVectorStore())
	ss := store.NewSearchStore(base)
	ctx := context.Background()

	c := createTestConcept(t, cs, tenantID, "Scored Concept")

	scored, err := ss.FetchByIDsScored(ctx, tenantID, []string{c.ID, "missing-id"}, []float64{0.9, 0.5})
	if err != nil {
		t.Fatalf("FetchByIDsScored: %v", err)
	}

	if len(scored) != 1 {
		t.Fatalf("FetchByIDsScored = %d results, want 1 (missing id dropped)", len(scored))
	}

	if scored[0].Score != 0.9 {
		t.Errorf("FetchByIDsScored score = %v, want 0.9", scored[0].Score)
	}
}
