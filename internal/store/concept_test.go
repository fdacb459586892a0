package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

// fakeVectorStore is an in-memory stand-in for the vector engine collaborator,
// used so store package tests can exercise ConceptStore's two-phase write
// without a real pgvector-backed service.
type fakeVectorStore struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	failNext   bool
	alwaysFail bool
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{vectors: make(map[string][]float32)}
}

func (f *fakeVectorStore) Upsert(_ context.Context, tenantID, conceptID string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.alwaysFail {
		return models.ErrVectorBackendError
	}

	if f.failNext {
		f.failNext = false
		return models.ErrVectorBackendError
	}

	f.vectors[tenantID+"/"+conceptID] = embedding

	return nil
}

func (f *fakeVectorStore) Delete(_ context.Context, tenantID, conceptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.vectors, tenantID+"/"+conceptID)

	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, _ string, _ []float32, limit int) ([]models.ScoredConcept, error) {
	return make([]models.ScoredConcept, 0, limit), nil
}

func (f *fakeVectorStore) Dimension() int { return 8 }

// createTestConcept creates a concept with a fixed small embedding and fails the test on error.
func createTestConcept(t *testing.T, cs *store.ConceptStore, tenantID, label string) *models.Concept {
	t.Helper()

	ctx := context.Background()

	c, err := cs.CreateConcept(ctx, tenantID, models.CreateConceptRequest{
		Type:  "entity",
		Label: label,
	}, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8})
	if err != nil {
		t.Fatalf("CreateConcept(%q): %v", label, err)
	}

	return c
}

func TestCreateConceptWritesVectorThenMetadata(t *testing.T) {
	base, tenantID := setupTestBase(t)
	vectors := newFakeVectorStore()
	cs := store.NewConceptStore(base, vectors)

	c := createTestConcept(t, cs, tenantID, "Widget")

	if _, ok := vectors.vectors[tenantID+"/"+c.ID]; !ok {
		t.Errorf("expected vector to be written for concept %s", c.ID)
	}
}

func TestUpdateConceptRecordsPropertyHistory(t *testing.T) {
	base, tenantID := setupTestBase(t)
	vectors := newFakeVectorStore()
	cs := store.NewConceptStore(base, vectors)
	hs := store.NewHistoryStore(base)
	ctx := context.Background()

	c := createTestConcept(t, cs, tenantID, "Gadget")

	newProps := map[string]any{"color": "blue"}

	if _, err := cs.UpdateConcept(ctx, tenantID, c.ID, models.UpdateConceptRequest{
		Properties: newProps,
	}); err != nil {
		t.Fatalf("UpdateConcept: %v", err)
	}

	changes, _, err := hs.GetPropertyHistory(ctx, tenantID, c.ID, "", 10, 0)
	if err != nil {
		t.Fatalf("GetPropertyHistory: %v", err)
	}

	if len(changes) == 0 {
		t.Error("expected at least one property history entry after update")
	}
}

func TestCreateConceptFailsWithoutMetadataWhenVectorStoreIsDown(t *testing.T) {
	base, tenantID := setupTestBase(t)
	vectors := newFakeVectorStore()
	vectors.alwaysFail = true
	cs := store.NewConceptStore(base, vectors)
	ctx := context.Background()

	_, err := cs.CreateConcept(ctx, tenantID, models.CreateConceptRequest{
		ID: "doomed-concept", Type: "entity", Label: "Doomed",
	}, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8})
	if err == nil {
		t.Fatal("CreateConcept with a failing vector store: expected an error")
	}

	if _, getErr := cs.GetConcept(ctx, tenantID, "doomed-concept"); !errors.Is(getErr, models.ErrConceptNotFound) {
		t.Errorf("GetConcept after failed create: got %v, want ErrConceptNotFound (no orphaned metadata)", getErr)
	}
}

func TestDeleteConceptRemovesVector(t *testing.T) {
	base, tenantID := setupTestBase(t)
	vectors := newFakeVectorStore()
	cs := store.NewConceptStore(base, vectors)
	ctx := context.Background()

	c := createTestConcept(t, cs, tenantID, "Throwaway")

	if err := cs.DeleteConcept(ctx, tenantID, c.ID); err != nil {
		t.Fatalf("DeleteConcept: %v", err)
	}

	if _, ok := vectors.vectors[tenantID+"/"+c.ID]; ok {
		t.Error("expected vector to be removed after DeleteConcept")
	}
}
