package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

func TestFindBySourceKeyReturnsMatchingConcept(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cs := store.NewConceptStore(base, newFakeVectorStore())
	ctx := context.Background()

	created, err := cs.CreateConcept(ctx, tenantID, models.CreateConceptRequest{
		Type:       "row",
		Label:      "Customer 42",
		Properties: map[string]any{"_source_key": "customers:42"},
	}, nil)
	if err != nil {
		t.Fatalf("CreateConcept: %v", err)
	}

	found, err := cs.FindBySourceKey(ctx, tenantID, "customers:42")
	if err != nil {
		t.Fatalf("FindBySourceKey: %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("FindBySourceKey returned id %q, want %q", found.ID, created.ID)
	}
}

func TestFindBySourceKeyReturnsNotFoundWhenAbsent(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cs := store.NewConceptStore(base, newFakeVectorStore())

	_, err := cs.FindBySourceKey(context.Background(), tenantID, "customers:missing")
	if !errors.Is(err, models.ErrConceptNotFound) {
		t.Errorf("FindBySourceKey for an unseen key: got %v, want ErrConceptNotFound", err)
	}
}
