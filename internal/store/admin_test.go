package store_test

import (
	"context"
	"testing"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

func TestListConceptsWithoutEmbeddings(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cs := store.NewConceptStore(base, newFakeVectorStore())
	as := store.NewAdminStore(base)
	ctx := context.Background()

	// CreateConcept with a nil embedding leaves no vector row — this is the
	// state a Synchronizer forward pass produces before the backfill worker runs.
	noVector, err := cs.CreateConcept(ctx, tenantID, models.CreateConceptRequest{
		Type: "entity", Label: "No Vector Yet",
	}, nil)
	if err != nil {
		t.Fatalf("CreateConcept: %v", err)
	}

	_ = createTestConcept(t, cs, tenantID, "Already Embedded")

	summaries, err := as.ListConceptsWithoutEmbeddings(ctx, tenantID, 10)
	if err != nil {
		t.Fatalf("ListConceptsWithoutEmbeddings: %v", err)
	}

	found := false

	for _, s := range summaries {
		if s.ID == noVector.ID {
			found = true
		}
	}

	if !found {
		t.Errorf("ListConceptsWithoutEmbeddings: expected %s among results", noVector.ID)
	}
}
