package service

import (
	"context"
	"errors"
	"testing"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/router"
)

func TestSearchService_FullTextSearch(t *testing.T) {
	store := &mockFullTextStore{
		fullTextSearch: func(_ context.Context, _, _, _ string, _ float64, _ int) ([]models.ScoredConcept, error) {
			return []models.ScoredConcept{{Concept: models.Concept{ID: "c1", Label: "Match"}, Score: 0.8}}, nil
		},
	}
	svc := NewSearchService(store, nil, testLogger())

	concepts, err := svc.FullTextSearch(context.Background(), "t1", "match", "", 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(concepts) != 1 || concepts[0].ID != "c1" {
		t.Errorf("unexpected results: %v", concepts)
	}
	if len(store.calls) != 1 || store.calls[0] != "FullTextSearch" {
		t.Errorf("expected FullTextSearch call, got %v", store.calls)
	}
}

func newTestSemanticSearch(embedErr error) *router.SemanticSearch {
	embedder := &mockEmbedder{
		embed: func(_ context.Context, _ string) ([]float32, error) {
			if embedErr != nil {
				return nil, embedErr
			}
			return []float32{0.1, 0.2, 0.3}, nil
		},
	}
	vectors := &mockVectorStore{
		search: func(_ context.Context, _ string, _ []float32, _ int) ([]models.ScoredConcept, error) {
			return []models.ScoredConcept{{Concept: models.Concept{ID: "c1"}, Score: 0.9}}, nil
		},
	}
	fullText := &mockFullTextStore{
		fullTextSearch: func(_ context.Context, _, _, _ string, _ float64, _ int) ([]models.ScoredConcept, error) {
			return []models.ScoredConcept{{Concept: models.Concept{ID: "c2"}, Score: 0.7}}, nil
		},
	}
	hydrate := &mockIDHydrator{
		fetchByIDsScored: func(_ context.Context, _ string, ids []string, scores []float64) ([]models.ScoredConcept, error) {
			out := make([]models.ScoredConcept, len(ids))
			for i, id := range ids {
				out[i] = models.ScoredConcept{Concept: models.Concept{ID: id}, Score: scores[i]}
			}
			return out, nil
		},
	}

	return router.NewSemanticSearch(embedder, vectors, fullText, hydrate)
}

func TestSearchService_SemanticSearch(t *testing.T) {
	tests := []struct {
		name     string
		embedErr error
		wantErr  bool
	}{
		{name: "success"},
		{name: "embed error", embedErr: errors.New("ollama down"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			semantic := newTestSemanticSearch(tc.embedErr)
			svc := NewSearchService(&mockFullTextStore{}, semantic, testLogger())

			results, err := svc.SemanticSearch(context.Background(), "t1", "test query", 10)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) == 0 {
				t.Error("expected fused results, got none")
			}
		})
	}
}

func TestSearchService_HybridSearch(t *testing.T) {
	semantic := newTestSemanticSearch(nil)
	svc := NewSearchService(&mockFullTextStore{}, semantic, testLogger())

	concepts, err := svc.HybridSearch(context.Background(), "t1", "query", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(concepts) == 0 {
		t.Error("expected results, got none")
	}
	for _, c := range concepts {
		if c.ID == "" {
			t.Errorf("expected concept IDs to survive score stripping, got %+v", c)
		}
	}
}
