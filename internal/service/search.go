package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/router"
)

// fullTextStore is the narrow full-text search dependency SearchService
// needs; satisfied structurally by *internal/store.SearchStore.
type fullTextStore interface {
	FullTextSearch(ctx context.Context, tenantID, query, typeFilter string, minStrength float64, limit int) ([]models.ScoredConcept, error)
}

// Compile-time check: *SearchService must satisfy domain.SearchService.
var _ domain.SearchService = (*SearchService)(nil)

// SearchService wraps full-text search and the shared semantic-ranking
// fusion (router.SemanticSearch, also used by the Query Router's hybrid
// branch) in the business-logic layer the API handlers call. Grounded on
// the teacher's SearchService, which likewise generated an embedding from
// the query string before delegating to the store.
type SearchService struct {
	fullText fullTextStore
	semantic *router.SemanticSearch
	log      *logrus.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(fullText fullTextStore, semantic *router.SemanticSearch, log *logrus.Logger) *SearchService {
	return &SearchService{fullText: fullText, semantic: semantic, log: log}
}

// FullTextSearch performs a full-text search and strips fused scores, since
// domain.SearchService's FullTextSearch reports plain concepts.
func (s *SearchService) FullTextSearch(
	ctx context.Context, tenantID, query, typeFilter string, minStrength float64, limit int,
) ([]models.Concept, error) {
	scored, err := s.fullText.FullTextSearch(ctx, tenantID, query, typeFilter, minStrength, limit)
	if err != nil {
		return nil, err
	}

	return stripScores(scored), nil
}

// SemanticSearch ranks concepts by fused vector + full-text relevance
// (pass-through to router.SemanticSearch).
func (s *SearchService) SemanticSearch(
	ctx context.Context, tenantID, query string, limit int,
) ([]models.ScoredConcept, error) {
	return s.semantic.Search(ctx, tenantID, query, limit)
}

// HybridSearch is SemanticSearch with scores stripped, for callers that only
// want the concept set (e.g. a non-ranked dashboard view).
func (s *SearchService) HybridSearch(
	ctx context.Context, tenantID, query string, limit int,
) ([]models.Concept, error) {
	scored, err := s.semantic.Search(ctx, tenantID, query, limit)
	if err != nil {
		return nil, err
	}

	return stripScores(scored), nil
}

func stripScores(scored []models.ScoredConcept) []models.Concept {
	concepts := make([]models.Concept, len(scored))
	for i := range scored {
		concepts[i] = scored[i].Concept
	}

	return concepts
}
