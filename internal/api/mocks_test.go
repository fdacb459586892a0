package api_test

import (
	"context"

	"github.com/persistorai/persistor/internal/models"
)

// mockConceptRepo implements api.ConceptRepository for testing.
type mockConceptRepo struct {
	listFn   func(ctx context.Context, tenantID, typeFilter string, minStrength float64, limit, offset int) ([]models.Concept, bool, error)
	getFn    func(ctx context.Context, tenantID, conceptID string) (*models.Concept, error)
	createFn func(ctx context.Context, tenantID string, req models.CreateConceptRequest) (*models.Concept, error)
	updateFn func(ctx context.Context, tenantID, conceptID string, req models.UpdateConceptRequest) (*models.Concept, error)
	patchFn  func(ctx context.Context, tenantID, conceptID string, req models.PatchPropertiesRequest) (*models.Concept, error)
	deleteFn func(ctx context.Context, tenantID, conceptID string) error
	mergeFn  func(ctx context.Context, tenantID string, req models.MergeConceptsRequest) (*models.MergeConceptsResult, error)
}

func (m *mockConceptRepo) ListConcepts(ctx context.Context, tenantID, typeFilter string, minStrength float64, limit, offset int) ([]models.Concept, bool, error) {
	return m.listFn(ctx, tenantID, typeFilter, minStrength, limit, offset)
}

func (m *mockConceptRepo) GetConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error) {
	return m.getFn(ctx, tenantID, conceptID)
}

func (m *mockConceptRepo) CreateConcept(ctx context.Context, tenantID string, req models.CreateConceptRequest) (*models.Concept, error) {
	return m.createFn(ctx, tenantID, req)
}

func (m *mockConceptRepo) UpdateConcept(ctx context.Context, tenantID, conceptID string, req models.UpdateConceptRequest) (*models.Concept, error) {
	return m.updateFn(ctx, tenantID, conceptID, req)
}

func (m *mockConceptRepo) PatchConceptProperties(ctx context.Context, tenantID, conceptID string, req models.PatchPropertiesRequest) (*models.Concept, error) {
	return m.patchFn(ctx, tenantID, conceptID, req)
}

func (m *mockConceptRepo) DeleteConcept(ctx context.Context, tenantID, conceptID string) error {
	return m.deleteFn(ctx, tenantID, conceptID)
}

func (m *mockConceptRepo) MergeConcepts(ctx context.Context, tenantID string, req models.MergeConceptsRequest) (*models.MergeConceptsResult, error) {
	return m.mergeFn(ctx, tenantID, req)
}

// mockRelationRepo implements api.RelationRepository for testing.
type mockRelationRepo struct {
	listFn   func(ctx context.Context, tenantID, source, target, relType string, limit, offset int) ([]models.Relation, bool, error)
	createFn func(ctx context.Context, tenantID string, req models.CreateRelationRequest) (*models.Relation, error)
	updateFn func(ctx context.Context, tenantID, source, target, relType string, req models.UpdateRelationRequest) (*models.Relation, error)
	patchFn  func(ctx context.Context, tenantID, source, target, relType string, req models.PatchPropertiesRequest) (*models.Relation, error)
	deleteFn func(ctx context.Context, tenantID, source, target, relType string) error
}

func (m *mockRelationRepo) ListRelations(ctx context.Context, tenantID, source, target, relType string, limit, offset int) ([]models.Relation, bool, error) {
	return m.listFn(ctx, tenantID, source, target, relType, limit, offset)
}

func (m *mockRelationRepo) CreateRelation(ctx context.Context, tenantID string, req models.CreateRelationRequest) (*models.Relation, error) {
	return m.createFn(ctx, tenantID, req)
}

func (m *mockRelationRepo) UpdateRelation(ctx context.Context, tenantID, source, target, relType string, req models.UpdateRelationRequest) (*models.Relation, error) {
	return m.updateFn(ctx, tenantID, source, target, relType, req)
}

func (m *mockRelationRepo) PatchRelationProperties(ctx context.Context, tenantID, source, target, relType string, req models.PatchPropertiesRequest) (*models.Relation, error) {
	return m.patchFn(ctx, tenantID, source, target, relType, req)
}

func (m *mockRelationRepo) DeleteRelation(ctx context.Context, tenantID, source, target, relType string) error {
	return m.deleteFn(ctx, tenantID, source, target, relType)
}

// mockSearchRepo implements api.SearchRepository for testing.
type mockSearchRepo struct {
	fullTextFn func(ctx context.Context, tenantID, query, typeFilter string, minStrength float64, limit int) ([]models.Concept, error)
	semanticFn func(ctx context.Context, tenantID, query string, limit int) ([]models.ScoredConcept, error)
	hybridFn   func(ctx context.Context, tenantID, query string, limit int) ([]models.Concept, error)
}

func (m *mockSearchRepo) FullTextSearch(ctx context.Context, tenantID, query, typeFilter string, minStrength float64, limit int) ([]models.Concept, error) {
	return m.fullTextFn(ctx, tenantID, query, typeFilter, minStrength, limit)
}

func (m *mockSearchRepo) SemanticSearch(ctx context.Context, tenantID, query string, limit int) ([]models.ScoredConcept, error) {
	return m.semanticFn(ctx, tenantID, query, limit)
}

func (m *mockSearchRepo) HybridSearch(ctx context.Context, tenantID, query string, limit int) ([]models.Concept, error) {
	return m.hybridFn(ctx, tenantID, query, limit)
}
