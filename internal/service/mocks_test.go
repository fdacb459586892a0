package service

import (
	"context"
	"sync"

	"github.com/persistorai/persistor/internal/models"
)

// mockConceptStore records calls and returns configured responses.
type mockConceptStore struct {
	mu    sync.Mutex
	calls []string

	listConcepts          func(ctx context.Context, tenantID, typeFilter string, minStrength float64, limit, offset int) ([]models.Concept, bool, error)
	getConcept            func(ctx context.Context, tenantID, conceptID string) (*models.Concept, error)
	createConcept         func(ctx context.Context, tenantID string, req models.CreateConceptRequest, embedding []float32) (*models.Concept, error)
	updateConcept         func(ctx context.Context, tenantID, conceptID string, req models.UpdateConceptRequest) (*models.Concept, error)
	patchConceptProps     func(ctx context.Context, tenantID, conceptID string, req models.PatchPropertiesRequest) (*models.Concept, error)
	deleteConcept         func(ctx context.Context, tenantID, conceptID string) error
	reembed               func(ctx context.Context, tenantID, conceptID string, embedding []float32) error
}

func (m *mockConceptStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockConceptStore) ListConcepts(ctx context.Context, tenantID, typeFilter string, minStrength float64, limit, offset int) ([]models.Concept, bool, error) {
	m.record("ListConcepts")
	return m.listConcepts(ctx, tenantID, typeFilter, minStrength, limit, offset)
}

func (m *mockConceptStore) GetConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error) {
	m.record("GetConcept")
	return m.getConcept(ctx, tenantID, conceptID)
}

func (m *mockConceptStore) CreateConcept(ctx context.Context, tenantID string, req models.CreateConceptRequest, embedding []float32) (*models.Concept, error) {
	m.record("CreateConcept")
	return m.createConcept(ctx, tenantID, req, embedding)
}

func (m *mockConceptStore) UpdateConcept(ctx context.Context, tenantID, conceptID string, req models.UpdateConceptRequest) (*models.Concept, error) {
	m.record("UpdateConcept")
	return m.updateConcept(ctx, tenantID, conceptID, req)
}

func (m *mockConceptStore) PatchConceptProperties(ctx context.Context, tenantID, conceptID string, req models.PatchPropertiesRequest) (*models.Concept, error) {
	m.record("PatchConceptProperties")
	return m.patchConceptProps(ctx, tenantID, conceptID, req)
}

func (m *mockConceptStore) DeleteConcept(ctx context.Context, tenantID, conceptID string) error {
	m.record("DeleteConcept")
	return m.deleteConcept(ctx, tenantID, conceptID)
}

func (m *mockConceptStore) Reembed(ctx context.Context, tenantID, conceptID string, embedding []float32) error {
	m.record("Reembed")
	return m.reembed(ctx, tenantID, conceptID, embedding)
}

// mockConceptMerger records MergeConcepts calls.
type mockConceptMerger struct {
	mu    sync.Mutex
	calls []string

	mergeConcepts func(ctx context.Context, tenantID string, req models.MergeConceptsRequest) (*models.MergeConceptsResult, error)
}

func (m *mockConceptMerger) MergeConcepts(ctx context.Context, tenantID string, req models.MergeConceptsRequest) (*models.MergeConceptsResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, "MergeConcepts")
	m.mu.Unlock()
	return m.mergeConcepts(ctx, tenantID, req)
}

// mockRelationStore records calls and returns configured responses.
type mockRelationStore struct {
	mu    sync.Mutex
	calls []string

	listRelations      func(ctx context.Context, tenantID, source, target, relType string, limit, offset int) ([]models.Relation, bool, error)
	createRelation     func(ctx context.Context, tenantID string, req models.CreateRelationRequest) (*models.Relation, error)
	updateRelation     func(ctx context.Context, tenantID, source, target, relType string, req models.UpdateRelationRequest) (*models.Relation, error)
	patchRelationProps func(ctx context.Context, tenantID, source, target, relType string, req models.PatchPropertiesRequest) (*models.Relation, error)
	deleteRelation     func(ctx context.Context, tenantID, source, target, relType string) error
}

func (m *mockRelationStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockRelationStore) ListRelations(ctx context.Context, tenantID, source, target, relType string, limit, offset int) ([]models.Relation, bool, error) {
	m.record("ListRelations")
	return m.listRelations(ctx, tenantID, source, target, relType, limit, offset)
}

func (m *mockRelationStore) CreateRelation(ctx context.Context, tenantID string, req models.CreateRelationRequest) (*models.Relation, error) {
	m.record("CreateRelation")
	return m.createRelation(ctx, tenantID, req)
}

func (m *mockRelationStore) UpdateRelation(ctx context.Context, tenantID, source, target, relType string, req models.UpdateRelationRequest) (*models.Relation, error) {
	m.record("UpdateRelation")
	return m.updateRelation(ctx, tenantID, source, target, relType, req)
}

func (m *mockRelationStore) PatchRelationProperties(ctx context.Context, tenantID, source, target, relType string, req models.PatchPropertiesRequest) (*models.Relation, error) {
	m.record("PatchRelationProperties")
	return m.patchRelationProps(ctx, tenantID, source, target, relType, req)
}

func (m *mockRelationStore) DeleteRelation(ctx context.Context, tenantID, source, target, relType string) error {
	m.record("DeleteRelation")
	return m.deleteRelation(ctx, tenantID, source, target, relType)
}

// mockFullTextStore records calls and returns configured responses.
type mockFullTextStore struct {
	mu    sync.Mutex
	calls []string

	fullTextSearch func(ctx context.Context, tenantID, query, typeFilter string, minStrength float64, limit int) ([]models.ScoredConcept, error)
}

func (m *mockFullTextStore) FullTextSearch(ctx context.Context, tenantID, query, typeFilter string, minStrength float64, limit int) ([]models.ScoredConcept, error) {
	m.mu.Lock()
	m.calls = append(m.calls, "FullTextSearch")
	m.mu.Unlock()
	return m.fullTextSearch(ctx, tenantID, query, typeFilter, minStrength, limit)
}

// mockEmbedder implements domain.EmbeddingProvider.
type mockEmbedder struct {
	embed func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.embed(ctx, text)
}

// mockVectorStore implements domain.VectorStore, used only for its Search method in these tests.
type mockVectorStore struct {
	search func(ctx context.Context, tenantID string, embedding []float32, limit int) ([]models.ScoredConcept, error)
}

func (m *mockVectorStore) Upsert(context.Context, string, string, []float32) error { return nil }
func (m *mockVectorStore) Delete(context.Context, string, string) error           { return nil }
func (m *mockVectorStore) Dimension() int                                         { return 3 }

func (m *mockVectorStore) Search(ctx context.Context, tenantID string, embedding []float32, limit int) ([]models.ScoredConcept, error) {
	return m.search(ctx, tenantID, embedding, limit)
}

// mockIDHydrator implements router.IDHydrator.
type mockIDHydrator struct {
	fetchByIDsScored func(ctx context.Context, tenantID string, ids []string, scores []float64) ([]models.ScoredConcept, error)
}

func (m *mockIDHydrator) FetchByIDsScored(ctx context.Context, tenantID string, ids []string, scores []float64) ([]models.ScoredConcept, error) {
	return m.fetchByIDsScored(ctx, tenantID, ids, scores)
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu    sync.Mutex
	calls []AuditJob

	err error
}

func (m *mockAuditor) RecordAudit(ctx context.Context, tenantID, action, entityType, entityID, actor string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, AuditJob{
		TenantID:   tenantID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Detail:     detail,
	})
	return m.err
}

func (m *mockAuditor) getCalls() []AuditJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]AuditJob, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// mockEmbedEnqueuer records enqueue calls.
type mockEmbedEnqueuer struct {
	mu   sync.Mutex
	jobs []EmbedJob
}

func (m *mockEmbedEnqueuer) Enqueue(job EmbedJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}
