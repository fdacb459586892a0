// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// conceptStore is the data-access interface ConceptService depends on for
// single-concept operations. Narrower than domain.ConceptService: unlike the
// teacher's NodeStore alias, this package's CreateConcept takes the embedding
// as an explicit argument (store.ConceptStore owns the vector-first-then-
// metadata atomicity from spec §4.3), so it can't be a straight alias of the
// domain interface the way RelationStore/GraphStore are. Satisfied structurally
// by *internal/store.ConceptStore.
type conceptStore interface {
	ListConcepts(ctx context.Context, tenantID string, typeFilter string, minStrength float64, limit, offset int) ([]models.Concept, bool, error)
	GetConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error)
	CreateConcept(ctx context.Context, tenantID string, req models.CreateConceptRequest, embedding []float32) (*models.Concept, error)
	UpdateConcept(ctx context.Context, tenantID, conceptID string, req models.UpdateConceptRequest) (*models.Concept, error)
	PatchConceptProperties(ctx context.Context, tenantID, conceptID string, req models.PatchPropertiesRequest) (*models.Concept, error)
	DeleteConcept(ctx context.Context, tenantID, conceptID string) error
	Reembed(ctx context.Context, tenantID, conceptID string, embedding []float32) error
}

// conceptMerger is the data-access interface for MergeConcepts. It lives on
// its own store type (internal/store.MergeStore) rather than ConceptStore,
// since a merge touches both concepts and relations.
type conceptMerger interface {
	MergeConcepts(ctx context.Context, tenantID string, req models.MergeConceptsRequest) (*models.MergeConceptsResult, error)
}

// Compile-time check: *ConceptService must satisfy domain.ConceptService.
var _ domain.ConceptService = (*ConceptService)(nil)

// ConceptService wraps conceptStore with business logic: synchronous
// embedding generation on create (the vector must exist before the metadata
// row does, per spec §4.3), best-effort re-embedding on label/type update,
// and audit logging for mutations. Grounded on the teacher's NodeService.
type ConceptService struct {
	store       conceptStore
	merger      conceptMerger
	embed       domain.EmbeddingProvider
	embedWorker EmbedEnqueuer
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewConceptService creates a ConceptService.
func NewConceptService(
	store conceptStore,
	merger conceptMerger,
	embed domain.EmbeddingProvider,
	embedWorker EmbedEnqueuer,
	auditWorker AuditEnqueuer,
	log *logrus.Logger,
) *ConceptService {
	return &ConceptService{store: store, merger: merger, embed: embed, embedWorker: embedWorker, auditWorker: auditWorker, log: log}
}

// ListConcepts returns a paginated list of concepts (pass-through).
func (s *ConceptService) ListConcepts(
	ctx context.Context, tenantID, typeFilter string, minStrength float64, limit, offset int,
) ([]models.Concept, bool, error) {
	return s.store.ListConcepts(ctx, tenantID, typeFilter, minStrength, limit, offset)
}

// GetConcept returns a single concept by ID (pass-through).
func (s *ConceptService) GetConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error) {
	return s.store.GetConcept(ctx, tenantID, conceptID)
}

// CreateConcept generates the concept's embedding, then creates it. A
// degraded embedding provider (ErrEmbeddingUnavailable) does not block
// creation: the concept is written without a vector and enqueued for the
// backfill worker to pick up later (spec §4.3, §6).
func (s *ConceptService) CreateConcept(
	ctx context.Context, tenantID string, req models.CreateConceptRequest,
) (*models.Concept, error) {
	summary := models.ConceptSummary{Type: req.Type, Label: req.Label}

	embedding, err := s.embed.Embed(ctx, summary.EmbeddingText())
	if err != nil {
		if !errors.Is(err, models.ErrEmbeddingUnavailable) {
			return nil, err
		}

		s.log.WithField("tenant_id", tenantID).Warn("embedding provider unavailable, creating concept without a vector")

		embedding = nil
	}

	concept, err := s.store.CreateConcept(ctx, tenantID, req, embedding)
	if err != nil {
		return nil, err
	}

	if len(embedding) == 0 && s.embedWorker != nil {
		s.embedWorker.Enqueue(EmbedJob{TenantID: tenantID, ConceptID: concept.ID, Text: summary.EmbeddingText()})
	}

	auditAsync(s.auditWorker, tenantID, "concept.create", "concept", concept.ID, map[string]any{"type": concept.Type, "label": concept.Label})

	return concept, nil
}

// UpdateConcept updates a concept's metadata and, if its type or label
// changed, enqueues a re-embed (best-effort, asynchronous — the metadata
// write already committed).
func (s *ConceptService) UpdateConcept(
	ctx context.Context, tenantID, conceptID string, req models.UpdateConceptRequest,
) (*models.Concept, error) {
	concept, err := s.store.UpdateConcept(ctx, tenantID, conceptID, req)
	if err != nil {
		return nil, err
	}

	if (req.Type != nil || req.Label != nil) && s.embedWorker != nil {
		summary := models.ConceptSummary{Type: concept.Type, Label: concept.Label}
		s.embedWorker.Enqueue(EmbedJob{TenantID: tenantID, ConceptID: concept.ID, Text: summary.EmbeddingText()})
	}

	auditAsync(s.auditWorker, tenantID, "concept.update", "concept", concept.ID, map[string]any{"type": concept.Type, "label": concept.Label})

	return concept, nil
}

// PatchConceptProperties partially updates a concept's properties (merge semantics).
func (s *ConceptService) PatchConceptProperties(
	ctx context.Context, tenantID, conceptID string, req models.PatchPropertiesRequest,
) (*models.Concept, error) {
	concept, err := s.store.PatchConceptProperties(ctx, tenantID, conceptID, req)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, tenantID, "concept.patch_properties", "concept", conceptID, map[string]any{"patched_keys": mapKeys(req.Properties)})

	return concept, nil
}

// mapKeys returns the keys of a map as a slice.
func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return keys
}

// DeleteConcept removes a concept (pass-through).
func (s *ConceptService) DeleteConcept(ctx context.Context, tenantID, conceptID string) error {
	err := s.store.DeleteConcept(ctx, tenantID, conceptID)
	if err == nil {
		auditAsync(s.auditWorker, tenantID, "concept.delete", "concept", conceptID, nil)
	}

	return err
}

// MergeConcepts merges a duplicate concept into a surviving one.
func (s *ConceptService) MergeConcepts(ctx context.Context, tenantID string, req models.MergeConceptsRequest) (*models.MergeConceptsResult, error) {
	result, err := s.merger.MergeConcepts(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, tenantID, "concept.merge", "concept", req.WinnerID, map[string]any{
		"loser_id":          req.LoserID,
		"relations_moved":   result.RelationsMoved,
		"relations_dropped": result.RelationsDropped,
		"loser_deleted":     result.LoserDeleted,
	})

	return result, nil
}
