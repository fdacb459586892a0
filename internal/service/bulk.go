package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// BulkStore is the data-access interface BulkService depends on.
// It reuses domain.BulkService since the method sets are identical, avoiding duplication.
type BulkStore = domain.BulkService

// Compile-time check: *BulkService must satisfy domain.BulkService.
var _ domain.BulkService = (*BulkService)(nil)

// BulkService wraps BulkStore with audit logging. Unlike ConceptService's
// CreateConcept, bulk-upserted concepts get no synchronous embedding: spec §5
// has the Synchronizer land large batches from the relational engine, where
// embedding every row inline would make the forward pass unacceptably slow,
// so rows land without a vector and the backfill worker (driven by
// AdminService.ListConceptsWithoutEmbeddings) catches up asynchronously.
type BulkService struct {
	store       BulkStore
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewBulkService creates a BulkService.
func NewBulkService(store BulkStore, auditWorker AuditEnqueuer, log *logrus.Logger) *BulkService {
	return &BulkService{store: store, auditWorker: auditWorker, log: log}
}

// BulkUpsertConcepts upserts concepts and records an audit entry.
func (s *BulkService) BulkUpsertConcepts(
	ctx context.Context, tenantID string, concepts []models.CreateConceptRequest,
) (int, error) {
	count, err := s.store.BulkUpsertConcepts(ctx, tenantID, concepts)
	if err != nil {
		return 0, err
	}

	auditAsync(s.auditWorker, tenantID, "bulk.concepts", "concept", "", map[string]any{"count": count})

	return count, nil
}

// BulkUpsertRelations upserts relations and records an audit entry.
func (s *BulkService) BulkUpsertRelations(
	ctx context.Context, tenantID string, relations []models.CreateRelationRequest,
) (int, error) {
	count, err := s.store.BulkUpsertRelations(ctx, tenantID, relations)
	if err != nil {
		return 0, err
	}

	auditAsync(s.auditWorker, tenantID, "bulk.relations", "relation", "", map[string]any{"count": count})

	return count, nil
}
