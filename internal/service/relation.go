package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// RelationStore is the data-access interface RelationService depends on.
// It reuses domain.RelationService since the method sets are identical, avoiding duplication.
type RelationStore = domain.RelationService

// Compile-time check: *RelationService must satisfy domain.RelationService.
var _ domain.RelationService = (*RelationService)(nil)

// RelationService wraps RelationStore with audit logging for mutations.
type RelationService struct {
	store       RelationStore
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewRelationService creates a RelationService.
func NewRelationService(store RelationStore, auditWorker AuditEnqueuer, log *logrus.Logger) *RelationService {
	return &RelationService{store: store, auditWorker: auditWorker, log: log}
}

// ListRelations returns a paginated list of relations (pass-through).
func (s *RelationService) ListRelations(
	ctx context.Context, tenantID string, source, target, relType string, limit, offset int,
) ([]models.Relation, bool, error) {
	return s.store.ListRelations(ctx, tenantID, source, target, relType, limit, offset)
}

// CreateRelation creates a relation and records an audit entry.
func (s *RelationService) CreateRelation(
	ctx context.Context, tenantID string, req models.CreateRelationRequest,
) (*models.Relation, error) {
	relation, err := s.store.CreateRelation(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, tenantID, "relation.create", "relation", relation.Source+"/"+relation.Target+"/"+relation.Type,
		map[string]any{"source": relation.Source, "target": relation.Target, "type": relation.Type})

	return relation, nil
}

// UpdateRelation updates a relation and records an audit entry.
func (s *RelationService) UpdateRelation(
	ctx context.Context, tenantID string, source, target, relType string, req models.UpdateRelationRequest,
) (*models.Relation, error) {
	relation, err := s.store.UpdateRelation(ctx, tenantID, source, target, relType, req)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, tenantID, "relation.update", "relation", source+"/"+target+"/"+relType,
		map[string]any{"source": source, "target": target, "type": relType})

	return relation, nil
}

// PatchRelationProperties partially updates relation properties (merge semantics).
func (s *RelationService) PatchRelationProperties(
	ctx context.Context, tenantID string, source, target, relType string, req models.PatchPropertiesRequest,
) (*models.Relation, error) {
	relation, err := s.store.PatchRelationProperties(ctx, tenantID, source, target, relType, req)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, tenantID, "relation.patch_properties", "relation", source+"/"+target+"/"+relType, nil)

	return relation, nil
}

// DeleteRelation removes a relation and records an audit entry.
func (s *RelationService) DeleteRelation(ctx context.Context, tenantID string, source, target, relType string) error {
	err := s.store.DeleteRelation(ctx, tenantID, source, target, relType)
	if err == nil {
		auditAsync(s.auditWorker, tenantID, "relation.delete", "relation", source+"/"+target+"/"+relType,
			map[string]any{"source": source, "target": target, "type": relType})
	}

	return err
}
