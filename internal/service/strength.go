package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// StrengthStore is the data-access interface StrengthService depends on.
// It reuses domain.StrengthService since the method sets are identical, avoiding duplication.
type StrengthStore = domain.StrengthService

// Compile-time check: *StrengthService must satisfy domain.StrengthService.
var _ domain.StrengthService = (*StrengthService)(nil)

// StrengthService wraps StrengthStore with audit logging for mutations.
// Grounded on the teacher's SalienceService; the teacher's SupersedeNode has
// no equivalent here, since the spec replaces node supersession with
// ConceptService.MergeConcepts (internal/service/concept.go).
type StrengthService struct {
	store       StrengthStore
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewStrengthService creates a StrengthService.
func NewStrengthService(store StrengthStore, auditWorker AuditEnqueuer, log *logrus.Logger) *StrengthService {
	return &StrengthService{store: store, auditWorker: auditWorker, log: log}
}

// BoostConcept sets user_boosted to TRUE, recalculates strength, and records an audit entry.
func (s *StrengthService) BoostConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error) {
	concept, err := s.store.BoostConcept(ctx, tenantID, conceptID)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, tenantID, "strength.boost", "concept", conceptID, nil)

	return concept, nil
}

// RecalculateStrength recomputes strength scores for all tenant concepts and records an audit entry.
func (s *StrengthService) RecalculateStrength(ctx context.Context, tenantID string) (int, error) {
	count, err := s.store.RecalculateStrength(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	auditAsync(s.auditWorker, tenantID, "strength.recalculate", "concept", "", map[string]any{"updated": count})

	return count, nil
}
