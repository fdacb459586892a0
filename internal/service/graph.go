// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// GraphStore is the data-access interface GraphService depends on.
// It reuses domain.GraphService since the method sets are identical, avoiding duplication.
type GraphStore = domain.GraphService

// Compile-time check: *GraphService must satisfy domain.GraphService.
var _ domain.GraphService = (*GraphService)(nil)

// GraphService wraps GraphStore with context-aware logging.
type GraphService struct {
	store GraphStore
	log   *logrus.Logger
}

// NewGraphService creates a GraphService.
func NewGraphService(store GraphStore, log *logrus.Logger) *GraphService {
	return &GraphService{store: store, log: log}
}

// Neighbors returns all concepts directly connected to conceptID.
func (s *GraphService) Neighbors(ctx context.Context, tenantID, conceptID string, limit int) (*models.NeighborResult, error) {
	s.log.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"concept_id": conceptID,
		"limit":      limit,
	}).Debug("graph.neighbors")

	return s.store.Neighbors(ctx, tenantID, conceptID, limit)
}

// Traverse performs a multi-hop graph traversal starting from conceptID.
func (s *GraphService) Traverse(ctx context.Context, tenantID string, conceptID string, maxHops int) (*models.TraverseResult, error) {
	s.log.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"concept_id": conceptID,
		"max_hops":   maxHops,
	}).Debug("graph.traverse")

	return s.store.Traverse(ctx, tenantID, conceptID, maxHops)
}

// GraphContext returns a concept with its immediate neighbors and connecting relations.
func (s *GraphService) GraphContext(ctx context.Context, tenantID, conceptID string) (*models.ContextResult, error) {
	s.log.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"concept_id": conceptID,
	}).Debug("graph.context")

	return s.store.GraphContext(ctx, tenantID, conceptID)
}

// ShortestPath finds the shortest path between two concepts.
func (s *GraphService) ShortestPath(ctx context.Context, tenantID, fromID, toID string) (*models.PathResult, error) {
	s.log.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"from_id":   fromID,
		"to_id":     toID,
	}).Debug("graph.shortest_path")

	return s.store.ShortestPath(ctx, tenantID, fromID, toID)
}
