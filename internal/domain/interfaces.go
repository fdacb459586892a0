// Package domain defines the canonical service and collaborator interfaces
// shared across API layers (REST, CLI, client) and the internal pipeline
// (router, synchronizer, evolution tracker, quota gate). Consumers should
// depend on these interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"
	"time"

	"github.com/persistorai/persistor/internal/models"
)

// ConceptService defines all concept CRUD operations.
type ConceptService interface {
	ListConcepts(ctx context.Context, tenantID string, typeFilter string, minStrength float64, limit, offset int) ([]models.Concept, bool, error)
	GetConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error)
	CreateConcept(ctx context.Context, tenantID string, req models.CreateConceptRequest) (*models.Concept, error)
	UpdateConcept(ctx context.Context, tenantID string, conceptID string, req models.UpdateConceptRequest) (*models.Concept, error)
	PatchConceptProperties(ctx context.Context, tenantID string, conceptID string, req models.PatchPropertiesRequest) (*models.Concept, error)
	DeleteConcept(ctx context.Context, tenantID, conceptID string) error
	MergeConcepts(ctx context.Context, tenantID string, req models.MergeConceptsRequest) (*models.MergeConceptsResult, error)
}

// RelationService defines all relation operations.
type RelationService interface {
	ListRelations(ctx context.Context, tenantID string, source, target, relType string, limit, offset int) ([]models.Relation, bool, error)
	CreateRelation(ctx context.Context, tenantID string, req models.CreateRelationRequest) (*models.Relation, error)
	UpdateRelation(ctx context.Context, tenantID string, source, target, relType string, req models.UpdateRelationRequest) (*models.Relation, error)
	PatchRelationProperties(ctx context.Context, tenantID string, source, target, relType string, req models.PatchPropertiesRequest) (*models.Relation, error)
	DeleteRelation(ctx context.Context, tenantID string, source, target, relType string) error
}

// SearchService defines search operations. The service layer handles
// embedding generation internally — callers pass query strings.
type SearchService interface {
	FullTextSearch(ctx context.Context, tenantID string, query string, typeFilter string, minStrength float64, limit int) ([]models.Concept, error)
	SemanticSearch(ctx context.Context, tenantID, query string, limit int) ([]models.ScoredConcept, error)
	HybridSearch(ctx context.Context, tenantID, query string, limit int) ([]models.Concept, error)
}

// GraphService defines graph traversal operations.
type GraphService interface {
	Neighbors(ctx context.Context, tenantID, conceptID string, limit int) (*models.NeighborResult, error)
	Traverse(ctx context.Context, tenantID string, conceptID string, maxHops int) (*models.TraverseResult, error)
	GraphContext(ctx context.Context, tenantID, conceptID string) (*models.ContextResult, error)
	ShortestPath(ctx context.Context, tenantID, fromID, toID string) (*models.PathResult, error)
}

// StrengthService defines strength-scoring operations on concepts.
type StrengthService interface {
	BoostConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error)
	RecalculateStrength(ctx context.Context, tenantID string) (int, error)
}

// BulkService defines bulk upsert operations, used by the synchronizer's
// forward pipeline and by batch client callers.
type BulkService interface {
	BulkUpsertConcepts(ctx context.Context, tenantID string, concepts []models.CreateConceptRequest) (int, error)
	BulkUpsertRelations(ctx context.Context, tenantID string, relations []models.CreateRelationRequest) (int, error)
}

// AuditService defines audit log query and maintenance operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, tenantID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, tenantID string, retentionDays int) (int, error)
}

// Auditor is the minimal interface for recording audit entries. Used by
// services and handlers for fire-and-forget audit logging.
type Auditor interface {
	RecordAudit(ctx context.Context, tenantID, action, entityType, entityID, actor string, detail map[string]any) error
}

// AdminService defines administrative operations.
type AdminService interface {
	ListConceptsWithoutEmbeddings(ctx context.Context, tenantID string, limit int) ([]models.ConceptSummary, error)
}

// HistoryService defines property history operations.
type HistoryService interface {
	GetPropertyHistory(ctx context.Context, tenantID, conceptID string, propertyKey string, limit, offset int) ([]models.PropertyChange, bool, error)
}

// RouterService defines the Query Router's public operations (spec §4.2).
type RouterService interface {
	Execute(ctx context.Context, tenantID string, req models.QueryRequest) (*models.QueryResult, error)
	ExplainQuery(ctx context.Context, tenantID string, req models.QueryRequest) (*models.ExplainResult, error)
}

// EvolutionService defines the Evolution Tracker's public operations (spec §4.5).
type EvolutionService interface {
	Observe(tenantID string, outcome models.QueryOutcome)
	Snapshot(tenantID string) models.EvolutionState
	EvaluateAdvancement(ctx context.Context, tenantID string) (*models.AdvanceResult, error)
}

// QuotaService defines the Quota Gate's public operations (spec §4.6).
type QuotaService interface {
	Admit(ctx context.Context, tenantID string, resource models.QuotaResource) (*models.AdmitDecision, error)
	Usage(ctx context.Context, tenantID string) (*models.UsageSnapshot, error)
}

// SyncService defines the Bidirectional Synchronizer's public operations (spec §4.4).
type SyncService interface {
	RunOnce(ctx context.Context, tenantID string, direction models.SyncDirection) (*models.SyncRunSummary, error)
	Checkpoints(ctx context.Context, tenantID string) ([]models.SyncCheckpoint, error)
	Quarantined(ctx context.Context, tenantID string, limit, offset int) ([]models.SyncQuarantineEntry, error)
}

// RelationalStore is the external collaborator interface for the relational
// engine the Synchronizer and sql-routed queries read from and write to.
// Implementations are thin adapters; this package never imports a driver.
type RelationalStore interface {
	// Query runs a parameterized read-only statement and returns rows as maps.
	Query(ctx context.Context, tenantID string, sql string, args ...any) ([]map[string]any, error)
	// Exec runs a parameterized write statement and returns the affected row count.
	Exec(ctx context.Context, tenantID string, sql string, args ...any) (int64, error)
}

// VectorStore is the external collaborator interface for the vector engine
// backing Concept Store embeddings and semantic search (spec §3, §4.3).
type VectorStore interface {
	Upsert(ctx context.Context, tenantID, conceptID string, embedding []float32) error
	Delete(ctx context.Context, tenantID, conceptID string) error
	Search(ctx context.Context, tenantID string, embedding []float32, limit int) ([]models.ScoredConcept, error)
	Dimension() int
}

// EmbeddingProvider is the external collaborator interface for the
// embedding model. A nil error with a non-nil result is always a
// full-dimension vector; degraded mode returns ErrEmbeddingUnavailable.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LLMIntentProvider is the optional external collaborator interface for an
// LLM-backed intent classifier (spec §4.1). Degrades to
// models.ErrLLMUnavailable on timeout or circuit-open.
type LLMIntentProvider interface {
	ClassifyIntent(ctx context.Context, query string) (kind models.IntentKind, confidence float64, err error)
}

// Cache is the external collaborator interface for query-result memoization
// by fingerprint (spec §4.2, §5).
type Cache interface {
	Get(key string) (*models.QueryResult, bool)
	Set(key string, value *models.QueryResult, ttl time.Duration)
}
