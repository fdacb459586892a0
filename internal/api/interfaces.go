package api

import "github.com/persistorai/persistor/internal/domain"

// Type aliases to the canonical domain interfaces.
// Handlers depend on these; the domain package is the single source of truth.
type (
	ConceptRepository   = domain.ConceptService
	RelationRepository  = domain.RelationService
	SearchRepository    = domain.SearchService
	GraphRepository     = domain.GraphService
	StrengthRepository  = domain.StrengthService
	BulkRepository      = domain.BulkService
	AuditRepository     = domain.AuditService
	Auditor             = domain.Auditor
	AdminRepository     = domain.AdminService
	HistoryRepository   = domain.HistoryService
	RouterRepository    = domain.RouterService
	EvolutionRepository = domain.EvolutionService
	QuotaRepository     = domain.QuotaService
	SyncRepository      = domain.SyncService
)
