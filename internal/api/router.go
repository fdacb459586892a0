package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/dbpool"
	"github.com/persistorai/persistor/internal/middleware"
	"github.com/persistorai/persistor/internal/security"
	"github.com/persistorai/persistor/internal/service"
	"github.com/persistorai/persistor/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log                 *logrus.Logger
	Pool                *dbpool.Pool
	Hub                 *ws.Hub
	Concepts            ConceptRepository
	Relations           RelationRepository
	Search              SearchRepository
	Graph               GraphRepository
	Bulk                BulkRepository
	Strength            StrengthRepository
	Embedding           AdminRepository
	History             HistoryRepository
	Audit               AuditRepository
	Query               RouterRepository
	Evolution           EvolutionRepository
	Quota               QuotaRepository
	Sync                SyncRepository
	TenantLookup        middleware.TenantLookup
	EmbedWorker         *service.EmbedWorker // used by admin handler only
	CORSOrigins         []string
	Version             string
	OllamaURL           string
	EmbeddingModel      string
	EmbeddingDimensions int
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version, deps.OllamaURL, deps.EmbeddingModel, deps.EmbeddingDimensions)
	concepts := NewConceptHandler(deps.Concepts, log)
	relations := NewRelationHandler(deps.Relations, log)
	search := NewSearchHandler(deps.Search, log)
	graph := NewGraphHandler(deps.Graph, log)
	bulk := NewBulkHandler(deps.Bulk, log)
	strength := NewStrengthHandler(ctx, deps.Strength, log)
	admin := NewAdminHandler(deps.Embedding, deps.EmbedWorker, log)
	stats := NewStatsHandler(deps.Pool, log)
	history := NewHistoryHandler(deps.History, log)
	audit := NewAuditHandler(deps.Audit, log)
	query := NewQueryHandler(deps.Query, log)
	evolution := NewEvolutionHandler(deps.Evolution, log)
	quota := NewQuotaHandler(deps.Quota, log)
	sync := NewSyncHandler(deps.Sync, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	bfGuard := security.NewBruteForceGuard(ctx, log)
	api.Use(middleware.BruteForceMiddleware(bfGuard))
	api.Use(middleware.AuthMiddleware(middleware.NewCachedTenantLookup(ctx, deps.TenantLookup), log, bfGuard))

	// Concepts.
	api.GET("/concepts", concepts.List)
	api.POST("/concepts", concepts.Create)
	api.GET("/concepts/:id", concepts.Get)
	api.PUT("/concepts/:id", concepts.Update)
	api.PATCH("/concepts/:id/properties", concepts.PatchProperties)
	api.POST("/concepts/:id/merge", concepts.Merge)
	api.DELETE("/concepts/:id", concepts.Delete)
	api.GET("/concepts/:id/history", history.GetHistory)

	// Relations.
	api.GET("/relations", relations.List)
	api.POST("/relations", relations.Create)
	api.PUT("/relations/:source/:target/:type", relations.Update)
	api.PATCH("/relations/:source/:target/:type/properties", relations.PatchProperties)
	api.DELETE("/relations/:source/:target/:type", relations.Delete)

	// Search.
	api.GET("/search", search.FullText)
	api.GET("/search/semantic", search.Semantic)
	api.GET("/search/hybrid", search.Hybrid)

	// Graph traversal.
	api.GET("/graph/neighbors/:id", graph.Neighbors)
	api.GET("/graph/traverse/:id", graph.Traverse)
	api.GET("/graph/context/:id", graph.Context)
	api.GET("/graph/path/:from/:to", graph.Path)

	// Bulk operations.
	api.POST("/bulk/concepts", bulk.BulkConcepts)
	api.POST("/bulk/relations", bulk.BulkRelations)

	// Strength management.
	api.POST("/strength/boost/:id", strength.Boost)
	api.POST("/strength/recalc", strength.Recalculate)

	// Audit.
	api.GET("/audit", audit.Query)
	api.DELETE("/audit", audit.Purge)

	// Stats.
	api.GET("/stats", stats.GetStats)

	// Admin.
	api.POST("/admin/backfill-embeddings", admin.BackfillEmbeddings)

	// Query Router.
	api.POST("/query", query.Execute)
	api.POST("/query/explain", query.Explain)

	// Evolution Tracker.
	api.GET("/evolution", evolution.Snapshot)
	api.POST("/evolution/evaluate", evolution.Evaluate)

	// Quota Gate.
	api.GET("/quota", quota.Usage)

	// Bidirectional Synchronizer.
	api.POST("/sync/forward", sync.RunForward)
	api.GET("/sync/checkpoints", sync.Checkpoints)
	api.GET("/sync/quarantine", sync.Quarantined)

	// WebSocket endpoint.
	api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, deps.TenantLookup))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
