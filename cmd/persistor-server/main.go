// Command persistor-server runs the evolutionary hybrid database gateway:
// the HTTP API, the background embedding/audit/sync workers, and the
// Postgres LISTEN/NOTIFY bridge that feeds the WebSocket hub.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/api"
	"github.com/persistorai/persistor/internal/cache"
	"github.com/persistorai/persistor/internal/config"
	"github.com/persistorai/persistor/internal/crypto"
	"github.com/persistorai/persistor/internal/db"
	"github.com/persistorai/persistor/internal/db/migrations"
	"github.com/persistorai/persistor/internal/dbpool"
	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/embedding"
	"github.com/persistorai/persistor/internal/evolution"
	"github.com/persistorai/persistor/internal/intent"
	"github.com/persistorai/persistor/internal/llmintent"
	"github.com/persistorai/persistor/internal/quota"
	"github.com/persistorai/persistor/internal/relational"
	"github.com/persistorai/persistor/internal/router"
	"github.com/persistorai/persistor/internal/service"
	"github.com/persistorai/persistor/internal/store"
	"github.com/persistorai/persistor/internal/sync"
	"github.com/persistorai/persistor/internal/vectorstore"
	"github.com/persistorai/persistor/internal/ws"
)

// Build-time variables set via ldflags.
var (
	version   = "0.6.0"
	commit    = ""
	buildDate = ""
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		log.WithError(err).Fatal("connecting to database")
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		log.WithError(err).Fatal("running migrations")
	}

	if err := db.EnsureVectorDimensions(ctx, pool, log, cfg.EmbeddingDim); err != nil {
		log.WithError(err).Fatal("ensuring vector dimensions")
	}

	keys, err := newKeyProvider(cfg)
	if err != nil {
		log.WithError(err).Fatal("configuring encryption provider")
	}

	cryptoSvc := crypto.NewService(keys)
	base := store.Base{Pool: pool, Log: log, Crypto: cryptoSvc}

	vectors := vectorstore.New(pool, log, cfg.EmbeddingDim)
	embedProvider := embedding.New(cfg.OllamaURL, cfg.EmbeddingModel, cfg.EmbeddingDim, cfg.OllamaAllowRemote)
	relationalStore := relational.New(pool, log)
	memCache := cache.New(cfg.CacheSize, cfg.CacheTTL)

	tenantStore := store.NewTenantStore(pool)
	conceptStore := store.NewConceptStore(base, vectors)
	relationStore := store.NewRelationStore(base)
	searchStore := store.NewSearchStore(base)
	graphStore := store.NewGraphStore(base)
	bulkStore := store.NewBulkStore(base)
	strengthStore := store.NewStrengthStore(base)
	adminStore := store.NewAdminStore(base)
	historyStore := store.NewHistoryStore(base)
	auditStore := store.NewAuditStore(base)
	mergeStore := store.NewMergeStore(base)
	evolutionStore := store.NewEvolutionStore(base)
	quotaStore := store.NewQuotaStore(base)
	queryLogStore := store.NewQueryLogStore(base)
	syncCheckpointStore := store.NewSyncCheckpointStore(base)
	syncQuarantineStore := store.NewSyncQuarantineStore(base)

	auditWorker := service.NewAuditWorker(service.NewAuditService(auditStore, log), log, 1000)
	go auditWorker.Run(ctx)

	embedWorker := service.NewEmbedWorker(embedProvider, conceptStore, log, 1000, cfg.EmbedWorkers)
	go embedWorker.Run(ctx)

	conceptSvc := service.NewConceptService(conceptStore, mergeStore, embedProvider, embedWorker, auditWorker, log)
	relationSvc := service.NewRelationService(relationStore, auditWorker, log)
	graphSvc := service.NewGraphService(graphStore, log)
	semanticSearch := router.NewSemanticSearch(embedProvider, vectors, searchStore, searchStore)
	searchSvc := service.NewSearchService(searchStore, semanticSearch, log)
	bulkSvc := service.NewBulkService(bulkStore, auditWorker, log)
	strengthSvc := service.NewStrengthService(strengthStore, auditWorker, log)
	adminSvc := service.NewAdminService(adminStore, log)
	historySvc := service.NewHistoryService(historyStore, log)
	auditSvc := service.NewAuditService(auditStore, log)

	evolutionTracker := evolution.New(evolution.Targets{
		RelationalToTransition: cfg.PhaseRelationalToTransition,
		TransitionToSemantic:   cfg.PhaseTransitionToSemantic,
		SemanticCeiling:        cfg.PhaseSemanticCeiling,
	}, evolutionStore, log)

	quotaGate := quota.New(quotaStore, quota.Defaults{
		QueriesPerMinute:  cfg.DefaultQueriesPerMinute,
		APICallsPerSecond: cfg.DefaultAPICallsPerSecond,
		MonthlyQueryLimit: cfg.DefaultMonthlyQueryLimit,
	})

	var llmProvider domain.LLMIntentProvider
	if cfg.LLMIntentEnable {
		llmProvider = llmintent.New(cfg.LLMIntentURL, cfg.LLMIntentModel, cfg.OllamaAllowRemote)
	}

	intentAnalyzer := intent.NewAnalyzer(llmProvider, intent.Config{
		LLMEnabled:  cfg.LLMIntentEnable,
		LLMDeadline: cfg.LLMIntentDeadline,
		LLMMargin:   cfg.LLMIntentMargin,
	})

	queryRouter := router.New(
		relationalStore, embedProvider, vectors, searchStore, searchStore,
		memCache, evolutionTracker, quotaGate, intentAnalyzer, queryLogStore,
		log, router.Config{Deadline: cfg.ExecuteDeadline, CacheTTL: cfg.CacheTTL},
	)

	synchronizer := sync.New(
		relationalStore, embedProvider, conceptStore, syncCheckpointStore,
		syncQuarantineStore, tenantStore, log,
		sync.Config{Interval: cfg.SyncInterval, BatchSize: cfg.SyncBatchSize},
	)
	go synchronizer.Run(ctx)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	notifyBridge := db.NewNotifyBridge(log, pool, hub)
	if err := notifyBridge.Start(ctx); err != nil {
		log.WithError(err).Warn("notify bridge did not start, live updates disabled")
	}

	deps := &api.RouterDeps{
		Log:                 log,
		Pool:                pool,
		Hub:                 hub,
		Concepts:            conceptSvc,
		Relations:           relationSvc,
		Search:              searchSvc,
		Graph:               graphSvc,
		Bulk:                bulkSvc,
		Strength:            strengthSvc,
		Embedding:           adminSvc,
		History:             historySvc,
		Audit:               auditSvc,
		Query:               queryRouter,
		Evolution:           evolutionTracker,
		Quota:               quotaGate,
		Sync:                synchronizer,
		TenantLookup:        tenantStore,
		EmbedWorker:         embedWorker,
		CORSOrigins:         cfg.CORSOrigins,
		Version:             versionString(),
		OllamaURL:           cfg.OllamaURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDim,
	}

	handler := api.NewRouter(ctx, deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr()).Info("persistor server listening")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	hub.Shutdown()
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	log.SetLevel(lvl)

	return log
}

func newKeyProvider(cfg *config.Config) (crypto.KeyProvider, error) {
	switch cfg.EncryptionProvider {
	case "vault":
		return crypto.NewVaultProvider(cfg.VaultAddr, cfg.VaultToken.Value()), nil
	default:
		return crypto.NewStaticProvider(cfg.EncryptionKey.Value())
	}
}

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate)
	}

	return version + "-dev"
}
