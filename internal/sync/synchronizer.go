package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/metrics"
	"github.com/persistorai/persistor/internal/models"
)

// conceptWriter is the subset of concept-store operations the forward and
// backward pipelines need, including the source_key lookup that has no
// equivalent in domain.ConceptService. Satisfied by *internal/store.ConceptStore.
type conceptWriter interface {
	GetConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error)
	FindBySourceKey(ctx context.Context, tenantID, sourceKey string) (*models.Concept, error)
	CreateConcept(ctx context.Context, tenantID string, req models.CreateConceptRequest, embedding []float32) (*models.Concept, error)
	UpdateConcept(ctx context.Context, tenantID, conceptID string, req models.UpdateConceptRequest) (*models.Concept, error)
	Reembed(ctx context.Context, tenantID, conceptID string, embedding []float32) error
}

// checkpointStore persists per-table sync cursors. Satisfied by
// *internal/store.SyncCheckpointStore.
type checkpointStore interface {
	Load(ctx context.Context, tenantID string, direction models.SyncDirection, table string) (models.SyncCheckpoint, bool, error)
	Save(ctx context.Context, tenantID string, cp models.SyncCheckpoint) error
}

// quarantineStore stages unreconcilable conflicts. Satisfied by
// *internal/store.SyncQuarantineStore.
type quarantineStore interface {
	Stage(ctx context.Context, tenantID string, entry models.SyncQuarantineEntry) error
}

// tenantLister enumerates tenants for the periodic forward sweep, which has
// no per-request tenant to scope to. Satisfied by *internal/store.TenantStore.
type tenantLister interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

// mutationEvent is fed into the backward pipeline whenever a concept
// carrying a source_key is mutated (spec §4.4).
type mutationEvent struct {
	TenantID  string
	ConceptID string
}

// Synchronizer runs the forward and backward pipelines under a single
// lifecycle (spec §4.4), started from cmd/persistor-server via Run.
type Synchronizer struct {
	relational  domain.RelationalStore
	embedder    domain.EmbeddingProvider
	concepts    conceptWriter
	checkpoints checkpointStore
	quarantine  quarantineStore
	tenants     tenantLister
	log         *logrus.Logger

	interval  time.Duration
	batchSize int
	embedSem  *semaphore.Weighted

	rules []models.MappingRule

	mutations    chan mutationEvent
	backpressure *backpressureTracker
}

// Config holds the Synchronizer's tunables, wired from internal/config.
type Config struct {
	Interval         time.Duration // default 60s
	BatchSize        int           // default 500, soft cap
	EmbedConcurrency int64         // bounded concurrency for per-row embed calls
	Rules            []models.MappingRule
}

// New constructs a Synchronizer.
func New(
	relational domain.RelationalStore,
	embedder domain.EmbeddingProvider,
	concepts conceptWriter,
	checkpoints checkpointStore,
	quarantine quarantineStore,
	tenants tenantLister,
	log *logrus.Logger,
	cfg Config,
) *Synchronizer {
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 4
	}

	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}

	return &Synchronizer{
		relational:   relational,
		embedder:     embedder,
		concepts:     concepts,
		checkpoints:  checkpoints,
		quarantine:   quarantine,
		tenants:      tenants,
		log:          log,
		interval:     cfg.Interval,
		batchSize:    cfg.BatchSize,
		embedSem:     semaphore.NewWeighted(cfg.EmbedConcurrency),
		rules:        cfg.Rules,
		mutations:    make(chan mutationEvent, 256),
		backpressure: newBackpressureTracker(),
	}
}

// NotifyMutation feeds a concept mutation into the backward pipeline's
// trigger channel. Non-blocking: a full channel drops the event and logs a
// warning rather than stalling the caller; a dropped event is not
// re-queued, so that mutation is not written back.
func (s *Synchronizer) NotifyMutation(tenantID, conceptID string) {
	select {
	case s.mutations <- mutationEvent{TenantID: tenantID, ConceptID: conceptID}:
	default:
		if s.log != nil {
			s.log.WithFields(logrus.Fields{"tenant_id": tenantID, "concept_id": conceptID}).
				Warn("synchronizer backward-pipeline channel full, dropping mutation event")
		}
	}
}

// Run starts both pipelines and blocks until ctx is cancelled: a ticker
// driving the forward pass, and a channel-fed loop driving the backward
// pass. Mirrors the teacher's internal/ws.Hub run-loop shape (ticker +
// channel-select, both bounded by ctx.Done()).
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runForwardAll(ctx)
		case ev := <-s.mutations:
			if err := s.runBackwardOne(ctx, ev); err != nil && s.log != nil {
				s.log.WithError(err).WithFields(logrus.Fields{"tenant_id": ev.TenantID, "concept_id": ev.ConceptID}).
					Warn("backward sync pass failed")
			}
		}
	}
}

func (s *Synchronizer) runForwardAll(ctx context.Context) {
	tenantIDs, err := s.tenants.ListTenantIDs(ctx)
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).Warn("forward sync: failed to list tenants")
		}

		return
	}

	for _, tenantID := range tenantIDs {
		if _, err := s.runForward(ctx, tenantID); err != nil && s.log != nil {
			s.log.WithError(err).WithField("tenant_id", tenantID).Warn("forward sync pass failed")
		}
	}
}

// RunOnce runs a single pass of the given direction for tenantID, used by an
// operator-triggered CLI/API call (spec §4.4's "periodic or triggered"); the
// Run loop calls runForwardAll and runBackwardOne directly.
func (s *Synchronizer) RunOnce(ctx context.Context, tenantID string, direction models.SyncDirection) (*models.SyncRunSummary, error) {
	switch direction {
	case models.SyncForward:
		summary, err := s.runForward(ctx, tenantID)
		if err != nil {
			metrics.SyncRunsTotal.WithLabelValues(string(direction), "error").Inc()
			return nil, err
		}

		metrics.SyncRunsTotal.WithLabelValues(string(direction), "ok").Inc()
		return summary, nil
	case models.SyncBackward:
		return nil, fmt.Errorf("backward sync is event-triggered per concept, not run in bulk")
	default:
		return nil, fmt.Errorf("unrecognized sync direction %q", direction)
	}
}
