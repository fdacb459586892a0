package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/metrics"
	"github.com/persistorai/persistor/internal/models"
)

const defaultSQLIDColumn = "id"

// tracker is the subset of evolution.Tracker the router needs: the current
// routing bias and a place to feed back outcomes (spec §4.5).
type tracker interface {
	Bias(tenantID string) float64
	Observe(tenantID string, outcome models.QueryOutcome)
}

// gate is the subset of quota.Gate the router needs.
type gate interface {
	Admit(ctx context.Context, tenantID string, resource models.QuotaResource) (*models.AdmitDecision, error)
}

// analyzer is the subset of intent.Analyzer the router needs.
type analyzer interface {
	Decide(ctx context.Context, query string, bias float64) (models.RouteDecision, map[string]float64, error)
}

// queryLogWriter persists one row per Execute call. Satisfied by
// internal/store.QueryLogStore.
type queryLogWriter interface {
	Write(ctx context.Context, tenantID string, entry models.QueryLogEntry) error
}

// Router implements domain.RouterService (spec §4.2): intent classification,
// cross-engine orchestration, result merging, and per-query logging.
type Router struct {
	relational domain.RelationalStore
	semantic   *SemanticSearch
	cache      domain.Cache
	cacheTTL   time.Duration
	tracker    tracker
	quota      gate
	analyzer   analyzer
	querylog   queryLogWriter
	deadline   time.Duration
	log        *logrus.Logger
}

// Config holds the Router's tunables, wired from internal/config.
type Config struct {
	Deadline time.Duration // per-request deadline for sql/semantic/hybrid branches, default 5s
	CacheTTL time.Duration
}

// New constructs a Router. cache may be nil (memoization disabled).
func New(
	relational domain.RelationalStore,
	embed domain.EmbeddingProvider,
	vectors domain.VectorStore,
	fullText FullTextSearcher,
	hydrate IDHydrator,
	cache domain.Cache,
	evolutionTracker tracker,
	quotaGate gate,
	intentAnalyzer analyzer,
	querylog queryLogWriter,
	log *logrus.Logger,
	cfg Config,
) *Router {
	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = 5 * time.Second
	}

	return &Router{
		relational: relational,
		semantic:   NewSemanticSearch(embed, vectors, fullText, hydrate),
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		tracker:    evolutionTracker,
		quota:      quotaGate,
		analyzer:   intentAnalyzer,
		querylog:   querylog,
		deadline:   deadline,
		log:        log,
	}
}

// Execute runs one query end to end: quota admission, cache lookup, intent
// classification, branch dispatch, merge, logging, and evolution feedback
// (spec §4.2).
func (r *Router) Execute(ctx context.Context, tenantID string, req models.QueryRequest) (*models.QueryResult, error) {
	start := time.Now()

	fp := fingerprint(tenantID, req.Query, req.Limit, string(req.ForceKind))

	if err := req.Validate(); err != nil {
		r.writeLog(ctx, tenantID, fp, models.RouteDecision{}, nil, time.Since(start), false)
		return nil, err
	}

	if err := r.admit(ctx, tenantID, models.ResourceQueriesPerMinute); err != nil {
		r.writeLog(ctx, tenantID, fp, models.RouteDecision{}, nil, time.Since(start), false)
		return nil, err
	}

	if err := r.admit(ctx, tenantID, models.ResourceMonthlyQueries); err != nil {
		r.writeLog(ctx, tenantID, fp, models.RouteDecision{}, nil, time.Since(start), false)
		return nil, err
	}

	if r.cache != nil {
		if cached, ok := r.cache.Get(fp); ok {
			hit := *cached
			hit.FromCache = true
			r.writeLog(ctx, tenantID, fp, hit.Decision, &hit, time.Since(start), true)

			return &hit, nil
		}
	}

	bias := 0.0
	if r.tracker != nil {
		bias = r.tracker.Bias(tenantID)
	}

	decision, _, err := r.classify(ctx, req, bias)
	if err != nil {
		r.writeLog(ctx, tenantID, fp, decision, nil, time.Since(start), false)
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	result, err := r.dispatch(execCtx, tenantID, req, decision)

	elapsed := time.Since(start)

	r.writeLog(ctx, tenantID, fp, decision, result, elapsed, false)

	if err != nil {
		return nil, err
	}

	result.Decision = decision
	result.ElapsedMS = elapsed.Milliseconds()
	result.Fingerprint = fp

	if r.cache != nil {
		r.cache.Set(fp, result, r.cacheTTL)
	}

	if r.tracker != nil {
		r.tracker.Observe(tenantID, models.QueryOutcome{
			Kind:       decision.Kind,
			Confidence: decision.Confidence,
			Resolved:   len(result.Items) > 0,
			Degraded:   result.Degraded,
			LatencyMS:  elapsed.Milliseconds(),
			At:         time.Now(),
		})
	}

	return result, nil
}

// ExplainQuery returns the decision Execute would make, and the signals
// behind it, without running the query (spec §4.2, dashboard/CLI support).
func (r *Router) ExplainQuery(ctx context.Context, tenantID string, req models.QueryRequest) (*models.ExplainResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bias := 0.0
	if r.tracker != nil {
		bias = r.tracker.Bias(tenantID)
	}

	decision, signals, err := r.classify(ctx, req, bias)
	if err != nil {
		return nil, err
	}

	return &models.ExplainResult{Decision: decision, Signals: signals, EvolutionBias: bias}, nil
}

func (r *Router) classify(ctx context.Context, req models.QueryRequest, bias float64) (models.RouteDecision, map[string]float64, error) {
	if req.ForceKind != "" {
		return models.RouteDecision{Kind: req.ForceKind, Confidence: 1, Source: "forced"}, nil, nil
	}

	decision, signals, err := r.analyzer.Decide(ctx, req.Query, bias)
	if err != nil {
		return models.RouteDecision{}, nil, fmt.Errorf("%w: classifying query: %w", models.ErrInternal, err)
	}

	return decision, signals, nil
}

func (r *Router) admit(ctx context.Context, tenantID string, resource models.QuotaResource) error {
	decision, err := r.quota.Admit(ctx, tenantID, resource)
	if err != nil {
		return fmt.Errorf("%w: checking %s quota: %w", models.ErrInternal, resource, err)
	}

	if !decision.Allowed {
		metrics.QuotaAdmitTotal.WithLabelValues(string(resource), "denied").Inc()
		return fmt.Errorf("%w: resource=%s retry_after=%s", models.ErrQuotaExceeded, decision.Resource, decision.RetryAfter)
	}

	metrics.QuotaAdmitTotal.WithLabelValues(string(resource), "allowed").Inc()
	return nil
}

func (r *Router) dispatch(ctx context.Context, tenantID string, req models.QueryRequest, decision models.RouteDecision) (*models.QueryResult, error) {
	switch decision.Kind {
	case models.IntentSQL:
		rows, err := r.relational.Query(ctx, tenantID, req.Query)
		if err != nil {
			metrics.RouterDispatchTotal.WithLabelValues("sql", "error").Inc()
			return nil, classifyUpstreamErr(err)
		}

		metrics.RouterDispatchTotal.WithLabelValues("sql", "ok").Inc()
		return &models.QueryResult{Items: sqlOnlyItems(rows, defaultSQLIDColumn)}, nil

	case models.IntentSemantic:
		concepts, err := r.semantic.Search(ctx, tenantID, req.Query, req.Limit)
		if err != nil {
			metrics.RouterDispatchTotal.WithLabelValues("semantic", "error").Inc()
			return nil, classifyUpstreamErr(err)
		}

		metrics.RouterDispatchTotal.WithLabelValues("semantic", "ok").Inc()
		return &models.QueryResult{Items: semanticOnlyItems(concepts), Concepts: concepts}, nil

	case models.IntentHybrid:
		return r.dispatchHybrid(ctx, tenantID, req)

	default:
		return nil, fmt.Errorf("%w: unrecognized intent %q", models.ErrInternal, decision.Kind)
	}
}

// dispatchHybrid runs the sql and semantic branches concurrently under a
// shared deadline via errgroup.WithContext, writing each branch's outcome
// into its own pre-allocated variable rather than returning it through the
// group's own error — that way a branch's result survives even when the
// other branch is the one that errors (spec §4.2, SPEC_FULL §2).
func (r *Router) dispatchHybrid(ctx context.Context, tenantID string, req models.QueryRequest) (*models.QueryResult, error) {
	var (
		sqlRows  []map[string]any
		sqlErr   error
		sqlDone  time.Time
		concepts []models.ScoredConcept
		semErr   error
		semDone  time.Time
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := r.relational.Query(gctx, tenantID, req.Query)
		sqlRows, sqlErr = rows, err
		sqlDone = time.Now()

		return nil
	})

	g.Go(func() error {
		cs, err := r.semantic.Search(gctx, tenantID, req.Query, req.Limit)
		concepts, semErr = cs, err
		semDone = time.Now()

		return nil
	})

	_ = g.Wait() // both goroutines always return nil; branch errors are read from sqlErr/semErr below

	switch {
	case sqlErr == nil && semErr == nil:
		metrics.RouterDispatchTotal.WithLabelValues("hybrid", "ok").Inc()
		return &models.QueryResult{Items: mergeHybrid(sqlRows, defaultSQLIDColumn, concepts), Concepts: concepts}, nil

	case sqlErr == nil:
		metrics.RouterDispatchTotal.WithLabelValues("hybrid", "degraded").Inc()
		return &models.QueryResult{
			Items:        sqlOnlyItems(sqlRows, defaultSQLIDColumn),
			Degraded:     true,
			PartialError: classifyUpstreamErr(semErr).Error(),
		}, nil

	case semErr == nil:
		metrics.RouterDispatchTotal.WithLabelValues("hybrid", "degraded").Inc()
		return &models.QueryResult{
			Items:        semanticOnlyItems(concepts),
			Concepts:     concepts,
			Degraded:     true,
			PartialError: classifyUpstreamErr(sqlErr).Error(),
		}, nil

	case sqlDone.Before(semDone):
		metrics.RouterDispatchTotal.WithLabelValues("hybrid", "error").Inc()
		return nil, &BothBranchesFailedError{Primary: classifyUpstreamErr(sqlErr), AlsoFailed: classifyUpstreamErr(semErr)}

	default:
		metrics.RouterDispatchTotal.WithLabelValues("hybrid", "error").Inc()
		return nil, &BothBranchesFailedError{Primary: classifyUpstreamErr(semErr), AlsoFailed: classifyUpstreamErr(sqlErr)}
	}
}

func (r *Router) writeLog(ctx context.Context, tenantID, fp string, decision models.RouteDecision, result *models.QueryResult, elapsed time.Duration, fromCache bool) {
	if r.querylog == nil {
		return
	}

	entry := models.QueryLogEntry{
		Fingerprint: fp,
		Kind:        decision.Kind,
		Confidence:  decision.Confidence,
		FromCache:   fromCache,
		ElapsedMS:   elapsed.Milliseconds(),
	}

	if result != nil {
		entry.Degraded = result.Degraded
		entry.ResultCount = len(result.Items)
	}

	if err := r.querylog.Write(ctx, tenantID, entry); err != nil && r.log != nil {
		r.log.WithError(err).WithField("tenant_id", tenantID).Warn("writing query log entry")
	}
}

// classifyUpstreamErr maps a branch error onto the router's error taxonomy
// (spec §4.2), passing through sentinels that are already specific and
// falling back to ErrUpstreamUnavailable otherwise.
func classifyUpstreamErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", models.ErrDeadlineExceeded, err)
	}

	switch {
	case errors.Is(err, models.ErrDimensionMismatch),
		errors.Is(err, models.ErrEmbeddingUnavailable),
		errors.Is(err, models.ErrUpstreamUnavailable),
		errors.Is(err, models.ErrVectorBackendError),
		errors.Is(err, models.ErrMetadataBackendError),
		errors.Is(err, models.ErrRelationalBackendError),
		errors.Is(err, models.ErrDeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}
}

// BothBranchesFailedError is returned when a hybrid query's sql and
// semantic branches both fail: Primary is whichever branch's error arrived
// first, AlsoFailed the other (spec §4.2). errors.Is/As unwrap to Primary.
type BothBranchesFailedError struct {
	Primary    error
	AlsoFailed error
}

func (e *BothBranchesFailedError) Error() string {
	return fmt.Sprintf("%s (also failed: %s)", e.Primary, e.AlsoFailed)
}

func (e *BothBranchesFailedError) Unwrap() error { return e.Primary }
