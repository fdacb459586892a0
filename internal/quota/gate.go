// Package quota implements the Quota Gate (spec §4.6): per-tenant
// sliding-window admission control over queries-per-minute,
// API-calls-per-second, and a calendar-month query ceiling.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/persistorai/persistor/internal/models"
)

// counterStore persists the calendar-month counter across restarts.
// Satisfied by internal/store.QuotaStore.
type counterStore interface {
	LoadTenantQuota(ctx context.Context, tenantID string, defaults models.TenantQuota) (models.TenantQuota, error)
	IncrementCounter(ctx context.Context, tenantID string, resource models.QuotaResource, windowStart time.Time, delta int64) (int64, error)
	CounterValue(ctx context.Context, tenantID string, resource models.QuotaResource, windowStart time.Time) (int64, error)
}

// Defaults holds the fallback limits applied to a tenant with no row in
// tenant_quotas, wired from internal/config.
type Defaults struct {
	QueriesPerMinute  int
	APICallsPerSecond int
	MonthlyQueryLimit int64
}

// Gate is the Quota Gate. One instance serves every tenant; each
// tenant's buckets are looked up from a shared map, then locked
// independently, so concurrent admits on the same (tenant, resource) are
// serialized while different tenants never contend (spec §5).
type Gate struct {
	mu       sync.Mutex
	tenants  map[string]*tenantBuckets
	store    counterStore
	defaults Defaults
}

// New creates a Gate.
func New(store counterStore, defaults Defaults) *Gate {
	return &Gate{
		tenants:  make(map[string]*tenantBuckets),
		store:    store,
		defaults: defaults,
	}
}

func (g *Gate) buckets(ctx context.Context, tenantID string) (*tenantBuckets, error) {
	g.mu.Lock()
	b, ok := g.tenants[tenantID]
	g.mu.Unlock()

	if ok {
		return b, nil
	}

	quota := models.TenantQuota{
		TenantID:          tenantID,
		QueriesPerMinute:  g.defaults.QueriesPerMinute,
		APICallsPerSecond: g.defaults.APICallsPerSecond,
		MonthlyQueryLimit: g.defaults.MonthlyQueryLimit,
	}

	if g.store != nil {
		loaded, err := g.store.LoadTenantQuota(ctx, tenantID, quota)
		if err != nil {
			return nil, fmt.Errorf("loading tenant quota: %w", err)
		}

		quota = loaded
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.tenants[tenantID]; ok {
		return b, nil
	}

	b = newTenantBuckets(quota)
	g.tenants[tenantID] = b

	return b, nil
}

// Admit checks and, on success, consumes one unit of resource for
// tenantID. The per-minute/per-second windows are in-process token
// buckets; the monthly window is durable, backed by counterStore.
func (g *Gate) Admit(ctx context.Context, tenantID string, resource models.QuotaResource) (*models.AdmitDecision, error) {
	b, err := g.buckets(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	switch resource {
	case models.ResourceQueriesPerMinute:
		return b.admitQPM(), nil
	case models.ResourceAPICallsPerSec:
		return b.admitAPIQPS(), nil
	case models.ResourceMonthlyQueries:
		return g.admitMonthly(ctx, tenantID, b)
	default:
		return &models.AdmitDecision{Allowed: true, Resource: resource}, nil
	}
}

func (g *Gate) admitMonthly(ctx context.Context, tenantID string, b *tenantBuckets) (*models.AdmitDecision, error) {
	windowStart := monthStart(time.Now().UTC())
	resetAt := windowStart.AddDate(0, 1, 0)

	if g.store == nil {
		return &models.AdmitDecision{Allowed: true, Resource: models.ResourceMonthlyQueries, RetryAfter: 0}, nil
	}

	b.monthlyMu.Lock()
	defer b.monthlyMu.Unlock()

	current, err := g.store.CounterValue(ctx, tenantID, models.ResourceMonthlyQueries, windowStart)
	if err != nil {
		return nil, fmt.Errorf("checking monthly quota: %w", err)
	}

	if current >= b.quota.MonthlyQueryLimit {
		return &models.AdmitDecision{
			Allowed:    false,
			Resource:   models.ResourceMonthlyQueries,
			Remaining:  0,
			RetryAfter: time.Until(resetAt),
		}, nil
	}

	total, err := g.store.IncrementCounter(ctx, tenantID, models.ResourceMonthlyQueries, windowStart, 1)
	if err != nil {
		return nil, fmt.Errorf("incrementing monthly quota: %w", err)
	}

	return &models.AdmitDecision{
		Allowed:   true,
		Resource:  models.ResourceMonthlyQueries,
		Remaining: float64(b.quota.MonthlyQueryLimit - total),
	}, nil
}

// Usage returns tenantID's current consumption across all tracked windows.
func (g *Gate) Usage(ctx context.Context, tenantID string) (*models.UsageSnapshot, error) {
	b, err := g.buckets(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	windowStart := monthStart(time.Now().UTC())

	var monthlyUsed int64

	if g.store != nil {
		monthlyUsed, err = g.store.CounterValue(ctx, tenantID, models.ResourceMonthlyQueries, windowStart)
		if err != nil {
			return nil, fmt.Errorf("reading monthly usage: %w", err)
		}
	}

	qpmUsed, apiqpsUsed := b.usage()

	return &models.UsageSnapshot{
		TenantID:        tenantID,
		QPMUsed:         qpmUsed,
		QPMLimit:        b.quota.QueriesPerMinute,
		APIQPSUsed:      apiqpsUsed,
		APIQPSLimit:     b.quota.APICallsPerSecond,
		MonthlyUsed:     monthlyUsed,
		MonthlyLimit:    b.quota.MonthlyQueryLimit,
		MonthlyResetsAt: windowStart.AddDate(0, 1, 0),
	}, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
