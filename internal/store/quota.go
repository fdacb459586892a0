package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// QuotaStore persists per-tenant quota configuration and monthly usage
// counters (spec §4.6). Second/minute windows are token buckets kept
// in-memory by internal/quota.Gate; only the calendar-month counter needs
// durability, since a process restart mid-minute is an acceptable reset
// but a restart mid-month must not give every tenant a fresh monthly quota.
type QuotaStore struct {
	Base
}

// NewQuotaStore creates a new QuotaStore.
func NewQuotaStore(base Base) *QuotaStore {
	return &QuotaStore{Base: base}
}

// LoadTenantQuota returns tenantID's configured limits, or defaults if the
// tenant has never had a row provisioned.
func (s *QuotaStore) LoadTenantQuota(ctx context.Context, tenantID string, defaults models.TenantQuota) (models.TenantQuota, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return models.TenantQuota{}, fmt.Errorf("loading tenant quota: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	quota := models.TenantQuota{TenantID: tenantID}

	err = tx.QueryRow(ctx,
		`SELECT queries_per_minute, api_calls_per_sec, monthly_query_limit
		 FROM tenant_quotas WHERE tenant_id = current_setting('app.tenant_id')::uuid`,
	).Scan(&quota.QueriesPerMinute, &quota.APICallsPerSecond, &quota.MonthlyQueryLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			defaults.TenantID = tenantID
			return defaults, nil
		}

		return models.TenantQuota{}, fmt.Errorf("scanning tenant quota: %w", err)
	}

	return quota, nil
}

// IncrementCounter atomically increments the counter for (tenantID,
// resource, windowStart) by delta and returns the new total. windowStart
// is the fixed calendar window's start instant (e.g. the first instant of
// the current UTC month) the caller is accounting against.
func (s *QuotaStore) IncrementCounter(ctx context.Context, tenantID string, resource models.QuotaResource, windowStart time.Time, delta int64) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("incrementing quota counter: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rolled back on early return, no-op after commit.

	var total int64

	err = tx.QueryRow(ctx,
		`INSERT INTO quota_counters (tenant_id, resource, window_start, count)
		 VALUES (current_setting('app.tenant_id')::uuid, $1, $2, $3)
		 ON CONFLICT (tenant_id, resource, window_start) DO UPDATE SET count = quota_counters.count + EXCLUDED.count
		 RETURNING count`,
		resource, windowStart, delta,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("upserting quota counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing quota counter: %w", err)
	}

	return total, nil
}

// CounterValue returns the current count for (tenantID, resource,
// windowStart) without incrementing it.
func (s *QuotaStore) CounterValue(ctx context.Context, tenantID string, resource models.QuotaResource, windowStart time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("reading quota counter: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	var count int64

	err = tx.QueryRow(ctx,
		`SELECT count FROM quota_counters
		 WHERE tenant_id = current_setting('app.tenant_id')::uuid AND resource = $1 AND window_start = $2`,
		resource, windowStart,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("scanning quota counter: %w", err)
	}

	return count, nil
}
