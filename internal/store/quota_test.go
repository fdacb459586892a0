package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

func TestLoadTenantQuotaReturnsDefaultsWhenUnprovisioned(t *testing.T) {
	base, tenantID := setupTestBase(t)
	qs := store.NewQuotaStore(base)
	defaults := models.TenantQuota{QueriesPerMinute: 600, APICallsPerSecond: 20, MonthlyQueryLimit: 1_000_000}

	got, err := qs.LoadTenantQuota(context.Background(), tenantID, defaults)
	if err != nil {
		t.Fatalf("LoadTenantQuota: %v", err)
	}

	if got.QueriesPerMinute != defaults.QueriesPerMinute || got.MonthlyQueryLimit != defaults.MonthlyQueryLimit {
		t.Errorf("LoadTenantQuota for unprovisioned tenant = %+v, want defaults %+v", got, defaults)
	}
}

func TestIncrementCounterAccumulates(t *testing.T) {
	base, tenantID := setupTestBase(t)
	qs := store.NewQuotaStore(base)
	ctx := context.Background()
	windowStart := time.Now().Truncate(time.Hour)

	total, err := qs.IncrementCounter(ctx, tenantID, models.ResourceMonthlyQueries, windowStart, 3)
	if err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}

	if total != 3 {
		t.Fatalf("IncrementCounter first call total = %d, want 3", total)
	}

	total, err = qs.IncrementCounter(ctx, tenantID, models.ResourceMonthlyQueries, windowStart, 4)
	if err != nil {
		t.Fatalf("IncrementCounter (second): %v", err)
	}

	if total != 7 {
		t.Errorf("IncrementCounter accumulated total = %d, want 7", total)
	}
}

func TestCounterValueReturnsZeroWhenUnseen(t *testing.T) {
	base, tenantID := setupTestBase(t)
	qs := store.NewQuotaStore(base)

	count, err := qs.CounterValue(context.Background(), tenantID, models.ResourceMonthlyQueries, time.Now())
	if err != nil {
		t.Fatalf("CounterValue: %v", err)
	}

	if count != 0 {
		t.Errorf("CounterValue for unseen window = %d, want 0", count)
	}
}
