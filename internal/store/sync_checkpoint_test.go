package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

func TestSyncCheckpointLoadMissingReturnsNotOK(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cps := store.NewSyncCheckpointStore(base)

	_, ok, err := cps.Load(context.Background(), tenantID, models.SyncForward, "customers")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if ok {
		t.Error("Load for a table never synced: expected ok=false")
	}
}

func TestSyncCheckpointSaveThenLoadRoundTrips(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cps := store.NewSyncCheckpointStore(base)
	ctx := context.Background()

	want := models.SyncCheckpoint{
		Direction:     models.SyncForward,
		Table:         "customers",
		Cursor:        "42",
		LastRunAt:     time.Now().Truncate(time.Second),
		LastSuccessAt: time.Now().Truncate(time.Second),
	}

	if err := cps.Save(ctx, tenantID, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := cps.Load(ctx, tenantID, models.SyncForward, "customers")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !ok || got.Cursor != want.Cursor {
		t.Errorf("Load after Save = %+v, want cursor %q", got, want.Cursor)
	}
}

func TestSyncCheckpointSaveAdvancesCursor(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cps := store.NewSyncCheckpointStore(base)
	ctx := context.Background()

	if err := cps.Save(ctx, tenantID, models.SyncCheckpoint{Direction: models.SyncForward, Table: "orders", Cursor: "1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := cps.Save(ctx, tenantID, models.SyncCheckpoint{Direction: models.SyncForward, Table: "orders", Cursor: "2"}); err != nil {
		t.Fatalf("Save (second): %v", err)
	}

	got, ok, err := cps.Load(ctx, tenantID, models.SyncForward, "orders")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}

	if got.Cursor != "2" {
		t.Errorf("Load cursor = %q, want \"2\" (advanced)", got.Cursor)
	}
}

func TestSyncCheckpointListForTenantReturnsAllTables(t *testing.T) {
	base, tenantID := setupTestBase(t)
	cps := store.NewSyncCheckpointStore(base)
	ctx := context.Background()

	if err := cps.Save(ctx, tenantID, models.SyncCheckpoint{Direction: models.SyncForward, Table: "customers", Cursor: "1"}); err != nil {
		t.Fatalf("Save customers: %v", err)
	}

	if err := cps.Save(ctx, tenantID, models.SyncCheckpoint{Direction: models.SyncForward, Table: "orders", Cursor: "7"}); err != nil {
		t.Fatalf("Save orders: %v", err)
	}

	entries, err := cps.ListForTenant(ctx, tenantID)
	if err != nil {
		t.Fatalf("ListForTenant: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("ListForTenant = %d entries, want 2", len(entries))
	}
}
