package vectorstore_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/dbpool"
	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/vectorstore"
)

const testDim = 8

func setupTestStore(t *testing.T) (*vectorstore.Store, string) {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	tenantID := uuid.New().String()
	apiKey := "test-key-" + tenantID
	hash := sha256.Sum256([]byte(apiKey))
	apiKeyHash := hex.EncodeToString(hash[:])

	if _, err := pool.Exec(ctx,
		"INSERT INTO tenants (id, name, api_key_hash) VALUES ($1, $2, $3)",
		tenantID, fmt.Sprintf("test-tenant-%s", tenantID[:8]), apiKeyHash,
	); err != nil {
		t.Fatalf("creating test tenant: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		pool.Exec(cleanCtx, "DELETE FROM concept_vectors WHERE tenant_id = $1", tenantID) //nolint:errcheck // best-effort cleanup
		pool.Exec(cleanCtx, "DELETE FROM tenants WHERE id = $1", tenantID)                //nolint:errcheck // best-effort cleanup
	})

	return vectorstore.New(pool, log, testDim), tenantID
}

func testVector(seed float32) []float32 {
	v := make([]float32, testDim)
	for i := range v {
		v[i] = seed + float32(i)*0.01
	}

	return v
}

func TestUpsertAndSearchReturnsNearest(t *testing.T) {
	vs, tenantID := setupTestStore(t)
	ctx := context.Background()

	if err := vs.Upsert(ctx, tenantID, "concept-a", testVector(0.1)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := vs.Upsert(ctx, tenantID, "concept-b", testVector(0.9)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := vs.Search(ctx, tenantID, testVector(0.1), 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) == 0 {
		t.Fatal("Search: expected at least one result")
	}

	if results[0].ID != "concept-a" {
		t.Errorf("Search nearest = %s, want concept-a", results[0].ID)
	}
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	vs, tenantID := setupTestStore(t)
	ctx := context.Background()

	err := vs.Upsert(ctx, tenantID, "concept-bad-dim", []float32{0.1, 0.2})
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("Upsert with wrong dimension: got %v, want ErrDimensionMismatch", err)
	}
}

func TestDeleteRemovesVector(t *testing.T) {
	vs, tenantID := setupTestStore(t)
	ctx := context.Background()

	if err := vs.Upsert(ctx, tenantID, "concept-del", testVector(0.5)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := vs.Delete(ctx, tenantID, "concept-del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	results, err := vs.Search(ctx, tenantID, testVector(0.5), 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	for _, r := range results {
		if r.ID == "concept-del" {
			t.Error("Search after Delete: deleted concept still present")
		}
	}
}

func TestDimensionReportsConfiguredValue(t *testing.T) {
	vs, _ := setupTestStore(t)

	if got := vs.Dimension(); got != testDim {
		t.Errorf("Dimension() = %d, want %d", got, testDim)
	}
}
