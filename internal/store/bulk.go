package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/persistorai/persistor/internal/models"
)

// maxBulkBatchSize limits the number of rows per INSERT statement to avoid
// exceeding PostgreSQL's parameter limit (65535 params).
const maxBulkBatchSize = 500

// BulkStore handles bulk upsert operations for concepts and relations, used by
// the Synchronizer's forward pass to land batches of rows mapped from the
// relational engine (spec §5). Embeddings are not part of a bulk upsert: a
// bulk-created concept has no vector row until the backfill worker (fed by
// AdminStore.ListConceptsWithoutEmbeddings) calls the embedding provider and
// ConceptStore.Reembed.
type BulkStore struct {
	Base
}

// NewBulkStore creates a BulkStore with the given shared base.
func NewBulkStore(base Base) *BulkStore {
	return &BulkStore{Base: base}
}

// BulkUpsertConcepts inserts or updates multiple concepts in a single
// transaction using multi-row INSERT ... ON CONFLICT. Returns the number of
// upserted rows.
func (s *BulkStore) BulkUpsertConcepts( //nolint:gocognit,gocyclo,cyclop,funlen // complexity from batch building + history tracking.
	ctx context.Context,
	tenantID string,
	concepts []models.CreateConceptRequest,
) (int, error) {
	if len(concepts) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Pre-encrypt all properties BEFORE opening the transaction to minimize lock time.
	encryptedProps := make([][]byte, len(concepts))

	for i, c := range concepts {
		props := c.Properties
		if props == nil {
			props = map[string]any{}
		}

		propsJSON, err := s.encryptProperties(ctx, tenantID, props)
		if err != nil {
			return 0, fmt.Errorf("preparing concept %s properties: %w", c.ID, err)
		}

		encryptedProps[i] = propsJSON
	}

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("bulk upsert concepts: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	existingIDs := make([]string, len(concepts))
	for i, c := range concepts {
		existingIDs[i] = c.ID
	}

	oldPropsMap, err := s.fetchExistingProperties(ctx, tx, tenantID, existingIDs)
	if err != nil {
		return 0, fmt.Errorf("fetching existing properties for history: %w", err)
	}

	total := 0

	for i := 0; i < len(concepts); i += maxBulkBatchSize {
		end := i + maxBulkBatchSize
		if end > len(concepts) {
			end = len(concepts)
		}

		batch := concepts[i:end]
		batchProps := encryptedProps[i:end]

		valueParts := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*6)

		for j, c := range batch {
			base := j*6 + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4, base+5,
			))
			args = append(args, c.ID, tenantID, c.Type, c.Label, batchProps[j], c.Source)
		}

		sql := `INSERT INTO concepts (id, tenant_id, type, label, properties, source)
			VALUES ` + strings.Join(valueParts, ", ") + `
			ON CONFLICT (tenant_id, id) DO UPDATE
			SET type = EXCLUDED.type,
				label = EXCLUDED.label,
				properties = EXCLUDED.properties,
				updated_at = NOW()`

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, fmt.Errorf("bulk upserting concepts batch: %w", err)
		}

		total += int(tag.RowsAffected())
	}

	for _, c := range concepts {
		oldProps, existed := oldPropsMap[c.ID]
		if !existed {
			continue
		}

		newProps := c.Properties
		if newProps == nil {
			newProps = map[string]any{}
		}

		if err := RecordPropertyChanges(ctx, tx, tenantID, c.ID, oldProps, newProps, "bulk_upsert"); err != nil {
			return 0, fmt.Errorf("recording property history for %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing bulk upsert concepts: %w", err)
	}

	notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer notifyCancel()

	payload, _ := json.Marshal(map[string]any{ //nolint:errcheck // static keys, cannot fail.
		"table":     "concepts",
		"op":        "BULK",
		"count":     total,
		"tenant_id": tenantID,
	})

	if _, err := s.Pool.Exec(notifyCtx, "SELECT pg_notify('"+changeNotifyChannel+"', $1)", string(payload)); err != nil {
		s.Log.WithError(err).Warn("failed to send bulk concept notification")
	}

	return total, nil
}

// BulkUpsertRelations inserts or updates multiple relations in a single
// transaction using multi-row INSERT ... ON CONFLICT. Returns the number of
// upserted rows.
func (s *BulkStore) BulkUpsertRelations( //nolint:gocognit,gocyclo,cyclop,funlen // complexity from batch building + concept existence validation.
	ctx context.Context,
	tenantID string,
	relations []models.CreateRelationRequest,
) (int, error) {
	if len(relations) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	encryptedProps := make([][]byte, len(relations))

	for i, r := range relations {
		props := r.Properties
		if props == nil {
			props = map[string]any{}
		}

		propsJSON, err := s.encryptProperties(ctx, tenantID, props)
		if err != nil {
			return 0, fmt.Errorf("preparing relation %s->%s properties: %w", r.Source, r.Target, err)
		}

		encryptedProps[i] = propsJSON
	}

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("bulk upsert relations: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	conceptIDSet := make(map[string]struct{})
	for _, r := range relations {
		conceptIDSet[r.Source] = struct{}{}
		conceptIDSet[r.Target] = struct{}{}
	}

	expectedIDs := make([]string, 0, len(conceptIDSet))
	for id := range conceptIDSet {
		expectedIDs = append(expectedIDs, id)
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM concepts WHERE tenant_id = $1 AND id = ANY($2)`,
		tenantID, expectedIDs)
	if err != nil {
		return 0, fmt.Errorf("verifying concept existence: %w", err)
	}

	foundIDs := make(map[string]struct{})

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning concept ID: %w", err)
		}

		foundIDs[id] = struct{}{}
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating concept IDs: %w", err)
	}

	if len(foundIDs) != len(conceptIDSet) {
		var missing []string

		for id := range conceptIDSet {
			if _, ok := foundIDs[id]; !ok {
				missing = append(missing, id)
			}
		}

		return 0, fmt.Errorf("missing concept IDs referenced by relations: %v", missing)
	}

	total := 0

	for i := 0; i < len(relations); i += maxBulkBatchSize {
		end := i + maxBulkBatchSize
		if end > len(relations) {
			end = len(relations)
		}

		batch := relations[i:end]
		batchProps := encryptedProps[i:end]

		valueParts := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*6)

		for j, r := range batch {
			weight := 1.0
			if r.Weight != nil {
				weight = *r.Weight
			}

			base := j*6 + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4, base+5,
			))
			args = append(args, tenantID, r.Source, r.Target, r.Type, batchProps[j], weight)
		}

		sql := `INSERT INTO relations (tenant_id, source, target, type, properties, weight)
			VALUES ` + strings.Join(valueParts, ", ") + `
			ON CONFLICT (tenant_id, source, target, type) DO UPDATE
			SET properties = EXCLUDED.properties,
				weight = EXCLUDED.weight,
				updated_at = NOW()`

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, fmt.Errorf("bulk upserting relations batch: %w", err)
		}

		total += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing bulk upsert relations: %w", err)
	}

	notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer notifyCancel()

	payload, _ := json.Marshal(map[string]any{ //nolint:errcheck // static keys, cannot fail.
		"table":     "relations",
		"op":        "BULK",
		"count":     total,
		"tenant_id": tenantID,
	})

	if _, err := s.Pool.Exec(notifyCtx, "SELECT pg_notify('"+changeNotifyChannel+"', $1)", string(payload)); err != nil {
		s.Log.WithError(err).Warn("failed to send bulk relation notification")
	}

	return total, nil
}
