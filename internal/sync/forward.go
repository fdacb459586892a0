package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

// runForward executes one forward pass (relational -> concept) for every
// configured mapping rule against a single tenant (spec §4.4): reads rows
// whose primary key sorts after the checkpoint cursor, embeds, and upserts
// into the Concept Store keyed by source_key. Rows behind the cursor are not
// re-read, so later changes to them are not picked up.
func (s *Synchronizer) runForward(ctx context.Context, tenantID string) (*models.SyncRunSummary, error) {
	summary := &models.SyncRunSummary{
		Direction: models.SyncForward,
		TenantID:  tenantID,
		StartedAt: time.Now(),
	}

	for _, rule := range s.rules {
		if err := s.forwardTable(ctx, tenantID, rule, summary); err != nil {
			summary.Err = err.Error()
			summary.FinishedAt = time.Now()

			return summary, fmt.Errorf("forward sync table %s: %w", rule.Table, err)
		}
	}

	summary.FinishedAt = time.Now()

	return summary, nil
}

// forwardTable syncs rows from one table under one mapping rule. Cursor
// semantics: Cursor holds the last-seen primary key value as text, and rows
// are scanned in ascending primary-key order so a restart resumes instead
// of rescanning the whole table (mirrors the teacher's embed_worker.go
// batch-then-checkpoint shape, generalized from a queue offset to a SQL
// keyset cursor).
func (s *Synchronizer) forwardTable(ctx context.Context, tenantID string, rule models.MappingRule, summary *models.SyncRunSummary) error {
	cursor := ""

	cp, ok, err := s.checkpoints.Load(ctx, tenantID, models.SyncForward, rule.Table)
	if err != nil {
		return fmt.Errorf("loading checkpoint: %w", err)
	}

	if ok {
		cursor = cp.Cursor
	}

	batchSize := s.backpressure.currentBatchSize(s.batchSize)

	var (
		rows []map[string]any
	)

	if cursor == "" {
		query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s ASC LIMIT $1", rule.Table, rule.IDColumn)
		rows, err = s.relational.Query(ctx, tenantID, query, batchSize)
	} else {
		query := fmt.Sprintf("SELECT * FROM %s WHERE %s::text > $1 ORDER BY %s ASC LIMIT $2", rule.Table, rule.IDColumn, rule.IDColumn)
		rows, err = s.relational.Query(ctx, tenantID, query, cursor, batchSize)
	}

	if err != nil {
		s.backpressure.recordFailure()
		return fmt.Errorf("reading changed rows: %w", err)
	}

	summary.RowsScanned += len(rows)

	applied, lastCursor, err := s.applyRows(ctx, tenantID, rule, rows)
	if err != nil {
		s.backpressure.recordFailure()
		return err
	}

	summary.RowsApplied += applied

	if len(rows) == 0 {
		s.backpressure.recordSuccess()
		return nil
	}

	s.backpressure.recordSuccess()

	return s.checkpoints.Save(ctx, tenantID, models.SyncCheckpoint{
		Direction:     models.SyncForward,
		Table:         rule.Table,
		Cursor:        lastCursor,
		LastRunAt:     time.Now(),
		LastSuccessAt: time.Now(),
	})
}

// applyRows embeds and upserts a batch of rows, bounding concurrent embed
// calls with s.embedSem (grounded on the hybrid-search-service's weighted
// semaphore pattern). A per-row failure is logged and skipped rather than
// failing the whole batch, so one bad row never blocks the rest.
func (s *Synchronizer) applyRows(ctx context.Context, tenantID string, rule models.MappingRule, rows []map[string]any) (applied int, lastCursor string, err error) {
	for _, row := range rows {
		pk, ok := row[rule.IDColumn]
		if !ok {
			continue
		}

		lastCursor = fmt.Sprintf("%v", pk)

		if err := s.embedSem.Acquire(ctx, 1); err != nil {
			return applied, lastCursor, fmt.Errorf("acquiring embed slot: %w", err)
		}

		ok, embedErr := s.applyRow(ctx, tenantID, rule, row, pk)

		s.embedSem.Release(1)

		if embedErr != nil {
			if s.log != nil {
				s.log.WithError(embedErr).WithFields(logrus.Fields{
					"tenant_id": tenantID, "table": rule.Table, "pk": pk,
				}).Warn("forward sync: skipping row after error")
			}

			continue
		}

		if ok {
			applied++
		}
	}

	return applied, lastCursor, nil
}

// applyRow embeds and upserts a single row, skipping the embed call
// entirely when the row_hash is unchanged from the last sync (spec §4.4:
// idempotent on (source_key, row_hash)).
func (s *Synchronizer) applyRow(ctx context.Context, tenantID string, rule models.MappingRule, row map[string]any, pk any) (bool, error) {
	sourceKey := sourceKeyFor(rule.Table, pk)
	hash := rowHash(rule, row)

	existing, err := s.concepts.FindBySourceKey(ctx, tenantID, sourceKey)
	if err != nil && !errors.Is(err, models.ErrConceptNotFound) {
		return false, fmt.Errorf("looking up existing concept: %w", err)
	}

	if existing != nil {
		if fmt.Sprintf("%v", existing.Properties[store.RowHashProperty]) == hash {
			return false, nil
		}
	}

	label := conceptLabel(rule, row)
	props := conceptProperties(rule, row, pk)

	embedding, err := s.embedder.Embed(ctx, embeddingText(rule, label, props))
	if err != nil {
		return false, fmt.Errorf("embedding row: %w", err)
	}

	if existing == nil {
		_, err := s.concepts.CreateConcept(ctx, tenantID, models.CreateConceptRequest{
			Type:       rule.TypeValue,
			Label:      label,
			Properties: props,
			Source:     "synchronized",
		}, embedding)
		if err != nil {
			return false, fmt.Errorf("creating concept: %w", err)
		}

		return true, nil
	}

	typeValue := rule.TypeValue

	if _, err := s.concepts.UpdateConcept(ctx, tenantID, existing.ID, models.UpdateConceptRequest{
		Type:       &typeValue,
		Label:      &label,
		Properties: props,
	}); err != nil {
		return false, fmt.Errorf("updating concept: %w", err)
	}

	if err := s.concepts.Reembed(ctx, tenantID, existing.ID, embedding); err != nil {
		return false, fmt.Errorf("reembedding concept: %w", err)
	}

	return true, nil
}
