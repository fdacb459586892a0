package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/persistorai/persistor/internal/metrics"
	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

// runBackwardOne writes one concept's mutation back to its source
// relational row (spec §4.4's backward pass), triggered by NotifyMutation
// rather than a ticker: a concept edit should reach the relational side
// promptly, not wait for the next periodic sweep.
func (s *Synchronizer) runBackwardOne(ctx context.Context, ev mutationEvent) error {
	concept, err := s.concepts.GetConcept(ctx, ev.TenantID, ev.ConceptID)
	if err != nil {
		if errors.Is(err, models.ErrConceptNotFound) {
			return nil // deleted between enqueue and processing, nothing to write back
		}

		return fmt.Errorf("loading mutated concept: %w", err)
	}

	rule, ok := s.ruleForType(concept.Type)
	if !ok {
		return nil // no mapping rule claims this concept's type, not a synchronized entity
	}

	rawKey, ok := concept.Properties[store.SourceKeyProperty]
	if !ok {
		return nil // concept was never synchronized from this table, nothing to write back
	}

	pk, ok := parseSourceKey(rule.Table, fmt.Sprintf("%v", rawKey))
	if !ok {
		return nil
	}

	if len(rule.WritebackCols) == 0 {
		return nil // mapping rule declares no writeback columns, forward-only
	}

	current, err := s.currentRow(ctx, ev.TenantID, rule, pk)
	if err != nil {
		return fmt.Errorf("reading current relational row: %w", err)
	}

	if current == nil {
		return nil // row deleted on the relational side, nothing to reconcile
	}

	relationalChanged := rowHash(rule, current) != fmt.Sprintf("%v", concept.Properties[store.RowHashProperty])

	if relationalChanged {
		return s.resolveConflict(ctx, ev.TenantID, rule, concept, current, pk)
	}

	return s.writeBack(ctx, ev.TenantID, rule, concept, pk)
}

// resolveConflict applies the mapping rule's conflict policy when both
// sides changed since the last forward pass (spec §4.4).
func (s *Synchronizer) resolveConflict(ctx context.Context, tenantID string, rule models.MappingRule, concept *models.Concept, current map[string]any, pk any) error {
	policy := rule.ConflictPolicy
	if policy == "" {
		policy = models.ResolveLastWriteWins
	}

	switch policy {
	case models.ResolvePreferRelational:
		return nil // relational side wins, do not overwrite it

	case models.ResolvePreferConcept:
		return s.writeBack(ctx, tenantID, rule, concept, pk)

	case models.ResolveManual:
		return s.quarantineConflict(ctx, tenantID, rule, concept, current)

	case models.ResolveLastWriteWins:
		fallthrough
	default:
		relationalUpdatedAt, ok := relationalUpdatedAt(current)
		if !ok || concept.UpdatedAt.After(relationalUpdatedAt) {
			return s.writeBack(ctx, tenantID, rule, concept, pk)
		}

		return nil // relational row is newer, concept loses
	}
}

func (s *Synchronizer) quarantineConflict(ctx context.Context, tenantID string, rule models.MappingRule, concept *models.Concept, current map[string]any) error {
	err := s.quarantine.Stage(ctx, tenantID, models.SyncQuarantineEntry{
		Direction:  models.SyncBackward,
		Table:      rule.Table,
		EntityID:   concept.ID,
		Reason:     "both sides changed since last checkpoint, manual resolution required",
		LeftValue:  marshalForQuarantine(current),
		RightValue: marshalForQuarantine(concept),
		CreatedAt:  time.Now(),
	})
	if err == nil {
		metrics.SyncQuarantineDepth.Inc()
	}

	return err
}

// writeBack applies the concept's writeback-whitelisted properties onto the
// source relational row.
func (s *Synchronizer) writeBack(ctx context.Context, tenantID string, rule models.MappingRule, concept *models.Concept, pk any) error {
	setClauses := make([]string, 0, len(rule.WritebackCols))
	args := make([]any, 0, len(rule.WritebackCols)+1)
	i := 1

	for _, propKey := range rule.WritebackCols {
		col, ok := reverseMappedColumn(rule, propKey)
		if !ok {
			continue
		}

		value, ok := concept.Properties[propKey]
		if !ok {
			continue
		}

		i++
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i-1))
		args = append(args, value)
	}

	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, pk)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s::text = $%d", rule.Table, strings.Join(setClauses, ", "), rule.IDColumn, len(args))

	_, err := s.relational.Exec(ctx, tenantID, query, args...)
	if err != nil {
		return fmt.Errorf("writing back to %s: %w", rule.Table, err)
	}

	return nil
}

// currentRow reads the live relational row for pk, or nil if it no longer
// exists.
func (s *Synchronizer) currentRow(ctx context.Context, tenantID string, rule models.MappingRule, pk any) (map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s::text = $1", rule.Table, rule.IDColumn)

	rows, err := s.relational.Query(ctx, tenantID, query, fmt.Sprintf("%v", pk))
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// ruleForType finds the mapping rule whose type_value matches a concept's
// type. Mapping rules are assumed one-to-one with concept types.
func (s *Synchronizer) ruleForType(typeValue string) (models.MappingRule, bool) {
	for _, rule := range s.rules {
		if rule.TypeValue == typeValue {
			return rule, true
		}
	}

	return models.MappingRule{}, false
}

// reverseMappedColumn finds the relational column a concept property key
// maps from, the inverse of MappingRule.PropertyMap.
func reverseMappedColumn(rule models.MappingRule, propKey string) (string, bool) {
	for col, key := range rule.PropertyMap {
		if key == propKey {
			return col, true
		}
	}

	return "", false
}

// parseSourceKey strips a mapping rule's table prefix from a stored
// source_key, returning the relational primary key it encodes.
func parseSourceKey(table, sourceKey string) (string, bool) {
	prefix := table + ":"
	if !strings.HasPrefix(sourceKey, prefix) {
		return "", false
	}

	return strings.TrimPrefix(sourceKey, prefix), true
}

// relationalUpdatedAt reads a conventional "updated_at" column off a row,
// if the table has one.
func relationalUpdatedAt(row map[string]any) (time.Time, bool) {
	v, ok := row["updated_at"]
	if !ok {
		return time.Time{}, false
	}

	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, false
	}

	return t, true
}
