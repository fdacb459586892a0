package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// MergeStore handles concept deduplication merges.
type MergeStore struct {
	Base
}

// NewMergeStore creates a new MergeStore.
func NewMergeStore(base Base) *MergeStore {
	return &MergeStore{Base: base}
}

// MergeConcepts collapses loserID into winnerID: relations touching the loser are
// repointed to the winner, relations that would collide with an existing winner
// relation of the same type are dropped (keeping whichever has the higher
// strength_score), and the loser concept row is deleted. The loser's vector row
// is not deleted: vector storage is a separate collaborator (spec §4.3) and no
// step of the merge path removes it.
func (s *MergeStore) MergeConcepts( //nolint:gocognit,gocyclo,cyclop,funlen // multi-step redirect-then-delete transaction.
	ctx context.Context,
	tenantID string,
	req models.MergeConceptsRequest,
) (*models.MergeConceptsResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("merging concepts: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var loserExists, winnerExists bool

	err = tx.QueryRow(ctx,
		`SELECT
			EXISTS(SELECT 1 FROM concepts WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id = $1),
			EXISTS(SELECT 1 FROM concepts WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id = $2)`,
		req.LoserID, req.WinnerID,
	).Scan(&loserExists, &winnerExists)
	if err != nil {
		return nil, fmt.Errorf("checking merge concepts: %w", err)
	}

	if !loserExists {
		return nil, fmt.Errorf("loser concept %q: %w", req.LoserID, models.ErrConceptNotFound)
	}

	if !winnerExists {
		return nil, fmt.Errorf("winner concept %q: %w", req.WinnerID, models.ErrConceptNotFound)
	}

	rows, err := tx.Query(ctx,
		`SELECT `+relationColumns+` FROM relations
		WHERE tenant_id = current_setting('app.tenant_id')::uuid
			AND (source = $1 OR target = $1)`,
		req.LoserID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying loser relations: %w", err)
	}

	loserRelations, err := collectRelations(rows)
	rows.Close()

	if err != nil {
		return nil, fmt.Errorf("collecting loser relations: %w", err)
	}

	var moved, dropped int

	for _, r := range loserRelations {
		newSource, newTarget := r.Source, r.Target
		if newSource == req.LoserID {
			newSource = req.WinnerID
		}

		if newTarget == req.LoserID {
			newTarget = req.WinnerID
		}

		if newSource == newTarget {
			// Merging would create a self-loop; drop rather than keep a degenerate relation.
			dropped++

			continue
		}

		existing, err := s.getRelationOrNil(ctx, tx, newSource, newTarget, r.Type)
		if err != nil {
			return nil, fmt.Errorf("checking existing winner relation: %w", err)
		}

		if existing != nil {
			if r.Strength <= existing.Strength {
				dropped++

				continue
			}

			if _, err := tx.Exec(ctx,
				`DELETE FROM relations WHERE tenant_id = current_setting('app.tenant_id')::uuid
					AND source = $1 AND target = $2 AND type = $3`,
				existing.Source, existing.Target, existing.Type,
			); err != nil {
				return nil, fmt.Errorf("dropping superseded winner relation: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`UPDATE relations SET source = $1, target = $2 WHERE tenant_id = current_setting('app.tenant_id')::uuid
				AND source = $3 AND target = $4 AND type = $5`,
			newSource, newTarget, r.Source, r.Target, r.Type,
		); err != nil {
			return nil, fmt.Errorf("redirecting relation to winner: %w", err)
		}

		moved++
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM concepts WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id = $1`,
		req.LoserID,
	); err != nil {
		return nil, fmt.Errorf("deleting loser concept: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE concepts SET superseded_by = $1 WHERE tenant_id = current_setting('app.tenant_id')::uuid AND superseded_by = $2`,
		req.WinnerID, req.LoserID,
	); err != nil {
		return nil, fmt.Errorf("repointing prior supersession chain: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing merge: %w", err)
	}

	s.notify("concepts", "merge", tenantID)

	return &models.MergeConceptsResult{
		LoserID:         req.LoserID,
		WinnerID:        req.WinnerID,
		RelationsMoved:  moved,
		RelationsDropped: dropped,
		LoserDeleted:    true,
	}, nil
}

// getRelationOrNil wraps getRelation returning nil instead of ErrRelationNotFound for callers that treat absence as a normal case.
func (s *Base) getRelationOrNil(ctx context.Context, tx pgx.Tx, source, target, relType string) (*models.Relation, error) {
	query := "SELECT " + relationColumns +
		" FROM relations WHERE tenant_id = current_setting('app.tenant_id')::uuid AND source = $1 AND target = $2 AND type = $3"

	row := tx.QueryRow(ctx, query, source, target, relType)

	r, err := scanRelation(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("scanning relation: %w", err)
	}

	return r, nil
}
