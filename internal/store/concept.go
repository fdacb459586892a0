package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// ConceptStore handles concept CRUD operations. It owns the metadata side of
// the two-collaborator write described in spec §4.3: the embedding vector is
// written to Vectors first, and only committed to metadata once that
// succeeds; a metadata failure compensates by deleting the just-written
// vector so the two stores never disagree about a concept's existence.
type ConceptStore struct {
	Base
	Vectors domain.VectorStore
}

// NewConceptStore creates a new ConceptStore.
func NewConceptStore(base Base, vectors domain.VectorStore) *ConceptStore {
	return &ConceptStore{Base: base, Vectors: vectors}
}

// CreateConcept inserts a new concept. If embedding is non-empty it is
// written to the vector store before the metadata row commits; if the
// metadata write fails, the vector write is compensated (deleted).
func (s *ConceptStore) CreateConcept(
	ctx context.Context,
	tenantID string,
	req models.CreateConceptRequest,
	embedding []float32,
) (*models.Concept, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	wroteVector := false

	if len(embedding) > 0 {
		err := withVectorRetry(ctx, func(ctx context.Context) error {
			return s.Vectors.Upsert(ctx, tenantID, req.ID, embedding)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrVectorBackendError, err)
		}

		wroteVector = true
	}

	n, err := s.createConceptMetadata(ctx, tenantID, req)
	if err != nil {
		if wroteVector {
			s.compensateVector(tenantID, req.ID)
		}

		return nil, err
	}

	s.notify("concepts", "insert", tenantID)

	return n, nil
}

func (s *ConceptStore) createConceptMetadata(
	ctx context.Context,
	tenantID string,
	req models.CreateConceptRequest,
) (*models.Concept, error) {
	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrMetadataBackendError, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	props := req.Properties
	if props == nil {
		props = map[string]any{}
	}

	propsJSON, err := s.encryptProperties(ctx, tenantID, props)
	if err != nil {
		return nil, fmt.Errorf("preparing concept properties: %w", err)
	}

	query := `INSERT INTO concepts (id, tenant_id, type, label, properties, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + conceptColumns

	row := tx.QueryRow(ctx, query, req.ID, tenantID, req.Type, req.Label, propsJSON, req.Source)

	c, err := scanConcept(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("%w: scanning created concept: %w", models.ErrMetadataBackendError, err)
	}

	if err := s.decryptConcept(ctx, tenantID, c); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: committing create concept: %w", models.ErrMetadataBackendError, err)
	}

	return c, nil
}

// compensateVector best-effort deletes a vector written during a create that
// ultimately failed on the metadata side, so the two stores stay consistent.
func (s *ConceptStore) compensateVector(tenantID, conceptID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := withVectorRetry(ctx, func(ctx context.Context) error {
		return s.Vectors.Delete(ctx, tenantID, conceptID)
	})
	if err != nil {
		s.Log.WithError(err).WithField("concept_id", conceptID).
			Warn("failed to compensate vector write after metadata failure")
	}
}

// buildConceptUpdateQuery constructs the SET clause and arguments for UpdateConcept.
func (s *ConceptStore) buildConceptUpdateQuery(
	ctx context.Context,
	tenantID string,
	req models.UpdateConceptRequest,
) (setClauses []string, args []any, nextArg int, err error) {
	setClauses = make([]string, 0, 3)
	args = make([]any, 0, 4)
	argIdx := 1

	if req.Type != nil {
		setClauses = append(setClauses, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *req.Type)
		argIdx++
	}

	if req.Label != nil {
		setClauses = append(setClauses, fmt.Sprintf("label = $%d", argIdx))
		args = append(args, *req.Label)
		argIdx++
	}

	if req.Properties != nil {
		propsJSON, err := s.encryptProperties(ctx, tenantID, req.Properties)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("preparing concept properties: %w", err)
		}

		setClauses = append(setClauses, fmt.Sprintf("properties = $%d", argIdx))
		args = append(args, propsJSON)
		argIdx++
	}

	return setClauses, args, argIdx, nil
}

// UpdateConcept updates an existing concept's metadata (not its embedding —
// see Reembed for vector updates) and returns the result.
func (s *ConceptStore) UpdateConcept(
	ctx context.Context,
	tenantID string,
	conceptID string,
	req models.UpdateConceptRequest,
) (*models.Concept, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	setClauses, args, argIdx, err := s.buildConceptUpdateQuery(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}

	if len(setClauses) == 0 {
		return s.GetConcept(ctx, tenantID, conceptID)
	}

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("updating concept: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var oldProps map[string]any
	if req.Properties != nil {
		oldProps, err = fetchConceptProperties(ctx, tx, tenantID, conceptID, &s.Base)
		if err != nil {
			return nil, err
		}
	}

	query := fmt.Sprintf(
		"UPDATE concepts SET %s WHERE tenant_id = $%d AND id = $%d RETURNING %s",
		strings.Join(setClauses, ", "),
		argIdx,
		argIdx+1,
		conceptColumns,
	)
	args = append(args, tenantID, conceptID)

	row := tx.QueryRow(ctx, query, args...)

	c, err := scanConcept(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConceptNotFound
		}

		return nil, fmt.Errorf("scanning updated concept: %w", err)
	}

	if err := s.decryptConcept(ctx, tenantID, c); err != nil {
		return nil, err
	}

	if req.Properties != nil {
		if err := RecordPropertyChanges(ctx, tx, tenantID, conceptID, oldProps, req.Properties, ""); err != nil {
			return nil, fmt.Errorf("recording property history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update concept: %w", err)
	}

	s.notify("concepts", "update", tenantID)

	return c, nil
}

// PatchConceptProperties merges a partial property set into a concept's
// existing properties (spec §3: null-valued keys delete, others upsert) and
// records the diff in property_history, reusing UpdateConcept's transactional
// shape.
func (s *ConceptStore) PatchConceptProperties(
	ctx context.Context,
	tenantID string,
	conceptID string,
	req models.PatchPropertiesRequest,
) (*models.Concept, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("patching concept properties: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	oldProps, err := fetchConceptProperties(ctx, tx, tenantID, conceptID, &s.Base)
	if err != nil {
		return nil, err
	}

	mergedProps := models.MergeProperties(oldProps, req.Properties)

	propsJSON, err := s.encryptProperties(ctx, tenantID, mergedProps)
	if err != nil {
		return nil, fmt.Errorf("preparing concept properties: %w", err)
	}

	query := `UPDATE concepts SET properties = $1 WHERE tenant_id = $2 AND id = $3 RETURNING ` + conceptColumns

	row := tx.QueryRow(ctx, query, propsJSON, tenantID, conceptID)

	c, err := scanConcept(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConceptNotFound
		}

		return nil, fmt.Errorf("scanning patched concept: %w", err)
	}

	if err := s.decryptConcept(ctx, tenantID, c); err != nil {
		return nil, err
	}

	if err := RecordPropertyChanges(ctx, tx, tenantID, conceptID, oldProps, mergedProps, "patch"); err != nil {
		return nil, fmt.Errorf("recording property history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing patch concept properties: %w", err)
	}

	s.notify("concepts", "update", tenantID)

	return c, nil
}

// Reembed replaces a concept's embedding vector in the vector store.
func (s *ConceptStore) Reembed(ctx context.Context, tenantID, conceptID string, embedding []float32) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := withVectorRetry(ctx, func(ctx context.Context) error {
		return s.Vectors.Upsert(ctx, tenantID, conceptID, embedding)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrVectorBackendError, err)
	}

	return nil
}

// DeleteConcept removes a concept, its relations, and its vector within one
// logical operation: relations and metadata inside a transaction, the vector
// best-effort afterward (a stray vector with no metadata row is inert; a
// failed vector delete is logged and the vector is left in place).
func (s *ConceptStore) DeleteConcept(ctx context.Context, tenantID, conceptID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("deleting concept: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	_, err = tx.Exec(ctx, "DELETE FROM relations WHERE tenant_id = current_setting('app.tenant_id')::uuid AND source = $1", conceptID)
	if err != nil {
		return fmt.Errorf("deleting outgoing relations for concept: %w", err)
	}

	_, err = tx.Exec(ctx, "DELETE FROM relations WHERE tenant_id = current_setting('app.tenant_id')::uuid AND target = $1", conceptID)
	if err != nil {
		return fmt.Errorf("deleting incoming relations for concept: %w", err)
	}

	tag, err := tx.Exec(ctx, "DELETE FROM concepts WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id = $1", conceptID)
	if err != nil {
		return fmt.Errorf("executing concept delete: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrConceptNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete concept: %w", err)
	}

	err = withVectorRetry(ctx, func(ctx context.Context) error {
		return s.Vectors.Delete(ctx, tenantID, conceptID)
	})
	if err != nil {
		s.Log.WithError(err).WithField("concept_id", conceptID).Warn("failed to delete vector after metadata delete")
	}

	s.notify("concepts", "delete", tenantID)

	return nil
}
