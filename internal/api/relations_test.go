package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/persistorai/persistor/internal/api"
	"github.com/persistorai/persistor/internal/models"
)

func TestRelationCreate_Valid(t *testing.T) {
	t.Parallel()

	repo := &mockRelationRepo{
		createFn: func(_ context.Context, _ string, req models.CreateRelationRequest) (*models.Relation, error) {
			return &models.Relation{
				Source:    req.Source,
				Target:    req.Target,
				Type:      req.Type,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewRelationHandler(repo, testLogger())
	r.POST("/relations", h.Create)

	w := doRequest(r, http.MethodPost, "/relations", `{"source":"a","target":"b","type":"related_to"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var relation models.Relation
	if err := json.Unmarshal(w.Body.Bytes(), &relation); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if relation.Source != "a" || relation.Target != "b" {
		t.Errorf("unexpected relation: %+v", relation)
	}
}

func TestRelationCreate_MissingSource(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewRelationHandler(&mockRelationRepo{}, testLogger())
	r.POST("/relations", h.Create)

	w := doRequest(r, http.MethodPost, "/relations", `{"target":"b","type":"related_to"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRelationCreate_ConceptNotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRelationRepo{
		createFn: func(_ context.Context, _ string, _ models.CreateRelationRequest) (*models.Relation, error) {
			return nil, models.ErrConceptNotFound
		},
	}

	r := newTestRouter()
	h := api.NewRelationHandler(repo, testLogger())
	r.POST("/relations", h.Create)

	w := doRequest(r, http.MethodPost, "/relations", `{"source":"a","target":"missing","type":"related_to"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRelationDelete_OK(t *testing.T) {
	t.Parallel()

	repo := &mockRelationRepo{
		deleteFn: func(_ context.Context, _, _, _, _ string) error {
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewRelationHandler(repo, testLogger())
	r.DELETE("/relations/:source/:target/:type", h.Delete)

	w := doRequest(r, http.MethodDelete, "/relations/a/b/related_to", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["deleted"] != true {
		t.Errorf("expected deleted=true, got %v", body["deleted"])
	}
}

func TestRelationDelete_NotFound(t *testing.T) {
	t.Parallel()

	repo := &mockRelationRepo{
		deleteFn: func(_ context.Context, _, _, _, _ string) error {
			return models.ErrRelationNotFound
		},
	}

	r := newTestRouter()
	h := api.NewRelationHandler(repo, testLogger())
	r.DELETE("/relations/:source/:target/:type", h.Delete)

	w := doRequest(r, http.MethodDelete, "/relations/a/b/related_to", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}
