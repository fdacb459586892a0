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

func TestConceptCreate_Valid(t *testing.T) {
	t.Parallel()

	repo := &mockConceptRepo{
		createFn: func(_ context.Context, _ string, req models.CreateConceptRequest) (*models.Concept, error) {
			return &models.Concept{
				ID:        req.ID,
				Type:      req.Type,
				Label:     req.Label,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewConceptHandler(repo, testLogger())
	r.POST("/concepts", h.Create)

	w := doRequest(r, http.MethodPost, "/concepts", `{"id":"c1","type":"person","label":"Alice"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var concept models.Concept
	if err := json.Unmarshal(w.Body.Bytes(), &concept); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if concept.ID != "c1" {
		t.Errorf("expected id 'c1', got %q", concept.ID)
	}
}

func TestConceptCreate_MissingType(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewConceptHandler(&mockConceptRepo{}, testLogger())
	r.POST("/concepts", h.Create)

	w := doRequest(r, http.MethodPost, "/concepts", `{"id":"c1","label":"Alice"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestConceptGet_Found(t *testing.T) {
	t.Parallel()

	repo := &mockConceptRepo{
		getFn: func(_ context.Context, _ string, conceptID string) (*models.Concept, error) {
			return &models.Concept{ID: conceptID, Type: "person", Label: "Alice"}, nil
		},
	}

	r := newTestRouter()
	h := api.NewConceptHandler(repo, testLogger())
	r.GET("/concepts/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/concepts/c1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var concept models.Concept
	if err := json.Unmarshal(w.Body.Bytes(), &concept); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if concept.ID != "c1" {
		t.Errorf("expected id 'c1', got %q", concept.ID)
	}
}

func TestConceptGet_NotFound(t *testing.T) {
	t.Parallel()

	repo := &mockConceptRepo{
		getFn: func(_ context.Context, _, _ string) (*models.Concept, error) {
			return nil, models.ErrConceptNotFound
		},
	}

	r := newTestRouter()
	h := api.NewConceptHandler(repo, testLogger())
	r.GET("/concepts/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/concepts/missing", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestConceptUpdate_OK(t *testing.T) {
	t.Parallel()

	repo := &mockConceptRepo{
		updateFn: func(_ context.Context, _, conceptID string, _ models.UpdateConceptRequest) (*models.Concept, error) {
			return &models.Concept{ID: conceptID, Type: "person", Label: "Updated"}, nil
		},
	}

	r := newTestRouter()
	h := api.NewConceptHandler(repo, testLogger())
	r.PUT("/concepts/:id", h.Update)

	w := doRequest(r, http.MethodPut, "/concepts/c1", `{"label":"Updated"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestConceptDelete_OK(t *testing.T) {
	t.Parallel()

	repo := &mockConceptRepo{
		deleteFn: func(_ context.Context, _, _ string) error {
			return nil
		},
	}

	r := newTestRouter()
	h := api.NewConceptHandler(repo, testLogger())
	r.DELETE("/concepts/:id", h.Delete)

	w := doRequest(r, http.MethodDelete, "/concepts/c1", "")

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

func TestConceptMerge_OK(t *testing.T) {
	t.Parallel()

	repo := &mockConceptRepo{
		mergeFn: func(_ context.Context, _ string, req models.MergeConceptsRequest) (*models.MergeConceptsResult, error) {
			if req.WinnerID != "c1" {
				t.Fatalf("expected winner id forced from path to 'c1', got %q", req.WinnerID)
			}

			return &models.MergeConceptsResult{
				LoserID: req.LoserID, WinnerID: req.WinnerID,
				RelationsMoved: 2, LoserDeleted: true,
			}, nil
		},
	}

	r := newTestRouter()
	h := api.NewConceptHandler(repo, testLogger())
	r.POST("/concepts/:id/merge", h.Merge)

	// req.winner_id deliberately differs from the path id to confirm the
	// handler overwrites it rather than trusting the body.
	w := doRequest(r, http.MethodPost, "/concepts/c1/merge", `{"loser_id":"c2","winner_id":"bogus"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result models.MergeConceptsResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.WinnerID != "c1" || result.LoserID != "c2" {
		t.Errorf("unexpected merge result: %+v", result)
	}
}

func TestConceptMerge_SameID(t *testing.T) {
	t.Parallel()

	r := newTestRouter()
	h := api.NewConceptHandler(&mockConceptRepo{}, testLogger())
	r.POST("/concepts/:id/merge", h.Merge)

	w := doRequest(r, http.MethodPost, "/concepts/c1/merge", `{"loser_id":"c1"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
