package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/persistorai/persistor/internal/embedding"
	"github.com/persistorai/persistor/internal/models"
)

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // test helper, encode error unreachable in practice.
}

func TestEmbedReturnsVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	p := embedding.New(srv.URL, "test-model", 3, false)

	vec, err := p.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(vec) != 3 {
		t.Errorf("Embed returned %d dims, want 3", len(vec))
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"embeddings": [][]float32{{0.1, 0.2}},
		})
	}))
	defer srv.Close()

	p := embedding.New(srv.URL, "test-model", 3, false)

	_, err := p.Embed(context.Background(), "hello world")
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("Embed with wrong dim: got %v, want ErrDimensionMismatch", err)
	}
}

func TestEmbedOpensCircuitAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := embedding.New(srv.URL, "test-model", 3, false)

	var lastErr error

	for i := 0; i < 6; i++ {
		_, lastErr = p.Embed(context.Background(), "hello world")
	}

	if !errors.Is(lastErr, models.ErrEmbeddingUnavailable) {
		t.Errorf("Embed after repeated failures: got %v, want ErrEmbeddingUnavailable (circuit open)", lastErr)
	}
}
