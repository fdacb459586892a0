package llmintent_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/persistorai/persistor/internal/llmintent"
	"github.com/persistorai/persistor/internal/models"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test helper
			"message": map[string]string{"role": "assistant", "content": content},
		})
	}))
}

func TestClassifyIntentReturnsKindAndConfidence(t *testing.T) {
	srv := chatServer(t, `{"kind":"semantic","confidence":0.82}`)
	defer srv.Close()

	p := llmintent.New(srv.URL, "test-model", false)

	kind, confidence, err := p.ClassifyIntent(context.Background(), "what relates to quantum computing")
	if err != nil {
		t.Fatalf("ClassifyIntent: %v", err)
	}

	if kind != models.IntentSemantic {
		t.Errorf("ClassifyIntent kind = %q, want %q", kind, models.IntentSemantic)
	}

	if confidence != 0.82 {
		t.Errorf("ClassifyIntent confidence = %v, want 0.82", confidence)
	}
}

func TestClassifyIntentRejectsUnrecognizedKind(t *testing.T) {
	srv := chatServer(t, `{"kind":"nonsense","confidence":0.5}`)
	defer srv.Close()

	p := llmintent.New(srv.URL, "test-model", false)

	_, _, err := p.ClassifyIntent(context.Background(), "query")
	if !errors.Is(err, models.ErrLLMUnavailable) {
		t.Errorf("ClassifyIntent with unrecognized kind: got %v, want ErrLLMUnavailable", err)
	}
}

func TestClassifyIntentFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := llmintent.New(srv.URL, "test-model", false)

	_, _, err := p.ClassifyIntent(context.Background(), "query")
	if !errors.Is(err, models.ErrLLMUnavailable) {
		t.Errorf("ClassifyIntent on server error: got %v, want ErrLLMUnavailable", err)
	}
}
