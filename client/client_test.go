package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithAPIKey("test-key"))
	return srv, c
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestHealth(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, HealthResponse{Status: "ok", Version: "0.7.0"})
		},
	})
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("got status %q, want ok", resp.Status)
	}
	if resp.Version != "0.7.0" {
		t.Errorf("got version %q, want 0.7.0", resp.Version)
	}
}

func TestStats(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/stats": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, StatsResponse{Concepts: 500, Relations: 500, EntityTypes: 10})
		},
	})
	resp, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if resp.Concepts != 500 {
		t.Errorf("got concepts %d, want 500", resp.Concepts)
	}
}

func TestConceptsCRUD(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/concepts": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"concepts": []Concept{{ID: "c1", Label: "Test"}}, "has_more": false})
		},
		"POST /api/v1/concepts": func(w http.ResponseWriter, r *http.Request) {
			var req CreateConceptRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 201, Concept{ID: req.ID, Type: req.Type, Label: req.Label})
		},
		"GET /api/v1/concepts/c1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Concept{ID: "c1", Label: "Test"})
		},
		"PUT /api/v1/concepts/c1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Concept{ID: "c1", Label: "Updated"})
		},
		"POST /api/v1/concepts/c1/merge": func(w http.ResponseWriter, r *http.Request) {
			var req MergeConceptsRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 200, MergeConceptsResult{
				LoserID: req.LoserID, WinnerID: "c1", RelationsMoved: 3, LoserDeleted: true,
			})
		},
		"DELETE /api/v1/concepts/c1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]bool{"deleted": true})
		},
	})

	ctx := context.Background()

	// List
	concepts, hasMore, err := c.Concepts.List(ctx, nil)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(concepts) != 1 || hasMore {
		t.Errorf("List: got %d concepts, hasMore=%v", len(concepts), hasMore)
	}

	// Create
	concept, err := c.Concepts.Create(ctx, &CreateConceptRequest{ID: "c2", Type: "person", Label: "Big Jerry"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if concept.Label != "Big Jerry" {
		t.Errorf("Create: got label %q", concept.Label)
	}

	// Get
	concept, err = c.Concepts.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if concept.ID != "c1" {
		t.Errorf("Get: got id %q", concept.ID)
	}

	// Update
	label := "Updated"
	concept, err = c.Concepts.Update(ctx, "c1", &UpdateConceptRequest{Label: &label})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if concept.Label != "Updated" {
		t.Errorf("Update: got label %q", concept.Label)
	}

	// Merge
	result, err := c.Concepts.Merge(ctx, "c1", "c3")
	if err != nil {
		t.Fatalf("Merge error: %v", err)
	}
	if result.WinnerID != "c1" || result.LoserID != "c3" || !result.LoserDeleted {
		t.Errorf("Merge: got %+v", result)
	}

	// Delete
	if err := c.Concepts.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestRelationsCRUD(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/relations": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"relations": []Relation{{Source: "a", Target: "b", Type: "related_to"}}, "has_more": false})
		},
		"POST /api/v1/relations": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 201, Relation{Source: "a", Target: "b", Type: "related_to"})
		},
		"PUT /api/v1/relations/a/b/related_to": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Relation{Source: "a", Target: "b", Type: "related_to", Weight: 0.9})
		},
		"DELETE /api/v1/relations/a/b/related_to": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]bool{"deleted": true})
		},
	})

	ctx := context.Background()

	relations, _, err := c.Relations.List(ctx, nil)
	if err != nil || len(relations) != 1 {
		t.Fatalf("List error: %v, len=%d", err, len(relations))
	}

	relation, err := c.Relations.Create(ctx, &CreateRelationRequest{Source: "a", Target: "b", Type: "related_to"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if relation.Source != "a" {
		t.Errorf("Create: got source %q", relation.Source)
	}

	w := 0.9
	relation, err = c.Relations.Update(ctx, "a", "b", "related_to", &UpdateRelationRequest{Weight: &w})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if err := c.Relations.Delete(ctx, "a", "b", "related_to"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestSearch(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/search": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("q") == "" {
				jsonResponse(w, 400, map[string]string{"code": "invalid_request", "message": "q required"})
				return
			}
			jsonResponse(w, 200, map[string]any{"concepts": []Concept{{ID: "c1"}}, "total": 1})
		},
		"GET /api/v1/search/semantic": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"concepts": []ScoredConcept{{Concept: Concept{ID: "c1"}, Score: 0.95}}, "total": 1})
		},
		"GET /api/v1/search/hybrid": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"concepts": []Concept{{ID: "c1"}}, "total": 1})
		},
	})

	ctx := context.Background()

	concepts, err := c.Search.FullText(ctx, "deer", nil)
	if err != nil || len(concepts) != 1 {
		t.Fatalf("FullText: err=%v, len=%d", err, len(concepts))
	}

	scored, err := c.Search.Semantic(ctx, "deer identification", 10)
	if err != nil || len(scored) != 1 {
		t.Fatalf("Semantic: err=%v, len=%d", err, len(scored))
	}
	if scored[0].Score != 0.95 {
		t.Errorf("Semantic score: got %f, want 0.95", scored[0].Score)
	}

	concepts, err = c.Search.Hybrid(ctx, "deer", nil)
	if err != nil || len(concepts) != 1 {
		t.Fatalf("Hybrid: err=%v, len=%d", err, len(concepts))
	}
}

func TestGraph(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/graph/neighbors/c1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, NeighborResult{Concepts: []Concept{{ID: "c2"}}, Relations: []Relation{{Source: "c1", Target: "c2"}}})
		},
		"GET /api/v1/graph/traverse/c1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, TraverseResult{Concepts: []Concept{{ID: "c1"}, {ID: "c2"}}, Relations: []Relation{{Source: "c1", Target: "c2"}}})
		},
		"GET /api/v1/graph/context/c1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, ContextResult{Concept: Concept{ID: "c1"}, Neighbors: []Concept{{ID: "c2"}}})
		},
		"GET /api/v1/graph/path/c1/c3": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, PathResult{
				Concepts: []Concept{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}, Hops: 2, Found: true,
			})
		},
	})

	ctx := context.Background()

	nb, err := c.Graph.Neighbors(ctx, "c1", 0)
	if err != nil || len(nb.Concepts) != 1 {
		t.Fatalf("Neighbors: err=%v", err)
	}

	tr, err := c.Graph.Traverse(ctx, "c1", 2)
	if err != nil || len(tr.Concepts) != 2 {
		t.Fatalf("Traverse: err=%v", err)
	}

	cr, err := c.Graph.Context(ctx, "c1")
	if err != nil || cr.Concept.ID != "c1" {
		t.Fatalf("Context: err=%v", err)
	}

	path, err := c.Graph.ShortestPath(ctx, "c1", "c3")
	if err != nil || !path.Found || len(path.Concepts) != 3 {
		t.Fatalf("ShortestPath: err=%v, path=%+v", err, path)
	}
}

func TestStrength(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/strength/boost/c1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Concept{ID: "c1", Strength: 1.5})
		},
		"POST /api/v1/strength/recalc": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]int{"updated": 42})
		},
	})

	ctx := context.Background()

	concept, err := c.Strength.Boost(ctx, "c1")
	if err != nil || concept.Strength != 1.5 {
		t.Fatalf("Boost: err=%v, strength=%f", err, concept.Strength)
	}

	count, err := c.Strength.Recalculate(ctx)
	if err != nil || count != 42 {
		t.Fatalf("Recalculate: err=%v, count=%d", err, count)
	}
}

func TestBulk(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/bulk/concepts": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"upserted": 2})
		},
		"POST /api/v1/bulk/relations": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"upserted": 1})
		},
	})

	ctx := context.Background()

	upserted, err := c.Bulk.UpsertConcepts(ctx, []CreateConceptRequest{{Type: "t", Label: "l"}})
	if err != nil || upserted != 2 {
		t.Fatalf("UpsertConcepts: err=%v, upserted=%d", err, upserted)
	}

	upserted, err = c.Bulk.UpsertRelations(ctx, []CreateRelationRequest{{Source: "a", Target: "b", Type: "related_to"}})
	if err != nil || upserted != 1 {
		t.Fatalf("UpsertRelations: err=%v, upserted=%d", err, upserted)
	}
}

func TestAudit(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/audit": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"data": []AuditEntry{{ID: "a1", Action: "concept.create"}}, "has_more": false})
		},
		"DELETE /api/v1/audit": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"deleted": 10, "retention_days": 90})
		},
	})

	ctx := context.Background()

	entries, hasMore, err := c.Audit.Query(ctx, nil)
	if err != nil || len(entries) != 1 || hasMore {
		t.Fatalf("Query: err=%v, len=%d", err, len(entries))
	}

	deleted, err := c.Audit.Purge(ctx, 90)
	if err != nil || deleted != 10 {
		t.Fatalf("Purge: err=%v, deleted=%d", err, deleted)
	}
}

func TestAdmin(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/admin/backfill-embeddings": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]int{"queued": 25})
		},
	})

	queued, err := c.Admin.BackfillEmbeddings(context.Background())
	if err != nil || queued != 25 {
		t.Fatalf("BackfillEmbeddings: err=%v, queued=%d", err, queued)
	}
}

func TestQuery(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/query": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, QueryResult{Decision: RouteDecision{Kind: "hybrid", Confidence: 0.8}, ElapsedMS: 12})
		},
		"POST /api/v1/query/explain": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, ExplainResult{Decision: RouteDecision{Kind: "sql", Confidence: 0.6}})
		},
	})

	ctx := context.Background()

	result, err := c.Query.Execute(ctx, &QueryRequest{Query: "find cats"})
	if err != nil || result.Decision.Kind != "hybrid" {
		t.Fatalf("Execute: err=%v, result=%+v", err, result)
	}

	explain, err := c.Query.Explain(ctx, &QueryRequest{Query: "find cats"})
	if err != nil || explain.Decision.Kind != "sql" {
		t.Fatalf("Explain: err=%v, explain=%+v", err, explain)
	}
}

func TestEvolution(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/evolution": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, EvolutionSnapshot{Phase: "transition", Bias: 0.3})
		},
		"POST /api/v1/evolution/evaluate": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, EvolutionEvaluation{Advanced: true, FromPhase: "transition", ToPhase: "semantic"})
		},
	})

	ctx := context.Background()

	snapshot, err := c.Evolution.Snapshot(ctx)
	if err != nil || snapshot.Phase != "transition" {
		t.Fatalf("Snapshot: err=%v, snapshot=%+v", err, snapshot)
	}

	result, err := c.Evolution.Evaluate(ctx)
	if err != nil || !result.Advanced {
		t.Fatalf("Evaluate: err=%v, result=%+v", err, result)
	}
}

func TestQuota(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/quota": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, QuotaUsage{QPMUsed: 5, QPMLimit: 60})
		},
	})

	usage, err := c.Quota.Usage(context.Background())
	if err != nil || usage.QPMLimit != 60 {
		t.Fatalf("Usage: err=%v, usage=%+v", err, usage)
	}
}

func TestSync(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/sync/forward": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, SyncSummary{Direction: "forward", RowsApplied: 5})
		},
		"GET /api/v1/sync/checkpoints": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"checkpoints": []SyncCheckpoint{{Direction: "forward", Table: "orders"}}})
		},
		"GET /api/v1/sync/quarantine": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"entries": []SyncQuarantineEntry{{ID: 1, Reason: "conflict"}}})
		},
	})

	ctx := context.Background()

	summary, err := c.Sync.RunForward(ctx)
	if err != nil || summary.RowsApplied != 5 {
		t.Fatalf("RunForward: err=%v, summary=%+v", err, summary)
	}

	checkpoints, err := c.Sync.Checkpoints(ctx)
	if err != nil || len(checkpoints) != 1 {
		t.Fatalf("Checkpoints: err=%v, len=%d", err, len(checkpoints))
	}

	entries, err := c.Sync.Quarantined(ctx, 10, 0)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Quarantined: err=%v, len=%d", err, len(entries))
	}
}

func TestAPIError(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/concepts/missing": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 404, map[string]string{"code": "not_found", "message": "concept not found"})
		},
		"POST /api/v1/concepts": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 409, map[string]string{"code": "conflict", "message": "duplicate"})
		},
	})

	ctx := context.Background()

	_, err := c.Concepts.Get(ctx, "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not found, got: %v", err)
	}

	_, err = c.Concepts.Create(ctx, &CreateConceptRequest{ID: "dup", Type: "t", Label: "l"})
	if !IsConflict(err) {
		t.Errorf("expected conflict, got: %v", err)
	}
}

func TestAuthHeader(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, 200, HealthResponse{Status: "ok"})
		},
	})

	c.Health(context.Background()) //nolint:errcheck
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header: got %q, want %q", gotAuth, "Bearer test-key")
	}
}
