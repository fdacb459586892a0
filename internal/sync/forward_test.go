package sync_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/models"
	syncpkg "github.com/persistorai/persistor/internal/sync"
	"github.com/persistorai/persistor/internal/store"
)

type fakeRelational struct {
	rows map[string][]map[string]any
	exec []execCall
}

type execCall struct {
	sql  string
	args []any
}

func (f *fakeRelational) Query(_ context.Context, _ string, sql string, args ...any) ([]map[string]any, error) {
	for table, rows := range f.rows {
		if containsSubstring(sql, table) {
			return rows, nil
		}
	}

	return nil, nil
}

func (f *fakeRelational) Exec(_ context.Context, _ string, sql string, args ...any) (int64, error) {
	f.exec = append(f.exec, execCall{sql: sql, args: args})
	return 1, nil
}

func containsSubstring(haystack, needle string) bool {
	return len(needle) > 0 && (len(haystack) >= len(needle)) && (indexOf(haystack, needle) >= 0)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}

	return -1
}

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeConceptWriter struct {
	bySourceKey map[string]*models.Concept
	created     []models.CreateConceptRequest
	updated     []models.UpdateConceptRequest
}

func newFakeConceptWriter() *fakeConceptWriter {
	return &fakeConceptWriter{bySourceKey: map[string]*models.Concept{}}
}

func (f *fakeConceptWriter) GetConcept(_ context.Context, _, conceptID string) (*models.Concept, error) {
	for _, c := range f.bySourceKey {
		if c.ID == conceptID {
			return c, nil
		}
	}

	return nil, models.ErrConceptNotFound
}

func (f *fakeConceptWriter) FindBySourceKey(_ context.Context, _, sourceKey string) (*models.Concept, error) {
	if c, ok := f.bySourceKey[sourceKey]; ok {
		return c, nil
	}

	return nil, models.ErrConceptNotFound
}

func (f *fakeConceptWriter) CreateConcept(_ context.Context, _ string, req models.CreateConceptRequest, embedding []float32) (*models.Concept, error) {
	f.created = append(f.created, req)

	c := &models.Concept{
		ID:         "generated-id",
		Type:       req.Type,
		Label:      req.Label,
		Properties: req.Properties,
		Embedding:  embedding,
		UpdatedAt:  time.Now(),
	}

	if sk, ok := req.Properties[store.SourceKeyProperty]; ok {
		f.bySourceKey[sk.(string)] = c
	}

	return c, nil
}

func (f *fakeConceptWriter) UpdateConcept(_ context.Context, _, _ string, req models.UpdateConceptRequest) (*models.Concept, error) {
	f.updated = append(f.updated, req)
	return &models.Concept{}, nil
}

func (f *fakeConceptWriter) Reembed(_ context.Context, _, _ string, _ []float32) error {
	return nil
}

type fakeCheckpoints struct {
	saved map[string]models.SyncCheckpoint
}

func newFakeCheckpoints() *fakeCheckpoints {
	return &fakeCheckpoints{saved: map[string]models.SyncCheckpoint{}}
}

func (f *fakeCheckpoints) Load(_ context.Context, tenantID string, direction models.SyncDirection, table string) (models.SyncCheckpoint, bool, error) {
	cp, ok := f.saved[tenantID+":"+table]
	return cp, ok, nil
}

func (f *fakeCheckpoints) Save(_ context.Context, tenantID string, cp models.SyncCheckpoint) error {
	f.saved[tenantID+":"+cp.Table] = cp
	return nil
}

type fakeQuarantine struct {
	staged []models.SyncQuarantineEntry
}

func (f *fakeQuarantine) Stage(_ context.Context, _ string, entry models.SyncQuarantineEntry) error {
	f.staged = append(f.staged, entry)
	return nil
}

type fakeTenants struct {
	ids []string
}

func (f *fakeTenants) ListTenantIDs(_ context.Context) ([]string, error) {
	return f.ids, nil
}

func testRule() models.MappingRule {
	return models.MappingRule{
		Table:         "customers",
		IDColumn:      "id",
		TypeValue:     "customer",
		LabelColumns:  []string{"name"},
		PropertyMap:   map[string]string{"name": "name", "email": "email"},
		WritebackCols: []string{"email"},
	}
}

func newTestSynchronizer(rel *fakeRelational, emb *fakeEmbedder, cw *fakeConceptWriter, cp *fakeCheckpoints, q *fakeQuarantine, tn *fakeTenants, rules []models.MappingRule) *syncpkg.Synchronizer {
	return syncpkg.New(rel, emb, cw, cp, q, tn, logrus.New(), syncpkg.Config{
		Interval:  time.Minute,
		BatchSize: 100,
		Rules:     rules,
	})
}

func TestForwardPassCreatesNewConcept(t *testing.T) {
	rel := &fakeRelational{rows: map[string][]map[string]any{
		"customers": {{"id": "1", "name": "Ada", "email": "ada@example.com"}},
	}}
	emb := &fakeEmbedder{}
	cw := newFakeConceptWriter()
	cp := newFakeCheckpoints()
	q := &fakeQuarantine{}
	tn := &fakeTenants{ids: []string{"tenant-a"}}

	s := newTestSynchronizer(rel, emb, cw, cp, q, tn, []models.MappingRule{testRule()})

	summary, err := s.RunOnce(context.Background(), "tenant-a", models.SyncForward)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if summary.RowsApplied != 1 {
		t.Errorf("RowsApplied = %d, want 1", summary.RowsApplied)
	}

	if len(cw.created) != 1 {
		t.Fatalf("created concepts = %d, want 1", len(cw.created))
	}

	if cw.created[0].Label != "Ada" {
		t.Errorf("created concept label = %q, want Ada", cw.created[0].Label)
	}

	if emb.calls != 1 {
		t.Errorf("embed calls = %d, want 1", emb.calls)
	}
}

func TestForwardPassSkipsUnchangedRow(t *testing.T) {
	row := map[string]any{"id": "1", "name": "Ada", "email": "ada@example.com"}
	rel := &fakeRelational{rows: map[string][]map[string]any{"customers": {row}}}
	emb := &fakeEmbedder{}
	cw := newFakeConceptWriter()
	cp := newFakeCheckpoints()
	q := &fakeQuarantine{}
	tn := &fakeTenants{ids: []string{"tenant-a"}}

	s := newTestSynchronizer(rel, emb, cw, cp, q, tn, []models.MappingRule{testRule()})
	ctx := context.Background()

	if _, err := s.RunOnce(ctx, "tenant-a", models.SyncForward); err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}

	firstEmbedCalls := emb.calls

	cp.saved["tenant-a:customers"] = models.SyncCheckpoint{} // reset cursor so the row is re-scanned

	if _, err := s.RunOnce(ctx, "tenant-a", models.SyncForward); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}

	if emb.calls != firstEmbedCalls {
		t.Errorf("embed calls after rescanning an unchanged row = %d, want unchanged at %d", emb.calls, firstEmbedCalls)
	}
}

func TestForwardPassRejectsUnknownDirection(t *testing.T) {
	s := newTestSynchronizer(&fakeRelational{}, &fakeEmbedder{}, newFakeConceptWriter(), newFakeCheckpoints(), &fakeQuarantine{}, &fakeTenants{}, nil)

	_, err := s.RunOnce(context.Background(), "tenant-a", models.SyncDirection("sideways"))
	if err == nil {
		t.Error("RunOnce with an unrecognized direction: expected an error")
	}
}
