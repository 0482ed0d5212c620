package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/reportql/pkg/core"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func TestStore_OpenClose(t *testing.T) {
	store := NewStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"templates", "jobs"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
			continue
		}
		rows.Close()
	}

	version, err := store.MigrationVersion()
	if err != nil {
		t.Fatalf("migration version: %v", err)
	}
	if version < 1 {
		t.Errorf("version = %d, want >= 1", version)
	}
}

func TestStore_TemplateRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tpl := &core.Template{
		Name:   "Monthly revenue",
		Models: []string{"orders", "refunds"},
		Fields: map[string][]string{"orders": {"id", "total"}},
		Joins: []core.JoinCondition{
			{ID: "j1", LeftModel: "orders", LeftField: "id",
				RightModel: "refunds", RightField: "order_id", Kind: core.JoinLeft},
		},
		DerivedFields: []core.DerivedField{
			{ID: "net", Name: "Net", Expression: "orders.total - refunds.amount",
				Status: core.DerivedActive, Visible: true},
		},
		MetricsSpotlight: &core.VisualState{
			MetricAlias:       "orders.total",
			MetricAggregation: core.AggSum,
		},
	}
	if err := store.SaveTemplate(ctx, tpl); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	if tpl.ID == "" {
		t.Fatal("SaveTemplate should assign an ID")
	}

	loaded, err := store.GetTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if loaded.Name != tpl.Name {
		t.Errorf("name = %q, want %q", loaded.Name, tpl.Name)
	}
	if len(loaded.Models) != 2 || loaded.Models[0] != "orders" {
		t.Errorf("models = %v, want [orders refunds]", loaded.Models)
	}
	if len(loaded.DerivedFields) != 1 || loaded.DerivedFields[0].Expression != tpl.DerivedFields[0].Expression {
		t.Errorf("derived fields did not round trip: %+v", loaded.DerivedFields)
	}
	if loaded.MetricsSpotlight == nil || loaded.MetricsSpotlight.MetricAlias != "orders.total" {
		t.Errorf("visual state did not round trip: %+v", loaded.MetricsSpotlight)
	}
}

func TestStore_TemplateUpsert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tpl := &core.Template{Name: "v1", Models: []string{"orders"}}
	if err := store.SaveTemplate(ctx, tpl); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	tpl.Name = "v2"
	if err := store.SaveTemplate(ctx, tpl); err != nil {
		t.Fatalf("SaveTemplate update: %v", err)
	}

	loaded, err := store.GetTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if loaded.Name != "v2" {
		t.Errorf("name = %q, want v2", loaded.Name)
	}

	list, err := store.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list = %d entries, want 1", len(list))
	}
}

func TestStore_TemplateNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetTemplate(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteTemplate(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete err = %v, want ErrNotFound", err)
	}
}

func TestStore_JobLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	job := &core.AnalyticsJob{
		ID:        "job-1",
		Hash:      "abc",
		Status:    core.JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateJob(ctx, job, []byte(`{"models":["orders"]}`)); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if err := store.MarkJobRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkJobRunning: %v", err)
	}
	loaded, result, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if loaded.Status != core.JobRunning || result != nil {
		t.Errorf("status = %s result = %v, want running with no result", loaded.Status, result)
	}

	want := &core.QueryResult{
		Columns: []string{"total_sum"},
		Rows:    []map[string]any{{"total_sum": 42.5}},
	}
	if err := store.CompleteJob(ctx, job.ID, want); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}

	loaded, result, err = store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if loaded.Status != core.JobCompleted {
		t.Errorf("status = %s, want completed", loaded.Status)
	}
	if loaded.CompletedAt == nil {
		t.Error("completed job must carry CompletedAt")
	}
	if result == nil || result.Rows[0]["total_sum"] != 42.5 {
		t.Errorf("result = %+v, want stored rows", result)
	}
}

func TestStore_JobFailure(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	job := &core.AnalyticsJob{ID: "job-2", Hash: "def", Status: core.JobQueued, CreatedAt: time.Now().UTC()}
	if err := store.CreateJob(ctx, job, []byte(`{}`)); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if err := store.FailJob(ctx, job.ID, "out of memory"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}

	loaded, _, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if loaded.Status != core.JobFailed || loaded.Error != "out of memory" {
		t.Errorf("job = %+v, want failed with message", loaded)
	}
}

func TestStore_ActiveJobByHash(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if job, err := store.ActiveJobByHash(ctx, "none"); err != nil || job != nil {
		t.Fatalf("ActiveJobByHash = %v, %v; want nil, nil", job, err)
	}

	queued := &core.AnalyticsJob{ID: "job-3", Hash: "shared", Status: core.JobQueued, CreatedAt: time.Now().UTC()}
	if err := store.CreateJob(ctx, queued, []byte(`{}`)); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	active, err := store.ActiveJobByHash(ctx, "shared")
	if err != nil {
		t.Fatalf("ActiveJobByHash: %v", err)
	}
	if active == nil || active.ID != "job-3" {
		t.Fatalf("active = %+v, want job-3", active)
	}

	if err := store.FailJob(ctx, "job-3", "boom"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}
	active, err = store.ActiveJobByHash(ctx, "shared")
	if err != nil {
		t.Fatalf("ActiveJobByHash: %v", err)
	}
	if active != nil {
		t.Errorf("terminal job must not be reused, got %+v", active)
	}
}

func TestStore_PruneJobs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	old := &core.AnalyticsJob{ID: "old", Hash: "h1", Status: core.JobQueued,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
	recent := &core.AnalyticsJob{ID: "recent", Hash: "h2", Status: core.JobQueued,
		CreatedAt: time.Now().UTC()}
	for _, j := range []*core.AnalyticsJob{old, recent} {
		if err := store.CreateJob(ctx, j, []byte(`{}`)); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
		if err := store.FailJob(ctx, j.ID, "x"); err != nil {
			t.Fatalf("FailJob: %v", err)
		}
	}

	pruned, err := store.PruneJobs(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneJobs: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if _, _, err := store.GetJob(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old job should be gone, got %v", err)
	}
	if _, _, err := store.GetJob(ctx, "recent"); err != nil {
		t.Errorf("recent job should remain, got %v", err)
	}
}
