package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reportql/internal/runner"
	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/internal/state"
	"github.com/leapstack-labs/reportql/pkg/adapter"
	"github.com/leapstack-labs/reportql/pkg/adapters/sqlite"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// newTestServer wires a real sqlite execution backend, introspected catalog,
// and in-memory state store behind the HTTP handler.
func newTestServer(t *testing.T) (*httptest.Server, *runner.Service) {
	t.Helper()
	ctx := context.Background()

	db := sqlite.New(nil)
	require.NoError(t, db.Connect(ctx, adapter.Config{Type: "sqlite", Path: ":memory:"}))
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Exec(ctx, `CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		total REAL NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`))
	for _, stmt := range []string{
		`INSERT INTO orders VALUES (1, 100.0, 'paid', '2026-01-05')`,
		`INSERT INTO orders VALUES (2, 50.0, 'paid', '2026-01-20')`,
		`INSERT INTO orders VALUES (3, 25.0, 'refunded', '2026-02-02')`,
	} {
		require.NoError(t, db.Exec(ctx, stmt))
	}

	models, err := schema.NewIntrospector(db, nil).Models(ctx, []string{"orders"})
	require.NoError(t, err)
	catalog := schema.NewCatalog(models)

	store := state.NewStore()
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())

	svc := runner.NewService(db, catalog, store, nil)
	srv := NewServer(Config{Service: svc, Store: store, Catalog: catalog})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, svc
}

func sumConfig(async bool) core.QueryConfig {
	return core.QueryConfig{
		Models: []string{"orders"},
		Metrics: []core.Metric{
			{Model: "orders", Field: "total", Aggregation: core.AggSum, Alias: "total_sum"},
		},
		Filters: []core.AnalyticsPredicate{
			{Model: "orders", Field: "status", Operator: core.OpEquals, Value: "paid", Kind: core.ValueString},
		},
		Limit:      100,
		AllowAsync: async,
	}
}

func TestServer_ListModels(t *testing.T) {
	ts, _ := newTestServer(t)

	models, err := NewClient(ts.URL).Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "orders", models[0].ID)

	total, ok := (&models[0]).FieldByID("total")
	require.True(t, ok)
	assert.Equal(t, core.FieldTypeNumber, total.Type)
	id, ok := (&models[0]).FieldByID("id")
	require.True(t, ok)
	assert.Equal(t, core.FieldTypeIdentifier, id.Type)
}

func TestServer_SynchronousQuery(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := NewClient(ts.URL).RunQuery(context.Background(), sumConfig(false))
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	require.Len(t, resp.Result.Rows, 1)
	assert.InDelta(t, 150.0, resp.Result.Rows[0]["total_sum"], 0.001)
}

func TestServer_AsyncJobRoundTrip(t *testing.T) {
	ts, svc := newTestServer(t)
	client := NewClient(ts.URL)

	resp, err := client.RunQuery(context.Background(), sumConfig(true))
	require.NoError(t, err)
	require.NotNil(t, resp.Job)
	assert.Nil(t, resp.Result)

	svc.Wait()

	require.Eventually(t, func() bool {
		polled, err := client.GetJob(context.Background(), resp.Job.ID)
		return err == nil && polled.Result != nil
	}, 2*time.Second, 10*time.Millisecond)

	polled, err := client.GetJob(context.Background(), resp.Job.ID)
	require.NoError(t, err)
	require.NotNil(t, polled.Result)
	assert.InDelta(t, 150.0, polled.Result.Rows[0]["total_sum"], 0.001)
}

func TestServer_UnknownJobIs404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/jobs/no-such-job")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Preview(t *testing.T) {
	ts, _ := newTestServer(t)

	result, err := NewClient(ts.URL).RunPreview(context.Background(), core.PreviewRequest{
		Models: []string{"orders"},
		Columns: []core.SelectedColumn{
			{Model: "orders", Field: "id", Alias: "id"},
			{Model: "orders", Field: "total", Alias: "total"},
		},
		Where: []string{`"t0"."status" = 'paid'`},
		Order: []core.OrderBy{{Alias: "total", Direction: core.SortDesc}},
		Limit: 500,
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.InDelta(t, 100.0, result.Rows[0]["total"], 0.001)
}

func TestServer_QueryValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/queries", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_TemplateCRUD(t *testing.T) {
	ts, _ := newTestServer(t)

	body, _ := json.Marshal(core.Template{
		Name:   "Paid orders",
		Models: []string{"orders"},
		Fields: map[string][]string{"orders": {"id", "total"}},
	})
	resp, err := http.Post(ts.URL+"/api/templates/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created core.Template
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.NotEmpty(t, created.ID)

	resp, err = http.Get(ts.URL + "/api/templates/" + created.ID)
	require.NoError(t, err)
	var loaded core.Template
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	resp.Body.Close()
	assert.Equal(t, "Paid orders", loaded.Name)
	assert.Equal(t, []string{"orders"}, loaded.Models)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/templates/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/templates/" + created.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
