package query

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/reportql/internal/expr"
	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/pkg/core"
)

func testCatalog() *schema.Catalog {
	return schema.NewCatalog([]core.DataModel{
		{
			ID: "orders", Name: "Orders",
			Fields: []core.Field{
				{ID: "id", Type: core.FieldTypeIdentifier, PrimaryKey: true},
				{ID: "total", Type: core.FieldTypeNumber},
				{ID: "status", Type: core.FieldTypeString},
				{ID: "created_at", Type: core.FieldTypeDate},
			},
		},
		{
			ID: "refunds", Name: "Refunds",
			Fields: []core.Field{
				{ID: "order_id", Type: core.FieldTypeIdentifier},
				{ID: "amount", Type: core.FieldTypeNumber},
			},
		},
	})
}

func TestBuildAnalytics_MetricAndDimensionAliases(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	res, err := b.BuildAnalytics(Selection{
		Models: []string{"orders"},
		Visual: &core.VisualState{
			MetricAlias:       "orders.total",
			MetricAggregation: core.AggSum,
			DimensionAlias:    "orders.created_at",
			DimensionBucket:   core.BucketMonth,
		},
	})
	if err != nil {
		t.Fatalf("BuildAnalytics: %v", err)
	}
	if len(res.Config.Metrics) != 1 {
		t.Fatalf("metrics = %d, want 1", len(res.Config.Metrics))
	}
	if got := res.Config.Metrics[0].Alias; got != "total_sum" {
		t.Errorf("metric alias = %q, want total_sum", got)
	}
	if len(res.Config.Dimensions) != 1 {
		t.Fatalf("dimensions = %d, want 1", len(res.Config.Dimensions))
	}
	if got := res.Config.Dimensions[0].Alias; got != "created_at_month" {
		t.Errorf("dimension alias = %q, want created_at_month", got)
	}
	if res.Config.Limit != DefaultAnalyticsLimit {
		t.Errorf("limit = %d, want %d", res.Config.Limit, DefaultAnalyticsLimit)
	}
}

func TestBuildAnalytics_DimensionWithoutBucketUsesFieldAlias(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	res, _ := b.BuildAnalytics(Selection{
		Models: []string{"orders"},
		Visual: &core.VisualState{
			MetricAlias:       "orders.total",
			MetricAggregation: core.AggAvg,
			DimensionAlias:    "orders.status",
		},
	})
	if got := res.Config.Dimensions[0].Alias; got != "status" {
		t.Errorf("dimension alias = %q, want status", got)
	}
}

func TestBuildAnalytics_ComparisonInheritsAggregation(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	res, _ := b.BuildAnalytics(Selection{
		Models: []string{"orders", "refunds"},
		Visual: &core.VisualState{
			MetricAlias:       "orders.total",
			MetricAggregation: core.AggSum,
			ComparisonAlias:   "refunds.amount",
		},
	})
	if len(res.Config.Metrics) != 2 {
		t.Fatalf("metrics = %d, want 2", len(res.Config.Metrics))
	}
	comp := res.Config.Metrics[1]
	if comp.Aggregation != core.AggSum {
		t.Errorf("comparison aggregation = %s, want inherited sum", comp.Aggregation)
	}
	if comp.Alias != "amount_sum" {
		t.Errorf("comparison alias = %q, want amount_sum", comp.Alias)
	}
}

func TestBuildAnalytics_ComparisonSameFieldDropsWithWarning(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	res, _ := b.BuildAnalytics(Selection{
		Models: []string{"orders"},
		Visual: &core.VisualState{
			MetricAlias:       "orders.total",
			MetricAggregation: core.AggSum,
			ComparisonAlias:   "orders.total",
		},
	})
	if len(res.Config.Metrics) != 1 {
		t.Fatalf("metrics = %d, want 1 (comparison dropped)", len(res.Config.Metrics))
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "different field") {
		t.Errorf("expected different-field warning, got %v", res.Warnings)
	}
}

func TestBuildAnalytics_VanishedComparisonRepointsWithWarning(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	res, _ := b.BuildAnalytics(Selection{
		Models: []string{"orders", "refunds"},
		Visual: &core.VisualState{
			MetricAlias:       "orders.total",
			MetricAggregation: core.AggSum,
			ComparisonAlias:   "refunds.gone",
		},
	})
	if len(res.Config.Metrics) != 2 {
		t.Fatalf("metrics = %d, want 2 (comparison repaired)", len(res.Config.Metrics))
	}
	if res.Config.Metrics[1].Field != "amount" {
		t.Errorf("comparison field = %q, want amount", res.Config.Metrics[1].Field)
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "refunds.gone is not an available column") {
		t.Errorf("expected unavailable-comparison warning, got %v", res.Warnings)
	}
}

func TestBuildAnalytics_VanishedComparisonWithoutFallbackDropsWithWarning(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	res, _ := b.BuildAnalytics(Selection{
		Models: []string{"orders"},
		Visual: &core.VisualState{
			MetricAlias:       "orders.total",
			MetricAggregation: core.AggSum,
			ComparisonAlias:   "orders.gone",
		},
	})
	if len(res.Config.Metrics) != 1 {
		t.Fatalf("metrics = %d, want 1 (comparison dropped)", len(res.Config.Metrics))
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "was dropped") {
		t.Errorf("expected dropped-comparison warning, got %v", res.Warnings)
	}
}

func TestBuildAnalytics_DerivedGating(t *testing.T) {
	ast := &core.BinaryExpr{
		Op:    "-",
		Left:  &core.FieldRef{Model: "orders", Field: "total"},
		Right: &core.FieldRef{Model: "refunds", Field: "amount"},
	}
	fields := []*core.DerivedField{
		{ID: "net", Visible: true, Status: core.DerivedActive, AST: ast,
			ModelGraphSignature: "sig-1", CompiledSQLHash: "hash-1"},
		{ID: "hidden", Visible: false, Status: core.DerivedActive, AST: ast},
		{ID: "stale", Visible: true, Status: core.DerivedStale, AST: ast},
		{ID: "unparsed", Visible: true, Status: core.DerivedActive, AST: nil},
	}

	b := NewBuilder(testCatalog(), 0)
	res, _ := b.BuildAnalytics(Selection{
		Models:  []string{"orders", "refunds"},
		Visual:  &core.VisualState{MetricAlias: "orders.total", MetricAggregation: core.AggSum},
		Derived: fields,
	})
	if len(res.Config.Derived) != 1 {
		t.Fatalf("derived payloads = %d, want 1", len(res.Config.Derived))
	}
	payload := res.Config.Derived[0]
	if payload.ID != "net" || payload.Alias != "net" {
		t.Errorf("payload id/alias = %s/%s, want net/net", payload.ID, payload.Alias)
	}
	if payload.ModelGraphSignature != "sig-1" || payload.CompiledSQLHash != "hash-1" {
		t.Error("opaque cache tokens must pass through unmodified")
	}
}

func TestBuildAnalytics_AnalyticsFilterWarningsSurface(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	res, _ := b.BuildAnalytics(Selection{
		Models: []string{"orders"},
		Visual: &core.VisualState{MetricAlias: "orders.total", MetricAggregation: core.AggSum},
		Filters: []core.ReportFilter{
			{Model: "orders", Field: "total", Operator: core.OpGt, RightType: core.RightValue,
				Value: "10", ValueKind: core.ValueNumber},
			{Model: "orders", Field: "status", Operator: core.OpContains, RightType: core.RightValue,
				Value: "paid", ValueKind: core.ValueString},
		},
	})
	if len(res.Config.Filters) != 1 {
		t.Errorf("predicates = %d, want 1", len(res.Config.Filters))
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one dropped-filter warning", res.Warnings)
	}
}

func TestBuildAnalytics_LimitClamped(t *testing.T) {
	b := NewBuilder(testCatalog(), 1000)
	res, _ := b.BuildAnalytics(Selection{
		Models: []string{"orders"},
		Visual: &core.VisualState{MetricAlias: "orders.total", MetricAggregation: core.AggSum},
		Limit:  50000,
	})
	if res.Config.Limit != 1000 {
		t.Errorf("limit = %d, want clamped 1000", res.Config.Limit)
	}
}

func TestBuildAnalytics_NoModelsFails(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	if _, err := b.BuildAnalytics(Selection{}); err == nil {
		t.Fatal("expected error for empty model selection")
	}
}

func TestBuildPreview_ColumnsFiltersAndLimit(t *testing.T) {
	b := NewBuilder(testCatalog(), 0)
	res, err := b.BuildPreview(Selection{
		Models: []string{"orders", "refunds"},
		Fields: map[string][]string{
			"orders":  {"id", "total"},
			"refunds": {"amount"},
		},
		Filters: []core.ReportFilter{
			{Model: "orders", Field: "total", Operator: core.OpGt, RightType: core.RightValue,
				Value: "10", ValueKind: core.ValueNumber},
		},
	}, nil)
	if err != nil {
		t.Fatalf("BuildPreview: %v", err)
	}
	if len(res.Request.Columns) != 3 {
		t.Fatalf("columns = %d, want 3", len(res.Request.Columns))
	}
	if len(res.Request.Where) != 1 || !strings.Contains(res.Request.Where[0], "> 10") {
		t.Errorf("where = %v, want one clause containing > 10", res.Request.Where)
	}
	if res.Request.Limit != DefaultPreviewLimit {
		t.Errorf("limit = %d, want %d", res.Request.Limit, DefaultPreviewLimit)
	}
}

func TestBuildPreview_DuplicateFieldNamesGetModelPrefix(t *testing.T) {
	catalog := schema.NewCatalog([]core.DataModel{
		{ID: "a", Fields: []core.Field{{ID: "name", Type: core.FieldTypeString}}},
		{ID: "b", Fields: []core.Field{{ID: "name", Type: core.FieldTypeString}}},
	})
	b := NewBuilder(catalog, 0)
	res, _ := b.BuildPreview(Selection{Models: []string{"a", "b"}}, nil)
	if got := res.Request.Columns[0].Alias; got != "name" {
		t.Errorf("first alias = %q, want name", got)
	}
	if got := res.Request.Columns[1].Alias; got != "b_name" {
		t.Errorf("second alias = %q, want b_name", got)
	}
}

func TestRepairVisual(t *testing.T) {
	columns := []Column{
		{Model: "orders", Field: "id", Alias: "id", Type: core.FieldTypeIdentifier},
		{Model: "orders", Field: "total", Alias: "total", Type: core.FieldTypeNumber},
		{Model: "orders", Field: "status", Alias: "status", Type: core.FieldTypeString},
		{Model: "refunds", Field: "amount", Alias: "amount", Type: core.FieldTypeNumber},
	}

	t.Run("valid visual untouched", func(t *testing.T) {
		v := &core.VisualState{MetricAlias: "orders.total", DimensionAlias: "orders.status"}
		repaired, changed := RepairVisual(v, columns)
		if changed {
			t.Error("valid visual should not change")
		}
		if repaired != *v {
			t.Errorf("repaired = %+v, want unchanged", repaired)
		}
	})

	t.Run("missing metric resets to first numeric", func(t *testing.T) {
		v := &core.VisualState{MetricAlias: "orders.gone", DimensionAlias: "orders.status"}
		repaired, changed := RepairVisual(v, columns)
		if !changed || repaired.MetricAlias != "orders.total" {
			t.Errorf("metric = %q (changed=%v), want orders.total", repaired.MetricAlias, changed)
		}
	})

	t.Run("missing dimension resets to first textual", func(t *testing.T) {
		v := &core.VisualState{MetricAlias: "orders.total", DimensionAlias: "orders.gone"}
		repaired, _ := RepairVisual(v, columns)
		if repaired.DimensionAlias != "orders.id" {
			t.Errorf("dimension = %q, want orders.id", repaired.DimensionAlias)
		}
	})

	t.Run("comparison skips the primary metric column", func(t *testing.T) {
		v := &core.VisualState{
			MetricAlias:     "orders.total",
			DimensionAlias:  "orders.status",
			ComparisonAlias: "orders.gone",
		}
		repaired, _ := RepairVisual(v, columns)
		if repaired.ComparisonAlias != "refunds.amount" {
			t.Errorf("comparison = %q, want refunds.amount", repaired.ComparisonAlias)
		}
	})

	t.Run("bucket cleared on non-date dimension", func(t *testing.T) {
		v := &core.VisualState{
			MetricAlias:     "orders.total",
			DimensionAlias:  "orders.status",
			DimensionBucket: core.BucketMonth,
		}
		repaired, changed := RepairVisual(v, columns)
		if !changed || repaired.DimensionBucket != "" {
			t.Errorf("bucket = %q, want cleared", repaired.DimensionBucket)
		}
	})

	t.Run("no columns resets to empty", func(t *testing.T) {
		v := &core.VisualState{MetricAlias: "orders.total", DimensionAlias: "orders.status"}
		repaired, changed := RepairVisual(v, nil)
		if !changed || repaired.MetricAlias != "" || repaired.DimensionAlias != "" {
			t.Errorf("repaired = %+v, want emptied", repaired)
		}
	})
}

func TestBuildAnalytics_DerivedFromParsedExpression(t *testing.T) {
	parsed, err := expr.Parse("orders.total - refunds.amount")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	field := &core.DerivedField{
		ID: "net", Visible: true, Status: core.DerivedActive,
		AST:              parsed.AST,
		ReferencedModels: parsed.ReferencedModels,
	}

	b := NewBuilder(testCatalog(), 0)
	res, _ := b.BuildAnalytics(Selection{
		Models:  []string{"orders", "refunds"},
		Visual:  &core.VisualState{MetricAlias: "orders.total", MetricAggregation: core.AggSum},
		Derived: []*core.DerivedField{field},
	})
	if len(res.Config.Derived) != 1 {
		t.Fatalf("derived payloads = %d, want 1", len(res.Config.Derived))
	}
	if got := res.Config.Derived[0].ReferencedModels; len(got) != 2 {
		t.Errorf("referenced models = %v, want [orders refunds]", got)
	}
}
