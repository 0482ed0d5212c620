package commands

import (
	"testing"

	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/pkg/core"
)

func testCatalog() *schema.Catalog {
	return schema.NewCatalog([]core.DataModel{
		{
			ID: "orders",
			Fields: []core.Field{
				{ID: "id", Type: core.FieldTypeIdentifier},
				{ID: "total", Type: core.FieldTypeCurrency},
				{ID: "status", Type: core.FieldTypeString},
				{ID: "shipped", Type: core.FieldTypeBoolean},
				{ID: "created_at", Type: core.FieldTypeDate},
			},
		},
	})
}

func TestParseJoin(t *testing.T) {
	join, err := parseJoin("orders.id=refunds.order_id:left")
	if err != nil {
		t.Fatalf("parseJoin: %v", err)
	}
	if join.LeftModel != "orders" || join.LeftField != "id" {
		t.Errorf("left = %s.%s", join.LeftModel, join.LeftField)
	}
	if join.RightModel != "refunds" || join.RightField != "order_id" {
		t.Errorf("right = %s.%s", join.RightModel, join.RightField)
	}
	if join.Kind != core.JoinLeft {
		t.Errorf("kind = %s, want left", join.Kind)
	}
	if join.ID == "" {
		t.Error("join should get an ID")
	}
}

func TestParseJoinDefaultsToInner(t *testing.T) {
	join, err := parseJoin("orders.id=refunds.order_id")
	if err != nil {
		t.Fatalf("parseJoin: %v", err)
	}
	if join.Kind != core.JoinInner {
		t.Errorf("kind = %s, want inner", join.Kind)
	}
}

func TestParseJoinErrors(t *testing.T) {
	for _, spec := range []string{"orders.id", "orders=refunds.order_id", "orders.id=refunds.order_id:sideways"} {
		if _, err := parseJoin(spec); err == nil {
			t.Errorf("parseJoin(%q) should fail", spec)
		}
	}
}

func TestParseFilter(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		spec string
		op   core.FilterOperator
		val  string
		kind core.ValueKind
	}{
		{"orders.total:gt:10", core.OpGt, "10", core.ValueNumber},
		{"orders.status:equals:paid", core.OpEquals, "paid", core.ValueString},
		{"orders.status:contains:a:b", core.OpContains, "a:b", core.ValueString},
		{"orders.shipped:is_true", core.OpIsTrue, "", core.ValueBoolean},
		{"orders.created_at:gte:2026-01-01", core.OpGte, "2026-01-01", core.ValueDate},
	}
	for _, tt := range tests {
		f, err := parseFilter(tt.spec, catalog)
		if err != nil {
			t.Errorf("parseFilter(%q): %v", tt.spec, err)
			continue
		}
		if f.Operator != tt.op || f.Value != tt.val || f.ValueKind != tt.kind {
			t.Errorf("parseFilter(%q) = %s %q %s, want %s %q %s",
				tt.spec, f.Operator, f.Value, f.ValueKind, tt.op, tt.val, tt.kind)
		}
		if f.RightType != core.RightValue {
			t.Errorf("parseFilter(%q) right type = %s", tt.spec, f.RightType)
		}
	}
}

func TestParseFilterMissingValue(t *testing.T) {
	if _, err := parseFilter("orders.total:gt", testCatalog()); err == nil {
		t.Error("gt without a value should fail")
	}
}

func TestParseVisual(t *testing.T) {
	opts := selectionOptions{
		Metric:    "orders.total:sum",
		Dimension: "orders.created_at:month",
		Compare:   "orders.total",
	}
	visual, err := opts.parseVisual()
	if err != nil {
		t.Fatalf("parseVisual: %v", err)
	}
	if visual.MetricAlias != "orders.total" || visual.MetricAggregation != core.AggSum {
		t.Errorf("metric = %s:%s", visual.MetricAlias, visual.MetricAggregation)
	}
	if visual.DimensionAlias != "orders.created_at" || visual.DimensionBucket != core.BucketMonth {
		t.Errorf("dimension = %s:%s", visual.DimensionAlias, visual.DimensionBucket)
	}
	if visual.ComparisonAggregation != "" {
		t.Errorf("comparison aggregation = %s, want empty", visual.ComparisonAggregation)
	}
}

func TestParseVisualRejectsUnknownAggregation(t *testing.T) {
	opts := selectionOptions{Metric: "orders.total:median"}
	if _, err := opts.parseVisual(); err == nil {
		t.Error("unknown aggregation should fail")
	}
}

func TestParseVisualEmpty(t *testing.T) {
	var opts selectionOptions
	visual, err := opts.parseVisual()
	if err != nil {
		t.Fatalf("parseVisual: %v", err)
	}
	if visual != nil {
		t.Error("no visual flags should produce a nil visual")
	}
}

func TestSelectionFromTemplate(t *testing.T) {
	tpl := &core.Template{
		ID:     "tpl-1",
		Models: []string{"orders", "refunds"},
		Fields: map[string][]string{"orders": {"total"}},
		DerivedFields: []core.DerivedField{
			{ID: "d1", Name: "net", Expression: "orders.total - refunds.amount"},
		},
		MetricsSpotlight: &core.VisualState{MetricAlias: "orders.total", MetricAggregation: core.AggSum},
	}

	sel := selectionFromTemplate(tpl)
	if sel.TemplateID != "tpl-1" {
		t.Errorf("template ID = %s", sel.TemplateID)
	}
	if len(sel.Models) != 2 || len(sel.Derived) != 1 {
		t.Errorf("models = %v, derived = %d", sel.Models, len(sel.Derived))
	}
	if sel.Derived[0].Name != "net" {
		t.Errorf("derived name = %s", sel.Derived[0].Name)
	}
	if sel.Derived[0].AST == nil {
		t.Error("derived expression should be re-parsed on load")
	}
	if sel.Visual == nil || sel.Visual.MetricAlias != "orders.total" {
		t.Error("visual should carry over")
	}
}

func TestCoverageWarnings(t *testing.T) {
	derived := []*core.DerivedField{
		{
			Name:             "net",
			ReferencedModels: []string{"orders", "refunds"},
			JoinDependencies: []core.ModelPair{{A: "orders", B: "refunds"}},
		},
		{
			Name:             "margin",
			ReferencedModels: []string{"orders", "costs"},
			JoinDependencies: []core.ModelPair{{A: "costs", B: "orders"}},
		},
	}
	joins := []core.JoinCondition{
		{LeftModel: "orders", LeftField: "id", RightModel: "refunds", RightField: "order_id", Kind: core.JoinLeft},
	}

	lines := coverageWarnings(derived, joins)
	if len(lines) != 1 {
		t.Fatalf("lines = %v, want one uncovered pair", lines)
	}
	want := "warning: derived field margin needs a join between costs and orders"
	if lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}

	joins = append(joins, core.JoinCondition{
		LeftModel: "costs", LeftField: "order_id", RightModel: "orders", RightField: "id", Kind: core.JoinInner,
	})
	if lines := coverageWarnings(derived, joins); len(lines) != 0 {
		t.Errorf("lines = %v, want none once all pairs are joined", lines)
	}
}
