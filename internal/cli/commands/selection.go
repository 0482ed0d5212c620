package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reportql/internal/derived"
	"github.com/leapstack-labs/reportql/internal/expr"
	"github.com/leapstack-labs/reportql/internal/query"
	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// selectionOptions are the flags shared by compile, run and preview. A saved
// template can seed the selection; flags layer on top of it.
type selectionOptions struct {
	Template  string
	Models    []string
	Fields    []string
	Joins     []string
	Filters   []string
	Derived   []string
	Metric    string
	Dimension string
	Compare   string
	Order     []string
	Limit     int
}

func addSelectionFlags(cmd *cobra.Command, opts *selectionOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.Template, "template", "", "Seed the selection from a saved template ID")
	flags.StringArrayVarP(&opts.Models, "model", "m", nil, "Active model (repeatable)")
	flags.StringArrayVarP(&opts.Fields, "field", "f", nil, "Picked field as model.field (repeatable; none picks all)")
	flags.StringArrayVarP(&opts.Joins, "join", "j", nil, "Join as left.field=right.field[:kind] (repeatable)")
	flags.StringArrayVarP(&opts.Filters, "filter", "w", nil, "Filter as model.field:op[:value] (repeatable)")
	flags.StringArrayVarP(&opts.Derived, "derived", "d", nil, "Derived field as name=expression (repeatable)")
	flags.StringVar(&opts.Metric, "metric", "", "Primary metric as model.field[:agg]")
	flags.StringVar(&opts.Dimension, "dimension", "", "Grouping dimension as model.field[:bucket]")
	flags.StringVar(&opts.Compare, "compare", "", "Comparison series as model.field[:agg]")
	flags.StringArrayVar(&opts.Order, "order", nil, "Sort as alias[:desc] (repeatable)")
	flags.IntVar(&opts.Limit, "limit", 0, "Row limit (0 uses the per-path default)")
}

// buildSelection assembles a query.Selection from the template seed and the
// flags, parses derived fields, and reconciles their staleness against the
// final model set.
func (o *selectionOptions) buildSelection(ctx context.Context, app *App) (query.Selection, error) {
	var sel query.Selection

	if o.Template != "" {
		tpl, err := app.Store.GetTemplate(ctx, o.Template)
		if err != nil {
			return sel, err
		}
		sel = selectionFromTemplate(tpl)
	}

	if len(o.Models) > 0 {
		sel.Models = o.Models
	}
	if len(sel.Models) == 0 {
		return sel, fmt.Errorf("no models selected; pass --model or --template")
	}

	for _, spec := range o.Fields {
		model, field, err := splitFieldRef(spec)
		if err != nil {
			return sel, err
		}
		if sel.Fields == nil {
			sel.Fields = make(map[string][]string)
		}
		sel.Fields[model] = append(sel.Fields[model], field)
	}

	for _, spec := range o.Joins {
		join, err := parseJoin(spec)
		if err != nil {
			return sel, err
		}
		sel.Joins = append(sel.Joins, join)
	}

	for _, spec := range o.Filters {
		f, err := parseFilter(spec, app.Catalog)
		if err != nil {
			return sel, err
		}
		sel.Filters = append(sel.Filters, f)
	}

	for _, spec := range o.Derived {
		name, expression, ok := strings.Cut(spec, "=")
		if !ok {
			return sel, fmt.Errorf("derived field %q is not in name=expression form", spec)
		}
		field, err := derived.New(strings.TrimSpace(name), strings.TrimSpace(expression), core.DerivedRowLevel, core.ScopeWorkspace)
		if err != nil {
			return sel, err
		}
		sel.Derived = append(sel.Derived, field)
	}

	if visual, err := o.parseVisual(); err != nil {
		return sel, err
	} else if visual != nil {
		sel.Visual = visual
	}

	for _, spec := range o.Order {
		alias, dir, _ := strings.Cut(spec, ":")
		direction := core.SortAsc
		if strings.EqualFold(dir, "desc") {
			direction = core.SortDesc
		}
		sel.Order = append(sel.Order, core.OrderBy{Alias: alias, Direction: direction})
	}
	if o.Limit > 0 {
		sel.Limit = o.Limit
	}

	sel.Derived = derived.Reconcile(sel.Derived, sel.Models)
	return sel, nil
}

func selectionFromTemplate(tpl *core.Template) query.Selection {
	sel := query.Selection{
		Models:     tpl.Models,
		Fields:     tpl.Fields,
		Joins:      tpl.Joins,
		Filters:    tpl.Filters,
		Visual:     tpl.MetricsSpotlight,
		TemplateID: tpl.ID,
	}
	for i := range tpl.DerivedFields {
		field := &tpl.DerivedFields[i]
		// The AST is not persisted; re-parse from the expression text. A field
		// that no longer parses keeps a nil tree and is excluded by the
		// builder's derived gate.
		if field.AST == nil {
			if res, err := expr.Parse(field.Expression); err == nil {
				field.AST = res.AST
			}
		}
		sel.Derived = append(sel.Derived, field)
	}
	return sel
}

func (o *selectionOptions) parseVisual() (*core.VisualState, error) {
	if o.Metric == "" && o.Dimension == "" && o.Compare == "" {
		return nil, nil
	}
	visual := &core.VisualState{}

	if o.Metric != "" {
		key, agg, _ := strings.Cut(o.Metric, ":")
		visual.MetricAlias = key
		visual.MetricAggregation = core.Aggregation(agg)
		if agg != "" && !core.ValidAggregation(visual.MetricAggregation) {
			return nil, fmt.Errorf("unknown aggregation %q", agg)
		}
	}
	if o.Compare != "" {
		key, agg, _ := strings.Cut(o.Compare, ":")
		visual.ComparisonAlias = key
		visual.ComparisonAggregation = core.Aggregation(agg)
		if agg != "" && !core.ValidAggregation(visual.ComparisonAggregation) {
			return nil, fmt.Errorf("unknown aggregation %q", agg)
		}
	}
	if o.Dimension != "" {
		key, bucket, _ := strings.Cut(o.Dimension, ":")
		visual.DimensionAlias = key
		visual.DimensionBucket = core.TimeBucket(bucket)
		if bucket != "" && !core.ValidTimeBucket(visual.DimensionBucket) {
			return nil, fmt.Errorf("unknown time bucket %q", bucket)
		}
	}
	return visual, nil
}

func splitFieldRef(ref string) (model, field string, err error) {
	model, field, ok := strings.Cut(ref, ".")
	if !ok || model == "" || field == "" {
		return "", "", fmt.Errorf("field reference %q is not in model.field form", ref)
	}
	return model, field, nil
}

func parseJoin(spec string) (core.JoinCondition, error) {
	var join core.JoinCondition
	body, kind, hasKind := strings.Cut(spec, ":")
	left, right, ok := strings.Cut(body, "=")
	if !ok {
		return join, fmt.Errorf("join %q is not in left.field=right.field form", spec)
	}

	var err error
	if join.LeftModel, join.LeftField, err = splitFieldRef(left); err != nil {
		return join, err
	}
	if join.RightModel, join.RightField, err = splitFieldRef(right); err != nil {
		return join, err
	}

	join.ID = uuid.New().String()
	join.Kind = core.JoinInner
	if hasKind {
		switch k := core.JoinKind(kind); k {
		case core.JoinInner, core.JoinLeft, core.JoinRight, core.JoinFull:
			join.Kind = k
		default:
			return join, fmt.Errorf("unknown join kind %q", kind)
		}
	}
	return join, nil
}

// parseFilter accepts model.field:op[:value]. The literal's kind is inferred
// from the field's type in the catalog.
func parseFilter(spec string, catalog *schema.Catalog) (core.ReportFilter, error) {
	var f core.ReportFilter
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return f, fmt.Errorf("filter %q is not in model.field:op[:value] form", spec)
	}

	var err error
	if f.Model, f.Field, err = splitFieldRef(parts[0]); err != nil {
		return f, err
	}

	f.ID = uuid.New().String()
	f.Operator = core.FilterOperator(parts[1])
	f.RightType = core.RightValue
	if f.Operator.RequiresValue() {
		if len(parts) < 3 {
			return f, fmt.Errorf("operator %s needs a value in filter %q", f.Operator, spec)
		}
		f.Value = parts[2]
	}
	f.ValueKind = literalKind(catalog, f.Model, f.Field)
	return f, nil
}

func literalKind(catalog *schema.Catalog, modelID, fieldID string) core.ValueKind {
	model, ok := catalog.Model(modelID)
	if !ok {
		return core.ValueString
	}
	for _, field := range model.Fields {
		if field.ID != fieldID {
			continue
		}
		switch {
		case field.Type.IsNumeric():
			return core.ValueNumber
		case field.Type == core.FieldTypeBoolean:
			return core.ValueBoolean
		case field.Type == core.FieldTypeDate:
			return core.ValueDate
		}
		break
	}
	return core.ValueString
}
