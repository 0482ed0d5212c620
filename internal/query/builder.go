// Package query assembles the user's current report selection into the
// canonical configuration shapes handed to the execution service.
package query

import (
	"fmt"

	"github.com/leapstack-labs/reportql/internal/filter"
	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/pkg/adapter"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// Limit defaults. Both paths clamp to the builder's configured maximum.
const (
	DefaultAnalyticsLimit = 100
	DefaultPreviewLimit   = 500
	DefaultMaxLimit       = 10000
)

// Selection is the mutable report-building state owned by the caller. The
// builder reads it and never retains a reference across calls.
type Selection struct {
	// Models is the ordered active model ID list
	Models []string
	// Fields maps model ID to the picked field IDs; an absent or empty entry
	// selects all of the model's fields
	Fields map[string][]string
	// Joins is the configured join list
	Joins []core.JoinCondition
	// Filters is the filter descriptor list
	Filters []core.ReportFilter
	// Derived is the reconciled derived field list
	Derived []*core.DerivedField
	// Visual is the active metric/dimension/comparison choice
	Visual *core.VisualState
	// Order references output aliases
	Order []core.OrderBy
	// Limit of zero takes the per-path default
	Limit int
	// AllowAsync permits a job-handle answer from the execution service
	AllowAsync bool
	// TemplateID is the optional owning template
	TemplateID string
}

// Builder turns selections into canonical query configurations.
type Builder struct {
	catalog  *schema.Catalog
	maxLimit int
}

// NewBuilder creates a builder over the model catalog. A non-positive
// maxLimit falls back to DefaultMaxLimit.
func NewBuilder(catalog *schema.Catalog, maxLimit int) *Builder {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	return &Builder{catalog: catalog, maxLimit: maxLimit}
}

// Result is an analytics build outcome. Errors describe filters or selection
// entries that could not be compiled; warnings describe shapes that were
// dropped but do not block execution.
type Result struct {
	Config   core.QueryConfig
	Warnings []string
	Errors   []string
}

// PreviewResult is a row-preview build outcome.
type PreviewResult struct {
	Request  core.PreviewRequest
	Warnings []string
	Errors   []string
}

// BuildAnalytics assembles the aggregate-path QueryConfig from the selection.
// The visual definition is repaired against the available columns before
// metrics and dimensions are derived from it.
func (b *Builder) BuildAnalytics(sel Selection) (Result, error) {
	if len(sel.Models) == 0 {
		return Result{}, fmt.Errorf("cannot build a query without any selected models")
	}

	var res Result
	columns, colErrs := b.columns(sel)
	res.Errors = append(res.Errors, colErrs...)

	visual, repaired := RepairVisual(sel.Visual, columns)
	if repaired && sel.Visual != nil && sel.Visual.ComparisonAlias != "" && sel.Visual.ComparisonAlias != visual.ComparisonAlias {
		if visual.ComparisonAlias == "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("comparison series %s is not an available column and was dropped", sel.Visual.ComparisonAlias))
		} else {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("comparison series %s is not an available column; using %s instead", sel.Visual.ComparisonAlias, visual.ComparisonAlias))
		}
	}
	aliases := make(map[string]bool)

	if metric, ok := resolveColumn(columns, visual.MetricAlias); ok {
		agg := visual.MetricAggregation
		if !core.ValidAggregation(agg) {
			agg = core.AggCount
		}
		res.Config.Metrics = append(res.Config.Metrics, core.Metric{
			Model:       metric.Model,
			Field:       metric.Field,
			Aggregation: agg,
			Alias:       uniqueAlias(aliases, metric.Alias+"_"+string(agg)),
		})

		// An unresolvable comparison alias was already repaired (and warned
		// about) above, so resolution here can only fail on an empty alias.
		if comparison, ok := resolveColumn(columns, visual.ComparisonAlias); ok {
			switch {
			case comparison.Key() == metric.Key():
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("comparison series %s must reference a different field than the primary metric and was dropped", visual.ComparisonAlias))
			default:
				compAgg := visual.ComparisonAggregation
				if !core.ValidAggregation(compAgg) {
					compAgg = agg
				}
				res.Config.Metrics = append(res.Config.Metrics, core.Metric{
					Model:       comparison.Model,
					Field:       comparison.Field,
					Aggregation: compAgg,
					Alias:       uniqueAlias(aliases, comparison.Alias+"_"+string(compAgg)),
				})
			}
		}
	}

	if dim, ok := resolveColumn(columns, visual.DimensionAlias); ok {
		bucket := visual.DimensionBucket
		if bucket != "" && (!core.ValidTimeBucket(bucket) || dim.Type != core.FieldTypeDate) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("time bucket %s does not apply to %s and was dropped", bucket, visual.DimensionAlias))
			bucket = ""
		}
		alias := dim.Alias
		if bucket != "" {
			alias += "_" + string(bucket)
		}
		res.Config.Dimensions = append(res.Config.Dimensions, core.Dimension{
			Model:  dim.Model,
			Field:  dim.Field,
			Bucket: bucket,
			Alias:  uniqueAlias(aliases, alias),
		})
	}

	filters := filter.CompileAnalytics(sel.Filters)
	res.Config.Filters = filters.Predicates
	res.Warnings = append(res.Warnings, filters.Warnings...)
	res.Errors = append(res.Errors, filters.Errors...)

	res.Config.Models = append([]string(nil), sel.Models...)
	res.Config.Joins = append([]core.JoinCondition(nil), sel.Joins...)
	res.Config.Derived = derivedPayloads(sel.Derived)
	res.Config.Order = append([]core.OrderBy(nil), sel.Order...)
	res.Config.Limit = b.clampLimit(sel.Limit, DefaultAnalyticsLimit)
	res.Config.AllowAsync = sel.AllowAsync
	res.Config.TemplateID = sel.TemplateID
	return res, nil
}

// BuildPreview assembles the row-preview request. Filters compile to inline
// SQL clauses with the full operator set against the target dialect (nil for
// the portable form); compilation errors accumulate instead of aborting.
func (b *Builder) BuildPreview(sel Selection, d *adapter.Dialect) (PreviewResult, error) {
	if len(sel.Models) == 0 {
		return PreviewResult{}, fmt.Errorf("cannot build a preview without any selected models")
	}

	var res PreviewResult
	columns, colErrs := b.columns(sel)
	res.Errors = append(res.Errors, colErrs...)

	for _, col := range columns {
		res.Request.Columns = append(res.Request.Columns, core.SelectedColumn{
			Model: col.Model,
			Field: col.Field,
			Alias: col.Alias,
		})
	}

	compiled := filter.Compile(sel.Filters, b.AliasLookup(sel.Models), d)
	res.Request.Where = compiled.Clauses
	res.Errors = append(res.Errors, compiled.Errors...)

	res.Request.Models = append([]string(nil), sel.Models...)
	res.Request.Joins = append([]core.JoinCondition(nil), sel.Joins...)
	res.Request.Derived = derivedPayloads(sel.Derived)
	res.Request.Order = append([]core.OrderBy(nil), sel.Order...)
	res.Request.Limit = b.clampLimit(sel.Limit, DefaultPreviewLimit)
	return res, nil
}

// AliasLookup assigns the positional table aliases (t0, t1, ...) used by both
// the filter compiler and the SQL generator. Model order is significant.
func (b *Builder) AliasLookup(models []string) filter.AliasLookup {
	lookup := make(filter.AliasLookup, len(models))
	for i, id := range models {
		model, _ := b.catalog.Model(id)
		lookup[id] = filter.ModelAlias{Alias: fmt.Sprintf("t%d", i), Model: model}
	}
	return lookup
}

// derivedPayloads gates derived fields into the payload list. A field is
// included only when visible, not stale, and carrying a parsed tree; the
// cache tokens pass through unmodified.
func derivedPayloads(fields []*core.DerivedField) []core.DerivedPayload {
	var out []core.DerivedPayload
	for _, f := range fields {
		if f == nil || !f.Visible || f.Status == core.DerivedStale || f.AST == nil {
			continue
		}
		out = append(out, core.DerivedPayload{
			ID:                  f.ID,
			Alias:               f.ID,
			ExpressionAST:       f.AST,
			ReferencedModels:    f.ReferencedModels,
			JoinDependencies:    f.JoinDependencies,
			ModelGraphSignature: f.ModelGraphSignature,
			CompiledSQLHash:     f.CompiledSQLHash,
		})
	}
	return out
}

func (b *Builder) clampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > b.maxLimit {
		limit = b.maxLimit
	}
	return limit
}

func uniqueAlias(seen map[string]bool, alias string) string {
	candidate := alias
	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", alias, n)
	}
	seen[candidate] = true
	return candidate
}
