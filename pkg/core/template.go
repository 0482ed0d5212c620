package core

import "time"

// Template is the persisted report template shape. The compiler populates and
// consumes these fields at load/save boundaries but never owns their storage
// lifecycle; the pieces it does not compile are carried through opaquely.
type Template struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`

	// Models is the active model ID selection
	Models []string `json:"models" yaml:"models"`
	// Fields maps model ID to the picked field IDs
	Fields map[string][]string `json:"fields" yaml:"fields"`
	// Joins is the configured join list
	Joins []JoinCondition `json:"joins" yaml:"joins"`
	// Filters is the filter descriptor list
	Filters []ReportFilter `json:"filters" yaml:"filters"`
	// DerivedFields is the derived field list
	DerivedFields []DerivedField `json:"derivedFields" yaml:"derived_fields"`

	// MetricsSpotlight is the saved "active visual" definition
	MetricsSpotlight *VisualState `json:"metricsSpotlight,omitempty" yaml:"metrics_spotlight,omitempty"`

	// ColumnOrder and ColumnAliases are UI presentation state, carried opaquely
	ColumnOrder   []string          `json:"columnOrder,omitempty" yaml:"column_order,omitempty"`
	ColumnAliases map[string]string `json:"columnAliases,omitempty" yaml:"column_aliases,omitempty"`
}

// VisualState is the "active visual" metric/dimension/comparison choice.
// Aliases reference output columns of the current selection and are repaired
// by the query builder when the available columns change.
type VisualState struct {
	// MetricAlias is the primary series column ("model.field" key)
	MetricAlias string `json:"metricAlias" yaml:"metric_alias"`
	// MetricAggregation is the primary series aggregation
	MetricAggregation Aggregation `json:"metricAggregation" yaml:"metric_aggregation"`
	// DimensionAlias is the grouping column
	DimensionAlias string `json:"dimensionAlias" yaml:"dimension_alias"`
	// DimensionBucket is the optional time bucket for date dimensions
	DimensionBucket TimeBucket `json:"dimensionBucket,omitempty" yaml:"dimension_bucket,omitempty"`
	// ComparisonAlias is the optional secondary series column
	ComparisonAlias string `json:"comparisonAlias,omitempty" yaml:"comparison_alias,omitempty"`
	// ComparisonAggregation defaults to the primary aggregation when empty
	ComparisonAggregation Aggregation `json:"comparisonAggregation,omitempty" yaml:"comparison_aggregation,omitempty"`
}
