package core

// Aggregation is a metric aggregation function.
type Aggregation string

// Aggregation constants.
const (
	AggSum           Aggregation = "sum"
	AggAvg           Aggregation = "avg"
	AggMin           Aggregation = "min"
	AggMax           Aggregation = "max"
	AggCount         Aggregation = "count"
	AggCountDistinct Aggregation = "count_distinct"
)

// ValidAggregation reports whether the aggregation is one of the supported set.
func ValidAggregation(a Aggregation) bool {
	switch a {
	case AggSum, AggAvg, AggMin, AggMax, AggCount, AggCountDistinct:
		return true
	}
	return false
}

// TimeBucket is a time-truncation granularity for date dimensions.
type TimeBucket string

// Time bucket constants.
const (
	BucketHour    TimeBucket = "hour"
	BucketDay     TimeBucket = "day"
	BucketWeek    TimeBucket = "week"
	BucketMonth   TimeBucket = "month"
	BucketQuarter TimeBucket = "quarter"
	BucketYear    TimeBucket = "year"
)

// ValidTimeBucket reports whether the bucket is one of the supported set.
func ValidTimeBucket(b TimeBucket) bool {
	switch b {
	case BucketHour, BucketDay, BucketWeek, BucketMonth, BucketQuarter, BucketYear:
		return true
	}
	return false
}

// Metric is one aggregated output column of an analytics query.
type Metric struct {
	Model       string      `json:"model"`
	Field       string      `json:"field"`
	Aggregation Aggregation `json:"aggregation"`
	Alias       string      `json:"alias"`
}

// Dimension is one grouping column of an analytics query.
type Dimension struct {
	Model  string     `json:"model"`
	Field  string     `json:"field"`
	Bucket TimeBucket `json:"bucket,omitempty"`
	Alias  string     `json:"alias"`
}

// SortDirection orders query output.
type SortDirection string

// Sort direction constants.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// OrderBy is a single ordering term referencing an output alias.
type OrderBy struct {
	Alias     string        `json:"alias"`
	Direction SortDirection `json:"direction"`
}

// SelectedColumn is a plain (non-aggregated) output column for row preview.
type SelectedColumn struct {
	Model string `json:"model"`
	Field string `json:"field"`
	Alias string `json:"alias,omitempty"`
}

// QueryConfig is the canonical, immutable compilation target handed to the
// execution service. Model order is significant: the first model is the query
// root and joins are applied in list order.
type QueryConfig struct {
	// Models is the ordered model ID list
	Models []string `json:"models"`
	// Joins is the configured join list
	Joins []JoinCondition `json:"joins,omitempty"`
	// Columns are plain selected columns (row preview path)
	Columns []SelectedColumn `json:"columns,omitempty"`
	// Filters are normalized analytics predicates
	Filters []AnalyticsPredicate `json:"filters,omitempty"`
	// Metrics are the aggregated output columns
	Metrics []Metric `json:"metrics,omitempty"`
	// Dimensions are the grouping columns
	Dimensions []Dimension `json:"dimensions,omitempty"`
	// Derived is the derived-field payload list
	Derived []DerivedPayload `json:"derived,omitempty"`
	// Order is the output ordering
	Order []OrderBy `json:"order,omitempty"`
	// Limit is the row limit (already defaulted and clamped by the builder)
	Limit int `json:"limit"`
	// AllowAsync permits the execution service to answer with a job handle
	AllowAsync bool `json:"allowAsync"`
	// TemplateID is the optional owning report template
	TemplateID string `json:"templateId,omitempty"`
}

// PreviewRequest is the row-preview compilation target. Unlike the analytics
// path it carries pre-compiled inline WHERE clauses so the full filter
// operator set is available.
type PreviewRequest struct {
	Models  []string         `json:"models"`
	Joins   []JoinCondition  `json:"joins,omitempty"`
	Columns []SelectedColumn `json:"columns"`
	Derived []DerivedPayload `json:"derived,omitempty"`
	Where   []string         `json:"where,omitempty"`
	Order   []OrderBy        `json:"order,omitempty"`
	Limit   int              `json:"limit"`
}

// AnalyticsPredicate is the structured, reduced-operator filter shape used by
// the aggregate path. Only literal-value comparisons are representable.
type AnalyticsPredicate struct {
	Model    string         `json:"model"`
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
	Kind     ValueKind      `json:"kind"`
}
