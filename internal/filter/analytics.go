package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// AnalyticsResult is the reduced, structured filter set for the aggregate
// path plus the warnings for everything that was dropped.
type AnalyticsResult struct {
	Predicates []core.AnalyticsPredicate
	Warnings   []string
	Errors     []string
}

// CompileAnalytics converts filters into the structured predicate list the
// analytics path accepts. Only the six literal-value comparison operators are
// supported there: field-to-field comparisons and all unary/text operators
// are dropped with a descriptive warning rather than failing the query. This
// asymmetry with the row-preview path is deliberate.
func CompileAnalytics(filters []core.ReportFilter) AnalyticsResult {
	var out AnalyticsResult
	for _, f := range filters {
		if _, ok := f.Operator.ComparisonSymbol(); !ok {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("filter on %s.%s: operator %q is not supported for analytics queries and was skipped", f.Model, f.Field, f.Operator))
			continue
		}
		if f.RightType == core.RightField {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("filter on %s.%s: field-to-field comparison is not supported for analytics queries and was skipped", f.Model, f.Field))
			continue
		}

		value := strings.TrimSpace(f.Value)
		switch f.ValueKind {
		case core.ValueNumber:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
				out.Errors = append(out.Errors,
					fmt.Sprintf("filter on %s.%s: %q is not a finite number", f.Model, f.Field, f.Value))
				continue
			}
		case core.ValueBoolean:
			if value != "true" && value != "false" {
				out.Errors = append(out.Errors,
					fmt.Sprintf("filter on %s.%s: boolean value must be \"true\" or \"false\", got %q", f.Model, f.Field, f.Value))
				continue
			}
		default:
			if value == "" {
				out.Errors = append(out.Errors,
					fmt.Sprintf("filter on %s.%s: value must not be empty", f.Model, f.Field))
				continue
			}
		}

		out.Predicates = append(out.Predicates, core.AnalyticsPredicate{
			Model:    f.Model,
			Field:    f.Field,
			Operator: f.Operator,
			Value:    value,
			Kind:     f.ValueKind,
		})
	}
	return out
}
