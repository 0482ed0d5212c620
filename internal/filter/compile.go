package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/reportql/pkg/adapter"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// ModelAlias binds a model's metadata to the table alias used in the
// generated SQL.
type ModelAlias struct {
	Alias string
	Model *core.DataModel
}

// AliasLookup maps model ID to its alias binding for one query.
type AliasLookup map[string]ModelAlias

// Compilation is the accumulated result of compiling a filter list. Errors
// are collected per filter rather than aborting, so the caller can surface
// every problem in one pass.
type Compilation struct {
	Clauses []string
	Errors  []string
}

// Compile converts filter descriptors into inline SQL predicate clauses for
// the row-preview path. Identifiers are always quoted; string literals are
// single-quote-escaped by doubling embedded quotes. A nil dialect renders
// pattern matches in the portable lower() LIKE lower() form; otherwise the
// dialect decides between that and native ILIKE.
func Compile(filters []core.ReportFilter, aliases AliasLookup, d *adapter.Dialect) Compilation {
	var out Compilation
	for _, f := range filters {
		clause, err := compileOne(f, aliases, d)
		if err != "" {
			out.Errors = append(out.Errors, err)
			continue
		}
		out.Clauses = append(out.Clauses, clause)
	}
	return out
}

// compileOne compiles a single filter; a non-empty second return is the
// error description.
func compileOne(f core.ReportFilter, aliases AliasLookup, d *adapter.Dialect) (string, string) {
	binding, ok := aliases[f.Model]
	if !ok || binding.Model == nil {
		return "", fmt.Sprintf("filter on %s.%s: model is not part of the query", f.Model, f.Field)
	}
	field, ok := binding.Model.FieldByID(f.Field)
	if !ok {
		return "", fmt.Sprintf("filter on %s.%s: unknown field", f.Model, f.Field)
	}

	if f.Operator == "" {
		return "", fmt.Sprintf("filter on %s.%s: no operator selected", f.Model, f.Field)
	}
	if !ValidOperator(field.Type, f.Operator) {
		return "", fmt.Sprintf("filter on %s.%s: operator %q is not valid for %s fields", f.Model, f.Field, f.Operator, field.Type)
	}

	left := quoteIdent(binding.Alias) + "." + quoteIdent(field.ColumnName())

	// Unary operators emit their fragment and ignore any stray value
	if !f.Operator.RequiresValue() {
		switch f.Operator {
		case core.OpIsNull:
			return left + " IS NULL", ""
		case core.OpIsNotNull:
			return left + " IS NOT NULL", ""
		case core.OpIsTrue:
			return left + " IS TRUE", ""
		case core.OpIsFalse:
			return left + " IS FALSE", ""
		}
	}

	if f.RightType == core.RightField {
		symbol, ok := f.Operator.ComparisonSymbol()
		if !ok {
			return "", fmt.Sprintf("filter on %s.%s: operator %q requires a literal value", f.Model, f.Field, f.Operator)
		}
		rightBinding, ok := aliases[f.RightModel]
		if !ok || rightBinding.Model == nil {
			return "", fmt.Sprintf("filter on %s.%s: compared model %q is not part of the query", f.Model, f.Field, f.RightModel)
		}
		rightField, ok := rightBinding.Model.FieldByID(f.RightField)
		if !ok {
			return "", fmt.Sprintf("filter on %s.%s: compared field %s.%s is unknown", f.Model, f.Field, f.RightModel, f.RightField)
		}
		right := quoteIdent(rightBinding.Alias) + "." + quoteIdent(rightField.ColumnName())
		return fmt.Sprintf("%s %s %s", left, symbol, right), ""
	}

	// Literal right operand
	literal, errMsg := coerceLiteral(f)
	if errMsg != "" {
		return "", errMsg
	}

	switch f.Operator {
	case core.OpContains:
		return likeClause(d, left, "%"+f.Value+"%"), ""
	case core.OpStartsWith:
		return likeClause(d, left, f.Value+"%"), ""
	case core.OpEndsWith:
		return likeClause(d, left, "%"+f.Value), ""
	}

	symbol, ok := f.Operator.ComparisonSymbol()
	if !ok {
		return "", fmt.Sprintf("filter on %s.%s: no comparison selected", f.Model, f.Field)
	}
	return fmt.Sprintf("%s %s %s", left, symbol, literal), ""
}

// coerceLiteral validates the filter's literal per its declared value kind
// and renders it as a SQL literal. Numeric literals pass through verbatim so
// user input is never reformatted.
func coerceLiteral(f core.ReportFilter) (string, string) {
	value := strings.TrimSpace(f.Value)

	switch f.ValueKind {
	case core.ValueNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
			return "", fmt.Sprintf("filter on %s.%s: %q is not a finite number", f.Model, f.Field, f.Value)
		}
		return value, ""

	case core.ValueBoolean:
		if value != "true" && value != "false" {
			return "", fmt.Sprintf("filter on %s.%s: boolean value must be \"true\" or \"false\", got %q", f.Model, f.Field, f.Value)
		}
		return strings.ToUpper(value), ""

	case core.ValueString, core.ValueDate:
		if value == "" {
			return "", fmt.Sprintf("filter on %s.%s: value must not be empty", f.Model, f.Field)
		}
		return quoteLiteral(f.Value), ""

	default:
		return "", fmt.Sprintf("filter on %s.%s: unknown value kind %q", f.Model, f.Field, f.ValueKind)
	}
}

// likeClause renders a case-insensitive pattern match through the dialect
// when one is known. The dialect-free form lower()s both sides so the clause
// stays portable across engines without native ILIKE.
func likeClause(d *adapter.Dialect, left, pattern string) string {
	if d != nil {
		return d.ILike(left, quoteLiteral(pattern))
	}
	return fmt.Sprintf("lower(%s) LIKE lower(%s)", left, quoteLiteral(pattern))
}

// quoteIdent double-quotes an identifier so reserved words and mixed case
// are tolerated.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral single-quotes a string literal, doubling embedded quotes.
func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
