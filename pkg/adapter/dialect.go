package adapter

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// Dialect captures the per-engine SQL rendering rules the query compiler
// needs: identifier quoting, placeholder style, date truncation, and
// case-insensitive matching.
type Dialect struct {
	// Name is the dialect identifier (sqlite, duckdb, postgres)
	Name string
	// DefaultSchema is used for metadata lookups when none is qualified
	DefaultSchema string
	// SupportsILike indicates native ILIKE support
	SupportsILike bool
	// SupportsFullJoin indicates FULL OUTER JOIN support
	SupportsFullJoin bool
}

// QuoteIdent quotes an identifier with double quotes, doubling embedded
// quotes, so reserved words and mixed case are tolerated.
func (d *Dialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder formats the i-th (1-based) bind placeholder.
func (d *Dialect) Placeholder(i int) string {
	if d.Name == "postgres" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// DateTrunc renders a time-bucket truncation over the given column expression.
func (d *Dialect) DateTrunc(bucket core.TimeBucket, expr string) string {
	if d.Name == "sqlite" {
		return sqliteDateTrunc(bucket, expr)
	}
	return fmt.Sprintf("date_trunc('%s', %s)", bucket, expr)
}

// ILike renders a case-insensitive pattern match between a column expression
// and an escaped pattern literal.
func (d *Dialect) ILike(expr, pattern string) string {
	if d.SupportsILike {
		return fmt.Sprintf("%s ILIKE %s", expr, pattern)
	}
	return fmt.Sprintf("lower(%s) LIKE lower(%s)", expr, pattern)
}

// sqliteDateTrunc approximates date_trunc with strftime; quarter has no
// strftime format so it is composed from the month.
func sqliteDateTrunc(bucket core.TimeBucket, expr string) string {
	switch bucket {
	case core.BucketHour:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:00:00', %s)", expr)
	case core.BucketDay:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", expr)
	case core.BucketWeek:
		return fmt.Sprintf("date(%s, 'weekday 0', '-6 days')", expr)
	case core.BucketMonth:
		return fmt.Sprintf("strftime('%%Y-%%m-01', %s)", expr)
	case core.BucketQuarter:
		return fmt.Sprintf("strftime('%%Y-', %s) || ((cast(strftime('%%m', %s) as integer) - 1) / 3 * 3 + 1)", expr, expr)
	case core.BucketYear:
		return fmt.Sprintf("strftime('%%Y-01-01', %s)", expr)
	default:
		return expr
	}
}
