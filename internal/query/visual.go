package query

import "github.com/leapstack-labs/reportql/pkg/core"

// RepairVisual reconciles the active visual definition with the available
// column set. A metric or comparison whose key no longer resolves to a
// numeric column falls back to the first numeric column; a dimension falls
// back to the first textual column; empty when none exists. A nil input is
// treated as an empty visual. The second return reports whether anything
// changed.
func RepairVisual(v *core.VisualState, columns []Column) (core.VisualState, bool) {
	var repaired core.VisualState
	if v != nil {
		repaired = *v
	}
	changed := false

	if !validColumn(columns, repaired.MetricAlias, numericColumn) {
		next := firstColumn(columns, numericColumn, "")
		if next != repaired.MetricAlias {
			repaired.MetricAlias = next
			changed = true
		}
	}

	if !validColumn(columns, repaired.DimensionAlias, textualColumn) {
		next := firstColumn(columns, textualColumn, "")
		if next != repaired.DimensionAlias {
			repaired.DimensionAlias = next
			repaired.DimensionBucket = ""
			changed = true
		}
	}

	if repaired.ComparisonAlias != "" && !validColumn(columns, repaired.ComparisonAlias, numericColumn) {
		next := firstColumn(columns, numericColumn, repaired.MetricAlias)
		repaired.ComparisonAlias = next
		changed = true
	}

	// A bucket only applies to date dimensions.
	if repaired.DimensionBucket != "" {
		if col, ok := resolveColumn(columns, repaired.DimensionAlias); !ok || col.Type != core.FieldTypeDate {
			repaired.DimensionBucket = ""
			changed = true
		}
	}

	return repaired, changed
}

func numericColumn(c Column) bool {
	return c.Type.IsNumeric()
}

func textualColumn(c Column) bool {
	return c.Type.IsTextual()
}

func validColumn(columns []Column, key string, kind func(Column) bool) bool {
	if key == "" {
		return false
	}
	col, ok := resolveColumn(columns, key)
	return ok && kind(col)
}

// firstColumn returns the key of the first column of the wanted kind,
// skipping the excluded key. Empty when none match.
func firstColumn(columns []Column, kind func(Column) bool, exclude string) string {
	for _, c := range columns {
		if kind(c) && c.Key() != exclude {
			return c.Key()
		}
	}
	return ""
}
