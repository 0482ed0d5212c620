// Package filter validates typed filter descriptors and compiles them into
// SQL-safe predicate clauses. The row-preview path supports the full operator
// set as inline SQL; the analytics path supports a reduced, structured set.
package filter

import "github.com/leapstack-labs/reportql/pkg/core"

// operatorsByType maps each field semantic type to its permitted operators,
// in preference order.
var operatorsByType = map[core.FieldType][]core.FilterOperator{
	core.FieldTypeString: {
		core.OpEquals, core.OpNotEquals,
		core.OpContains, core.OpStartsWith, core.OpEndsWith,
		core.OpIsNull, core.OpIsNotNull,
	},
	core.FieldTypeIdentifier: {
		core.OpEquals, core.OpNotEquals,
		core.OpContains, core.OpStartsWith, core.OpEndsWith,
		core.OpIsNull, core.OpIsNotNull,
	},
	core.FieldTypeNumber: {
		core.OpEquals, core.OpNotEquals,
		core.OpGt, core.OpGte, core.OpLt, core.OpLte,
		core.OpIsNull, core.OpIsNotNull,
	},
	core.FieldTypeCurrency: {
		core.OpEquals, core.OpNotEquals,
		core.OpGt, core.OpGte, core.OpLt, core.OpLte,
		core.OpIsNull, core.OpIsNotNull,
	},
	core.FieldTypePercentage: {
		core.OpEquals, core.OpNotEquals,
		core.OpGt, core.OpGte, core.OpLt, core.OpLte,
		core.OpIsNull, core.OpIsNotNull,
	},
	core.FieldTypeDate: {
		core.OpEquals, core.OpNotEquals,
		core.OpGt, core.OpGte, core.OpLt, core.OpLte,
		core.OpIsNull, core.OpIsNotNull,
	},
	core.FieldTypeBoolean: {
		core.OpIsTrue, core.OpIsFalse,
		core.OpIsNull, core.OpIsNotNull,
	},
}

// OperatorsFor returns the permitted operator set for a field type.
func OperatorsFor(fieldType core.FieldType) []core.FilterOperator {
	return operatorsByType[fieldType]
}

// ValidOperator reports whether the operator applies to the field type.
func ValidOperator(fieldType core.FieldType, op core.FilterOperator) bool {
	for _, candidate := range operatorsByType[fieldType] {
		if candidate == op {
			return true
		}
	}
	return false
}

// ReselectOperator picks a valid operator after the left operand's type
// changed: the current operator is kept when still valid, otherwise equality
// is preferred, otherwise the first valid operator for the new type.
func ReselectOperator(fieldType core.FieldType, current core.FilterOperator) core.FilterOperator {
	if ValidOperator(fieldType, current) {
		return current
	}
	if ValidOperator(fieldType, core.OpEquals) {
		return core.OpEquals
	}
	valid := operatorsByType[fieldType]
	if len(valid) == 0 {
		return ""
	}
	return valid[0]
}

// ApplyFieldTypeChange returns a copy of the filter adjusted for a new left
// operand type: the operator is reselected and right-operand state is reset
// when the new operator forbids field comparison or requires no value.
func ApplyFieldTypeChange(f core.ReportFilter, newType core.FieldType) core.ReportFilter {
	out := f
	out.Operator = ReselectOperator(newType, f.Operator)

	if !out.Operator.RequiresValue() {
		out.RightType = core.RightValue
		out.Value = ""
		out.RightModel = ""
		out.RightField = ""
		return out
	}

	if out.RightType == core.RightField && !out.Operator.AllowsFieldComparison() {
		out.RightType = core.RightValue
		out.RightModel = ""
		out.RightField = ""
	}
	return out
}
