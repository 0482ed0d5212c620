package core

// FilterOperator is one of the fixed predicate operators.
type FilterOperator string

// Filter operator constants.
const (
	OpEquals     FilterOperator = "equals"
	OpNotEquals  FilterOperator = "not_equals"
	OpGt         FilterOperator = "gt"
	OpGte        FilterOperator = "gte"
	OpLt         FilterOperator = "lt"
	OpLte        FilterOperator = "lte"
	OpContains   FilterOperator = "contains"
	OpStartsWith FilterOperator = "starts_with"
	OpEndsWith   FilterOperator = "ends_with"
	OpIsNull     FilterOperator = "is_null"
	OpIsNotNull  FilterOperator = "is_not_null"
	OpIsTrue     FilterOperator = "is_true"
	OpIsFalse    FilterOperator = "is_false"
)

// ComparisonSymbol returns the direct SQL symbol for the six comparison
// operators, or false for operators without one.
func (op FilterOperator) ComparisonSymbol() (string, bool) {
	switch op {
	case OpEquals:
		return "=", true
	case OpNotEquals:
		return "<>", true
	case OpGt:
		return ">", true
	case OpGte:
		return ">=", true
	case OpLt:
		return "<", true
	case OpLte:
		return "<=", true
	}
	return "", false
}

// RequiresValue reports whether the operator needs a right operand.
func (op FilterOperator) RequiresValue() bool {
	switch op {
	case OpIsNull, OpIsNotNull, OpIsTrue, OpIsFalse:
		return false
	}
	return true
}

// AllowsFieldComparison reports whether the operator may compare against
// another field instead of a literal.
func (op FilterOperator) AllowsFieldComparison() bool {
	_, ok := op.ComparisonSymbol()
	return ok
}

// ValueKind declares how a filter's literal is coerced.
type ValueKind string

// Value kind constants.
const (
	ValueString  ValueKind = "string"
	ValueNumber  ValueKind = "number"
	ValueDate    ValueKind = "date"
	ValueBoolean ValueKind = "boolean"
)

// RightType distinguishes a literal right operand from a field reference.
type RightType string

// Right operand type constants.
const (
	RightValue RightType = "value"
	RightField RightType = "field"
)

// ReportFilter is a typed predicate descriptor assembled by the user.
type ReportFilter struct {
	// ID is the filter identity within one configuration
	ID string `json:"id"`
	// Model and Field identify the left operand
	Model string `json:"model"`
	Field string `json:"field"`
	// Operator is one of the fixed operator set
	Operator FilterOperator `json:"operator"`
	// RightType selects literal vs field comparison
	RightType RightType `json:"rightType"`
	// Value is the literal right operand (RightType == value)
	Value string `json:"value,omitempty"`
	// RightModel and RightField identify the compared field (RightType == field)
	RightModel string `json:"rightModel,omitempty"`
	RightField string `json:"rightField,omitempty"`
	// ValueKind declares literal coercion
	ValueKind ValueKind `json:"valueKind"`
}
