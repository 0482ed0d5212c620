package core

// FieldType represents the semantic type of a model field.
// It drives filter operator applicability and metric/dimension classification.
type FieldType string

// Field type constants.
const (
	FieldTypeIdentifier FieldType = "identifier"
	FieldTypeNumber     FieldType = "number"
	FieldTypeCurrency   FieldType = "currency"
	FieldTypeString     FieldType = "string"
	FieldTypeDate       FieldType = "date"
	FieldTypePercentage FieldType = "percentage"
	FieldTypeBoolean    FieldType = "boolean"
)

// IsNumeric reports whether the type can be aggregated with numeric functions.
func (t FieldType) IsNumeric() bool {
	switch t {
	case FieldTypeNumber, FieldTypeCurrency, FieldTypePercentage:
		return true
	}
	return false
}

// IsTextual reports whether the type can serve as a grouping dimension.
func (t FieldType) IsTextual() bool {
	switch t {
	case FieldTypeString, FieldTypeIdentifier, FieldTypeBoolean, FieldTypeDate:
		return true
	}
	return false
}

// Field represents a single column of a queryable data model.
type Field struct {
	// ID is the field identifier, unique within its model
	ID string `json:"id"`
	// Label is the human-readable display name
	Label string `json:"label"`
	// Type is the resolved semantic type
	Type FieldType `json:"type"`
	// Column is the backing column name (defaults to ID when empty)
	Column string `json:"column,omitempty"`
	// Nullable indicates the backing column accepts NULL
	Nullable bool `json:"nullable"`
	// PrimaryKey marks the model's primary key field
	PrimaryKey bool `json:"primaryKey"`
	// RawType is the backing-store type string as reported by introspection
	RawType string `json:"rawType,omitempty"`
}

// ColumnName returns the backing column, falling back to the field ID.
func (f Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return f.ID
}

// AssociationKind describes the cardinality of a model association.
type AssociationKind string

// Association kind constants.
const (
	AssociationHasMany   AssociationKind = "has_many"
	AssociationHasOne    AssociationKind = "has_one"
	AssociationBelongsTo AssociationKind = "belongs_to"
	AssociationManyMany  AssociationKind = "many_to_many"
)

// Association describes a relationship from one model to another,
// as reported by schema introspection.
type Association struct {
	// Target is the associated model ID
	Target string `json:"target"`
	// Kind is the association cardinality
	Kind AssociationKind `json:"kind"`
	// ForeignKey is the key column on the target side
	ForeignKey string `json:"foreignKey,omitempty"`
	// SourceKey is the key column on the source side
	SourceKey string `json:"sourceKey,omitempty"`
	// Through is the optional join table for many-to-many associations
	Through string `json:"through,omitempty"`
	// Alias is an optional display alias for the association
	Alias string `json:"alias,omitempty"`
}

// DataModel is a queryable relational entity described by the schema
// introspection collaborator. The compiler treats it as read-only metadata.
type DataModel struct {
	// ID is the model identifier (table-level name)
	ID string `json:"id"`
	// Name is the human-readable display name
	Name string `json:"name"`
	// Table is the backing table name (defaults to ID when empty)
	Table string `json:"table,omitempty"`
	// Fields is the ordered field list
	Fields []Field `json:"fields"`
	// Associations lists relationships to other models
	Associations []Association `json:"associations,omitempty"`
}

// TableName returns the backing table, falling back to the model ID.
func (m *DataModel) TableName() string {
	if m.Table != "" {
		return m.Table
	}
	return m.ID
}

// FieldByID returns the field with the given ID, or false when absent.
func (m *DataModel) FieldByID(id string) (Field, bool) {
	for _, f := range m.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// JoinKind represents the SQL join type of a configured join.
type JoinKind string

// Join kind constants.
const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinRight JoinKind = "right"
	JoinFull  JoinKind = "full"
)

// SQL returns the SQL keyword sequence for the join kind.
func (k JoinKind) SQL() string {
	switch k {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinFull:
		return "FULL OUTER JOIN"
	default:
		return "INNER JOIN"
	}
}

// JoinCondition is a directed pairing of two model fields plus a join kind.
// Its lifetime is scoped to one query configuration: it is created by user
// action and removed explicitly or when either referenced model is deselected.
type JoinCondition struct {
	// ID is the generated identity of the join
	ID string `json:"id"`
	// LeftModel and LeftField identify the left operand
	LeftModel string `json:"leftModel"`
	LeftField string `json:"leftField"`
	// RightModel and RightField identify the right operand
	RightModel string `json:"rightModel"`
	RightField string `json:"rightField"`
	// Kind is the SQL join type
	Kind JoinKind `json:"kind"`
	// Description is an optional human-readable note
	Description string `json:"description,omitempty"`
}

// References reports whether the join touches the given model on either side.
func (j JoinCondition) References(modelID string) bool {
	return j.LeftModel == modelID || j.RightModel == modelID
}
