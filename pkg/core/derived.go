package core

import "encoding/json"

// DerivedFieldKind distinguishes row-level from aggregate derived fields.
type DerivedFieldKind string

// Derived field kind constants.
const (
	DerivedRowLevel  DerivedFieldKind = "row"
	DerivedAggregate DerivedFieldKind = "aggregate"
)

// DerivedFieldScope controls where a derived field is visible.
type DerivedFieldScope string

// Derived field scope constants.
const (
	ScopeTemplate  DerivedFieldScope = "template"
	ScopeWorkspace DerivedFieldScope = "workspace"
)

// DerivedFieldStatus tracks whether a derived field's referenced models are
// all present in the active selection. Reconciliation is the only writer.
type DerivedFieldStatus string

// Derived field status constants.
const (
	DerivedActive DerivedFieldStatus = "active"
	DerivedStale  DerivedFieldStatus = "stale"
)

// DerivedField is a named, reusable expression computing a value from one or
// more base model fields. The parsed metadata (AST, referenced models, join
// dependencies) is populated at creation time and carried alongside the
// expression text.
type DerivedField struct {
	// ID is the derived field identifier
	ID string `json:"id"`
	// Name is the human-readable display name
	Name string `json:"name"`
	// Expression is the raw expression text, e.g. "orders.total - refunds.amount"
	Expression string `json:"expression"`
	// Kind distinguishes row-level from aggregate fields
	Kind DerivedFieldKind `json:"kind"`
	// Scope controls template-local vs workspace sharing
	Scope DerivedFieldScope `json:"scope"`
	// Status is active or stale; maintained by reconciliation only
	Status DerivedFieldStatus `json:"status"`
	// Visible controls inclusion in query compilation independent of staleness
	Visible bool `json:"visible"`

	// AST is the parsed expression tree, nil when the expression never parsed
	AST ExprNode `json:"-" yaml:"-"`
	// ReferencedModels is the set of model IDs the expression references
	ReferencedModels []string `json:"referencedModels,omitempty"`
	// ReferencedFields maps model ID to the field IDs referenced on that model
	ReferencedFields map[string][]string `json:"referencedFields,omitempty"`
	// JoinDependencies is the inferred set of unordered model pairs that must
	// be joined for the expression to be valid
	JoinDependencies []ModelPair `json:"joinDependencies,omitempty"`

	// ModelGraphSignature is an opaque cache token owned by the execution
	// service, passed through unmodified
	ModelGraphSignature string `json:"modelGraphSignature,omitempty"`
	// CompiledSQLHash is an opaque cache token owned by the execution service
	CompiledSQLHash string `json:"compiledSqlHash,omitempty"`
}

// ModelPair is an unordered pair of model IDs. Canonical form has A <= B.
type ModelPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Key returns the canonical "a::b" membership key with sides sorted.
func (p ModelPair) Key() string {
	if p.A <= p.B {
		return p.A + "::" + p.B
	}
	return p.B + "::" + p.A
}

// Equal reports pair equality ignoring side order.
func (p ModelPair) Equal(other ModelPair) bool {
	return p.Key() == other.Key()
}

// DerivedPayload is the per-field entry attached to a QueryConfig for fields
// that survive visibility and staleness gating.
type DerivedPayload struct {
	ID                  string      `json:"id"`
	Alias               string      `json:"alias"`
	ExpressionAST       ExprNode    `json:"-"`
	ReferencedModels    []string    `json:"referencedModels"`
	JoinDependencies    []ModelPair `json:"joinDependencies"`
	ModelGraphSignature string      `json:"modelGraphSignature,omitempty"`
	CompiledSQLHash     string      `json:"compiledSqlHash,omitempty"`
}

// derivedPayloadWire mirrors DerivedPayload with the AST as raw JSON so the
// type-tagged envelope encoding survives the transport boundary.
type derivedPayloadWire struct {
	ID                  string          `json:"id"`
	Alias               string          `json:"alias"`
	ExpressionAST       json.RawMessage `json:"expressionAst"`
	ReferencedModels    []string        `json:"referencedModels"`
	JoinDependencies    []ModelPair     `json:"joinDependencies"`
	ModelGraphSignature string          `json:"modelGraphSignature,omitempty"`
	CompiledSQLHash     string          `json:"compiledSqlHash,omitempty"`
}

// MarshalJSON encodes the payload with a type-tagged expression tree.
func (p DerivedPayload) MarshalJSON() ([]byte, error) {
	ast, err := MarshalExpr(p.ExpressionAST)
	if err != nil {
		return nil, err
	}
	return json.Marshal(derivedPayloadWire{
		ID:                  p.ID,
		Alias:               p.Alias,
		ExpressionAST:       ast,
		ReferencedModels:    p.ReferencedModels,
		JoinDependencies:    p.JoinDependencies,
		ModelGraphSignature: p.ModelGraphSignature,
		CompiledSQLHash:     p.CompiledSQLHash,
	})
}

// UnmarshalJSON decodes the payload, rebuilding the expression tree.
func (p *DerivedPayload) UnmarshalJSON(data []byte) error {
	var wire derivedPayloadWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	ast, err := UnmarshalExpr(wire.ExpressionAST)
	if err != nil {
		return err
	}
	*p = DerivedPayload{
		ID:                  wire.ID,
		Alias:               wire.Alias,
		ExpressionAST:       ast,
		ReferencedModels:    wire.ReferencedModels,
		JoinDependencies:    wire.JoinDependencies,
		ModelGraphSignature: wire.ModelGraphSignature,
		CompiledSQLHash:     wire.CompiledSQLHash,
	}
	return nil
}
