// Package derived manages derived-field lifecycle: creation with parsed
// metadata, and staleness reconciliation against the active model selection.
package derived

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/leapstack-labs/reportql/internal/expr"
	"github.com/leapstack-labs/reportql/internal/graph"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// New parses the expression and builds a derived field with its referenced
// model set, per-model field sets, and inferred join dependencies populated.
// The field starts active and visible.
func New(name, expression string, kind core.DerivedFieldKind, scope core.DerivedFieldScope) (*core.DerivedField, error) {
	res, err := expr.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse derived field %q: %w", name, err)
	}

	return &core.DerivedField{
		ID:               uuid.New().String(),
		Name:             name,
		Expression:       expression,
		Kind:             kind,
		Scope:            scope,
		Status:           core.DerivedActive,
		Visible:          true,
		AST:              res.AST,
		ReferencedModels: res.ReferencedModels,
		ReferencedFields: res.ReferencedFields,
		JoinDependencies: graph.InferJoinPairs(res.ReferencedModels),
	}, nil
}

// Reconcile recomputes the staleness status of every field against the active
// model selection. A field is stale iff any of its referenced models is
// missing from the selection; a field with zero referenced models is never
// stale. Fields whose status is already correct are returned as the same
// pointer so callers can cheaply detect "no change"; corrected fields are
// returned as copies. The operation is idempotent and never mutates inputs.
func Reconcile(fields []*core.DerivedField, activeModels []string) []*core.DerivedField {
	active := make(map[string]struct{}, len(activeModels))
	for _, id := range activeModels {
		active[id] = struct{}{}
	}

	out := make([]*core.DerivedField, len(fields))
	for i, field := range fields {
		want := core.DerivedActive
		for _, model := range effectiveModels(field) {
			if _, ok := active[model]; !ok {
				want = core.DerivedStale
				break
			}
		}

		if field.Status == want {
			out[i] = field
			continue
		}

		updated := *field
		updated.Status = want
		out[i] = &updated
	}
	return out
}

// effectiveModels returns the field's referenced models, preferring the
// stored set, then a strict re-parse, then the permissive scan. The fallback
// keeps reconciliation from crashing on malformed-but-previously-saved
// expressions.
func effectiveModels(field *core.DerivedField) []string {
	if field.ReferencedModels != nil {
		return field.ReferencedModels
	}
	if res, err := expr.Parse(field.Expression); err == nil {
		return res.ReferencedModels
	}
	return expr.ScanModelRefs(field.Expression)
}
