package query

import "github.com/leapstack-labs/reportql/pkg/core"

// Column is one available output column of the current selection. Visual
// aliases reference columns by their "model.field" key; the output alias is
// the bare field ID unless another model already claimed it.
type Column struct {
	Model string
	Field string
	Alias string
	Type  core.FieldType
}

// Key returns the "model.field" reference key.
func (c Column) Key() string {
	return c.Model + "." + c.Field
}

// columns flattens the selection into the available column list, in model
// then field order. Unknown models and fields are reported as errors.
func (b *Builder) columns(sel Selection) ([]Column, []string) {
	var out []Column
	var errs []string
	seen := make(map[string]bool)

	for _, modelID := range sel.Models {
		model, ok := b.catalog.Model(modelID)
		if !ok {
			errs = append(errs, "unknown model "+modelID)
			continue
		}

		picks := sel.Fields[modelID]
		if len(picks) == 0 {
			for _, f := range model.Fields {
				out = append(out, makeColumn(seen, modelID, f))
			}
			continue
		}
		for _, fieldID := range picks {
			f, ok := model.FieldByID(fieldID)
			if !ok {
				errs = append(errs, "unknown field "+modelID+"."+fieldID)
				continue
			}
			out = append(out, makeColumn(seen, modelID, f))
		}
	}
	return out, errs
}

func makeColumn(seen map[string]bool, modelID string, f core.Field) Column {
	alias := f.ID
	if seen[alias] {
		alias = modelID + "_" + f.ID
	}
	seen[alias] = true
	return Column{Model: modelID, Field: f.ID, Alias: alias, Type: f.Type}
}

// resolveColumn finds the column referenced by a "model.field" key. An empty
// key resolves to nothing.
func resolveColumn(columns []Column, key string) (Column, bool) {
	if key == "" {
		return Column{}, false
	}
	for _, c := range columns {
		if c.Key() == key {
			return c, true
		}
	}
	return Column{}, false
}
