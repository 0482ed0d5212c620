// Package schema maps raw backing-store metadata from the introspection
// collaborator onto the compiler's semantic field types.
package schema

import (
	"strings"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// ResolveFieldType maps a raw backing-store type string and field name to a
// semantic field type using substring heuristics on the lower-cased type
// name. A field named or ending in "id", or flagged primary-key, is always
// classified identifier regardless of its raw type.
func ResolveFieldType(rawType, fieldName string, primaryKey bool) core.FieldType {
	name := strings.ToLower(fieldName)
	if primaryKey || name == "id" || strings.HasSuffix(name, "_id") {
		return core.FieldTypeIdentifier
	}

	raw := strings.ToLower(rawType)
	switch {
	case strings.Contains(raw, "money") || strings.Contains(raw, "currency"):
		return core.FieldTypeCurrency
	case strings.Contains(raw, "percent"):
		return core.FieldTypePercentage
	case strings.Contains(raw, "bool"):
		return core.FieldTypeBoolean
	case strings.Contains(raw, "date") || strings.Contains(raw, "time"):
		return core.FieldTypeDate
	case strings.Contains(raw, "int") || strings.Contains(raw, "decimal") ||
		strings.Contains(raw, "numeric") || strings.Contains(raw, "float") ||
		strings.Contains(raw, "double") || strings.Contains(raw, "real"):
		return core.FieldTypeNumber
	default:
		return core.FieldTypeString
	}
}

// FieldsFromColumns builds semantic fields from raw introspection columns.
// The first column reported as primary key keeps that flag; labels default
// to a title-cased form of the column name.
func FieldsFromColumns(columns []core.Column, primaryKey string) []core.Field {
	fields := make([]core.Field, 0, len(columns))
	for _, col := range columns {
		pk := col.Name == primaryKey
		fields = append(fields, core.Field{
			ID:         col.Name,
			Label:      labelFor(col.Name),
			Type:       ResolveFieldType(col.Type, col.Name, pk),
			Nullable:   col.Nullable,
			PrimaryKey: pk,
			RawType:    col.Type,
		})
	}
	return fields
}

// ModelFromTable builds a DataModel from table metadata. The conventional
// "id" column is treated as the primary key when present.
func ModelFromTable(meta *core.TableMetadata) core.DataModel {
	primaryKey := ""
	for _, col := range meta.Columns {
		if strings.ToLower(col.Name) == "id" {
			primaryKey = col.Name
			break
		}
	}
	return core.DataModel{
		ID:     meta.Name,
		Name:   labelFor(meta.Name),
		Table:  meta.Name,
		Fields: FieldsFromColumns(meta.Columns, primaryKey),
	}
}

// labelFor turns snake_case identifiers into display labels.
func labelFor(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
