package schema

import (
	"testing"

	"github.com/leapstack-labs/reportql/pkg/core"
)

func TestResolveFieldType(t *testing.T) {
	tests := []struct {
		name       string
		rawType    string
		fieldName  string
		primaryKey bool
		want       core.FieldType
	}{
		{"id name wins over raw type", "bigint", "id", false, core.FieldTypeIdentifier},
		{"foreign key suffix", "integer", "order_id", false, core.FieldTypeIdentifier},
		{"primary key flag wins", "varchar", "sku", true, core.FieldTypeIdentifier},
		{"integer", "integer", "quantity", false, core.FieldTypeNumber},
		{"decimal", "DECIMAL(10,2)", "weight", false, core.FieldTypeNumber},
		{"double precision", "double precision", "score", false, core.FieldTypeNumber},
		{"money", "money", "total", false, core.FieldTypeCurrency},
		{"boolean", "BOOLEAN", "active", false, core.FieldTypeBoolean},
		{"timestamp", "timestamp with time zone", "created_at", false, core.FieldTypeDate},
		{"date", "date", "shipped_on", false, core.FieldTypeDate},
		{"percent", "percent", "discount", false, core.FieldTypePercentage},
		{"varchar falls through to string", "varchar(255)", "name", false, core.FieldTypeString},
		{"unknown raw type is string", "blob", "payload", false, core.FieldTypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFieldType(tt.rawType, tt.fieldName, tt.primaryKey)
			if got != tt.want {
				t.Errorf("ResolveFieldType(%q, %q, %v) = %s, want %s",
					tt.rawType, tt.fieldName, tt.primaryKey, got, tt.want)
			}
		})
	}
}

func TestModelFromTable(t *testing.T) {
	meta := &core.TableMetadata{
		Schema: "main",
		Name:   "orders",
		Columns: []core.Column{
			{Name: "id", Type: "INTEGER", Position: 0},
			{Name: "total", Type: "REAL", Nullable: true, Position: 1},
			{Name: "created_at", Type: "TEXT", Position: 2},
		},
	}

	model := ModelFromTable(meta)

	if model.ID != "orders" {
		t.Errorf("ID = %q, want orders", model.ID)
	}
	if model.Name != "Orders" {
		t.Errorf("Name = %q, want Orders", model.Name)
	}
	idField, ok := model.FieldByID("id")
	if !ok || !idField.PrimaryKey {
		t.Error("id field should be flagged primary key")
	}
	if idField.Type != core.FieldTypeIdentifier {
		t.Errorf("id type = %s, want identifier", idField.Type)
	}
	total, _ := model.FieldByID("total")
	if total.Type != core.FieldTypeNumber {
		t.Errorf("total type = %s, want number", total.Type)
	}
	if !total.Nullable {
		t.Error("total should be nullable")
	}
}

func TestCatalog(t *testing.T) {
	catalog := NewCatalog([]core.DataModel{
		{ID: "orders"},
		{ID: "refunds"},
		{ID: "orders"}, // duplicate ignored
	})

	if _, ok := catalog.Model("orders"); !ok {
		t.Error("orders should be present")
	}
	if _, ok := catalog.Model("missing"); ok {
		t.Error("missing model should not resolve")
	}
	ids := catalog.IDs()
	if len(ids) != 2 || ids[0] != "orders" || ids[1] != "refunds" {
		t.Errorf("IDs = %v, want [orders refunds]", ids)
	}
}

func TestLabelFor(t *testing.T) {
	if got := labelFor("created_at"); got != "Created At" {
		t.Errorf("labelFor = %q, want %q", got, "Created At")
	}
}
