package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/reportql/pkg/adapter"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// Introspector builds DataModel metadata from a live database through an
// adapter. It stands in for the external schema-introspection collaborator
// when reportql runs against a local database.
type Introspector struct {
	db     adapter.Adapter
	logger *slog.Logger
}

// NewIntrospector creates an introspector over a connected adapter.
func NewIntrospector(db adapter.Adapter, logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Introspector{db: db, logger: logger}
}

// Models introspects the given tables and returns them as data models.
func (in *Introspector) Models(ctx context.Context, tables []string) ([]core.DataModel, error) {
	models := make([]core.DataModel, 0, len(tables))
	for _, table := range tables {
		meta, err := in.db.GetTableMetadata(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("introspect table %s: %w", table, err)
		}
		model := ModelFromTable(meta)
		in.logger.Debug("introspected model", "model", model.ID, "fields", len(model.Fields))
		models = append(models, model)
	}
	return models, nil
}

// Catalog is a lookup over introspected (or externally supplied) models.
type Catalog struct {
	models map[string]*core.DataModel
	order  []string
}

// NewCatalog builds a catalog preserving model order.
func NewCatalog(models []core.DataModel) *Catalog {
	c := &Catalog{models: make(map[string]*core.DataModel, len(models))}
	for i := range models {
		m := &models[i]
		if _, ok := c.models[m.ID]; ok {
			continue
		}
		c.models[m.ID] = m
		c.order = append(c.order, m.ID)
	}
	return c
}

// Model returns the model with the given ID.
func (c *Catalog) Model(id string) (*core.DataModel, bool) {
	m, ok := c.models[id]
	return m, ok
}

// IDs returns model IDs in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
