package core

import "database/sql"

// AdapterConfig holds connection configuration for a database adapter.
type AdapterConfig struct {
	// Type selects the adapter: sqlite, duckdb, postgres
	Type string `mapstructure:"type"`
	// Path is the database file path for embedded engines (":memory:" allowed)
	Path string `mapstructure:"path"`
	// Host/Port/Database/User/Password apply to server engines
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Schema is the default schema for metadata lookups
	Schema string `mapstructure:"schema"`
}

// Column describes one column of a backing table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata describes a backing table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows so adapter consumers do not import database/sql.
type Rows struct {
	*sql.Rows
}
