// Package config loads the reportql project configuration. It is decoupled
// from CLI concerns so the server and other tools can load it directly.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/reportql/pkg/adapter"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// Config is the root project configuration loaded from reportql.yaml.
type Config struct {
	// Execution targets the database queries run against
	Execution ExecutionConfig `koanf:"execution"`

	// State locates the SQLite template/job store
	State StateConfig `koanf:"state"`

	// Server configures the HTTP execution service
	Server ServerConfig `koanf:"server"`

	// Limits bound query output
	Limits LimitsConfig `koanf:"limits"`

	// Polling tunes the async protocol client
	Polling PollingConfig `koanf:"polling"`

	// Models lists the tables exposed as queryable data models
	Models []string `koanf:"models"`

	// LogLevel is debug, info, warn, or error
	LogLevel string `koanf:"log_level"`
}

// ExecutionConfig holds the execution database target.
type ExecutionConfig struct {
	Type string `koanf:"type"` // sqlite, duckdb, postgres

	// File-based databases
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`
}

// StateConfig locates the persistence store.
type StateConfig struct {
	Path string `koanf:"path"`
}

// ServerConfig configures the HTTP execution service.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// LimitsConfig bounds query output sizes.
type LimitsConfig struct {
	// MaxRows clamps every query's LIMIT
	MaxRows int `koanf:"max_rows"`
}

// PollingConfig tunes the submit-then-poll client.
type PollingConfig struct {
	IntervalMS int `koanf:"interval_ms"`
	MaxPolls   int `koanf:"max_polls"`
}

// AdapterConfig converts the execution target to the adapter contract shape.
func (e ExecutionConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     e.Type,
		Path:     e.Path,
		Host:     e.Host,
		Port:     e.Port,
		Database: e.Database,
		User:     e.User,
		Password: e.Password,
		Schema:   e.Schema,
	}
}

// Validate checks the execution target against the adapter registry.
func (c *Config) Validate() error {
	if c.Execution.Type == "" {
		return fmt.Errorf("execution.type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(c.Execution.Type)) {
		return &adapter.UnknownAdapterError{Type: c.Execution.Type, Available: adapter.List()}
	}
	if c.Limits.MaxRows < 0 {
		return fmt.Errorf("limits.max_rows must not be negative")
	}
	return nil
}
