package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Execution.Type != "sqlite" {
		t.Errorf("execution.type = %q, want sqlite", cfg.Execution.Type)
	}
	if cfg.Execution.Path != ":memory:" {
		t.Errorf("execution.path = %q, want :memory:", cfg.Execution.Path)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Limits.MaxRows != 10000 {
		t.Errorf("limits.max_rows = %d, want 10000", cfg.Limits.MaxRows)
	}
	if cfg.Polling.IntervalMS != 1500 || cfg.Polling.MaxPolls != 200 {
		t.Errorf("polling = %+v, want 1500ms / 200 polls", cfg.Polling)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
execution:
  type: postgres
  host: db.internal
  port: 5432
  database: analytics
models:
  - orders
  - refunds
limits:
  max_rows: 2500
`)

	cfg, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Execution.Type != "postgres" {
		t.Errorf("execution.type = %q, want postgres", cfg.Execution.Type)
	}
	if cfg.Execution.Host != "db.internal" || cfg.Execution.Database != "analytics" {
		t.Errorf("execution = %+v", cfg.Execution)
	}
	if len(cfg.Models) != 2 || cfg.Models[0] != "orders" {
		t.Errorf("models = %v, want [orders refunds]", cfg.Models)
	}
	if cfg.Limits.MaxRows != 2500 {
		t.Errorf("limits.max_rows = %d, want 2500", cfg.Limits.MaxRows)
	}
	// Defaults still present for keys the file omits.
	if cfg.State.Path != "reportql.db" {
		t.Errorf("state.path = %q, want default", cfg.State.Path)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "execution:\n  type: sqlite\n")
	t.Setenv("REPORTQL_EXECUTION__TYPE", "duckdb")
	t.Setenv("REPORTQL_LIMITS__MAX_ROWS", "42")

	cfg, err := Load(dir, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Execution.Type != "duckdb" {
		t.Errorf("execution.type = %q, want duckdb", cfg.Execution.Type)
	}
	if cfg.Limits.MaxRows != 42 {
		t.Errorf("limits.max_rows = %d, want 42", cfg.Limits.MaxRows)
	}
}

func TestLoad_FlagsWin(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "server:\n  addr: \":9000\"\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("server.addr", "", "listen address")
	if err := flags.Parse([]string{"--server.addr", ":7070"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(dir, flags)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("server.addr = %q, want flag value :7070", cfg.Server.Addr)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "execution:\n  type: sqlite\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if got := FindProjectRoot(nested); got != root {
		t.Errorf("FindProjectRoot = %q, want %q", got, root)
	}
	if got := FindProjectRoot(t.TempDir()); got != "" {
		t.Errorf("FindProjectRoot = %q, want empty for no config", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("empty execution.type should fail validation")
	}

	cfg.Execution.Type = "no-such-adapter"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown adapter type should fail validation")
	}
}
