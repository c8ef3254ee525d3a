package config

import "testing"

func TestLoadFromMap(t *testing.T) {
	input := map[string]any{
		"persistence": map[string]any{
			"driver": "memory",
		},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Persistence.Driver != "memory" {
		t.Fatalf("expected driver memory, got %s", cfg.Persistence.Driver)
	}
}

func TestLoadFromStruct(t *testing.T) {
	input := Config{
		Persistence: PersistenceConfig{Driver: "sqlite", DSN: "file:demo.db"},
	}

	cfg, err := Load(input)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Persistence.Driver != "sqlite" {
		t.Fatalf("expected driver sqlite, got %s", cfg.Persistence.Driver)
	}
	if cfg.Persistence.DSN != "file:demo.db" {
		t.Fatalf("expected dsn preserved, got %s", cfg.Persistence.DSN)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Persistence.Driver != "sqlite" {
		t.Fatalf("expected default driver sqlite, got %s", cfg.Persistence.Driver)
	}
	if cfg.Persistence.DSN == "" {
		t.Fatal("expected default DSN populated")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	input := Config{
		Persistence: PersistenceConfig{Driver: "postgres", DSN: "postgres://localhost"},
	}

	if _, err := Load(input); err == nil {
		t.Fatal("expected unknown driver to be rejected")
	}
}
