package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
admin:
  uid: owner
chatbot:
  owner_name: Jane
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("server.port default: got=%q", cfg.Server.Port)
	}
	if cfg.Session.Backend != "memory" || cfg.Session.TTLHours != 24 {
		t.Fatalf("session defaults: got=%+v", cfg.Session)
	}
	if cfg.Chatbot.TypingDelayMs != 1500 {
		t.Fatalf("typing delay default: got=%d", cfg.Chatbot.TypingDelayMs)
	}
	if cfg.Admin.UID != "owner" || cfg.Chatbot.OwnerName != "Jane" {
		t.Fatalf("file values not read: %+v %+v", cfg.Admin, cfg.Chatbot)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
database:
  driver: sqlite
`)
	t.Setenv("PORTFOLIO_SERVER_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("env override: got=%q want=%q", cfg.Server.Port, "7070")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("database.driver: got=%q", cfg.Database.Driver)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
