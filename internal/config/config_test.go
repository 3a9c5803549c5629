package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults_Valid(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
endpoints:
  chatWebhook: "http://localhost:9999/webhook/bank"
statistics:
  timeoutSeconds: 2
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoints.ChatWebhook != "http://localhost:9999/webhook/bank" {
		t.Errorf("chat webhook not overridden: %s", cfg.Endpoints.ChatWebhook)
	}
	if cfg.Statistics.TimeoutSeconds != 2 {
		t.Errorf("timeout not overridden: %d", cfg.Statistics.TimeoutSeconds)
	}
	// Untouched keys keep their defaults.
	if cfg.Endpoints.GoalWebhook == "" {
		t.Error("goal webhook default lost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefaults_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Statistics.DefaultUserID == "" {
		t.Error("expected defaults when file missing")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("BA_TEST_URL", "http://example.test")

	got := ExpandEnvVars("url: ${BA_TEST_URL}")
	if got != "url: http://example.test" {
		t.Errorf("unexpected expansion: %s", got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	got := ExpandEnvVars("url: ${BA_UNSET_VAR:-http://fallback.test}")
	if got != "url: http://fallback.test" {
		t.Errorf("unexpected expansion: %s", got)
	}
}

func TestExpandEnvVars_UnsetNoDefault(t *testing.T) {
	got := ExpandEnvVars("url: ${BA_UNSET_VAR}")
	if got != "url: ${BA_UNSET_VAR}" {
		t.Errorf("unset var without default should stay verbatim: %s", got)
	}
}

func TestValidate_BadTimeout(t *testing.T) {
	cfg := Defaults()
	cfg.Statistics.TimeoutSeconds = 0
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for zero timeout")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BANKASSIST_STATS_USER", "11111111-2222-3333-4444-555555555555")

	cfg, err := LoadOrDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Statistics.DefaultUserID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("env override not applied: %s", cfg.Statistics.DefaultUserID)
	}
}
