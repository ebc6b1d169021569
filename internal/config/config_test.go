package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Policy.Validate(); err != nil {
		t.Fatalf("default policy should validate: %v", err)
	}
	if _, err := cfg.Filter.ToFilterConfig(); err != nil {
		t.Fatalf("default filter document should convert cleanly: %v", err)
	}
}

func TestLoadConfigFallsBackToDefaultsWhenMissing(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if cfg.Listen != ":8090" {
		t.Fatalf("expected default listen address, got %q", cfg.Listen)
	}
}

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "listen_addr: \":9100\"\npolicy:\n  thermal_limit_c: 90\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write fixture config: %v", err)
	}

	cfg := LoadConfig(path)
	if cfg.Listen != ":9100" {
		t.Fatalf("expected listen address from file, got %q", cfg.Listen)
	}
	if cfg.Policy.ThermalLimitC != 90 {
		t.Fatalf("expected thermal limit from file, got %v", cfg.Policy.ThermalLimitC)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen_addr: \":9100\"\n"), 0644)

	os.Setenv("FFB_LISTEN_ADDR", ":9200")
	defer os.Unsetenv("FFB_LISTEN_ADDR")

	cfg := LoadConfig(path)
	if cfg.Listen != ":9200" {
		t.Fatalf("expected env override to win, got %q", cfg.Listen)
	}
}

func TestUpdateFromJSONDeepMergesAndPreservesOtherFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.OvercurrentA = 12.0

	patch := []byte(`{"policy":{"thermalLimitC":95}}`)
	if err := cfg.UpdateFromJSON(patch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Policy.ThermalLimitC != 95 {
		t.Fatalf("expected patched thermal limit, got %v", cfg.Policy.ThermalLimitC)
	}
	if cfg.Policy.OvercurrentA != 12.0 {
		t.Fatalf("expected unrelated field preserved, got %v", cfg.Policy.OvercurrentA)
	}
}

func TestPolicyValidateRejectsNonsense(t *testing.T) {
	p := DefaultControlPolicy()
	p.ThermalLimitC = -1
	if err := p.Validate(); err == nil {
		t.Fatalf("expected validation error for negative thermal limit")
	}
}

func TestFilterDocumentUnknownResponseCurveKindRejected(t *testing.T) {
	doc := DefaultFilterDocument()
	doc.ResponseCurve.Kind = "quadratic-ish"
	if _, err := doc.ToFilterConfig(); err == nil {
		t.Fatalf("expected an error for an unknown response curve kind")
	}
}
