package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsValidatesModus(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.General.Modus != "Box" {
		t.Errorf("General.Modus = %q, want %q from embedded defaults", cfg.General.Modus, "Box")
	}
}

func TestLoadRejectsUnknownModus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("general:\n  modus: Potato\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should reject an unrecognized modus value")
	}
}

func TestLoadOverlayOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	if err := os.WriteFile(path, []byte("general:\n  modus: Sphere\n  nevents: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.General.Modus != "Sphere" {
		t.Errorf("General.Modus = %q, want Sphere", cfg.General.Modus)
	}
	if cfg.General.Nevents != 42 {
		t.Errorf("General.Nevents = %d, want 42", cfg.General.Nevents)
	}
	// Keys the overlay didn't touch should still come from the embedded
	// defaults.
	if cfg.Modi.Box.Length != 10.0 {
		t.Errorf("Modi.Box.Length = %v, want 10.0 from embedded defaults", cfg.Modi.Box.Length)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/does-not-exist.yaml"); err == nil {
		t.Error("Load() should error on a missing overlay file")
	}
}

func TestComputeDerivedDTFromGridCellSize(t *testing.T) {
	cfg := &Config{CollisionTerm: CollisionTermConfig{GridCellSize: 2.5}}
	cfg.computeDerived()
	if cfg.Derived.DT != 0.5 {
		t.Errorf("Derived.DT = %v, want 0.5 (GridCellSize/5)", cfg.Derived.DT)
	}
}

func TestComputeDerivedDTFallback(t *testing.T) {
	cfg := &Config{}
	cfg.computeDerived()
	if cfg.Derived.DT != 0.1 {
		t.Errorf("Derived.DT = %v, want fallback 0.1 when GridCellSize is unset", cfg.Derived.DT)
	}
}

func TestInitAndCfgRoundTrip(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init(\"\"): %v", err)
	}
	if Cfg().General.Modus == "" {
		t.Error("Cfg() returned a zero-value config after Init")
	}
}
