package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Errorf("LoadFrom missing file = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadFromPartialYAMLMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `keymap:
  next_tab: "j"
prefs:
  scroll_wheel_lines: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Keymap.NextTab != "j" {
		t.Errorf("Keymap.NextTab = %q, want %q", cfg.Keymap.NextTab, "j")
	}
	if cfg.Keymap.PrevTab != "p" {
		t.Errorf("Keymap.PrevTab = %q, want default %q (unset keys keep defaults)", cfg.Keymap.PrevTab, "p")
	}
	if cfg.Prefs.ScrollWheelLines != 5 {
		t.Errorf("Prefs.ScrollWheelLines = %d, want 5", cfg.Prefs.ScrollWheelLines)
	}
	if cfg.Prefs.ScrollPageLines != 10 {
		t.Errorf("Prefs.ScrollPageLines = %d, want default 10", cfg.Prefs.ScrollPageLines)
	}
}

func TestLoadFromInvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("keymap: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestResolveDirPrefersHexaDirEnvVar(t *testing.T) {
	ResetResolveCache()
	defer ResetResolveCache()

	dir := t.TempDir()
	t.Setenv("HEXA_DIR", dir)

	got, err := ResolveDir()
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	abs, _ := filepath.Abs(dir)
	if got != abs {
		t.Errorf("ResolveDir = %q, want %q", got, abs)
	}
}

func TestResolveDirWalksUpToMarkerFile(t *testing.T) {
	ResetResolveCache()
	defer ResetResolveCache()

	root := t.TempDir()
	if err := WriteMarker(root); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HEXA_DIR", "")
	oldwd, _ := os.Getwd()
	defer os.Chdir(oldwd)
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveDir()
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	rootAbs, _ := filepath.Abs(root)
	if got != rootAbs {
		t.Errorf("ResolveDir = %q, want %q", got, rootAbs)
	}
}
