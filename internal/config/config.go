// Package config resolves and loads the multiplexer's on-disk preferences:
// the keymap (Alt+key bindings for tab/pane navigation and the sticky-float
// trigger key) and a handful of frontend/daemon tunables. Every field has a
// built-in default, so a missing or partial config.yaml is never an error.
//
// Grounded on the teacher's internal/config package: the same
// sync.Once-cached directory resolution (env var -> walk-up-from-cwd
// marker-file check -> home-dir fallback) and the same
// yaml.Unmarshal-into-a-struct Load/LoadFrom shape, narrowed from h2's
// role/bridge/override surface down to the keymap + prefs this repo
// actually needs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const markerFile = ".hexa-dir.txt"

// Keymap holds the Alt+key single-byte bindings the frontend's input
// decoder resolves EventAltKey events against.
type Keymap struct {
	NextTab     string `yaml:"next_tab"`
	PrevTab     string `yaml:"prev_tab"`
	NewTab      string `yaml:"new_tab"`
	CloseTab    string `yaml:"close_tab"`
	SplitH      string `yaml:"split_horizontal"`
	SplitV      string `yaml:"split_vertical"`
	FocusNext   string `yaml:"focus_next"`
	FocusPrev   string `yaml:"focus_prev"`
	ClosePane   string `yaml:"close_pane"`
	StickyFloat string `yaml:"sticky_float"`
	Detach      string `yaml:"detach"`
}

// Prefs holds frontend/daemon tunables that don't belong in the keymap.
type Prefs struct {
	ScrollPageLines  int    `yaml:"scroll_page_lines"`
	ScrollWheelLines int    `yaml:"scroll_wheel_lines"`
	OrphanTimeout    string `yaml:"orphan_timeout"`
	Shell            string `yaml:"shell"`
}

// Config is the full contents of config.yaml.
type Config struct {
	Keymap Keymap `yaml:"keymap"`
	Prefs  Prefs  `yaml:"prefs"`
}

// Default returns the built-in configuration, used as the base that a
// loaded config.yaml is layered on top of.
func Default() *Config {
	return &Config{
		Keymap: Keymap{
			NextTab:     "n",
			PrevTab:     "p",
			NewTab:      "c",
			CloseTab:    "x",
			SplitH:      "v",
			SplitV:      "s",
			FocusNext:   "o",
			FocusPrev:   "O",
			ClosePane:   "w",
			StickyFloat: "f",
			Detach:      "d",
		},
		Prefs: Prefs{
			ScrollPageLines:  10,
			ScrollWheelLines: 3,
			OrphanTimeout:    "24h",
			Shell:            "",
		},
	}
}

// IsHexaDir checks if dir contains a valid marker file.
func IsHexaDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, markerFile))
	return err == nil && !info.IsDir()
}

// WriteMarker writes the marker file into dir.
func WriteMarker(dir string) error {
	return os.WriteFile(filepath.Join(dir, markerFile), []byte("1\n"), 0o644)
}

var (
	resolvedDir string
	resolvedErr error
	resolveOnce sync.Once
)

// ResolveDir finds the hexa config directory.
// Order: HEXA_DIR env var -> walk up CWD -> $XDG_CONFIG_HOME/hexa (or
// ~/.config/hexa) fallback. Result is cached for the process lifetime.
func ResolveDir() (string, error) {
	resolveOnce.Do(func() {
		resolvedDir, resolvedErr = resolveDir()
	})
	return resolvedDir, resolvedErr
}

// ResetResolveCache resets the cached ResolveDir result. For testing only.
func ResetResolveCache() {
	resolveOnce = sync.Once{}
	resolvedDir = ""
	resolvedErr = nil
}

func resolveDir() (string, error) {
	if dir := os.Getenv("HEXA_DIR"); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("HEXA_DIR: %w", err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err == nil {
		dir := cwd
		for {
			if IsHexaDir(dir) {
				return dir, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "hexa"), nil
}

// ConfigFilePath returns the resolved config.yaml path, or the default
// location if the directory cannot be resolved.
func ConfigFilePath() string {
	dir, err := ResolveDir()
	if err != nil {
		return filepath.Join(".", ".config", "hexa", "config.yaml")
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads config.yaml from the resolved hexa directory, merging it over
// Default(). A missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(ConfigFilePath())
}

// LoadFrom reads config.yaml from path, merging it over Default(). A
// missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	return cfg, nil
}
