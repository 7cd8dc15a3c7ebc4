// Package prefs handles focusmomo user preferences persistence.
// Preferences are stored in ~/.config/focusmomo/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/benjamonnguyen/focusmomo"
)

type Category struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name"`
	Domains []string `toml:"domains"`
}

type Prefs struct {
	FocusSeconds      int    `toml:"focus_seconds"`
	ShortBreakSeconds int    `toml:"short_break_seconds"`
	LongBreakSeconds  int    `toml:"long_break_seconds"`
	CustomSeconds     int    `toml:"custom_seconds"`
	CustomLabel       string `toml:"custom_label,omitempty"`
	LongBreakEvery    int    `toml:"long_break_every"`

	UnifiedMode   bool   `toml:"unified_mode"`
	FocusCategory string `toml:"focus_category,omitempty"`
	BreakCategory string `toml:"break_category,omitempty"`

	Categories []Category `toml:"categories,omitempty"`
}

const defaultPrefsPath = "~/.config/focusmomo/prefs.toml"

func DefaultPath() string {
	return defaultPrefsPath
}

func Default() Prefs {
	c := focusmomo.DefaultCatalog()
	return Prefs{
		FocusSeconds:      c[focusmomo.FocusSession].Duration,
		ShortBreakSeconds: c[focusmomo.ShortBreakSession].Duration,
		LongBreakSeconds:  c[focusmomo.LongBreakSession].Duration,
		CustomSeconds:     c[focusmomo.CustomSession].Duration,
		LongBreakEvery:    focusmomo.DefaultLongBreakEvery,
	}
}

// Load reads preferences from path, falling back to defaults when the file is missing.
// A malformed file yields defaults together with the decode error.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	b, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("read prefs: %w", err)
	}

	p := Default()
	if err := toml.Unmarshal(b, &p); err != nil {
		return Default(), fmt.Errorf("decode prefs %s: %w", resolved, err)
	}
	return p.normalize(), nil
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	b, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, b, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// Catalog builds the session catalog. Non-positive durations keep their defaults.
func (p Prefs) Catalog() focusmomo.SessionCatalog {
	c := focusmomo.DefaultCatalog()
	set := func(kind focusmomo.SessionKind, secs int) {
		if secs > 0 {
			spec := c[kind]
			spec.Duration = secs
			c[kind] = spec
		}
	}
	set(focusmomo.FocusSession, p.FocusSeconds)
	set(focusmomo.ShortBreakSession, p.ShortBreakSeconds)
	set(focusmomo.LongBreakSession, p.LongBreakSeconds)
	set(focusmomo.CustomSession, p.CustomSeconds)
	if label := strings.TrimSpace(p.CustomLabel); label != "" {
		spec := c[focusmomo.CustomSession]
		spec.Label = label
		c[focusmomo.CustomSession] = spec
	}
	return c
}

func (p Prefs) FocusCategoryID() *focusmomo.CategoryID {
	return categoryID(p.FocusCategory)
}

func (p Prefs) BreakCategoryID() *focusmomo.CategoryID {
	return categoryID(p.BreakCategory)
}

func categoryID(s string) *focusmomo.CategoryID {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	id := focusmomo.CategoryID(s)
	return &id
}

func (p Prefs) normalize() Prefs {
	if p.LongBreakEvery <= 0 {
		p.LongBreakEvery = focusmomo.DefaultLongBreakEvery
	}
	return p
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
