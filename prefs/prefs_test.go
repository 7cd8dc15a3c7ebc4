package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/focusmomo"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
	assert.Equal(t, focusmomo.DefaultCatalog(), p.Catalog())
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "focusmomo")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := `
focus_seconds = 3000
custom_seconds = 90
custom_label = "Reading"
long_break_every = 0
unified_mode = true
focus_category = "work"

[[categories]]
id = "work"
name = "Work"
domains = ["news.ycombinator.com", "x.com"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte(content), 0o644))

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, p.FocusSeconds)
	assert.Equal(t, 300, p.ShortBreakSeconds)
	assert.Equal(t, focusmomo.DefaultLongBreakEvery, p.LongBreakEvery)
	assert.True(t, p.UnifiedMode)
	require.NotNil(t, p.FocusCategoryID())
	assert.Equal(t, focusmomo.CategoryID("work"), *p.FocusCategoryID())
	assert.Nil(t, p.BreakCategoryID())
	require.Len(t, p.Categories, 1)
	assert.Equal(t, []string{"news.ycombinator.com", "x.com"}, p.Categories[0].Domains)

	c := p.Catalog()
	assert.Equal(t, focusmomo.SessionSpec{Duration: 3000, Label: "Focus"}, c[focusmomo.FocusSession])
	assert.Equal(t, focusmomo.SessionSpec{Duration: 90, Label: "Reading"}, c[focusmomo.CustomSession])
}

func TestLoad_MalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	require.NoError(t, os.WriteFile(path, []byte("focus_seconds = [oops"), 0o644))

	p, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), p)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	want := Default()
	want.UnifiedMode = true
	want.BreakCategory = "rest"
	want.Categories = []Category{{ID: "rest", Name: "Rest", Domains: []string{"youtube.com"}}}

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
