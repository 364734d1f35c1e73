package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPaletteDisabled(t *testing.T) {
	t.Parallel()
	p := NewPalette(&bytes.Buffer{}, DarkTheme, false)
	if p.Enabled() {
		t.Fatal("palette should be disabled")
	}
	for _, got := range []string{p.Pass("PASS"), p.Fail("FAIL"), p.Skip("SKIP"), p.Heading("H"), p.Dim("d")} {
		if strings.Contains(got, "\x1b[") {
			t.Errorf("disabled palette emitted escape codes: %q", got)
		}
	}
	var zero Palette
	if zero.Fail("FAIL") != "FAIL" {
		t.Error("zero palette should render plain text")
	}
}

func TestPaletteEnabled(t *testing.T) {
	t.Parallel()
	p := NewPalette(&bytes.Buffer{}, DarkTheme, true)
	got := p.Fail("FAIL")
	if !strings.Contains(got, "FAIL") || !strings.Contains(got, "\x1b[") {
		t.Errorf("enabled palette should style the label, got %q", got)
	}
}

func TestThemeByName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want string
	}{
		{"light", "light"},
		{"dark", "dark"},
		{"unknown", "dark"},
	}
	for _, tt := range tests {
		if got := ThemeByName(tt.name).Name; got != tt.want {
			t.Errorf("ThemeByName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestColorEnabled(t *testing.T) {
	// Not parallel: mutates the environment.
	if ColorEnabled(&bytes.Buffer{}, false) {
		t.Error("a buffer is not a terminal")
	}
	if ColorEnabled(&bytes.Buffer{}, true) {
		t.Error("--no-color must disable colour")
	}
	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(&bytes.Buffer{}, false) {
		t.Error("NO_COLOR must disable colour")
	}
}
