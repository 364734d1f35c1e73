package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Theme defines the colours of each output category.
type Theme struct {
	// Name is the identifier of the theme.
	Name    string
	Pass    lipgloss.TerminalColor
	Fail    lipgloss.TerminalColor
	Skip    lipgloss.TerminalColor
	Heading lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:    "dark",
		Pass:    lipgloss.Color("82"),
		Fail:    lipgloss.Color("196"),
		Skip:    lipgloss.Color("220"),
		Heading: lipgloss.Color("39"),
		Dim:     lipgloss.Color("245"),
	}

	// LightTheme uses darker colors for light backgrounds.
	LightTheme = Theme{
		Name:    "light",
		Pass:    lipgloss.Color("28"),
		Fail:    lipgloss.Color("124"),
		Skip:    lipgloss.Color("130"),
		Heading: lipgloss.Color("27"),
		Dim:     lipgloss.Color("240"),
	}
)

// ThemeByName returns the named theme; unknown names yield DarkTheme.
func ThemeByName(name string) Theme {
	if name == LightTheme.Name {
		return LightTheme
	}
	return DarkTheme
}

// Palette renders styled labels. The zero value renders plain text.
type Palette struct {
	enabled bool
	pass    lipgloss.Style
	fail    lipgloss.Style
	skip    lipgloss.Style
	heading lipgloss.Style
	dim     lipgloss.Style
}

// NewPalette builds a palette for w. When enabled is false every method
// returns its input unchanged.
func NewPalette(w io.Writer, theme Theme, enabled bool) Palette {
	r := lipgloss.NewRenderer(w)
	if enabled {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return Palette{
		enabled: enabled,
		pass:    r.NewStyle().Foreground(theme.Pass).Bold(true),
		fail:    r.NewStyle().Foreground(theme.Fail).Bold(true),
		skip:    r.NewStyle().Foreground(theme.Skip),
		heading: r.NewStyle().Foreground(theme.Heading).Bold(true),
		dim:     r.NewStyle().Foreground(theme.Dim),
	}
}

// Enabled reports whether the palette emits colour.
func (p Palette) Enabled() bool { return p.enabled }

func (p Palette) render(s lipgloss.Style, text string) string {
	if !p.enabled {
		return text
	}
	return s.Render(text)
}

// Pass styles a passing label.
func (p Palette) Pass(text string) string { return p.render(p.pass, text) }

// Fail styles a failing label.
func (p Palette) Fail(text string) string { return p.render(p.fail, text) }

// Skip styles a skipped label.
func (p Palette) Skip(text string) string { return p.render(p.skip, text) }

// Heading styles a section heading.
func (p Palette) Heading(text string) string { return p.render(p.heading, text) }

// Dim styles secondary text.
func (p Palette) Dim(text string) string { return p.render(p.dim, text) }

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorEnabled decides whether output to w is coloured. It respects the
// --no-color flag and the NO_COLOR environment variable
// (https://no-color.org/), and never colours a non-terminal.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return IsTerminal(w)
}
