// Package ui provides the colour palette for the command-line output. A
// Palette is an immutable value built once per run; there is no process-wide
// theme state.
package ui
