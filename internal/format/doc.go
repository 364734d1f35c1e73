// Package format provides the small text formatters shared by the CLI:
// durations, counts, ETAs and progress bars.
package format
