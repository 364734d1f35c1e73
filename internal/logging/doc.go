// Package logging provides a unified logging interface for the dataset comparator.
// It abstracts the underlying logging implementation, allowing consistent logging
// across components (orchestrator, workers, CLI) while supporting multiple backends.
package logging
