// Package orchestration drives one comparison run: structure checks,
// classification, partitioning, the fixed and growth worker waves and the
// final aggregation. Presentation stays outside through the Observer and
// ProgressReporter interfaces.
package orchestration
