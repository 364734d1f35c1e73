// Package compare holds the comparison engine: the variable classifier, the
// work units built from a partition plan, the worker that executes one unit
// against its own dataset handles, the order-independent aggregator and the
// structural checks that run before any worker is started.
package compare
