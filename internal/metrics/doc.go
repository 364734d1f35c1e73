// Package metrics records comparison runs as Prometheus metrics on a
// private registry and writes them in the node-exporter textfile format.
package metrics
