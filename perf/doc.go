// Package perf assembles the performance layer shared by every pipeline
// run: the task executor, the request deduplicator, the adaptive timeout
// controller and the answer and document caches.
//
// The Manager exposes the management operations (stats, clear, cleanup)
// addressed by component name.
package perf
