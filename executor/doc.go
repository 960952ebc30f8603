// Package executor runs independent tasks with bounded concurrency,
// per-attempt timeouts and linear-backoff retries.
//
// An Executor owns an ants worker pool whose size is the hard cap on tasks
// running at once, across every caller sharing the Executor. Tasks are
// submitted through generic helpers:
//
//   - RunAll: all-or-propagate; the first failure cancels the rest
//   - RunBestEffort: one Result per task, failures isolated
//   - RunBatched: priority-ordered groups run one after another
//   - RunStream: tasks pulled from an iterator, at most N in flight
//
// Helpers must not be called from inside a running task: a saturated pool
// would block the submission forever.
package executor
