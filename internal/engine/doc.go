// Package engine folds batches of builtin calls.
//
// A batch is a list of Requests in text form. The engine parses each one,
// folds it with a fold.Folder on a bounded pool of goroutines, and returns
// the outcomes in request order, stamped with a logical seq from Clock.
// Runs are named by a RunIDGenerator (UUIDv7 in production) and may be
// journaled; Replay re-folds a journaled run to check that folding is
// deterministic.
//
// Outcome counts and timings go to a private Prometheus registry.
package engine
