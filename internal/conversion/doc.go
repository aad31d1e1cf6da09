// Package conversion runs batch conversion jobs.
//
// A Converter accepts one Job at a time. Its worker probes every input,
// primes the time estimator, and then walks the inputs in order: each file is
// copied to scratch, converted by the pipeline, and either delivered directly
// or parked in the merge buffer until the planner decides to flush. Progress
// is published as a stream of Events that ends with exactly one
// EventFinished.
//
// Cancel may be called from any goroutine. It cancels the job context and
// terminates the running SoX process; the worker unwinds, discards the
// current file, removes its scratch directory, and reports
// OutcomeCancelled.
package conversion
