// Package services holds the error markers and context helpers shared by the
// conversion pipeline.
//
// Errors raised while driving SoX or delivering outputs are wrapped with Wrap so
// callers can classify them with errors.Is: ErrStopping marks a cancellation
// unwind, everything else is a failure. The context helpers stamp job ids, file
// indexes, and stage names so log lines carry them automatically.
package services
