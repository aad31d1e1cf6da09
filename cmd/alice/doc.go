// Package main hosts the Alice CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, sets up structured logging,
// and hands work to the conversion controller. "convert" renders the job's
// event stream either as a live single line on a terminal or as plain lines
// when piped. "status" and "history" are read-only views over the config,
// preflight checks, and the job history database.
package main
