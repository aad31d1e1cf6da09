// Package preflight provides readiness checks run before a conversion job
// starts and shown by "alice status".
//
// A job needs the SoX binary plus writable output, scratch, and state
// directories. Any failed check aborts the run before files are touched.
package preflight
