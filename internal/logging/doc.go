// Package logging assembles structured slog loggers and attribute helpers used
// across Alice.
//
// It owns the console and JSON handlers, level parsing, and rotating file
// output, and exposes context-aware helpers so pipeline code automatically tags
// log lines with job ids, file indexes, and stage names. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
