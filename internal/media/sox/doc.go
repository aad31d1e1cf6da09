// Package sox wraps the SoX command line: argument builders for every
// operation the converter performs, parsers for SoX's diagnostic output, and a
// process abstraction that streams output lines and supports graceful
// termination. Tests substitute the Starter to avoid running SoX.
package sox
