// Package tags repairs ID3v2 text frames whose UTF-8 bytes were read as
// ISO-8859-1 somewhere upstream, and delivers converted files to their final
// location.
package tags
