// Package textutil provides the small string helpers used for file naming and
// progress labels: filesystem-safe names, ASCII-only scratch tokens, and
// display truncation.
package textutil
