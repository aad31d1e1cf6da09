// Package planner decides how converted audio is chunked into roughly one
// hour outputs.
//
// Long inputs are split into full-length segments plus a remainder; short
// outputs (and remainders) accumulate in a Buffer until the greedy flush rule
// says the buffer is as close to the target as it will get. The same pure
// functions drive both the pre-pass simulation used for time estimates and
// the live conversion loop, so predicted and actual merge counts agree.
package planner
