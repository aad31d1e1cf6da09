// Package pipeline runs the per-file SoX stages: DC offset probe and
// correction, noise synthesis, effect application with optional splitting,
// and merging. Each stage is one supervised external process polled on a
// fixed interval so cancellation and remaining-time decay stay responsive.
package pipeline
