package logging

import "strings"

// ProgressSampler thins per-file progress logs to one line per percent bucket
// or task change.
type ProgressSampler struct {
	bucketSize int
	lastTask   string
	lastBucket int
}

// NewProgressSampler emits when the percent crosses a multiple of bucketSize
// (default 10) or the task label changes.
func NewProgressSampler(bucketSize int) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress update should be logged.
func (s *ProgressSampler) ShouldLog(percent int, task string) bool {
	if s == nil {
		return true
	}
	emit := false
	if task = strings.TrimSpace(task); task != "" && task != s.lastTask {
		s.lastTask = task
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		if bucket := percent / s.bucketSize; bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state, e.g. when a new file starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastTask = ""
	s.lastBucket = -1
}
