package core

// analysis_limiter.go bounds how many uploads are decoded and analysed at once.
//
// Workbooks are decoded fully into memory, so a burst of large uploads can
// exhaust the process. Callers wait up to maxWait for a slot and otherwise
// fail with ErrTooManyAnalyses. WaitForDrain lets shutdown wait for in-flight
// analyses.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyAnalyses is returned when every slot stayed busy for the whole
// wait. Clients should retry after a short delay.
var ErrTooManyAnalyses = errors.New("too many analyses in progress, please try again later")

// DefaultMaxConcurrentAnalyses is the default limit for parallel analyses.
const DefaultMaxConcurrentAnalyses = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// AnalysisLimiter is a counting semaphore over analysis requests.
type AnalysisLimiter struct {
	sem     *semaphore.Weighted
	max     int64
	maxWait time.Duration
	active  atomic.Int64
}

// NewAnalysisLimiter allows at most maxConcurrent simultaneous analyses.
// Non-positive arguments select the defaults.
func NewAnalysisLimiter(maxConcurrent int, maxWait time.Duration) *AnalysisLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentAnalyses
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &AnalysisLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. It returns ctx's error if ctx ends first and
// ErrTooManyAnalyses if maxWait elapses. On success the caller must Release.
func (l *AnalysisLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyAnalyses
	}
	l.active.Add(1)
	return nil
}

// Release frees a slot taken by Acquire.
func (l *AnalysisLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of analyses holding a slot.
func (l *AnalysisLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *AnalysisLimiter) MaxConcurrent() int {
	return int(l.max)
}

// Available returns the number of free slots.
func (l *AnalysisLimiter) Available() int {
	return l.MaxConcurrent() - l.ActiveCount()
}

// WaitForDrain blocks until no analysis holds a slot, or ctx ends.
// New analyses queue behind it while it waits.
func (l *AnalysisLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.max); err != nil {
		return err
	}
	l.sem.Release(l.max)
	return nil
}

// AnalysisLimiterStatus is a snapshot of the limiter.
type AnalysisLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *AnalysisLimiter) Status() AnalysisLimiterStatus {
	active := l.ActiveCount()
	return AnalysisLimiterStatus{
		Active:        active,
		Available:     l.MaxConcurrent() - active,
		MaxConcurrent: l.MaxConcurrent(),
	}
}
