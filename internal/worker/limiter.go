// Package worker throttles and schedules concurrent model calls. One Limiter
// instance is shared across every stage of a run so the global concurrency
// ceiling and pacing hold regardless of how many goroutines fan out.
package worker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dkovalov/papermine/internal/model"
)

// Limiter gates model calls three ways: a counting semaphore caps in-flight
// calls, a pacing lock spaces out call starts by a jittered delay, and an
// optional token bucket caps sustained requests per second.
type Limiter struct {
	sem      chan struct{}
	pacing   sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	bucket   *rate.Limiter
}

// NewLimiter builds a limiter from config. Concurrency must be positive; the
// rps bucket is only installed when RequestsPerSecond is set.
func NewLimiter(cfg model.LimiterConfig) (*Limiter, error) {
	if cfg.Concurrency <= 0 {
		return nil, fmt.Errorf("limiter concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.MinDelay < 0 || cfg.MaxDelay < cfg.MinDelay {
		return nil, fmt.Errorf("limiter delay range [%v, %v] is invalid", cfg.MinDelay, cfg.MaxDelay)
	}

	l := &Limiter{
		sem:      make(chan struct{}, cfg.Concurrency),
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
	}
	if cfg.RequestsPerSecond > 0 {
		l.bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return l, nil
}

// Acquire blocks until a call slot is free and the pacing delay has elapsed.
// Every successful Acquire must be matched by a Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := l.pace(ctx); err != nil {
		<-l.sem
		return err
	}

	if l.bucket != nil {
		if err := l.bucket.Wait(ctx); err != nil {
			<-l.sem
			return err
		}
	}
	return nil
}

// Release frees the call slot taken by Acquire.
func (l *Limiter) Release() {
	<-l.sem
}

// pace holds the pacing lock for a jittered delay so call starts are spread
// out even when many goroutines are waiting on the semaphore.
func (l *Limiter) pace(ctx context.Context) error {
	if l.maxDelay == 0 {
		return nil
	}

	l.pacing.Lock()
	defer l.pacing.Unlock()

	delay := l.minDelay
	if spread := l.maxDelay - l.minDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
