// Package scheduler implements the fixed-cadence sampling loop.
// Tick boundaries are multiples of the interval from the start instant; a
// tick that overruns skips the boundaries it missed instead of catching up
// with a burst of ticks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/meminfo/internal/collector"
	"github.com/Guliveer/vitalis/meminfo/internal/series"
)

// Scheduler runs a collector on one background goroutine and appends every
// sample to the store. The goroutine is the store's only writer.
type Scheduler struct {
	collector collector.Collector
	store     *series.Store
	interval  time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = 10 * time.Millisecond

// New creates a Scheduler sampling c every interval.
func New(c collector.Collector, store *series.Store, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		collector: c,
		store:     store,
		interval:  interval,
		logger:    logger.Named("scheduler"),
		now:       time.Now,
	}
}

// Start launches the sampling loop. It is a no-op if the loop is running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.stopped = make(chan struct{})

	go s.loop(ctx, s.now(), s.stopped)
	s.logger.Info("Sampling started",
		zap.String("collector", s.collector.Name()),
		zap.Duration("interval", s.interval))
}

// Stop signals the loop and blocks until it has exited. A tick in progress
// completes first; nothing is appended to the store after Stop returns. It
// is a no-op if the loop is not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.stopped
	s.cancel = nil

	s.logger.Info("Sampling stopped", zap.Int("ticks", s.store.Len()))
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, deadline time.Time, stopped chan struct{}) {
	defer close(stopped)

	for ctx.Err() == nil {
		s.tick(ctx)

		deadline = NextDeadline(deadline, s.now(), s.interval)
		timer := time.NewTimer(deadline.Sub(s.now()))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// tick takes one sample and publishes it as a whole.
func (s *Scheduler) tick(ctx context.Context) {
	sample, err := s.collector.Collect(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Collection failed",
				zap.String("collector", s.collector.Name()),
				zap.Error(err))
		}
		return
	}
	s.store.Append(sample.Timestamp, sample.Values)
}

// NextDeadline advances deadline by whole intervals until it is strictly
// after now. A deadline already in the future is returned unchanged.
func NextDeadline(deadline, now time.Time, interval time.Duration) time.Time {
	if interval <= 0 || deadline.After(now) {
		return deadline
	}
	missed := now.Sub(deadline)/interval + 1
	return deadline.Add(missed * interval)
}
