package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Guliveer/vitalis/meminfo/internal/collector"
	"github.com/Guliveer/vitalis/meminfo/internal/series"
)

// fakeCollector returns a constant value for position 0 and records when
// and how often it ran.
type fakeCollector struct {
	delay time.Duration
	fail  bool

	mu      sync.Mutex
	starts  []time.Time
	active  int32
	overlap int32
}

func (f *fakeCollector) Name() string      { return "fake" }
func (f *fakeCollector) IsAvailable() bool { return true }

func (f *fakeCollector) Collect(ctx context.Context) (collector.Sample, error) {
	if atomic.AddInt32(&f.active, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.active, -1)

	f.mu.Lock()
	f.starts = append(f.starts, time.Now())
	f.mu.Unlock()

	time.Sleep(f.delay)
	if f.fail {
		return collector.Sample{}, errors.New("boom")
	}
	return collector.Sample{
		Timestamp: time.Now(),
		Values:    map[int64]int64{0: 42},
	}, nil
}

func (f *fakeCollector) startTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.starts...)
}

func newStore() *series.Store {
	s := series.New()
	s.Track(0)
	return s
}

func TestNextDeadline(t *testing.T) {
	start := time.Unix(1000, 0)
	interval := 10 * time.Millisecond

	tests := []struct {
		name     string
		deadline time.Time
		now      time.Time
		expected time.Time
	}{
		{"future deadline unchanged", start, start.Add(-time.Millisecond), start},
		{"deadline equal to now advances", start, start, start.Add(interval)},
		{"short tick", start, start.Add(3 * time.Millisecond), start.Add(interval)},
		{"overrun skips missed boundaries", start, start.Add(35 * time.Millisecond), start.Add(40 * time.Millisecond)},
		{"overrun ending on boundary", start, start.Add(30 * time.Millisecond), start.Add(40 * time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NextDeadline(tt.deadline, tt.now, interval)
			assert.Equal(t, tt.expected, result)
			assert.True(t, result.After(tt.now), "deadline must be in the future")
			assert.Zero(t, result.Sub(start)%interval, "deadline must stay on the start grid")
		})
	}
}

func TestScheduler_StoreStaysAligned(t *testing.T) {
	store := newStore()
	s := New(&fakeCollector{}, store, 5*time.Millisecond, zaptest.NewLogger(t))

	s.Start()
	require.Eventually(t, func() bool { return store.Len() >= 5 }, 2*time.Second, time.Millisecond)
	s.Stop()

	n := store.Len()
	assert.Equal(t, n, store.SeriesLen(0))
	assert.Len(t, store.ReadAll(0), n)
}

func TestScheduler_NoAppendAfterStop(t *testing.T) {
	store := newStore()
	s := New(&fakeCollector{delay: 2 * time.Millisecond}, store, time.Millisecond, zaptest.NewLogger(t))

	s.Start()
	require.Eventually(t, func() bool { return store.Len() >= 3 }, 2*time.Second, time.Millisecond)
	s.Stop()
	assert.False(t, s.Running())

	n := store.Len()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, store.Len())
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	store := newStore()
	fc := &fakeCollector{}
	s := New(fc, store, 2*time.Millisecond, zaptest.NewLogger(t))

	s.Stop() // not running: no-op

	s.Start()
	s.Start()
	assert.True(t, s.Running())
	require.Eventually(t, func() bool { return store.Len() >= 5 }, 2*time.Second, time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Zero(t, atomic.LoadInt32(&fc.overlap), "ticks must never overlap")

	// A stopped scheduler can be started again
	n := store.Len()
	s.Start()
	require.Eventually(t, func() bool { return store.Len() > n }, 2*time.Second, time.Millisecond)
	s.Stop()
}

func TestScheduler_OverrunDoesNotBurst(t *testing.T) {
	store := newStore()
	fc := &fakeCollector{delay: 25 * time.Millisecond}
	s := New(fc, store, 10*time.Millisecond, zaptest.NewLogger(t))

	s.Start()
	require.Eventually(t, func() bool { return store.Len() >= 4 }, 2*time.Second, time.Millisecond)
	s.Stop()

	// Each tick takes 25ms; the next one starts on the following 10ms
	// boundary, so consecutive starts are at least 25ms apart and the
	// missed boundaries are never replayed back to back.
	starts := fc.startTimes()
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, 25*time.Millisecond, "tick %d", i)
	}
}

func TestScheduler_FailedCollectionAppendsNothing(t *testing.T) {
	store := newStore()
	fc := &fakeCollector{fail: true}
	s := New(fc, store, time.Millisecond, zaptest.NewLogger(t))

	s.Start()
	require.Eventually(t, func() bool { return len(fc.startTimes()) >= 3 }, 2*time.Second, time.Millisecond)
	s.Stop()

	assert.Zero(t, store.Len())
	assert.Zero(t, store.SeriesLen(0))
}

func TestNew_DefaultInterval(t *testing.T) {
	s := New(&fakeCollector{}, newStore(), 0, zaptest.NewLogger(t))
	assert.Equal(t, DefaultInterval, s.interval)
}
