// Package series holds the sampled time series: one shared sequence of
// timestamps and, per tracked metric position, one value per timestamp.
// The sampling goroutine is the only writer; readers may run concurrently.
package series

import (
	"sort"
	"sync"
	"time"
)

// Point is one sampled value and the time it was taken.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     int64     `json:"value"`
}

// slot is one tick's value for a position. A slot without present is a gap:
// the source line could not be parsed on that tick.
type slot struct {
	value   int64
	present bool
}

// Store keeps the sampled series in memory. It never shrinks.
type Store struct {
	mu         sync.RWMutex
	timestamps []time.Time
	values     map[int64][]slot
}

// New creates an empty store.
func New() *Store {
	return &Store{
		values: make(map[int64][]slot),
	}
}

// Track declares position as tracked. Append writes a slot for every tracked
// position on every tick. A position tracked after ticks were recorded
// starts with gaps for those ticks so it stays aligned with the timestamps.
func (s *Store) Track(position int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[position]; !ok {
		s.values[position] = make([]slot, len(s.timestamps))
	}
}

// Tracked reports whether position is tracked.
func (s *Store) Tracked(position int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.values[position]
	return ok
}

// Positions returns the tracked positions in ascending order.
func (s *Store) Positions() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]int64, 0, len(s.values))
	for p := range s.values {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Append publishes one complete tick: the timestamp and one slot for every
// tracked position. Positions missing from values are recorded as gaps,
// values for untracked positions are ignored. Readers never observe a
// partially appended tick.
func (s *Store) Append(timestamp time.Time, values map[int64]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timestamps = append(s.timestamps, timestamp)
	for p, slots := range s.values {
		v, ok := values[p]
		s.values[p] = append(slots, slot{value: v, present: ok})
	}
}

// AppendTimestamp appends a timestamp only. Together with AppendValue it
// lets a caller assemble a tick piecewise; Append is preferred.
func (s *Store) AppendTimestamp(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timestamps = append(s.timestamps, t)
}

// AppendValue appends a value to position's series, tracking it if needed.
func (s *Store) AppendValue(position, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[position] = append(s.values[position], slot{value: value, present: true})
}

// Len returns the number of timestamps.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.timestamps)
}

// SeriesLen returns the number of slots, gaps included, for position.
func (s *Store) SeriesLen(position int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values[position])
}

// ReadAll returns position's series paired with the shared timestamps by
// index, up to the shorter of the two. Gaps are skipped.
func (s *Store) ReadAll(position int64) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots := s.values[position]
	n := len(slots)
	if len(s.timestamps) < n {
		n = len(s.timestamps)
	}

	result := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		if !slots[i].present {
			continue
		}
		result = append(result, Point{Timestamp: s.timestamps[i], Value: slots[i].value})
	}
	return result
}
