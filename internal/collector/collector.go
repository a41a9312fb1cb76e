// Package collector defines the Collector interface and the meminfo sample
// collector driven by the scheduler.
package collector

import (
	"context"
	"time"
)

// Sample is the outcome of one tick: a timestamp and a value for every
// tracked position that could be read. A position missing from Values had
// no parsable value on this tick.
type Sample struct {
	Timestamp time.Time
	Values    map[int64]int64
}

// Collector is the interface that all sample collectors must implement.
type Collector interface {
	// Name returns the unique identifier for this collector.
	Name() string

	// Collect takes one sample.
	// The context allows for cancellation before the source is read.
	Collect(ctx context.Context) (Sample, error)

	// IsAvailable checks if the collector's source can be read.
	IsAvailable() bool
}
