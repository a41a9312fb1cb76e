// Package models defines the data structures exchanged with the host
// measurement framework. They are serialized to JSON for reports.
package models

import (
	"time"

	"github.com/Guliveer/vitalis/meminfo/internal/series"
)

// Point is one sampled value.
type Point = series.Point

// Value modes and types of a metric, as understood by the host.
const (
	ModeAbsolutePoint = "absolute_point"
	ValueTypeInt64    = "int64"
)

// MetricProperty describes a metric for registration with the host's
// metric catalog.
type MetricProperty struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit"`
	Mode        string `json:"mode"`
	ValueType   string `json:"value_type"`
}

// MetricSeries is the full series of one metric.
type MetricSeries struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Position int64   `json:"position"`
	Points   []Point `json:"points"`
}

// HostInfo identifies the machine a report was sampled on.
type HostInfo struct {
	Hostname      string `json:"hostname,omitempty"`
	OS            string `json:"os,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	BootTime      uint64 `json:"boot_time,omitempty"`
}

// Report is everything sampled during one run.
type Report struct {
	Host      HostInfo       `json:"host"`
	Source    string         `json:"source"`
	Interval  string         `json:"interval"`
	Ticks     int            `json:"ticks"`
	CreatedAt time.Time      `json:"created_at"`
	Series    []MetricSeries `json:"series"`
}
