package config

import (
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultInterval is the sampling interval used when none or a malformed
// one is configured.
const DefaultInterval = 10 * time.Millisecond

var intervalPattern = regexp.MustCompile(`^([0-9]+)([mun]?s)$`)

// ParseInterval parses "<integer><unit>" with unit one of s, ms, us or ns.
// ok is false for anything else, including a zero interval.
func ParseInterval(s string) (d time.Duration, ok bool) {
	m := intervalPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}

	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "ms":
		unit = time.Millisecond
	case "us":
		unit = time.Microsecond
	default:
		unit = time.Nanosecond
	}
	if n > int64(1<<63-1)/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

// ParseIntervalOrDefault is ParseInterval falling back to DefaultInterval.
func ParseIntervalOrDefault(s string) Interval {
	if d, ok := ParseInterval(s); ok {
		return Interval{d}
	}
	return Interval{DefaultInterval}
}

// Interval is a sampling interval in the "<integer><unit>" grammar.
// Unmarshaling never fails: malformed values become DefaultInterval.
type Interval struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Interval.
func (i *Interval) UnmarshalYAML(value *yaml.Node) error {
	*i = ParseIntervalOrDefault(value.Value)
	return nil
}

// MarshalYAML writes the interval in the grammar ParseInterval accepts.
func (i Interval) MarshalYAML() (interface{}, error) {
	d := i.Duration
	switch {
	case d%time.Second == 0:
		return strconv.FormatInt(int64(d/time.Second), 10) + "s", nil
	case d%time.Millisecond == 0:
		return strconv.FormatInt(int64(d/time.Millisecond), 10) + "ms", nil
	case d%time.Microsecond == 0:
		return strconv.FormatInt(int64(d/time.Microsecond), 10) + "us", nil
	default:
		return strconv.FormatInt(int64(d), 10) + "ns", nil
	}
}
