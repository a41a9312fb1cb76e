// Package meminfo discovers and parses metrics from /proc/meminfo style
// sources, where every line has the shape "Name:   value [unit]".
//
// Metrics are keyed by their position in the source: the 0-based line
// number at discovery time, followed by two synthetic positions for the
// derived MemUsed and SwapUsed metrics. Sampling re-reads values by position
// without re-matching names, so the line order of the source must not change
// between discovery and sampling. The kernel keeps /proc/meminfo stable for
// the lifetime of a boot.
package meminfo

import (
	"bufio"
	"os"
	"regexp"
	"strconv"
)

// DefaultSource is the kernel memory statistics file.
const DefaultSource = "/proc/meminfo"

// Identity describes one discovered metric.
type Identity struct {
	Position int64  `json:"position"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
}

// lineSuffix matches everything after the metric name: the colon, the
// decimal value and an optional two-letter unit.
const lineSuffix = `:[^a-zA-Z0-9]*(?P<value>[0-9]+).?(?P<unit>[kKmMgGtT][bB])?[^a-zA-Z0-9]*$`

var parsePattern = regexp.MustCompile(`^.*:[^a-zA-Z0-9]*([0-9]+).?([kKmMgGtT][bB])?.*$`)

// ParseLine extracts the numeric value and unit suffix of a source line
// without looking at its name. ok is false if the line has no parsable value.
func ParseLine(line string) (value int64, unit string, ok bool) {
	m := parsePattern.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return v, m[2], true
}

// Scan calls fn for every line of the file at path together with its
// position and returns the number of lines read. A missing or unreadable
// file is reported through err; callers treat it as an empty source.
func Scan(path string, fn func(position int64, line string)) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var position int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fn(position, scanner.Text())
		position++
	}
	return position, scanner.Err()
}
