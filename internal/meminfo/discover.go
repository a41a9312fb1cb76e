package meminfo

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// anyName is the name pattern used when the caller asks for every metric.
const anyName = `[a-zA-Z0-9_]+`

// wellKnownPattern matches the raw inputs of the derived metrics. Lines that
// fail the caller's pattern are retried against it so MemUsed and SwapUsed
// can always be computed.
var wellKnownPattern = regexp.MustCompile(
	`^(?P<name>MemTotal|MemFree|SwapTotal|SwapFree|SwapCached|Cached|Buffers)` + lineSuffix)

// syntheticNames are appended after the real source lines, in this order.
var syntheticNames = []string{MemUsed, SwapUsed}

// Discoverer finds the metrics available in a meminfo source.
type Discoverer struct {
	path   string
	logger *zap.Logger
}

// NewDiscoverer creates a discoverer reading from path.
func NewDiscoverer(path string, logger *zap.Logger) *Discoverer {
	if path == "" {
		path = DefaultSource
	}
	return &Discoverer{
		path:   path,
		logger: logger.Named("discover"),
	}
}

// Discover scans the source once and returns every metric whose name matches
// one of patterns, in source order. An empty pattern list (or "*") selects
// every metric. The raw inputs of MemUsed and SwapUsed are always returned.
//
// A missing source yields an empty result. The only error is an invalid
// pattern.
func (d *Discoverer) Discover(patterns []string) ([]Identity, error) {
	names := namePattern(patterns)

	line, err := regexp.Compile(`^(?P<name>` + names + `)` + lineSuffix)
	if err != nil {
		return nil, fmt.Errorf("compile metric pattern %q: %w", names, err)
	}
	synthetic, err := regexp.Compile(`^(?:` + names + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile metric pattern %q: %w", names, err)
	}

	var results []Identity
	count, err := Scan(d.path, func(position int64, text string) {
		if id, ok := matchLine(line, position, text); ok {
			results = append(results, id)
			return
		}
		if id, ok := matchLine(wellKnownPattern, position, text); ok {
			results = append(results, id)
		}
	})
	if err != nil {
		d.logger.Warn("Cannot read source, no metrics discovered",
			zap.String("source", d.path),
			zap.Error(err))
		return nil, nil
	}
	if count == 0 {
		d.logger.Warn("Source is empty, no metrics discovered", zap.String("source", d.path))
		return nil, nil
	}

	for i, name := range syntheticNames {
		if synthetic.MatchString(name) {
			results = append(results, Identity{
				Position: count + int64(i),
				Name:     name,
				Unit:     "B",
			})
		}
	}

	d.logger.Debug("Discovered metrics",
		zap.String("source", d.path),
		zap.String("pattern", names),
		zap.Int("count", len(results)))
	return results, nil
}

// namePattern joins the caller's patterns into one alternation.
func namePattern(patterns []string) string {
	var parts []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == "*" {
			return anyName
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return anyName
	}
	return strings.Join(parts, "|")
}

func matchLine(re *regexp.Regexp, position int64, text string) (Identity, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return Identity{}, false
	}
	return Identity{
		Position: position,
		Name:     m[re.SubexpIndex("name")],
		Unit:     m[re.SubexpIndex("unit")],
	}, true
}
