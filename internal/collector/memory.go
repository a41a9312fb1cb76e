// Memory collector: samples registered /proc/meminfo positions and derives
// MemUsed and SwapUsed from the raw values of the same tick.
package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/meminfo/internal/meminfo"
)

// MemoryCollector re-reads the meminfo source on every tick and extracts the
// values of the tracked positions. Lines are matched by position only; the
// names were resolved once at discovery.
type MemoryCollector struct {
	path    string
	tracked map[int64]struct{}
	roles   meminfo.Roles
	logger  *zap.Logger
	now     func() time.Time
}

// NewMemoryCollector creates a collector for the given tracked positions.
// roles is copied and never changes afterwards.
func NewMemoryCollector(path string, tracked []int64, roles meminfo.Roles, logger *zap.Logger) *MemoryCollector {
	if path == "" {
		path = meminfo.DefaultSource
	}
	set := make(map[int64]struct{}, len(tracked))
	for _, p := range tracked {
		set[p] = struct{}{}
	}
	return &MemoryCollector{
		path:    path,
		tracked: set,
		roles:   roles,
		logger:  logger.Named("memory"),
		now:     time.Now,
	}
}

// Name returns the collector identifier.
func (c *MemoryCollector) Name() string { return "memory" }

// IsAvailable returns true if the meminfo source is readable.
func (c *MemoryCollector) IsAvailable() bool { return readable(c.path) }

// Collect takes one sample unless ctx is already done.
func (c *MemoryCollector) Collect(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	return c.CollectOnce(), nil
}

// CollectOnce scans the source and returns one sample. It never fails: an
// unreadable source yields no raw values, an unparsable line leaves its
// position out of the sample.
func (c *MemoryCollector) CollectOnce() Sample {
	values := make(map[int64]int64, len(c.tracked))

	var raw [meminfo.NumRawRoles]int64
	var seen [meminfo.NumRawRoles]bool

	_, err := meminfo.Scan(c.path, func(position int64, line string) {
		if _, ok := c.tracked[position]; !ok {
			return
		}
		v, unit, ok := meminfo.ParseLine(line)
		if !ok {
			c.logger.Debug("Unparsable line, skipping",
				zap.Int64("position", position),
				zap.String("line", line))
			return
		}
		v = meminfo.Normalize(v, unit)
		values[position] = v

		if role, ok := c.roles.RawRoleAt(position); ok {
			raw[role] = v
			seen[role] = true
		}
	})
	if err != nil {
		c.logger.Debug("Cannot read source", zap.String("source", c.path), zap.Error(err))
	}

	input := func(role meminfo.Role) (int64, bool) {
		return raw[role], seen[role] && raw[role] >= 0
	}

	if pos, ok := c.trackedRole(meminfo.RoleMemUsed); ok {
		values[pos] = derive(c.logger, meminfo.MemUsed, input,
			meminfo.RoleMemTotal, meminfo.RoleMemFree, meminfo.RoleBuffers, meminfo.RoleCached)
	}
	if pos, ok := c.trackedRole(meminfo.RoleSwapUsed); ok {
		values[pos] = derive(c.logger, meminfo.SwapUsed, input,
			meminfo.RoleSwapTotal, meminfo.RoleSwapFree, meminfo.RoleSwapCached)
	}

	return Sample{
		Timestamp: c.now(),
		Values:    values,
	}
}

// trackedRole returns the position of role if it is both assigned and tracked.
func (c *MemoryCollector) trackedRole(role meminfo.Role) (int64, bool) {
	pos := c.roles.Position(role)
	if pos == meminfo.Unassigned {
		return 0, false
	}
	_, ok := c.tracked[pos]
	return pos, ok
}

// derive returns total minus every other input, or 0 if any input is
// missing this tick.
func derive(logger *zap.Logger, name string, input func(meminfo.Role) (int64, bool), total meminfo.Role, minus ...meminfo.Role) int64 {
	result, ok := input(total)
	if !ok {
		logger.Debug("Derived metric input missing, recording 0",
			zap.String("metric", name),
			zap.Stringer("input", total))
		return 0
	}
	for _, role := range minus {
		v, ok := input(role)
		if !ok {
			logger.Debug("Derived metric input missing, recording 0",
				zap.String("metric", name),
				zap.Stringer("input", role))
			return 0
		}
		result -= v
	}
	return result
}
