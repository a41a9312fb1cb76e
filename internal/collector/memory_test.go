package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Guliveer/vitalis/meminfo/internal/meminfo"
)

const (
	// Positions: MemTotal 0, MemFree 1, MemAvailable 2, Buffers 3, Cached 4,
	// SwapCached 5, SwapTotal 6, SwapFree 7, MemUsed 8, SwapUsed 9.
	plainMeminfo = `MemTotal:        1000
MemFree:          200
MemAvailable:     600
Buffers:          100
Cached:           150
SwapCached:        10
SwapTotal:        500
SwapFree:         300
`

	// Same line count, different values and widths.
	changedMeminfo = `MemTotal:  1000
MemFree:                   50
MemAvailable: 7 kB
Buffers:  100
Cached:   150
SwapCached: 0
SwapTotal:   500
SwapFree:  500
`

	missingBuffersMeminfo = `MemTotal:        1000
MemFree:          200
MemAvailable:     600
Buffers:          n/a
Cached:           150
SwapCached:        10
SwapTotal:        500
SwapFree:         300
`

	kilobyteMeminfo = `MemTotal:        1000 kB
MemFree:          200 kB
MemAvailable:     600 kB
Buffers:          100 kB
Cached:           150 kB
SwapCached:        10 kB
SwapTotal:        500 kB
SwapFree:         300 kB
`
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meminfo")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// newTestCollector discovers the metrics matching patterns and registers all
// of them, the way the plugin does.
func newTestCollector(t *testing.T, path string, patterns ...string) (*MemoryCollector, map[string]int64) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	ids, err := meminfo.NewDiscoverer(path, logger).Discover(patterns)
	require.NoError(t, err)

	roles := meminfo.NewRoles()
	positions := make(map[string]int64)
	tracked := make([]int64, 0, len(ids))
	for _, id := range ids {
		roles.Register(id)
		positions[id.Name] = id.Position
		tracked = append(tracked, id.Position)
	}
	return NewMemoryCollector(path, tracked, roles, logger), positions
}

func TestMemoryCollector_DerivedValues(t *testing.T) {
	c, pos := newTestCollector(t, writeSource(t, plainMeminfo))

	sample := c.CollectOnce()

	assert.Equal(t, int64(550), sample.Values[pos["MemUsed"]])
	assert.Equal(t, int64(190), sample.Values[pos["SwapUsed"]])
	assert.Equal(t, int64(600), sample.Values[pos["MemAvailable"]])
	assert.Len(t, sample.Values, 10)
}

func TestMemoryCollector_NormalizesUnits(t *testing.T) {
	c, pos := newTestCollector(t, writeSource(t, kilobyteMeminfo))

	sample := c.CollectOnce()

	assert.Equal(t, int64(1000*1024), sample.Values[pos["MemTotal"]])
	assert.Equal(t, int64(550*1024), sample.Values[pos["MemUsed"]])
	assert.Equal(t, int64(190*1024), sample.Values[pos["SwapUsed"]])
}

func TestMemoryCollector_DerivedFallsBackToZero(t *testing.T) {
	path := writeSource(t, plainMeminfo)
	c, pos := newTestCollector(t, path)
	require.NoError(t, os.WriteFile(path, []byte(missingBuffersMeminfo), 0644))

	sample := c.CollectOnce()

	_, ok := sample.Values[pos["Buffers"]]
	assert.False(t, ok, "unparsable line must leave a gap")

	used, ok := sample.Values[pos["MemUsed"]]
	assert.True(t, ok)
	assert.Equal(t, int64(0), used)

	// SwapUsed does not depend on Buffers
	assert.Equal(t, int64(190), sample.Values[pos["SwapUsed"]])
}

func TestMemoryCollector_PositionStability(t *testing.T) {
	path := writeSource(t, plainMeminfo)
	c, pos := newTestCollector(t, path)
	require.Equal(t, int64(1), pos["MemFree"])

	first := c.CollectOnce()
	assert.Equal(t, int64(200), first.Values[1])

	require.NoError(t, os.WriteFile(path, []byte(changedMeminfo), 0644))

	second := c.CollectOnce()
	assert.Equal(t, int64(50), second.Values[1])
	assert.Equal(t, int64(7*1024), second.Values[pos["MemAvailable"]])
	assert.Equal(t, int64(1000-50-100-150), second.Values[pos["MemUsed"]])
	assert.Equal(t, int64(0), second.Values[pos["SwapUsed"]])
}

func TestMemoryCollector_OnlyTrackedPositions(t *testing.T) {
	path := writeSource(t, plainMeminfo)
	logger := zaptest.NewLogger(t)

	roles := meminfo.NewRoles()
	roles.Register(meminfo.Identity{Position: 0, Name: "MemTotal"})
	c := NewMemoryCollector(path, []int64{0, 2}, roles, logger)

	sample := c.CollectOnce()
	assert.Equal(t, map[int64]int64{0: 1000, 2: 600}, sample.Values)
}

func TestMemoryCollector_MissingSource(t *testing.T) {
	path := writeSource(t, plainMeminfo)
	c, pos := newTestCollector(t, path)
	require.NoError(t, os.Remove(path))

	sample := c.CollectOnce()

	assert.Equal(t, map[int64]int64{
		pos["MemUsed"]:  0,
		pos["SwapUsed"]: 0,
	}, sample.Values)
	assert.False(t, c.IsAvailable())
}

func TestMemoryCollector_Collect(t *testing.T) {
	c, _ := newTestCollector(t, writeSource(t, plainMeminfo))
	fixed := time.Unix(1700000000, 0)
	c.now = func() time.Time { return fixed }

	assert.True(t, c.IsAvailable())
	assert.Equal(t, "memory", c.Name())

	sample, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, sample.Timestamp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
