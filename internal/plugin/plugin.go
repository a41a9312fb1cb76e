// Package plugin is the boundary between the host measurement framework and
// the meminfo sampler. The host discovers and registers metrics, starts and
// stops sampling around the measured region, and finally reads every
// metric's full series.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/vitalis/meminfo/internal/collector"
	"github.com/Guliveer/vitalis/meminfo/internal/meminfo"
	"github.com/Guliveer/vitalis/meminfo/internal/models"
	"github.com/Guliveer/vitalis/meminfo/internal/scheduler"
	"github.com/Guliveer/vitalis/meminfo/internal/series"
)

var (
	// ErrRunning is returned when metrics are registered while sampling.
	ErrRunning = errors.New("sampling is running")

	// ErrUnknownMetric is returned when reading a metric that was never registered.
	ErrUnknownMetric = errors.New("unknown metric")
)

// Plugin owns the registered metrics, the series store and the sampling
// scheduler. All methods are safe for concurrent use; sampling itself runs
// on the scheduler's goroutine.
type Plugin struct {
	source     string
	interval   time.Duration
	logger     *zap.Logger
	discoverer *meminfo.Discoverer
	store      *series.Store

	mu         sync.Mutex
	roles      meminfo.Roles
	identities []meminfo.Identity
	byName     map[string]meminfo.Identity
	sched      *scheduler.Scheduler
}

// New creates a plugin sampling source every interval.
func New(source string, interval time.Duration, logger *zap.Logger) *Plugin {
	if source == "" {
		source = meminfo.DefaultSource
	}
	if interval <= 0 {
		interval = scheduler.DefaultInterval
	}
	return &Plugin{
		source:     source,
		interval:   interval,
		logger:     logger.Named("plugin"),
		discoverer: meminfo.NewDiscoverer(source, logger),
		store:      series.New(),
		roles:      meminfo.NewRoles(),
		byName:     make(map[string]meminfo.Identity),
	}
}

// MetricProperties discovers the metrics matching pattern, registers the
// ones not registered yet and returns their descriptors. Metrics already
// registered by an earlier call are not returned again.
func (p *Plugin) MetricProperties(pattern string) ([]models.MetricProperty, error) {
	ids, err := p.discoverer.Discover([]string{pattern})
	if err != nil {
		return nil, err
	}

	var result []models.MetricProperty
	for _, id := range ids {
		if p.store.Tracked(id.Position) {
			continue
		}
		if err := p.AddMetric(id); err != nil {
			return result, fmt.Errorf("register %s: %w", id.Name, err)
		}
		result = append(result, models.MetricProperty{
			Name:      id.Name,
			Unit:      meminfo.ValueUnit(id.Unit),
			Mode:      models.ModeAbsolutePoint,
			ValueType: models.ValueTypeInt64,
		})
	}

	p.logger.Info("Registered metrics",
		zap.String("pattern", pattern),
		zap.Int("discovered", len(ids)),
		zap.Int("new", len(result)))
	return result, nil
}

// AddMetric tracks id and assigns it to its role, if it has one. Metrics
// cannot be added while sampling.
func (p *Plugin) AddMetric(id meminfo.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sched != nil && p.sched.Running() {
		return ErrRunning
	}
	if _, ok := p.byName[id.Name]; ok {
		return nil
	}

	if p.roles.Register(id) {
		p.logger.Debug("Assigned role",
			zap.String("metric", id.Name),
			zap.Int64("position", id.Position))
	}
	p.store.Track(id.Position)
	p.identities = append(p.identities, id)
	p.byName[id.Name] = id
	return nil
}

// Metrics returns the registered metrics in registration order.
func (p *Plugin) Metrics() []meminfo.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := make([]meminfo.Identity, len(p.identities))
	copy(result, p.identities)
	return result
}

// Start begins sampling. It is a no-op while sampling is running. The
// sampler works on a snapshot of the metrics registered so far.
func (p *Plugin) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sched != nil && p.sched.Running() {
		return
	}

	for role := meminfo.RoleMemTotal; role <= meminfo.RoleSwapUsed; role++ {
		p.logger.Debug("Role position",
			zap.Stringer("role", role),
			zap.Int64("position", p.roles.Position(role)))
	}

	tracked := make([]int64, len(p.identities))
	for i, id := range p.identities {
		tracked[i] = id.Position
	}
	c := collector.NewMemoryCollector(p.source, tracked, p.roles, p.logger)
	if !c.IsAvailable() {
		p.logger.Warn("Source is not readable, samples will be empty",
			zap.String("source", p.source))
	}

	p.sched = scheduler.New(c, p.store, p.interval, p.logger)
	p.sched.Start()
}

// Stop ends sampling and waits for the sampling goroutine to exit. It is a
// no-op while sampling is not running.
func (p *Plugin) Stop() {
	p.mu.Lock()
	sched := p.sched
	p.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
}

// Values returns the full series of id.
func (p *Plugin) Values(id meminfo.Identity) []models.Point {
	return p.store.ReadAll(id.Position)
}

// AllValues returns the full series of the registered metric name.
func (p *Plugin) AllValues(name string) ([]models.Point, error) {
	p.mu.Lock()
	id, ok := p.byName[name]
	p.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return p.Values(id), nil
}

// Ticks returns the number of completed ticks.
func (p *Plugin) Ticks() int { return p.store.Len() }

// Report collects every registered metric's series together with
// information about the sampled host.
func (p *Plugin) Report(ctx context.Context) models.Report {
	ids := p.Metrics()

	report := models.Report{
		Host:      hostInfo(ctx, p.logger),
		Source:    p.source,
		Interval:  p.interval.String(),
		Ticks:     p.store.Len(),
		CreatedAt: time.Now().UTC(),
		Series:    make([]models.MetricSeries, 0, len(ids)),
	}
	for _, id := range ids {
		report.Series = append(report.Series, models.MetricSeries{
			Name:     id.Name,
			Unit:     meminfo.ValueUnit(id.Unit),
			Position: id.Position,
			Points:   p.Values(id),
		})
	}
	return report
}
