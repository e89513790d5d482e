package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// StatusSource lists the status of every running monitor.
type StatusSource interface {
	Statuses(chatID string) []domain.MonitorStatus
}

// Pinger is a dependency that can report reachability (Redis, Postgres).
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status from the monitor registry and storage dependencies.
type Monitor struct {
	source       StatusSource
	dependencies map[string]Pinger
	ttl          time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor. Reports are cached for ttl.
func NewMonitor(source StatusSource, ttl time.Duration) *Monitor {
	return &Monitor{
		source:       source,
		dependencies: make(map[string]Pinger),
		ttl:          ttl,
	}
}

// AddDependency registers a storage backend checked on every report.
func (m *Monitor) AddDependency(name string, p Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dependencies[name] = p
}

// CheckHealth builds a report covering every monitor and dependency.
func (m *Monitor) CheckHealth(ctx context.Context) *HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit dependency pings
	if m.lastReport != nil && time.Since(m.lastCheck) < m.ttl {
		return m.lastReport
	}

	report := &HealthReport{
		SystemStatus: StatusHealthy,
		Monitors:     []MonitorHealth{},
	}

	for _, s := range m.source.Statuses("") {
		h := evaluate(s)
		report.Monitors = append(report.Monitors, h)
		report.SystemStatus = worst(report.SystemStatus, h.Status)
	}

	if len(m.dependencies) > 0 {
		report.Dependencies = make(map[string]SystemStatus, len(m.dependencies))

		var depMu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		for name, dep := range m.dependencies {
			g.Go(func() error {
				pingCtx, cancel := context.WithTimeout(gctx, 2*time.Second)
				err := dep.Health(pingCtx)
				cancel()

				depMu.Lock()
				defer depMu.Unlock()
				if err != nil {
					slog.Warn("Dependency health check failed", "dependency", name, "error", err)
					report.Dependencies[name] = StatusCritical
					report.SystemStatus = StatusCritical
					return nil
				}
				report.Dependencies[name] = StatusHealthy
				return nil
			})
		}
		_ = g.Wait()
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
