package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe checks one dependency and returns nil when it is reachable.
type Probe func(ctx context.Context) error

type namedProbe struct {
	name  string
	probe Probe
}

// Monitor keeps the last known health of the storage backends. Refresh is
// driven externally, normally by the scheduler.
type Monitor struct {
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	probes []namedProbe
	status Status
}

func New(timeout time.Duration, logger *zap.Logger) *Monitor {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		timeout: timeout,
		logger:  logger,
		status:  Status{Probes: map[string]ProbeStatus{}},
	}
}

// Register adds a named probe. Registering a name twice replaces the probe.
func (m *Monitor) Register(name string, probe Probe) {
	if probe == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.probes {
		if m.probes[i].name == name {
			m.probes[i].probe = probe
			return
		}
	}
	m.probes = append(m.probes, namedProbe{name: name, probe: probe})
	sort.Slice(m.probes, func(i, j int) bool { return m.probes[i].name < m.probes[j].name })
}

// Refresh runs every probe and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	m.mu.RLock()
	probes := append([]namedProbe(nil), m.probes...)
	m.mu.RUnlock()

	status := Status{
		Healthy:   true,
		Probes:    make(map[string]ProbeStatus, len(probes)),
		LastCheck: time.Now(),
	}
	for _, p := range probes {
		result := m.check(ctx, p)
		if !result.Healthy {
			status.Healthy = false
			m.logger.Warn("dependency unhealthy", zap.String("probe", p.name), zap.String("error", result.Error))
		}
		status.Probes[p.name] = result
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

func (m *Monitor) check(ctx context.Context, p namedProbe) ProbeStatus {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := p.probe(probeCtx)
	result := ProbeStatus{
		Healthy:   err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
		CheckedAt: start,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// Status returns the result of the last Refresh.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Healthy reports whether every probe passed on the last Refresh. A monitor
// that has never refreshed is not healthy.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.status.LastCheck.IsZero() && m.status.Healthy
}
