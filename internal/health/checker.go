// Package health runs periodic readiness probes against the service's
// backing stores.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Probe checks one dependency.
type Probe interface {
	Name() string
	Ping(ctx context.Context) error
}

type probeFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (p probeFunc) Name() string                   { return p.name }
func (p probeFunc) Ping(ctx context.Context) error { return p.fn(ctx) }

// NewProbe wraps fn as a named Probe.
func NewProbe(name string, fn func(ctx context.Context) error) Probe {
	return probeFunc{name: name, fn: fn}
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(dependency string, success bool)

// DependencyStatus is the last known state of one dependency.
type DependencyStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Failures  int       `json:"consecutive_failures"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
}

// HealthChecker probes dependencies and tracks consecutive failures.
// A dependency is degraded once its failures reach FailThreshold.
type HealthChecker struct {
	probes    []Probe
	mu        sync.RWMutex
	state     map[string]*DependencyStatus
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a new HealthChecker. Every dependency starts healthy.
func New(probes []Probe, cfg Config, logger *zap.Logger) *HealthChecker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 15 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	state := make(map[string]*DependencyStatus, len(probes))
	for _, p := range probes {
		state[p.Name()] = &DependencyStatus{Name: p.Name(), Status: StatusHealthy}
	}

	return &HealthChecker{
		probes: probes,
		state:  state,
		cfg:    cfg,
		logger: logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (h *HealthChecker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs the check loop until ctx is cancelled.
func (h *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll probes every dependency concurrently and waits for all of them.
func (h *HealthChecker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range h.probes {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout)
			err := p.Ping(probeCtx)
			cancel()

			if h.onMetrics != nil {
				h.onMetrics(p.Name(), err == nil)
			}
			h.record(p.Name(), err)
		}()
	}
	wg.Wait()
}

func (h *HealthChecker) record(name string, err error) {
	h.mu.Lock()
	st := h.state[name]
	prev := st.Failures
	st.CheckedAt = time.Now().UTC()
	if err == nil {
		st.Failures = 0
		st.LastError = ""
		st.Status = StatusHealthy
	} else {
		st.Failures++
		st.LastError = err.Error()
		if st.Failures >= h.cfg.FailThreshold {
			st.Status = StatusDegraded
		}
	}
	count := st.Failures
	h.mu.Unlock()

	switch {
	case err == nil && prev >= h.cfg.FailThreshold:
		h.logger.Info("health: recovered", zap.String("dependency", name))
	case err != nil && count == h.cfg.FailThreshold:
		h.logger.Warn("health: degraded",
			zap.String("dependency", name),
			zap.Int("fail_count", count),
			zap.Error(err),
		)
	case err != nil:
		h.logger.Debug("health: probe failed", zap.String("dependency", name), zap.Error(err))
	}
}

// Status returns a snapshot of every dependency, sorted by name.
func (h *HealthChecker) Status() []DependencyStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]DependencyStatus, 0, len(h.state))
	for _, st := range h.state {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Ready reports whether no dependency is degraded.
func (h *HealthChecker) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, st := range h.state {
		if st.Status == StatusDegraded {
			return false
		}
	}
	return true
}
