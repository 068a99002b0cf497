// Package health implements the resource probe (component C12): sampling
// CPU and memory utilization, and the memory-pressure state machine spec.md
// §4.7 describes. Grounded on the teacher's psutil-based
// PerformanceMetrics.record_system_metrics (priority_scheduler.py) and
// PerformanceTracker (ldpc_error_correction.py), generalized from a Python
// psutil call into a real Linux syscall probe with a stdlib fallback.
package health

import (
	"sync"
	"time"
)

const (
	historyCap = 100

	// Thresholds from spec.md §4.7/§4.6.
	cleanupThreshold  = 80.0
	degradedThreshold = 90.0
	clearThreshold    = 75.0

	trimmedHistoryCap = 500
)

// Probe samples the host's current CPU and memory utilization, each as a
// percentage in [0, 100].
type Probe interface {
	Sample() (cpuPercent, memPercent float64, err error)
}

// CleanupFunc is invoked once when the memory-pressure signal first crosses
// cleanupThreshold, so the caller can drop completed-message entries and
// trim its own history to trimmedHistoryCap (spec.md §4.7).
type CleanupFunc func()

// Monitor periodically samples Probe, keeps a bounded history, and tracks
// the memory-pressure / degraded-mode state machine.
type Monitor struct {
	mu sync.Mutex

	probe   Probe
	cleanup CleanupFunc

	cpuHistory []float64
	memHistory []float64

	cleanupTriggered bool
	degradedMode     bool
}

// NewMonitor returns a Monitor sampling probe. cleanup may be nil.
func NewMonitor(probe Probe, cleanup CleanupFunc) *Monitor {
	return &Monitor{probe: probe, cleanup: cleanup}
}

// Sample draws one reading from the underlying probe, records it, and
// updates the memory-pressure state machine. It returns the reading so
// callers can feed it straight to the metrics aggregator.
func (m *Monitor) Sample() (cpuPercent, memPercent float64, err error) {
	cpuPercent, memPercent, err = m.probe.Sample()
	if err != nil {
		return 0, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cpuHistory = appendBounded(m.cpuHistory, cpuPercent, historyCap)
	m.memHistory = appendBounded(m.memHistory, memPercent, historyCap)

	switch {
	case memPercent > degradedThreshold:
		if !m.cleanupTriggered {
			m.triggerCleanup()
		}
		m.degradedMode = true
	case memPercent > cleanupThreshold:
		if !m.cleanupTriggered {
			m.triggerCleanup()
		}
	case memPercent <= clearThreshold:
		m.cleanupTriggered = false
		m.degradedMode = false
	}

	return cpuPercent, memPercent, nil
}

func (m *Monitor) triggerCleanup() {
	m.cleanupTriggered = true
	if m.cleanup != nil {
		m.cleanup()
	}
}

// DegradedMode reports whether memory pressure has crossed into the
// degraded-mode zone (spec.md §4.7, consulted by admission per §4.1).
func (m *Monitor) DegradedMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degradedMode
}

// History returns copies of the CPU and memory sample histories.
func (m *Monitor) History() (cpu, mem []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.cpuHistory...), append([]float64(nil), m.memHistory...)
}

func appendBounded(hist []float64, v float64, cap int) []float64 {
	hist = append(hist, v)
	if len(hist) > cap {
		hist = hist[len(hist)-cap:]
	}
	return hist
}

// TrimmedHistoryCap is exported so a scheduler's own history ring can match
// spec.md §4.7's ">80% -> trim history to 500" rule.
const TrimmedHistoryCap = trimmedHistoryCap

// SamplingInterval is the teacher's nominal system-monitoring loop period
// (priority_scheduler.py's _system_monitoring_loop default).
const SamplingInterval = 5 * time.Second
