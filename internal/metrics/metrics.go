// Package metrics implements the aggregator (component C2): bounded
// per-class latency/count/error reservoirs, per-band bandwidth history,
// CPU/memory sample history, and the threshold alarms spec.md §4.7 names.
// Grounded on the teacher's PerformanceMetrics/PerformanceTracker classes
// (original_source/src/messaging/priority_scheduler.py,
// original_source/src/fault_tolerance/ldpc_error_correction.py), translated
// from Python deque(maxlen=...) ring buffers to hand-rolled bounded slices.
package metrics

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/spacelinkd/corecomm/internal/model"
)

const (
	latencyReservoirCap = 1000
	bandwidthHistoryCap = 100
	resourceHistoryCap  = 100
)

// latencyThresholds mirrors spec.md §4.7's per-class limits.
var latencyThresholds = map[model.PriorityClass]time.Duration{
	model.CRITICAL: 1 * time.Millisecond,
	model.HIGH:     10 * time.Millisecond,
	model.MEDIUM:   50 * time.Millisecond,
	model.LOW:      1000 * time.Millisecond,
}

const errorRateThreshold = 0.05

type classStats struct {
	latencies []time.Duration
	count     int64
	errors    int64
}

// Aggregator collects scheduler and LDPC performance metrics under a single
// mutex (small critical sections; see spec.md §5 concurrency model).
type Aggregator struct {
	mu     sync.Mutex
	logger *log.Logger
	start  time.Time

	byClass map[model.PriorityClass]*classStats
	byBand  map[string][]float64

	cpuHistory          []float64
	memoryHistory       []float64
	routeDistanceKMHist []float64

	channelCondition model.ChannelCondition
}

// New returns an Aggregator. logger may be nil, in which case threshold
// alarms are silently dropped (used in tests).
func New(logger *log.Logger, start time.Time) *Aggregator {
	byClass := make(map[model.PriorityClass]*classStats, 4)
	for _, c := range model.AllClasses {
		byClass[c] = &classStats{}
	}
	return &Aggregator{
		logger:           logger,
		start:            start,
		byClass:          byClass,
		byBand:           make(map[string][]float64),
		channelCondition: model.Good,
	}
}

// SetChannelCondition records the adaptation controller's current channel
// classification, so Snapshot can report it as part of MetricsSummary
// (spec.md §6: component C2 owns "current channel condition").
func (a *Aggregator) SetChannelCondition(c model.ChannelCondition) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.channelCondition = c
}

// RecordProcessed records one message's processing outcome (spec.md §4.7).
func (a *Aggregator) RecordProcessed(class model.PriorityClass, band string, bandwidth float64, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := a.byClass[class]
	stats.count++
	stats.latencies = append(stats.latencies, latency)
	if len(stats.latencies) > latencyReservoirCap {
		stats.latencies = stats.latencies[len(stats.latencies)-latencyReservoirCap:]
	}
	if !success {
		stats.errors++
	}

	if band != "" {
		hist := append(a.byBand[band], bandwidth)
		if len(hist) > bandwidthHistoryCap {
			hist = hist[len(hist)-bandwidthHistoryCap:]
		}
		a.byBand[band] = hist
	}

	a.checkLatencyAlarm(class, latency)
	a.checkErrorRateAlarm(class, stats)
}

// RecordResourceSample appends one CPU/memory percentage sample and logs
// the fixed threshold alarms spec.md §4.7 specifies.
func (a *Aggregator) RecordResourceSample(cpuPercent, memPercent float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cpuHistory = appendBounded(a.cpuHistory, cpuPercent, resourceHistoryCap)
	a.memoryHistory = appendBounded(a.memoryHistory, memPercent, resourceHistoryCap)

	if a.logger == nil {
		return
	}
	if cpuPercent > 85.0 {
		a.logger.Warn("CPU usage critical", "percent", cpuPercent)
	} else if cpuPercent > 80.0 {
		a.logger.Warn("CPU usage elevated", "percent", cpuPercent)
	}
	if memPercent > 90.0 {
		a.logger.Warn("memory usage critical", "percent", memPercent)
	} else if memPercent > 85.0 {
		a.logger.Warn("memory usage elevated", "percent", memPercent)
	}
}

// RecordRouteDistance appends one route_distance_km sample, the
// ground-station locator's (component C13) extra metric dimension.
func (a *Aggregator) RecordRouteDistance(km float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routeDistanceKMHist = appendBounded(a.routeDistanceKMHist, km, resourceHistoryCap)
}

func (a *Aggregator) checkLatencyAlarm(class model.PriorityClass, latency time.Duration) {
	if a.logger == nil {
		return
	}
	if threshold, ok := latencyThresholds[class]; ok && latency > threshold {
		a.logger.Warn("latency threshold exceeded", "class", class.String(), "latency", latency, "threshold", threshold)
	}
}

func (a *Aggregator) checkErrorRateAlarm(class model.PriorityClass, stats *classStats) {
	if a.logger == nil || stats.count == 0 {
		return
	}
	rate := float64(stats.errors) / float64(stats.count)
	if rate > errorRateThreshold {
		a.logger.Warn("error rate threshold exceeded", "class", class.String(), "rate", rate)
	}
}

func appendBounded(hist []float64, v float64, cap int) []float64 {
	hist = append(hist, v)
	if len(hist) > cap {
		hist = hist[len(hist)-cap:]
	}
	return hist
}

// Summary is the read-only snapshot returned by Snapshot.
type Summary struct {
	UptimeSeconds     float64
	TotalMessages     int64
	MessagesByClass   map[string]int64
	ErrorRateByClass  map[string]float64
	AvgLatencyByClass map[string]time.Duration
	CurrentCPUPercent float64
	CurrentMemPercent float64
	BandwidthByBand   map[string][]float64
	ChannelCondition  model.ChannelCondition

	// CurrentRouteDistanceKM is the most recent route_distance_km sample
	// from the ground-station locator (component C13), or 0 if none have
	// arrived yet.
	CurrentRouteDistanceKM float64
}

// Snapshot returns a point-in-time copy of every metric, safe to read
// without holding the Aggregator's lock (spec.md §5 "clone out, release").
func (a *Aggregator) Snapshot(now time.Time) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		UptimeSeconds:     now.Sub(a.start).Seconds(),
		MessagesByClass:   make(map[string]int64, len(a.byClass)),
		ErrorRateByClass:  make(map[string]float64, len(a.byClass)),
		AvgLatencyByClass: make(map[string]time.Duration, len(a.byClass)),
		BandwidthByBand:   make(map[string][]float64, len(a.byBand)),
		ChannelCondition:  a.channelCondition,
	}

	for class, stats := range a.byClass {
		s.TotalMessages += stats.count
		s.MessagesByClass[class.String()] = stats.count
		if stats.count > 0 {
			s.ErrorRateByClass[class.String()] = float64(stats.errors) / float64(stats.count)
		}
		s.AvgLatencyByClass[class.String()] = averageDuration(stats.latencies)
	}

	for band, hist := range a.byBand {
		s.BandwidthByBand[band] = append([]float64(nil), hist...)
	}

	if len(a.cpuHistory) > 0 {
		s.CurrentCPUPercent = a.cpuHistory[len(a.cpuHistory)-1]
	}
	if len(a.memoryHistory) > 0 {
		s.CurrentMemPercent = a.memoryHistory[len(a.memoryHistory)-1]
	}
	if len(a.routeDistanceKMHist) > 0 {
		s.CurrentRouteDistanceKM = a.routeDistanceKMHist[len(a.routeDistanceKMHist)-1]
	}

	return s
}

func averageDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}
