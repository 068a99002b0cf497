package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spacelinkd/corecomm/internal/logging"
	"github.com/spacelinkd/corecomm/internal/model"
)

func TestAggregator_RecordAndSnapshot(t *testing.T) {
	start := time.Unix(0, 0)
	a := New(logging.Discard(), start)

	a.RecordProcessed(model.CRITICAL, "S-band", 128.0, 2*time.Millisecond, true)
	a.RecordProcessed(model.CRITICAL, "S-band", 64.0, 500*time.Microsecond, false)

	snap := a.Snapshot(start.Add(10 * time.Second))
	assert.Equal(t, int64(2), snap.MessagesByClass["CRITICAL"])
	assert.Equal(t, 0.5, snap.ErrorRateByClass["CRITICAL"])
	assert.Equal(t, []float64{128.0, 64.0}, snap.BandwidthByBand["S-band"])
	assert.Equal(t, 10.0, snap.UptimeSeconds)
}

func TestAggregator_LatencyReservoirBounded(t *testing.T) {
	a := New(nil, time.Unix(0, 0))
	for i := 0; i < latencyReservoirCap+50; i++ {
		a.RecordProcessed(model.LOW, "", 1.0, time.Millisecond, true)
	}
	stats := a.byClass[model.LOW]
	assert.Len(t, stats.latencies, latencyReservoirCap)
}

func TestAggregator_ResourceHistoryBounded(t *testing.T) {
	a := New(nil, time.Unix(0, 0))
	for i := 0; i < resourceHistoryCap+20; i++ {
		a.RecordResourceSample(50.0, 40.0)
	}
	assert.Len(t, a.cpuHistory, resourceHistoryCap)
	assert.Len(t, a.memoryHistory, resourceHistoryCap)
}

func TestAggregator_CurrentResourcePercentsReflectLastSample(t *testing.T) {
	a := New(nil, time.Unix(0, 0))
	a.RecordResourceSample(10, 20)
	a.RecordResourceSample(30, 40)
	snap := a.Snapshot(time.Unix(1, 0))
	assert.Equal(t, 30.0, snap.CurrentCPUPercent)
	assert.Equal(t, 40.0, snap.CurrentMemPercent)
}

func TestAggregator_ChannelConditionDefaultsToGood(t *testing.T) {
	a := New(nil, time.Unix(0, 0))
	snap := a.Snapshot(time.Unix(0, 0))
	assert.Equal(t, model.Good, snap.ChannelCondition)
}

func TestAggregator_SetChannelConditionReflectedInSnapshot(t *testing.T) {
	a := New(nil, time.Unix(0, 0))
	a.SetChannelCondition(model.Severe)
	snap := a.Snapshot(time.Unix(0, 0))
	assert.Equal(t, model.Severe, snap.ChannelCondition)
}

func TestAggregator_RouteDistanceReflectsLastSample(t *testing.T) {
	a := New(nil, time.Unix(0, 0))
	a.RecordRouteDistance(1200.5)
	a.RecordRouteDistance(980.25)
	snap := a.Snapshot(time.Unix(0, 0))
	assert.Equal(t, 980.25, snap.CurrentRouteDistanceKM)
}
