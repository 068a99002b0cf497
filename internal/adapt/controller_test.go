package adapt

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacelinkd/corecomm/internal/clock"
	"github.com/spacelinkd/corecomm/internal/ldpccode"
	"github.com/spacelinkd/corecomm/internal/model"
)

func newController() (*Controller, *clock.Fake, *ldpccode.Cache) {
	fc := clock.NewFake(time.Unix(0, 0))
	cache := ldpccode.NewCache(fc, rand.New(rand.NewSource(1)), 0)
	initial := model.CodeParameters{CodeRate: 0.5, BlockLength: 1024, MaxIterations: 50, SyndromeThreshold: 1}
	return New(fc, cache, initial), fc, cache
}

// TestAdaptation_SevereThenExcellent is spec.md §8 scenario 7.
func TestAdaptation_SevereThenExcellent(t *testing.T) {
	ctl, fc, cache := newController()

	// Prime the cache so we can observe Invalidate() taking effect.
	_, err := cache.Get(ctl.CurrentParameters())
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	for i := 0; i < 10; i++ {
		ctl.Observe(0.20)
		fc.Advance(time.Second)
	}
	assert.Equal(t, model.Severe, ctl.CurrentCondition())
	assert.Equal(t, model.HighRedundancy, ctl.CurrentMode())
	assert.InDelta(t, 1.0/3.0, ctl.CurrentParameters().CodeRate, 1e-9)
	assert.Equal(t, 0, cache.Len(), "mode change must invalidate the matrix cache")

	for i := 0; i < 10; i++ {
		ctl.Observe(0.005)
		fc.Advance(time.Second)
	}
	assert.Equal(t, model.Excellent, ctl.CurrentCondition())
	assert.Equal(t, model.Fast, ctl.CurrentMode())
	assert.InDelta(t, 0.75, ctl.CurrentParameters().CodeRate, 1e-9)
}

func TestAdaptation_BurstAlarmRequiresFiveEventsInWindow(t *testing.T) {
	ctl, fc, _ := newController()

	for i := 0; i < 4; i++ {
		ctl.Observe(0.15)
		fc.Advance(10 * time.Second)
	}
	assert.False(t, ctl.BurstAlarmActive())

	ctl.Observe(0.15)
	assert.True(t, ctl.BurstAlarmActive())
}

func TestAdaptation_BurstAlarmExpiresOutsideWindow(t *testing.T) {
	ctl, fc, _ := newController()
	for i := 0; i < 5; i++ {
		ctl.Observe(0.15)
	}
	assert.True(t, ctl.BurstAlarmActive())

	fc.Advance(61 * time.Second)
	ctl.Observe(0.01) // non-burst sample; should re-evaluate and clear
	assert.False(t, ctl.BurstAlarmActive())
}

func TestAdaptation_NoModeChangeWithinSameCondition(t *testing.T) {
	ctl, _, _ := newController()
	switched, _ := ctl.Observe(0.02) // GOOD -> STANDARD is already current
	assert.False(t, switched)
	assert.Empty(t, ctl.ModeHistory())
}
