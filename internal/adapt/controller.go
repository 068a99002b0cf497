// Package adapt implements the adaptation controller (component C7):
// classifying channel condition from decoded BER samples and switching the
// active ErrorCorrectionMode, per spec.md §4.6. Grounded on the teacher's
// Python LDPCEncoder._adapt_code_parameters/_switch_to_mode, generalized
// from an in-object method pair into a standalone, injectable component.
package adapt

import (
	"sync"
	"time"

	"github.com/spacelinkd/corecomm/internal/clock"
	"github.com/spacelinkd/corecomm/internal/ldpccode"
	"github.com/spacelinkd/corecomm/internal/model"
)

// berHistoryCap bounds the BER ring spec.md §4.6 specifies ("ring <= 100").
const berHistoryCap = 100

// burstWindow and burstThreshold implement spec.md §4.6's burst alarm:
// 5+ BER>10% events inside any 60-second window.
const (
	burstWindow    = 60 * time.Second
	burstThreshold = 5
)

// ModeChange records one controller-driven mode switch, for logging and
// for tests asserting scenario 7 of spec.md §8.
type ModeChange struct {
	At        time.Time
	From, To  model.ErrorCorrectionMode
	Condition model.ChannelCondition
}

// Controller tracks BER history and the active ErrorCorrectionMode,
// invalidating the shared matrix cache whenever the mode changes.
type Controller struct {
	mu sync.Mutex

	clock clock.Clock
	cache *ldpccode.Cache

	berHistory        []float64
	conditionHistory  []model.ChannelCondition
	currentMode       model.ErrorCorrectionMode
	params            model.CodeParameters
	modeHistory       []ModeChange
	burstTimestamps   []time.Time
	burstAlarmRaised  bool
}

// New returns a Controller seeded at mode Standard, sharing cache so a
// mode change can invalidate it.
func New(c clock.Clock, cache *ldpccode.Cache, initial model.CodeParameters) *Controller {
	initial.CodeRate = model.CodeRateFor(model.Standard)
	return &Controller{
		clock:       c,
		cache:       cache,
		currentMode: model.Standard,
		params:      initial,
	}
}

// CurrentMode returns the controller's active mode.
func (ctl *Controller) CurrentMode() model.ErrorCorrectionMode {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.currentMode
}

// CurrentParameters returns the controller's active CodeParameters.
func (ctl *Controller) CurrentParameters() model.CodeParameters {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.params
}

// CurrentCondition returns the most recently observed ChannelCondition,
// defaulting to Good when no samples have arrived yet (spec.md §4.6 mirrors
// the teacher's "no data yet" default of GOOD).
func (ctl *Controller) CurrentCondition() model.ChannelCondition {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if len(ctl.conditionHistory) == 0 {
		return model.Good
	}
	return ctl.conditionHistory[len(ctl.conditionHistory)-1]
}

// ModeHistory returns a copy of every mode switch the controller has made.
func (ctl *Controller) ModeHistory() []ModeChange {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return append([]ModeChange(nil), ctl.modeHistory...)
}

// BurstAlarmActive reports whether an unacknowledged error-burst notice is
// currently raised (spec.md §4.6: observability only, never drives mode).
func (ctl *Controller) BurstAlarmActive() bool {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.burstAlarmRaised
}

// Observe feeds one decoded block's BER into the controller, updates the
// channel classification and burst-alarm state, switches mode if warranted,
// and reports whether the mode switched along with the resulting mode. The
// burst-alarm state is read separately via BurstAlarmActive.
func (ctl *Controller) Observe(ber float64) (switched bool, newMode model.ErrorCorrectionMode) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()

	now := ctl.clock.Now()

	ctl.berHistory = append(ctl.berHistory, ber)
	if len(ctl.berHistory) > berHistoryCap {
		ctl.berHistory = ctl.berHistory[len(ctl.berHistory)-berHistoryCap:]
	}

	condition := model.ClassifyBER(ber)
	ctl.conditionHistory = append(ctl.conditionHistory, condition)
	if len(ctl.conditionHistory) > berHistoryCap {
		ctl.conditionHistory = ctl.conditionHistory[len(ctl.conditionHistory)-berHistoryCap:]
	}

	if ber > 0.10 {
		ctl.burstTimestamps = append(ctl.burstTimestamps, now)
	}
	cutoff := now.Add(-burstWindow)
	kept := ctl.burstTimestamps[:0]
	for _, ts := range ctl.burstTimestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	ctl.burstTimestamps = kept
	ctl.burstAlarmRaised = len(ctl.burstTimestamps) >= burstThreshold

	desired := model.ModeForCondition(condition)
	if desired == ctl.currentMode {
		return false, ctl.currentMode
	}

	prev := ctl.currentMode
	ctl.currentMode = desired
	ctl.params.CodeRate = model.CodeRateFor(desired)
	ctl.modeHistory = append(ctl.modeHistory, ModeChange{At: now, From: prev, To: desired, Condition: condition})

	if ctl.cache != nil {
		ctl.cache.Invalidate()
	}

	return true, desired
}
