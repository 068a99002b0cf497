// Package scheduler implements the priority dispatch core (components
// C8-C11): per-class admission/preemption, cooperative per-class dispatch
// loops with adaptive frequency, and a maintenance loop for expiry
// sweeping and degraded-mode bookkeeping. Grounded on
// original_source/src/messaging/priority_scheduler.py's MessageScheduler,
// generalized from its asyncio task model to goroutines + channels per
// spec.md §5's cooperative single-threaded task runtime description.
package scheduler

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/spacelinkd/corecomm/internal/clock"
	"github.com/spacelinkd/corecomm/internal/health"
	"github.com/spacelinkd/corecomm/internal/metrics"
	"github.com/spacelinkd/corecomm/internal/model"
	"github.com/spacelinkd/corecomm/internal/queue"
)

// Processor is the per-class work function hosts may register (spec.md §6:
// "process(message) -> success"). Returning an error is equivalent to a
// false success with the error recorded as the failure cause.
type Processor func(msg *model.Message) (bool, error)

// Config bundles the options spec.md §6's configuration table routes to
// the core (as opposed to outer-layer-only options).
type Config struct {
	MaxQueueSize               int
	EnableAdaptiveScheduling   bool
	ShutdownGraceTimeout       time.Duration
}

// DefaultConfig returns the scheduler defaults used when a host supplies no
// overrides.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:             1000,
		EnableAdaptiveScheduling: true,
		ShutdownGraceTimeout:     30 * time.Second,
	}
}

// baseFrequencyHz implements spec.md §4.2's nominal per-class base rates.
var baseFrequencyHz = map[model.PriorityClass]float64{
	model.CRITICAL: 1000,
	model.HIGH:     500,
	model.MEDIUM:   100,
	model.LOW:      10,
}

const maxFrequencyHz = 2000.0

// historyCap bounds the per-message dispatch history ring (spec.md §4.2
// "append to bounded history, ring, cap 1000").
const historyCap = 1000

// classState is the mutable per-class bookkeeping the dispatch loop and
// admission policy share, guarded by the global mutex alongside the active
// index (spec.md §5: "one global mutex guards the active-message index and
// degraded-mode flag").
type classState struct {
	consecutiveErrors int
	frequencyHz       float64
	processor         Processor
}

// Scheduler is the top-level orchestrator: owns the four class queues, the
// active-message index, and the shared degraded-mode flag. Lock order is
// always queue mutex -> Scheduler.mu, never reversed (spec.md §5).
type Scheduler struct {
	mu sync.Mutex

	cfg    Config
	clock  clock.Clock
	logger *log.Logger

	queues  map[model.PriorityClass]*queue.Queue
	active  map[string]model.PriorityClass // message_id -> owning class, while queued
	classes map[model.PriorityClass]*classState

	degradedMode bool

	metrics *metrics.Aggregator
	health  *health.Monitor

	conditionProvider func() model.ChannelCondition

	history   []HistoryEntry
	shutdown  chan struct{}
	shutdownOnce sync.Once
	wg        sync.WaitGroup
}

// HistoryEntry is one completed dispatch outcome, kept in the bounded ring
// spec.md §4.2 names.
type HistoryEntry struct {
	MessageID   string
	Class       model.PriorityClass
	Status      model.MessageStatus
	FinishedAt  time.Time
	Cause       string
}

// New constructs a Scheduler with one Queue per class, all at cfg's
// per-class capacity.
func New(cfg Config, c clock.Clock, logger *log.Logger, agg *metrics.Aggregator, mon *health.Monitor) *Scheduler {
	s := &Scheduler{
		cfg:     cfg,
		clock:   c,
		logger:  logger,
		queues:  make(map[model.PriorityClass]*queue.Queue, 4),
		active:  make(map[string]model.PriorityClass),
		classes: make(map[model.PriorityClass]*classState, 4),
		metrics: agg,
		health:  mon,
		shutdown: make(chan struct{}),
	}
	for _, class := range model.AllClasses {
		s.queues[class] = queue.New(class, cfg.MaxQueueSize)
		s.classes[class] = &classState{frequencyHz: baseFrequencyHz[class]}
	}
	return s
}

// RegisterProcessor installs (or replaces) the processor for class,
// idempotently (spec.md §6). Safe to call before or after dispatch starts.
func (s *Scheduler) RegisterProcessor(class model.PriorityClass, p Processor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[class].processor = p
}

// DegradedMode reports the scheduler's current degraded-mode flag.
func (s *Scheduler) DegradedMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degradedMode
}

// SetDegradedMode is how the maintenance loop (and health.Monitor) push a
// memory-pressure signal into the scheduler (spec.md §4.1 "degraded mode").
func (s *Scheduler) SetDegradedMode(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degradedMode = v
}

// SetConditionProvider installs the callback the maintenance loop polls each
// tick to feed the current channel condition into metrics (spec.md §6:
// MetricsSummary carries "current channel condition"). Typically
// adaptCtl.CurrentCondition from internal/adapt; kept as a plain function
// value here so this package need not import internal/adapt.
func (s *Scheduler) SetConditionProvider(provider func() model.ChannelCondition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conditionProvider = provider
}

// QueueClassStatus is one class's row in a QueueStatus snapshot.
type QueueClassStatus struct {
	Class             model.PriorityClass
	Depth             int
	Capacity          int
	FrequencyHz       float64
	ConsecutiveErrors int
}

// QueueStatus is the read-only snapshot spec.md §6 names.
type QueueStatus struct {
	Classes      []QueueClassStatus
	DegradedMode bool
}

// Status returns a point-in-time QueueStatus snapshot.
func (s *Scheduler) Status() QueueStatus {
	s.mu.Lock()
	classesCopy := make(map[model.PriorityClass]*classState, len(s.classes))
	for k, v := range s.classes {
		cp := *v
		classesCopy[k] = &cp
	}
	degraded := s.degradedMode
	s.mu.Unlock()

	out := QueueStatus{DegradedMode: degraded}
	for _, class := range model.AllClasses {
		q := s.queues[class]
		cs := classesCopy[class]
		out.Classes = append(out.Classes, QueueClassStatus{
			Class:             class,
			Depth:             q.Len(),
			Capacity:          q.Capacity(),
			FrequencyHz:       cs.frequencyHz,
			ConsecutiveErrors: cs.consecutiveErrors,
		})
	}
	return out
}

// PopHighest returns the message with the maximum priority key across all
// classes at this instant, ties broken by earliest created_at (spec.md §8's
// pop invariant and §8 scenario 1's cross-class strict-priority ordering).
// It scans from CRITICAL down to LOW and pops the first non-empty queue —
// correct because within a class the heap already returns the earliest
// created_at, and no lower class may be chosen while any higher one is
// non-empty.
func (s *Scheduler) PopHighest() *model.Message {
	for i := len(model.AllClasses) - 1; i >= 0; i-- {
		class := model.AllClasses[i]
		if msg := s.queues[class].Pop(); msg != nil {
			s.clearActive(msg.ID)
			return msg
		}
	}
	return nil
}

// History returns a copy of the bounded dispatch-outcome ring.
func (s *Scheduler) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HistoryEntry(nil), s.history...)
}

func (s *Scheduler) appendHistory(e HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
}

// TrimHistory truncates the dispatch-outcome history ring to at most n
// entries, discarding the oldest first. Intended as the health.Monitor's
// cleanup action once memory pressure crosses its threshold (spec.md §4.7
// ">80% -> trim history to 500").
func (s *Scheduler) TrimHistory(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) > n {
		s.history = s.history[len(s.history)-n:]
	}
}

// Shutdown signals every running loop to stop at its next iteration
// boundary and waits up to cfg.ShutdownGraceTimeout for in-flight work to
// finish (spec.md §5 cancellation policy).
func (s *Scheduler) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownGraceTimeout):
		if s.logger != nil {
			s.logger.Warn("shutdown grace period elapsed with loops still running")
		}
	}
}
