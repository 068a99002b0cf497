package scheduler

import (
	"fmt"
	"time"

	"github.com/spacelinkd/corecomm/internal/groundstation"
	"github.com/spacelinkd/corecomm/internal/model"
)

// StartDispatchLoops launches one cooperative worker goroutine per class
// (spec.md §4.2). Call Shutdown to stop them.
func (s *Scheduler) StartDispatchLoops() {
	for _, class := range model.AllClasses {
		class := class
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.dispatchLoop(class)
		}()
	}
}

func (s *Scheduler) dispatchLoop(class model.PriorityClass) {
	for {
		select {
		case <-s.shutdown:
			return
		default:
		}

		interval := s.nextInterval(class)
		q := s.queues[class]

		msg := q.Pop()
		if msg == nil {
			s.clock.Sleep(minDuration(5*interval, 100*time.Millisecond))
			continue
		}

		s.clearActive(msg.ID)
		s.processOne(class, msg)
		s.clock.Sleep(interval)
	}
}

// nextInterval implements spec.md §4.2's adaptive frequency formula,
// falling back to the flat base frequency when adaptive scheduling is
// disabled.
func (s *Scheduler) nextInterval(class model.PriorityClass) time.Duration {
	q := s.queues[class]

	s.mu.Lock()
	cs := s.classes[class]
	freq := baseFrequencyHz[class]
	errCount := cs.consecutiveErrors
	s.mu.Unlock()

	if s.cfg.EnableAdaptiveScheduling {
		depth := q.Len()
		capacity := q.Capacity()
		if capacity > 0 {
			ratio := float64(depth) / float64(capacity)
			switch {
			case ratio > 0.8:
				freq *= 1.5
			case ratio > 0.5:
				freq *= 1.2
			}
		}
		if depth > 0 && float64(errCount)/float64(depth) > 0.1 {
			freq *= 0.8
		}
		if freq > maxFrequencyHz {
			freq = maxFrequencyHz
		}
	}

	s.mu.Lock()
	cs.frequencyHz = freq
	s.mu.Unlock()

	if freq <= 0 {
		freq = 1
	}
	return time.Duration(float64(time.Second) / freq)
}

// processOne runs the per-message processing step of spec.md §4.2.
func (s *Scheduler) processOne(class model.PriorityClass, msg *model.Message) {
	now := s.clock.Now()
	msg.ProcessingStartedAt = now

	if msg.IsExpired(now) {
		msg.Status = model.TIMEOUT
		msg.LastUpdatedAt = now
		s.finishMessage(class, msg, "expired before processing")
		return
	}

	s.mu.Lock()
	processor := s.classes[class].processor
	s.mu.Unlock()

	var success bool
	var cause string
	var timedOut bool

	if processor == nil {
		// Default simulated processor: spec.md §4.2 "sleep
		// processing_time_estimate and declare success".
		s.clock.Sleep(msg.ProcessingTimeEstimate)
		success = true
	} else {
		success, cause, timedOut = s.runWithTimeout(processor, msg)
	}

	finish := s.clock.Now()
	msg.ProcessingFinishedAt = finish
	msg.LastUpdatedAt = finish
	latency := finish.Sub(msg.ProcessingStartedAt)

	switch {
	case timedOut:
		msg.Status = model.TIMEOUT
	case success:
		msg.Status = model.COMPLETED
	default:
		msg.Status = model.FAILED
		if cause != "" {
			msg.AppendError(cause)
		}
	}

	s.recordOutcome(class, success && !timedOut)

	if s.metrics != nil {
		s.metrics.RecordProcessed(class, msg.Routing.FrequencyBand, msg.BandwidthRequired, latency, success && !timedOut)
		if km, ok := groundstation.RouteDistanceKM(msg.Routing); ok {
			s.metrics.RecordRouteDistance(km)
		}
	}

	s.finishMessage(class, msg, cause)
}

// runWithTimeout invokes processor under time_constraints.timeout_ms
// (spec.md §4.2 step 3), catching a panic as a ProcessorFailure cause
// rather than crashing the dispatch loop.
func (s *Scheduler) runWithTimeout(processor Processor, msg *model.Message) (success bool, cause string, timedOut bool) {
	type outcome struct {
		ok    bool
		cause string
	}
	resultCh := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- outcome{ok: false, cause: fmt.Sprintf("processor panic: %v", r)}
			}
		}()
		ok, err := processor(msg)
		c := ""
		if err != nil {
			c = err.Error()
		}
		resultCh <- outcome{ok: ok, cause: c}
	}()

	timeout := msg.Time.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	select {
	case r := <-resultCh:
		return r.ok, r.cause, false
	case <-time.After(timeout):
		return false, "processor timeout", true
	}
}

func (s *Scheduler) recordOutcome(class model.PriorityClass, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.classes[class]
	if success {
		cs.consecutiveErrors = 0
	} else {
		cs.consecutiveErrors++
	}
}

func (s *Scheduler) finishMessage(class model.PriorityClass, msg *model.Message, cause string) {
	s.appendHistory(HistoryEntry{
		MessageID:  msg.ID,
		Class:      class,
		Status:     msg.Status,
		FinishedAt: msg.LastUpdatedAt,
		Cause:      cause,
	})
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
