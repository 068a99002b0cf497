package scheduler

import (
	"github.com/spacelinkd/corecomm/internal/model"
)

// Admit applies spec.md §4.1's capacity policy: degraded-mode filtering,
// duplicate rejection, direct enqueue when under capacity, else
// sweep-then-preempt-then-reject.
//
// max_queue_size gates the TOTAL message count across all four classes here,
// not each class's own queue independently. The per-class Queue.capacity is
// still set to max_queue_size (see New) so dispatch.go's depth/capacity ratio
// stays meaningful, but since total active count can never exceed
// max_queue_size under this gate, no class's own count can either, so
// Queue.Push's per-class check never trips ahead of this one. Read literally,
// spec.md §4.1's prose and the original source's max_queue_size field are
// both per-class, but that reading can never preempt a lower class on behalf
// of an incoming message whose own queue still has room — which is exactly
// spec.md §8 scenario 2's outcome. Treating the cap as global is what makes
// scenario 2 reachable at all.
func (s *Scheduler) Admit(msg *model.Message) error {
	if err := msg.Validate(); err != nil {
		return model.NewAdmitError(model.ReasonInvalidParameters, err)
	}

	s.mu.Lock()
	degraded := s.degradedMode
	_, duplicate := s.active[msg.ID]
	s.mu.Unlock()

	if duplicate {
		return model.NewAdmitError(model.ReasonDuplicateID, model.ErrDuplicateID)
	}

	if degraded && msg.Class != model.CRITICAL && msg.Class != model.HIGH {
		return model.NewAdmitError(model.ReasonDegradedModeDrop, model.ErrDegradedModeDrop)
	}

	now := s.clock.Now()
	msg.Status = model.QUEUED
	msg.QueuedAt = now
	msg.LastUpdatedAt = now

	target := s.queues[msg.Class]

	if s.totalActive() < s.cfg.MaxQueueSize && target.Push(msg) {
		s.markActive(msg.ID, msg.Class)
		return nil
	}

	// Over capacity: sweep expired entries across every class first.
	s.SweepAllExpired()

	if s.totalActive() < s.cfg.MaxQueueSize && target.Push(msg) {
		s.markActive(msg.ID, msg.Class)
		return nil
	}

	// Still full: preempt a lower class if the incoming message is HIGH or
	// CRITICAL (spec.md §4.1 step 3).
	if msg.Class == model.CRITICAL || msg.Class == model.HIGH {
		if victimClass, ok := s.lowestNonEmptyClassBelow(msg.Class); ok {
			victimQueue := s.queues[victimClass]
			if victim := victimQueue.EvictOldest(); victim != nil {
				victim.Status = model.DROPPED
				victim.LastUpdatedAt = now
				victim.AppendError(string(model.ReasonPreempted))
				s.clearActive(victim.ID)

				if target.Push(msg) {
					s.markActive(msg.ID, msg.Class)
					return nil
				}
			}
		}
	}

	return model.NewAdmitError(model.ReasonQueueFull, model.ErrQueueFull)
}

func (s *Scheduler) totalActive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// lowestNonEmptyClassBelow returns the lowest-priority non-empty class
// strictly below incoming, per spec.md §4.1 step 3.
func (s *Scheduler) lowestNonEmptyClassBelow(incoming model.PriorityClass) (model.PriorityClass, bool) {
	for _, class := range model.AllClasses {
		if class >= incoming {
			break
		}
		if s.queues[class].Len() > 0 {
			return class, true
		}
	}
	return 0, false
}

func (s *Scheduler) markActive(id string, class model.PriorityClass) {
	s.mu.Lock()
	s.active[id] = class
	s.mu.Unlock()
}

func (s *Scheduler) clearActive(id string) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}
