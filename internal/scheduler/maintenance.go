package scheduler

import (
	"github.com/spacelinkd/corecomm/internal/health"
	"github.com/spacelinkd/corecomm/internal/model"
)

// maintenanceInterval is the nominal period between expiry sweeps and
// resource samples (spec.md §4.7's system-monitoring-loop cadence).
const maintenanceInterval = health.SamplingInterval

// SweepExpired runs spec.md §4.1's sweep_expired(class) on one class,
// marking every expired message TIMEOUT and removing it from the active
// index. Returns the count removed.
func (s *Scheduler) SweepExpired(class model.PriorityClass) int {
	now := s.clock.Now()
	return s.queues[class].SweepExpired(
		func(m *model.Message) bool { return m.IsExpired(now) },
		func(m *model.Message) {
			m.Status = model.TIMEOUT
			m.LastUpdatedAt = now
			s.clearActive(m.ID)
			s.appendHistory(HistoryEntry{
				MessageID:  m.ID,
				Class:      class,
				Status:     model.TIMEOUT,
				FinishedAt: now,
				Cause:      "expired while queued",
			})
		},
	)
}

// SweepAllExpired runs SweepExpired across every class, returning the total
// removed.
func (s *Scheduler) SweepAllExpired() int {
	total := 0
	for _, class := range model.AllClasses {
		total += s.SweepExpired(class)
	}
	return total
}

// StartMaintenanceLoop launches the maintenance loop (component C11):
// periodic expiry sweeps plus a resource sample feeding the degraded-mode
// flag from the health.Monitor, per spec.md §4.7.
func (s *Scheduler) StartMaintenanceLoop() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.shutdown:
				return
			default:
			}

			s.SweepAllExpired()

			if s.health != nil {
				if cpu, mem, err := s.health.Sample(); err == nil {
					if s.metrics != nil {
						s.metrics.RecordResourceSample(cpu, mem)
					}
					s.SetDegradedMode(s.health.DegradedMode())
				}
			}

			s.mu.Lock()
			provider := s.conditionProvider
			s.mu.Unlock()
			if provider != nil && s.metrics != nil {
				s.metrics.SetChannelCondition(provider())
			}

			s.clock.Sleep(maintenanceInterval)
		}
	}()
}
