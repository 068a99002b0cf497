package model

import "time"

// TimeConstraints is an immutable value bundling the latency, deadline,
// timeout, and retry budget spec.md §3 requires.
type TimeConstraints struct {
	MaxLatency time.Duration // must be > 0
	Deadline   time.Time     // optional absolute UTC instant; zero means none
	Timeout    time.Duration // must be > 0
	RetryCount int           // must be >= 0; the ceiling on Message.RetryCount
}

// Validate checks the invariants spec.md §3 states for TimeConstraints.
func (tc TimeConstraints) Validate() error {
	if tc.MaxLatency <= 0 {
		return ErrInvalidInput
	}
	if tc.Timeout <= 0 {
		return ErrInvalidInput
	}
	if tc.RetryCount < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Message is the unit of work flowing through the scheduler. Ownership
// transfers as it moves producer -> queue -> dispatcher -> history; only
// one owner mutates it at a time (spec.md §5 "Shared resource policy").
type Message struct {
	ID string

	Payload Payload
	Class   PriorityClass

	BandwidthRequired       float64 // > 0
	ProcessingTimeEstimate  time.Duration
	MemoryRequirement       int64

	Time TimeConstraints

	Routing RoutingTag

	CreatedAt           time.Time
	LastUpdatedAt       time.Time
	QueuedAt            time.Time
	ProcessingStartedAt time.Time
	ProcessingFinishedAt time.Time

	Status       MessageStatus
	RetryCount   int
	ErrorHistory []string
}

// Validate checks the structural invariants of a freshly constructed
// Message before admission (spec.md §3's "Invariants" and §4.1
// InvalidParameters rejection reason).
func (m *Message) Validate() error {
	if m.ID == "" {
		return ErrInvalidInput
	}
	if !m.Class.Valid() {
		return ErrInvalidInput
	}
	if m.BandwidthRequired <= 0 {
		return ErrInvalidInput
	}
	// Bandwidth must cover the payload's actual wire size; an under-declared
	// bandwidth_required would otherwise admit a message no transmit path
	// could actually carry.
	if m.BandwidthRequired < float64(m.Payload.Size()) {
		return ErrInvalidInput
	}
	if m.ProcessingTimeEstimate < 0 {
		return ErrInvalidInput
	}
	if m.MemoryRequirement < 0 {
		return ErrInvalidInput
	}
	if err := m.Time.Validate(); err != nil {
		return err
	}
	if m.RetryCount > m.Time.RetryCount {
		return ErrInvalidInput
	}
	return nil
}

// IsExpired reports whether m's absolute deadline has passed as of now.
// A zero deadline never expires; no deadline is derived from MaxLatency on
// admission, so a message without an explicit Deadline never expires.
func (m *Message) IsExpired(now time.Time) bool {
	if m.Time.Deadline.IsZero() {
		return false
	}
	return !now.Before(m.Time.Deadline)
}

// AppendError records a processing error, keeping ErrorHistory append-only
// as spec.md §3 requires.
func (m *Message) AppendError(cause string) {
	m.ErrorHistory = append(m.ErrorHistory, cause)
}
