package queue

import (
	"container/heap"
	"sync"

	"github.com/spacelinkd/corecomm/internal/model"
)

// Queue is one class's heap-ordered message queue. It has its own mutex;
// callers (the scheduler) never hold a second queue's lock while holding
// this one, and never take this lock while holding the global
// active-message index lock, per spec.md §5's lock order (queue mutex ->
// global index, never reversed).
type Queue struct {
	mu       sync.Mutex
	class    model.PriorityClass
	capacity int
	h        innerHeap
	byID     map[string]*entry
}

// New returns an empty Queue for class with the given per-queue capacity.
func New(class model.PriorityClass, capacity int) *Queue {
	return &Queue{
		class:    class,
		capacity: capacity,
		h:        innerHeap{},
		byID:     make(map[string]*entry),
	}
}

// Class returns the priority class this queue serves.
func (q *Queue) Class() model.PriorityClass { return q.class }

// Len returns the current number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.h.Len()
}

// Capacity returns the configured per-queue capacity.
func (q *Queue) Capacity() int { return q.capacity }

// Full reports whether the queue is at or above capacity.
func (q *Queue) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.h.Len() >= q.capacity
}

// Contains reports whether a message with this id is currently queued here.
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[id]
	return ok
}

// Push enqueues msg, which must already have QueuedAt and Status=QUEUED
// set by the caller. Returns false if the queue is at capacity (the
// caller is responsible for sweep/preempt/reject policy — Push itself
// never evicts, keeping enqueue atomic per spec.md §4.1's "enqueue failure
// after partial state change is forbidden").
func (q *Queue) Push(msg *model.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.h.Len() >= q.capacity {
		return false
	}
	e := &entry{msg: msg, createdAt: msg.CreatedAt}
	heap.Push(&q.h, e)
	q.byID[msg.ID] = e
	return true
}

// Pop removes and returns the message with the earliest created_at, or nil
// if the queue is empty (spec.md §4.1 pop_highest, restricted to this
// class — the scheduler picks which class's queue to pop from).
func (q *Queue) Pop() *model.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.h.Len() == 0 {
		return nil
	}
	e := heap.Pop(&q.h).(*entry)
	delete(q.byID, e.msg.ID)
	return e.msg
}

// Peek returns the message that would be returned by Pop, without
// removing it, or nil if empty.
func (q *Queue) Peek() *model.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.h.Len() == 0 {
		return nil
	}
	return q.h[0].msg
}

// SweepExpired removes every queued message whose deadline has passed as
// of now, invoking onExpire(msg) for each one while still holding the
// queue's own lock (onExpire must not touch this Queue; it may take the
// global index lock, which comes after the queue lock in the lock order —
// it is meant for TIMEOUT bookkeeping only). Returns the count
// removed (spec.md §4.1 sweep_expired).
func (q *Queue) SweepExpired(isExpired func(*model.Message) bool, onExpire func(*model.Message)) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var survivors innerHeap
	removed := 0
	for _, e := range q.h {
		if isExpired(e.msg) {
			delete(q.byID, e.msg.ID)
			onExpire(e.msg)
			removed++
			continue
		}
		survivors = append(survivors, e)
	}
	if removed == 0 {
		return 0
	}
	heap.Init(&survivors)
	q.h = survivors
	return removed
}

// EvictOldest removes and returns the oldest (earliest created_at) message
// in the queue, used by admission preemption (spec.md §4.1 step 3). It
// returns nil if the queue is empty.
func (q *Queue) EvictOldest() *model.Message {
	return q.Pop()
}
