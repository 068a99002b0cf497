// Package queue implements the per-class priority queue (component C8):
// a binary heap ordered by created_at, one per PriorityClass, each guarded
// by its own mutex so no global lock is held during admission or pop
// (spec.md §4.1, §5).
package queue

import (
	"container/heap"
	"time"

	"github.com/spacelinkd/corecomm/internal/model"
)

// entry is one slot in the class heap. Every message in a given Queue
// shares the same PriorityClass, so the heap key reduces to created_at —
// earliest created_at pops first, giving FIFO-within-class ordering.
type entry struct {
	msg       *model.Message
	createdAt time.Time
	index     int // maintained by container/heap
}

type innerHeap []*entry

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool {
	return h[i].createdAt.Before(h[j].createdAt)
}

func (h innerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *innerHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

var _ heap.Interface = (*innerHeap)(nil)
