package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/spacelinkd/corecomm/internal/model"
)

func newMsg(id string, createdAt time.Time) *model.Message {
	return &model.Message{
		ID:        id,
		Class:     model.HIGH,
		CreatedAt: createdAt,
		Status:    model.QUEUED,
	}
}

func TestQueue_FIFOWithinClass(t *testing.T) {
	q := New(model.HIGH, 10)
	base := time.Now()

	require.True(t, q.Push(newMsg("a", base.Add(2*time.Millisecond))))
	require.True(t, q.Push(newMsg("b", base)))
	require.True(t, q.Push(newMsg("c", base.Add(1*time.Millisecond))))

	assert.Equal(t, "b", q.Pop().ID)
	assert.Equal(t, "c", q.Pop().ID)
	assert.Equal(t, "a", q.Pop().ID)
	assert.Nil(t, q.Pop())
}

func TestQueue_CapacityRejectsPush(t *testing.T) {
	q := New(model.LOW, 2)
	base := time.Now()
	require.True(t, q.Push(newMsg("a", base)))
	require.True(t, q.Push(newMsg("b", base)))
	assert.False(t, q.Push(newMsg("c", base)))
	assert.Equal(t, 2, q.Len())
}

func TestQueue_ContainsTracksMembership(t *testing.T) {
	q := New(model.MEDIUM, 10)
	require.True(t, q.Push(newMsg("x", time.Now())))
	assert.True(t, q.Contains("x"))
	q.Pop()
	assert.False(t, q.Contains("x"))
}

func TestQueue_SweepExpiredRemovesOnlyExpired(t *testing.T) {
	q := New(model.MEDIUM, 10)
	now := time.Now()
	m1 := newMsg("expired", now)
	m1.Time.Deadline = now.Add(-time.Millisecond)
	m2 := newMsg("fresh", now)
	m2.Time.Deadline = now.Add(time.Hour)

	require.True(t, q.Push(m1))
	require.True(t, q.Push(m2))

	var expired []*model.Message
	count := q.SweepExpired(func(m *model.Message) bool {
		return m.IsExpired(now)
	}, func(m *model.Message) {
		expired = append(expired, m)
	})

	assert.Equal(t, 1, count)
	require.Len(t, expired, 1)
	assert.Equal(t, "expired", expired[0].ID)
	assert.Equal(t, 1, q.Len())
	assert.False(t, q.Contains("expired"))
	assert.True(t, q.Contains("fresh"))
}

// TestQueue_PopAlwaysEarliestCreatedAt is the rapid property-test
// counterpart to spec.md §8's "for every pop, the returned message has
// ... earliest created_at" invariant, restricted to a single class queue.
func TestQueue_PopAlwaysEarliestCreatedAt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(t, "n")
		q := New(model.CRITICAL, n+1)
		base := time.Now()

		offsets := make([]int, n)
		for i := range offsets {
			offsets[i] = rapid.IntRange(0, 100000).Draw(t, "offset")
		}
		for i, off := range offsets {
			require.True(t, q.Push(newMsg(fmt.Sprintf("id-%d", i), base.Add(time.Duration(off)*time.Microsecond))))
		}

		var last time.Time
		first := true
		for {
			m := q.Pop()
			if m == nil {
				break
			}
			if !first {
				assert.False(t, m.CreatedAt.Before(last), "pop order must be non-decreasing created_at")
			}
			last = m.CreatedAt
			first = false
		}
	})
}
