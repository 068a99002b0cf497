package ldpccode

import (
	"container/list"
	"math/rand"
	"sync"
	"time"

	"github.com/spacelinkd/corecomm/internal/clock"
	"github.com/spacelinkd/corecomm/internal/model"
)

// cacheCapacity is the bound spec.md §4.3 sets on the matrix cache.
const cacheCapacity = 5

type cacheKey struct {
	rate        float64
	blockLength int
}

type cacheEntry struct {
	key        cacheKey
	matrices   *Matrices
	lastAccess time.Time
}

// Cache is the LRU-by-last-access matrix cache (component C4). Its own
// mutex is held only to read or mutate the index; it is never held while
// Generate is running (spec.md §5: "clone the handle out, release, then
// use").
type Cache struct {
	mu       sync.Mutex
	clock    clock.Clock
	rng      *rand.Rand
	limit    int64
	entries  map[cacheKey]*list.Element
	order    *list.List // front = most recently used
}

// NewCache returns an empty Cache. memoryLimitBytes bounds any single
// generated code (0 means unlimited); rng drives H sampling.
func NewCache(c clock.Clock, rng *rand.Rand, memoryLimitBytes int64) *Cache {
	return &Cache{
		clock:   c,
		rng:     rng,
		limit:   memoryLimitBytes,
		entries: make(map[cacheKey]*list.Element),
		order:   list.New(),
	}
}

// Get returns the cached (or freshly generated) Matrices for (rate, n),
// generating and inserting on a miss. The matrices themselves are
// immutable and safe to share once returned (spec.md §5 "matrices are
// read-only after construction").
func (c *Cache) Get(params model.CodeParameters) (*Matrices, error) {
	key := cacheKey{rate: params.CodeRate, blockLength: params.BlockLength}

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).lastAccess = c.clock.Now()
		m := el.Value.(*cacheEntry).matrices
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	// Generation happens with no cache lock held (spec.md §5).
	matrices, err := Generate(params, c.limit, c.rng)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have raced us to insert the same key; prefer
	// the existing entry to avoid duplicate work being observable twice.
	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).lastAccess = c.clock.Now()
		return el.Value.(*cacheEntry).matrices, nil
	}

	entry := &cacheEntry{key: key, matrices: matrices, lastAccess: c.clock.Now()}
	el := c.order.PushFront(entry)
	c.entries[key] = el

	if c.order.Len() > cacheCapacity {
		c.evictOldest()
	}

	return matrices, nil
}

func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*cacheEntry).key)
}

// Invalidate clears every cached entry, forcing regeneration on next use.
// Called by the adaptation controller on a mode change (spec.md §4.6).
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*list.Element)
	c.order.Init()
}

// Len reports how many codes are currently cached, for tests and metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
