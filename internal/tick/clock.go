// Package tick provides the frame clock that drives scene updates.
package tick

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Clock calls its subscribers once per frame, always from a single goroutine.
type Clock struct {
	mu     sync.Mutex
	subs   map[uint64]func()
	nextID uint64

	now         func() time.Time
	windowStart time.Time
	frames      int
	rate        atomic.Uint64 // float64 bits
}

// NewClock returns a clock with no subscribers.
func NewClock() *Clock {
	return &Clock{
		subs: make(map[uint64]func()),
		now:  time.Now,
	}
}

// Subscribe registers fn to run on every frame. The returned function
// removes it; once that returns fn will not be called again. It is safe to
// call more than once but must not be called from inside a frame callback.
func (c *Clock) Subscribe(fn func()) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered callbacks.
func (c *Clock) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Fire runs one frame: every subscriber in registration order.
func (c *Clock) Fire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.countFrame()

	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		c.subs[id]()
	}
}

// Rate returns the frames per second measured over the last full second.
func (c *Clock) Rate() float64 {
	return math.Float64frombits(c.rate.Load())
}

// countFrame updates the frame-rate window. Callers hold c.mu.
func (c *Clock) countFrame() {
	now := c.now()
	if c.windowStart.IsZero() {
		c.windowStart = now
		return
	}
	c.frames++
	if elapsed := now.Sub(c.windowStart); elapsed >= time.Second {
		c.rate.Store(math.Float64bits(float64(c.frames) / elapsed.Seconds()))
		c.frames = 0
		c.windowStart = now
	}
}

// Run fires a frame every interval until ctx is done.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Fire()
		}
	}
}
