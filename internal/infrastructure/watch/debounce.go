// Package watch reports changes to a board directory.
package watch

import (
	"sort"
	"sync"
	"time"
)

// Batcher collects changes and delivers them once the window passes with
// no new arrivals. Repeated changes to one path collapse to the latest.
type Batcher struct {
	window  time.Duration
	deliver func([]Change)

	mu       sync.Mutex
	pending  map[string]Change
	timer    *time.Timer
	stopped  bool
	inflight sync.WaitGroup
}

// NewBatcher creates a batcher delivering to fn.
func NewBatcher(window time.Duration, fn func([]Change)) *Batcher {
	return &Batcher{
		window:  window,
		deliver: fn,
		pending: make(map[string]Change),
	}
}

// Add records c and restarts the window.
func (b *Batcher) Add(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	b.pending[c.Path] = c
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.flush)
}

// Flush delivers pending changes now.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.flush()
}

// Stop drops pending changes, ignores further adds and waits for a delivery
// already under way. It must not be called from the delivery func.
func (b *Batcher) Stop() {
	b.mu.Lock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
	clear(b.pending)
	b.mu.Unlock()

	b.inflight.Wait()
}

func (b *Batcher) flush() {
	b.mu.Lock()
	if b.stopped || len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := make([]Change, 0, len(b.pending))
	for _, c := range b.pending {
		batch = append(batch, c)
	}
	clear(b.pending)
	b.inflight.Add(1)
	b.mu.Unlock()
	defer b.inflight.Done()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	if b.deliver != nil {
		b.deliver(batch)
	}
}
