package storage

import (
	"sync"
	"time"
)

// DeferredWrite runs the most recently scheduled write once the input has
// been idle for the configured interval. Rescheduling replaces the pending
// write and restarts the interval, so intermediate values are dropped.
type DeferredWrite struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
	gen     uint64
}

// NewDeferredWrite creates a deferred write with the given idle interval
func NewDeferredWrite(delay time.Duration) *DeferredWrite {
	return &DeferredWrite{delay: delay}
}

// Schedule replaces the pending write with fn and restarts the interval
func (d *DeferredWrite) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a write is waiting
func (d *DeferredWrite) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush runs the pending write now, if any
func (d *DeferredWrite) Flush() {
	d.mu.Lock()
	fn := d.take()
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop drops the pending write without running it
func (d *DeferredWrite) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.take()
}

func (d *DeferredWrite) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// superseded by a later Schedule, Flush or Stop
		d.mu.Unlock()
		return
	}
	fn := d.take()
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// take clears the pending write and returns it. Must be called with lock held.
func (d *DeferredWrite) take() func() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	fn := d.pending
	d.pending = nil
	return fn
}
