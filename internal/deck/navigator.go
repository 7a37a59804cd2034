// Package deck implements the slide deck navigation state machine.
//
// The navigator owns the current index and keeps it bound to a
// NavigationPort, usually a browser's URL fragment. States are the positions
// 0..total-1; there is no terminal state and movement saturates at both ends.
package deck

import (
	"slices"
	"sync"
)

// Navigator holds the current slide index of one viewer
type Navigator struct {
	// opMu serializes operations so fragment writes follow event order
	opMu sync.Mutex

	mu        sync.RWMutex
	total     int
	index     int
	port      NavigationPort
	listeners []func(index int)
	cancel    func()
	mounted   bool
}

// New creates a navigator over a deck of total slides, starting at 0.
// A deck always has at least one slide.
func New(total int, port NavigationPort) *Navigator {
	if total < 1 {
		total = 1
	}
	return &Navigator{total: total, port: port}
}

// Mount reads the initial position from the port, subscribes to external
// changes and writes the fragment if it does not match.
func (n *Navigator) Mount() {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	n.mu.Lock()
	if n.mounted {
		n.mu.Unlock()
		return
	}
	n.mounted = true
	if idx, ok := ParseFragment(n.port.ReadPosition(), n.total); ok {
		n.index = idx
	}
	idx := n.index
	n.mu.Unlock()

	n.cancel = n.port.OnPositionChanged(n.onFragment)
	n.syncPort(idx)
}

// Close stops listening for fragment changes
func (n *Navigator) Close() {
	n.opMu.Lock()
	defer n.opMu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

// OnChange registers fn to run after every index change. fn runs while the
// operation is still in progress and must not call Next, Prev, GoTo or
// HandleKey; Index is safe.
func (n *Navigator) OnChange(fn func(index int)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Index returns the current zero-based index
func (n *Navigator) Index() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.index
}

// Total returns the number of slides
func (n *Navigator) Total() int {
	return n.total
}

// Next advances one slide, saturating at the last slide
func (n *Navigator) Next() {
	n.apply(func(i int) int { return min(n.total-1, i+1) })
}

// Prev retreats one slide, saturating at the first slide
func (n *Navigator) Prev() {
	n.apply(func(i int) int { return max(0, i-1) })
}

// GoTo jumps to a slide. Out of range targets are clamped.
func (n *Navigator) GoTo(target int) {
	n.apply(func(int) int { return Clamp(target, n.total) })
}

// HandleKey runs the action bound to a KeyboardEvent.key value. It reports
// whether the key is bound, in which case the caller suppresses the key's
// default behavior.
func (n *Navigator) HandleKey(key string) bool {
	switch ActionFor(key) {
	case ActionNext:
		n.Next()
	case ActionPrev:
		n.Prev()
	case ActionFirst:
		n.GoTo(0)
	case ActionLast:
		n.GoTo(n.total - 1)
	default:
		return false
	}
	return true
}

// Clamp bounds an index into [0, total-1]
func Clamp(i, total int) int {
	return min(total-1, max(0, i))
}

// onFragment handles an external fragment change. Invalid or out of range
// fragments leave the index unchanged.
func (n *Navigator) onFragment(fragment string) {
	idx, ok := ParseFragment(fragment, n.total)
	if !ok {
		return
	}
	n.apply(func(int) int { return idx })
}

func (n *Navigator) apply(next func(current int) int) {
	n.opMu.Lock()
	defer n.opMu.Unlock()

	n.mu.Lock()
	prev := n.index
	n.index = next(prev)
	idx := n.index
	listeners := slices.Clone(n.listeners)
	n.mu.Unlock()

	if idx == prev {
		return
	}

	n.syncPort(idx)
	for _, fn := range listeners {
		fn(idx)
	}
}

// syncPort writes the fragment once, and only when it disagrees
func (n *Navigator) syncPort(idx int) {
	if n.port.ReadPosition() != Fragment(idx) {
		n.port.WritePosition(idx + 1)
	}
}
