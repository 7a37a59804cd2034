package deck

import "sync"

// Echoes tracks fragments written to a port whose hashchange has not come
// back yet. A browser reports every assignment to location.hash in order,
// so a change equal to the oldest outstanding write is its echo.
type Echoes struct {
	mu    sync.Mutex
	queue []string
}

// Wrote records an outbound write
func (e *Echoes) Wrote(fragment string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue = append(e.queue, fragment)
}

// Ack consumes the oldest outstanding write if fragment is its echo. It
// reports false for changes that did not originate from a write.
func (e *Echoes) Ack(fragment string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 || e.queue[0] != fragment {
		return false
	}
	e.queue = e.queue[1:]
	return true
}

// Outstanding returns the number of writes not yet echoed
func (e *Echoes) Outstanding() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}
