package deck

import "sync"

// NavigationPort binds the navigator to an addressable position such as a
// browser's URL fragment. WritePosition must not invoke change callbacks
// synchronously; change notifications arrive later, as a browser delivers
// hashchange events.
type NavigationPort interface {
	// ReadPosition returns the current fragment, for example "#3"
	ReadPosition() string
	// WritePosition replaces the fragment with "#n"
	WritePosition(n int)
	// OnPositionChanged registers fn for external fragment changes and
	// returns a function that removes it
	OnPositionChanged(fn func(fragment string)) (cancel func())
}

// MemoryPort is an in-memory NavigationPort. Writes are recorded and their
// change notifications are queued until Deliver is called, as a browser
// queues hashchange events.
type MemoryPort struct {
	mu        sync.Mutex
	fragment  string
	writes    []string
	pending   []string
	echoes    Echoes
	nextID    int
	callbacks map[int]func(string)
}

// NewMemoryPort creates a port holding an initial fragment
func NewMemoryPort(fragment string) *MemoryPort {
	return &MemoryPort{
		fragment:  fragment,
		callbacks: make(map[int]func(string)),
	}
}

// ReadPosition implements NavigationPort
func (p *MemoryPort) ReadPosition() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fragment
}

// WritePosition implements NavigationPort
func (p *MemoryPort) WritePosition(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fragment = Fragment(n - 1)
	p.writes = append(p.writes, p.fragment)
	p.pending = append(p.pending, p.fragment)
	p.echoes.Wrote(p.fragment)
}

// OnPositionChanged implements NavigationPort
func (p *MemoryPort) OnPositionChanged(fn func(string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.callbacks[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.callbacks, id)
	}
}

// Navigate simulates an external fragment change, such as the user editing
// the address bar, and notifies subscribers immediately.
func (p *MemoryPort) Navigate(fragment string) {
	p.mu.Lock()
	p.fragment = fragment
	p.mu.Unlock()
	p.notify(fragment)
}

// Deliver reports the queued hashchange of each write, carrying the
// fragment that write produced. Echoes of our own writes are acknowledged
// and do not reach subscribers.
func (p *MemoryPort) Deliver() {
	p.mu.Lock()
	queued := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, fragment := range queued {
		p.Receive(fragment)
	}
}

// Receive handles a hashchange carrying fragment. Subscribers are notified
// unless it is the echo of an outstanding write.
func (p *MemoryPort) Receive(fragment string) {
	if p.echoes.Ack(fragment) {
		return
	}
	p.mu.Lock()
	p.fragment = fragment
	p.mu.Unlock()
	p.notify(fragment)
}

// Writes returns every fragment written through WritePosition
func (p *MemoryPort) Writes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.writes...)
}

func (p *MemoryPort) notify(fragment string) {
	p.mu.Lock()
	fns := make([]func(string), 0, len(p.callbacks))
	for _, fn := range p.callbacks {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(fragment)
	}
}
