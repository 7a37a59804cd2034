package services

import (
	"sync"

	"talkdeck/internal/deck"
)

// wsPort is the navigation port of a websocket session. It mirrors the
// browser's URL fragment: writes are sent to the browser, and the browser
// reports every hashchange back, including those caused by our own writes.
// Those echoes are acknowledged, not treated as navigation.
type wsPort struct {
	session *DeckSession
	echoes  deck.Echoes

	mu        sync.Mutex
	fragment  string
	nextID    int
	callbacks map[int]func(string)
}

func (p *wsPort) ReadPosition() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fragment
}

func (p *wsPort) WritePosition(n int) {
	hash := deck.Fragment(n - 1)
	p.mu.Lock()
	p.fragment = hash
	p.mu.Unlock()

	p.echoes.Wrote(hash)
	p.session.enqueue(HashMessage{Type: MessageHash, Hash: hash})
}

func (p *wsPort) OnPositionChanged(fn func(string)) func() {
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

// setFragment records the fragment without notifying
func (p *wsPort) setFragment(fragment string) {
	p.mu.Lock()
	p.fragment = fragment
	p.mu.Unlock()
}

// receive handles a hashchange reported by the browser. The echo of an
// outstanding write leaves the fragment at the latest write.
func (p *wsPort) receive(fragment string) {
	if p.echoes.Ack(fragment) {
		return
	}
	p.mu.Lock()
	p.fragment = fragment
	fns := make([]func(string), 0, len(p.callbacks))
	for _, fn := range p.callbacks {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(fragment)
	}
}
