package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"talkdeck/internal/editor"
	"talkdeck/internal/render"
	"talkdeck/internal/slides"
)

// DeckService owns the current slide registry and the live websocket
// sessions of every viewer.
type DeckService struct {
	registry atomic.Pointer[slides.Registry]
	renderer *render.HTMLRenderer
	editors  *editor.Manager
	log      *zap.Logger

	connMu   sync.RWMutex
	sessions map[*DeckSession]struct{}
}

// NewDeckService creates a deck service serving reg
func NewDeckService(reg *slides.Registry, renderer *render.HTMLRenderer, editors *editor.Manager, logger *zap.Logger) *DeckService {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DeckService{
		renderer: renderer,
		editors:  editors,
		log:      logger,
		sessions: make(map[*DeckSession]struct{}),
	}
	d.registry.Store(reg)
	return d
}

// Registry returns the registry new sessions are served from
func (d *DeckService) Registry() *slides.Registry {
	return d.registry.Load()
}

// SetRegistry replaces the registry and tells every connected viewer to
// reload. Open sessions keep the registry they started with until then.
func (d *DeckService) SetRegistry(reg *slides.Registry) {
	d.registry.Store(reg)
	d.BroadcastReload()
}

// Editors returns the editor session manager
func (d *DeckService) Editors() *editor.Manager {
	return d.editors
}

// RenderSlide writes the HTML fragment of one slide as seen by a browsing scope
func (d *DeckService) RenderSlide(w io.Writer, reg *slides.Registry, scope string, index int, revealed bool) error {
	slide, ok := reg.At(index)
	if !ok {
		return fmt.Errorf("slide %d is out of range", index+1)
	}

	view := render.View{Index: index, Total: reg.Len(), Revealed: revealed}
	if sess, ok := d.editors.Session(scope, slide); ok {
		state := sess.Mount()
		view.Editor = &state
	}
	return d.renderer.Render(w, slide, view)
}

// Serve runs a websocket session until the connection closes or ctx is done
func (d *DeckService) Serve(ctx context.Context, conn *websocket.Conn, scope string) error {
	sess := newDeckSession(d, conn, d.Registry(), scope)

	d.register(sess)
	defer d.unregister(sess)

	return sess.run(ctx)
}

// ActiveSessions returns the number of connected viewers
func (d *DeckService) ActiveSessions() int {
	d.connMu.RLock()
	defer d.connMu.RUnlock()
	return len(d.sessions)
}

// BroadcastReload sends a reload message to all connected viewers
func (d *DeckService) BroadcastReload() {
	d.connMu.RLock()
	defer d.connMu.RUnlock()

	if len(d.sessions) == 0 {
		return
	}
	d.log.Info("broadcasting reload", zap.Int("sessions", len(d.sessions)))
	for sess := range d.sessions {
		sess.enqueue(typedMessage{Type: MessageReload})
	}
}

func (d *DeckService) register(sess *DeckSession) {
	d.connMu.Lock()
	defer d.connMu.Unlock()
	d.sessions[sess] = struct{}{}
	d.log.Debug("websocket session registered", zap.String("session", sess.id), zap.Int("active", len(d.sessions)))
}

func (d *DeckService) unregister(sess *DeckSession) {
	d.connMu.Lock()
	defer d.connMu.Unlock()
	delete(d.sessions, sess)
	d.log.Debug("websocket session unregistered", zap.String("session", sess.id), zap.Int("active", len(d.sessions)))
}
