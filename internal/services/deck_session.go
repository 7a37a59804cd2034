package services

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"talkdeck/internal/deck"
	"talkdeck/internal/render"
	"talkdeck/internal/slides"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// DeckSession is one browser connection driving its own navigator. The
// browser's URL fragment is the navigation port.
type DeckSession struct {
	id    string
	scope string
	svc   *DeckService
	conn  *websocket.Conn
	reg   *slides.Registry
	nav   *deck.Navigator
	port  *wsPort
	log   *zap.Logger

	send      chan []byte
	closeOnce sync.Once

	mu      sync.Mutex
	current int
	reveals map[int]*render.Reveal
}

func newDeckSession(svc *DeckService, conn *websocket.Conn, reg *slides.Registry, scope string) *DeckSession {
	s := &DeckSession{
		id:      uuid.NewString(),
		scope:   scope,
		svc:     svc,
		conn:    conn,
		reg:     reg,
		send:    make(chan []byte, sendBuffer),
		reveals: make(map[int]*render.Reveal),
	}
	s.log = svc.log.With(zap.String("session", s.id))
	s.port = &wsPort{session: s, callbacks: make(map[int]func(string))}
	s.nav = deck.New(reg.Len(), s.port)
	s.nav.OnChange(s.onSlideChange)
	return s
}

func (s *DeckSession) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		s.closeConn()
		return nil
	})
	g.Go(func() error {
		return s.writeLoop(ctx)
	})
	g.Go(func() error {
		err := s.readLoop()
		// reading stops only when the connection is gone
		s.closeConn()
		return err
	})

	err := g.Wait()

	s.nav.Close()
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if slide, ok := s.reg.At(current); ok {
		s.svc.editors.Unmount(s.scope, slide)
	}

	if isNormalClose(err) {
		return nil
	}
	return err
}

func (s *DeckSession) readLoop() error {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	mounted := false
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn("invalid client message", zap.Error(err))
			continue
		}

		if !mounted {
			// the first message carries the initial fragment
			if msg.Type == MessageHello || msg.Type == MessageHashChange {
				s.port.setFragment(msg.Hash)
			}
			s.mount()
			mounted = true
			if msg.Type == MessageHello || msg.Type == MessageHashChange {
				continue
			}
		}

		s.handle(msg)
	}
}

func (s *DeckSession) mount() {
	s.nav.Mount()
	idx := s.nav.Index()
	s.mu.Lock()
	s.current = idx
	s.mu.Unlock()
	s.sendSlide(idx)
}

func (s *DeckSession) handle(msg ClientMessage) {
	switch msg.Type {
	case MessageHello, MessageHashChange:
		s.port.receive(msg.Hash)
	case MessageKey:
		s.nav.HandleKey(msg.Key)
	case MessageGoTo:
		s.nav.GoTo(msg.Index)
	case MessageReveal:
		idx, r, ok := s.reveal()
		if ok && r.Simplify() {
			s.sendSlide(idx)
		}
	case MessageRevealed:
		if _, r, ok := s.reveal(); ok {
			if req, scroll := r.AnimationDone(); scroll {
				s.enqueue(ScrollMessage{Type: MessageScroll, ScrollRequest: req})
			}
		}
	case MessageUnreveal:
		idx, r, ok := s.reveal()
		if ok && r.Revealed() {
			r.Reset()
			s.sendSlide(idx)
		}
	default:
		s.log.Debug("unknown client message", zap.String("type", msg.Type))
	}
}

// reveal returns the reveal state of the current slide, if it is interactive
func (s *DeckSession) reveal() (int, *render.Reveal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.current
	slide, ok := s.reg.At(idx)
	if !ok || render.Select(slide) != render.BranchInteractive {
		return idx, nil, false
	}
	r, ok := s.reveals[idx]
	if !ok {
		r = render.NewReveal(render.AfterPanelID(idx))
		s.reveals[idx] = r
	}
	return idx, r, true
}

// onSlideChange leaves the previous slide and shows the new one. Leaving
// unmounts its editor and collapses its reveal.
func (s *DeckSession) onSlideChange(idx int) {
	s.mu.Lock()
	prev := s.current
	s.current = idx
	delete(s.reveals, prev)
	s.mu.Unlock()

	if slide, ok := s.reg.At(prev); ok {
		s.svc.editors.Unmount(s.scope, slide)
	}
	s.sendSlide(idx)
}

func (s *DeckSession) sendSlide(idx int) {
	slide, ok := s.reg.At(idx)
	if !ok {
		return
	}
	revealed := false
	s.mu.Lock()
	if r, ok := s.reveals[idx]; ok {
		revealed = r.Revealed()
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.svc.RenderSlide(&buf, s.reg, s.scope, idx, revealed); err != nil {
		s.log.Error("failed to render slide", zap.Int("index", idx), zap.Error(err))
		return
	}
	s.enqueue(SlideMessage{
		Type:  MessageSlide,
		Index: idx,
		Total: s.reg.Len(),
		ID:    slide.ID,
		HTML:  buf.String(),
	})
}

// enqueue hands a message to the writer. A viewer that cannot keep up is
// disconnected.
func (s *DeckSession) enqueue(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("failed to encode message", zap.Error(err))
		return
	}
	select {
	case s.send <- data:
	default:
		s.log.Warn("send buffer full, closing connection")
		s.closeConn()
	}
}

func (s *DeckSession) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return nil
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (s *DeckSession) closeConn() {
	s.closeOnce.Do(func() {
		s.conn.Close()
	})
}

func isNormalClose(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return true
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return false
	}
	// the connection was closed locally
	return errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, net.ErrClosed)
}
