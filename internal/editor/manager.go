package editor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"talkdeck/internal/models"
	"talkdeck/internal/render"
	"talkdeck/internal/storage"
)

// KVFactory opens the storage backend of one browsing session scope
type KVFactory func(scope string) storage.KV

type scope struct {
	store    *storage.Store
	sessions map[string]*Session
}

// Manager owns the editor sessions of every browsing session. Each scope
// has its own store, so editors in different browsers never share keys.
type Manager struct {
	newKV    KVFactory
	exec     Executor
	debounce time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	scopes map[string]*scope
}

// NewManager creates a manager
func NewManager(newKV KVFactory, exec Executor, debounce time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		newKV:    newKV,
		exec:     exec,
		debounce: debounce,
		log:      logger,
		scopes:   make(map[string]*scope),
	}
}

// Session returns the editor session of a slide within a scope, creating it
// on first use. It reports false for slides without an editor.
func (m *Manager) Session(scopeID string, slide models.Slide) (*Session, bool) {
	starter, ok := render.EditorStarter(slide)
	if !ok {
		return nil, false
	}
	key := slide.StorageKey()

	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.scopeLocked(scopeID)
	if sess, exists := sc.sessions[key]; exists {
		return sess, true
	}

	embedded := render.Select(slide) == render.BranchCode
	sess := NewSession(key, starter, embedded, sc.store, m.exec, m.log.With(zap.String("scope", scopeID)))
	sc.sessions[key] = sess
	return sess, true
}

// Unmount detaches the editor of a slide, if it has one
func (m *Manager) Unmount(scopeID string, slide models.Slide) {
	m.mu.Lock()
	sc, ok := m.scopes[scopeID]
	var sess *Session
	if ok {
		sess = sc.sessions[slide.StorageKey()]
	}
	m.mu.Unlock()

	if sess != nil {
		sess.Unmount()
	}
}

// CloseScope flushes and forgets every session of one scope
func (m *Manager) CloseScope(scopeID string) {
	m.mu.Lock()
	sc, ok := m.scopes[scopeID]
	delete(m.scopes, scopeID)
	m.mu.Unlock()

	if ok {
		closeScope(sc)
	}
}

// DiscardScope forgets every session of one scope without writing its
// pending drafts. Used once the scope's stored state has been purged.
func (m *Manager) DiscardScope(scopeID string) {
	m.mu.Lock()
	sc, ok := m.scopes[scopeID]
	delete(m.scopes, scopeID)
	m.mu.Unlock()

	if !ok {
		return
	}
	sc.store.Discard()
	for _, sess := range sc.sessions {
		sess.Unmount()
	}
}

// Close flushes every pending draft of every scope
func (m *Manager) Close() {
	m.mu.Lock()
	scopes := m.scopes
	m.scopes = make(map[string]*scope)
	m.mu.Unlock()

	for _, sc := range scopes {
		closeScope(sc)
	}
}

func closeScope(sc *scope) {
	for _, sess := range sc.sessions {
		sess.Unmount()
	}
	sc.store.Close()
}

func (m *Manager) scopeLocked(scopeID string) *scope {
	sc, ok := m.scopes[scopeID]
	if !ok {
		sc = &scope{
			store:    storage.New(m.newKV(scopeID), m.log, m.debounce),
			sessions: make(map[string]*Session),
		}
		m.scopes[scopeID] = sc
	}
	return sc
}
