package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talkdeck/internal/services"
)

// SessionCookie names the cookie that scopes editor storage to one browser
const SessionCookie = "deck_session"

const sessionCookieMaxAge = 365 * 24 * time.Hour

// touchInterval is the minimum time between two recorded visits of a session
const touchInterval = time.Minute

// touchedPruneSize is the number of remembered sessions above which stale
// entries are dropped
const touchedPruneSize = 1024

type scopeKey struct{}

type sessionToucher interface {
	Touch(id string) error
}

// SessionMiddleware assigns every browser a session id and records its visits
type SessionMiddleware struct {
	sessions sessionToucher
	secure   bool
	log      *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	touched map[string]time.Time
}

// NewSessionMiddleware creates the session middleware. sessions may be nil
// when visits are not recorded.
func NewSessionMiddleware(sessions *services.SessionService, secure bool, logger *zap.Logger) *SessionMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SessionMiddleware{
		secure:  secure,
		log:     logger,
		now:     time.Now,
		touched: make(map[string]time.Time),
	}
	if sessions != nil {
		m.sessions = sessions
	}
	return m
}

// Handler wraps next with session handling
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(sessionCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		m.touch(id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopeKey{}, id)))
	})
}

// touch records a visit unless the session was recorded within touchInterval
func (m *SessionMiddleware) touch(id string) {
	if m.sessions == nil {
		return
	}
	now := m.now()

	m.mu.Lock()
	if last, ok := m.touched[id]; ok && now.Sub(last) < touchInterval {
		m.mu.Unlock()
		return
	}
	m.touched[id] = now
	if len(m.touched) > touchedPruneSize {
		for other, last := range m.touched {
			if now.Sub(last) >= touchInterval {
				delete(m.touched, other)
			}
		}
	}
	m.mu.Unlock()

	if err := m.sessions.Touch(id); err != nil {
		m.log.Warn("failed to record session", zap.Error(err))
		m.mu.Lock()
		delete(m.touched, id)
		m.mu.Unlock()
	}
}

// ScopeFromContext returns the browser session id of a request
func ScopeFromContext(ctx context.Context) string {
	id, _ := ctx.Value(scopeKey{}).(string)
	return id
}
