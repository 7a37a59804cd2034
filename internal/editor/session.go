// Package editor implements the live code editors embedded in slides: draft
// persistence, cached remote runs and reset.
package editor

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"talkdeck/internal/execution"
	"talkdeck/internal/models"
	"talkdeck/internal/storage"
)

var (
	// ErrRunInFlight is returned when a run or reset is requested while a run
	// is in progress. Runs are rejected, not queued.
	ErrRunInFlight = errors.New("a run is already in progress")

	// ErrDiscarded is returned when the editor was unmounted before its run
	// finished. The result is cached but not applied.
	ErrDiscarded = errors.New("editor was unmounted during the run")
)

// Executor runs source code remotely
type Executor interface {
	Execute(ctx context.Context, code string) (string, error)
}

// Session is the state of one editor, keyed by its storage key
type Session struct {
	key      string
	starter  string
	embedded bool
	store    *storage.Store
	exec     Executor
	log      *zap.Logger

	mu      sync.Mutex
	state   models.EditorState
	mounted bool
	epoch   uint64
}

// NewSession creates an unmounted session. An embedded session sits behind
// an "open in editor" toggle and closes when reset.
func NewSession(key, starter string, embedded bool, store *storage.Store, exec Executor, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		key:      key,
		starter:  starter,
		embedded: embedded,
		store:    store,
		exec:     exec,
		log:      logger,
		state:    models.EditorState{Code: starter, Open: !embedded},
	}
}

// Key returns the storage key
func (s *Session) Key() string {
	return s.key
}

// Mount rehydrates the session from storage. A cached result is restored
// only if it was produced by the current draft.
func (s *Session) Mount() models.EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mountLocked()
	return s.state
}

func (s *Session) mountLocked() {
	if s.mounted {
		return
	}
	s.mounted = true
	s.epoch++

	code := s.starter
	if saved, ok := s.store.LoadDraft(s.key); ok {
		code = saved
	}
	s.state = models.EditorState{
		Code: code,
		Open: !s.embedded || s.store.LoadOpenState(s.key),
	}
	if res, ok := s.store.LoadRunResult(s.key); ok && res.Code == code {
		s.state.Output = res.Output
		s.state.Error = res.Error
	}
}

// Unmount detaches the session from its view. A pending draft is flushed and
// a run still in flight will not update the state.
func (s *Session) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.mounted = false
	s.epoch++
	s.state.Running = false
	s.store.Flush(s.key)
}

// State returns a snapshot of the session
func (s *Session) State() models.EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mountLocked()
	return s.state
}

// SetCode replaces the draft. Persistence is debounced.
func (s *Session) SetCode(code string) models.EditorState {
	s.mu.Lock()
	s.mountLocked()
	s.state.Code = code
	state := s.state
	s.mu.Unlock()

	s.store.SaveDraft(s.key, code)
	return state
}

// Run executes the current draft. If the cached result was produced by the
// same code it is returned without a network call.
func (s *Session) Run(ctx context.Context) (models.EditorState, error) {
	return s.run(ctx, nil)
}

// RunDraft replaces the draft with code and runs it. The draft is only
// replaced when no run is in flight.
func (s *Session) RunDraft(ctx context.Context, code string) (models.EditorState, error) {
	return s.run(ctx, &code)
}

func (s *Session) run(ctx context.Context, draft *string) (models.EditorState, error) {
	s.mu.Lock()
	s.mountLocked()
	if s.state.Running {
		state := s.state
		s.mu.Unlock()
		return state, ErrRunInFlight
	}
	if draft != nil && *draft != s.state.Code {
		s.state.Code = *draft
		s.store.SaveDraftNow(s.key, *draft)
	}
	code := s.state.Code
	s.state.Running = true
	s.state.Output = ""
	s.state.Error = ""
	epoch := s.epoch
	s.mu.Unlock()

	res, ok := s.store.LoadRunResult(s.key)
	if !ok || res.Code != code {
		res = s.execute(ctx, code)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return s.state, ErrDiscarded
	}
	s.state.Running = false
	s.state.Output = res.Output
	s.state.Error = res.Error
	return s.state, nil
}

func (s *Session) execute(ctx context.Context, code string) models.RunResult {
	res := models.RunResult{Code: code}

	out, err := s.exec.Execute(ctx, code)
	if errors.Is(err, execution.ErrEmptySource) {
		// nothing was sent, so there is nothing to cache
		res.Error = err.Error()
		return res
	}
	if err != nil && ctx.Err() != nil {
		// the caller gave up; the code itself never produced a result
		res.Error = err.Error()
		s.log.Info("run abandoned", zap.String("key", s.key), zap.Error(err))
		return res
	}
	if err != nil {
		res.Error = err.Error()
		if res.Error == "" {
			res.Error = "Failed to execute"
		}
		s.log.Info("run failed", zap.String("key", s.key), zap.Error(err))
	} else {
		res.Output = out
	}

	s.store.SaveRunResult(s.key, res)
	return res
}

// Reset restores the starter code, clears the output and the cached result,
// and closes an embedded editor.
func (s *Session) Reset() (models.EditorState, error) {
	s.mu.Lock()
	s.mountLocked()
	if s.state.Running {
		state := s.state
		s.mu.Unlock()
		return state, ErrRunInFlight
	}
	s.state = models.EditorState{Code: s.starter, Open: !s.embedded}
	state := s.state
	s.mu.Unlock()

	s.store.SaveDraftNow(s.key, s.starter)
	s.store.ClearRunResult(s.key)
	if s.embedded {
		s.store.SaveOpenState(s.key, false)
	}
	return state, nil
}

// Open expands an embedded editor
func (s *Session) Open() models.EditorState {
	return s.setOpen(true)
}

// Close collapses an embedded editor back to the static code view
func (s *Session) Close() models.EditorState {
	return s.setOpen(false)
}

func (s *Session) setOpen(open bool) models.EditorState {
	s.mu.Lock()
	s.mountLocked()
	if !s.embedded {
		// a standalone editor is always shown
		state := s.state
		s.mu.Unlock()
		return state
	}
	s.state.Open = open
	state := s.state
	s.mu.Unlock()

	s.store.SaveOpenState(s.key, open)
	return state
}
