package storage

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"talkdeck/internal/models"
)

// DefaultDebounce is the idle interval before a draft is persisted
const DefaultDebounce = 400 * time.Millisecond

// Key suffixes derived from an editor's storage key
const (
	suffixLastCode   = ":lastCode"
	suffixLastOutput = ":lastOutput"
	suffixLastError  = ":lastError"
	suffixIsOpen     = ":isOpen"
)

// LastCodeKey returns the key holding the code of the cached run result
func LastCodeKey(key string) string { return key + suffixLastCode }

// LastOutputKey returns the key holding the output of the cached run result
func LastOutputKey(key string) string { return key + suffixLastOutput }

// LastErrorKey returns the key holding the error of the cached run result
func LastErrorKey(key string) string { return key + suffixLastError }

// IsOpenKey returns the key holding the embedded editor's open state
func IsOpenKey(key string) string { return key + suffixIsOpen }

// Store is the persistence adapter for editors sharing one KV scope.
// Backend failures are logged and swallowed; the editor keeps working from
// memory.
type Store struct {
	kv     KV
	log    *zap.Logger
	delay  time.Duration
	mu     sync.Mutex
	drafts map[string]*DeferredWrite
	closed bool
	gone   bool
}

// New creates a store over kv. A non-positive debounce uses DefaultDebounce.
func New(kv KV, logger *zap.Logger, debounce time.Duration) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:     kv,
		log:    logger,
		delay:  debounce,
		drafts: make(map[string]*DeferredWrite),
	}
}

// LoadDraft returns the saved draft for key. A write still waiting on the
// debounce interval is flushed first.
func (s *Store) LoadDraft(key string) (string, bool) {
	s.Flush(key)
	return s.get(key)
}

// SaveDraft persists a draft once typing has been idle for the debounce
// interval. Only the last value of a burst is written.
func (s *Store) SaveDraft(key, value string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.set(key, value)
		return
	}
	dw, ok := s.drafts[key]
	if !ok {
		dw = NewDeferredWrite(s.delay)
		s.drafts[key] = dw
	}
	s.mu.Unlock()

	dw.Schedule(func() { s.set(key, value) })
}

// SaveDraftNow persists a draft immediately, replacing any pending write
func (s *Store) SaveDraftNow(key, value string) {
	s.mu.Lock()
	dw := s.drafts[key]
	s.mu.Unlock()
	if dw != nil {
		dw.Stop()
	}
	s.set(key, value)
}

// Flush writes the pending draft for key, if any
func (s *Store) Flush(key string) {
	s.mu.Lock()
	dw := s.drafts[key]
	s.mu.Unlock()
	if dw != nil {
		dw.Flush()
	}
}

// Close flushes every pending draft. Later saves are written immediately.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	pending := make([]*DeferredWrite, 0, len(s.drafts))
	for _, dw := range s.drafts {
		pending = append(pending, dw)
	}
	s.mu.Unlock()

	for _, dw := range pending {
		dw.Flush()
	}
}

// Discard drops every pending draft without writing it. The store ignores
// all later writes; its backing rows have been removed.
func (s *Store) Discard() {
	s.mu.Lock()
	s.closed = true
	s.gone = true
	pending := make([]*DeferredWrite, 0, len(s.drafts))
	for _, dw := range s.drafts {
		pending = append(pending, dw)
	}
	s.mu.Unlock()

	for _, dw := range pending {
		dw.Stop()
	}
}

func (s *Store) discarded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gone
}

// LoadRunResult returns the cached run result for key. When the last run
// failed only its error is returned; an output left over from an earlier
// run belongs to different code.
func (s *Store) LoadRunResult(key string) (models.RunResult, bool) {
	code, ok := s.get(LastCodeKey(key))
	if !ok {
		return models.RunResult{}, false
	}
	res := models.RunResult{Code: code}
	res.Error, _ = s.get(LastErrorKey(key))
	if res.Error == "" {
		res.Output, _ = s.get(LastOutputKey(key))
	}
	return res, true
}

// SaveRunResult caches the outcome of a run. A successful run stores its
// output and clears any cached error; a failed run stores its error and
// leaves the cached output alone.
func (s *Store) SaveRunResult(key string, res models.RunResult) {
	s.set(LastCodeKey(key), res.Code)
	if res.Error != "" {
		s.set(LastErrorKey(key), res.Error)
		return
	}
	s.set(LastOutputKey(key), res.Output)
	s.del(LastErrorKey(key))
}

// ClearRunResult removes the cached run result for key
func (s *Store) ClearRunResult(key string) {
	s.del(LastCodeKey(key), LastOutputKey(key), LastErrorKey(key))
}

// LoadOpenState reports whether the embedded editor for key was left open
func (s *Store) LoadOpenState(key string) bool {
	v, _ := s.get(IsOpenKey(key))
	return v == "1"
}

// SaveOpenState remembers whether the embedded editor for key is open
func (s *Store) SaveOpenState(key string, open bool) {
	v := "0"
	if open {
		v = "1"
	}
	s.set(IsOpenKey(key), v)
}

func (s *Store) get(key string) (string, bool) {
	v, ok, err := s.kv.Get(key)
	if err != nil {
		s.log.Warn("storage read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, ok
}

func (s *Store) set(key, value string) {
	if s.discarded() {
		return
	}
	if err := s.kv.Set(key, value); err != nil {
		s.log.Warn("storage write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) del(keys ...string) {
	if s.discarded() {
		return
	}
	if err := s.kv.Delete(keys...); err != nil {
		s.log.Warn("storage delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
