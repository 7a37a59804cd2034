package editor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"talkdeck/internal/execution"
	"talkdeck/internal/models"
	"talkdeck/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// idle keep-alive connections of the execution client
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// fakeExecutor records calls and answers from a function
type fakeExecutor struct {
	mu     sync.Mutex
	calls  []string
	answer func(code string) (string, error)
}

func (f *fakeExecutor) Execute(_ context.Context, code string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, code)
	answer := f.answer
	f.mu.Unlock()
	if answer == nil {
		return "out:" + code, nil
	}
	return answer(code)
}

func (f *fakeExecutor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestSession(t *testing.T, kv storage.KV, exec Executor, embedded bool) *Session {
	t.Helper()
	store := storage.New(kv, zap.NewNop(), time.Hour)
	t.Cleanup(store.Close)
	return NewSession("editor:4b", "print(1)", embedded, store, exec, zap.NewNop())
}

func TestSession_MountUsesStarter(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV(), &fakeExecutor{}, false)

	state := s.Mount()

	assert.Equal(t, models.EditorState{Code: "print(1)", Open: true}, state)
}

func TestSession_MountRestoresDraftAndMatchingResult(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.Set("editor:4b", "print(2)")
	kv.Set("editor:4b:lastCode", "print(2)")
	kv.Set("editor:4b:lastOutput", "2")
	s := newTestSession(t, kv, &fakeExecutor{}, false)

	state := s.Mount()

	assert.Equal(t, "print(2)", state.Code)
	assert.Equal(t, "2", state.Output)
}

func TestSession_MountIgnoresStaleResult(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.Set("editor:4b", "print(3)")
	kv.Set("editor:4b:lastCode", "print(2)")
	kv.Set("editor:4b:lastOutput", "2")
	s := newTestSession(t, kv, &fakeExecutor{}, false)

	state := s.Mount()

	assert.Equal(t, "print(3)", state.Code)
	assert.Empty(t, state.Output)
}

func TestSession_SecondRunOfSameCodeIsCached(t *testing.T) {
	exec := &fakeExecutor{}
	s := newTestSession(t, storage.NewMemoryKV(), exec, false)

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	second, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, exec.Calls())
	assert.Equal(t, "out:print(1)", first.Output)
	assert.Equal(t, first, second)
}

func TestSession_CachedFailureIsReproduced(t *testing.T) {
	calls := 0
	exec := &fakeExecutor{answer: func(code string) (string, error) {
		calls++
		if calls == 1 {
			return "1", nil
		}
		return "", errors.New("connection refused")
	}}
	s := newTestSession(t, storage.NewMemoryKV(), exec, false)

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	s.SetCode("print(2)")
	failed, err := s.Run(context.Background())
	require.NoError(t, err)
	again, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, exec.Calls())
	assert.Equal(t, "connection refused", failed.Error)
	assert.Empty(t, failed.Output)
	assert.Equal(t, failed, again)
	assert.Equal(t, "Error: connection refused", again.Display())
}

func TestSession_ChangedCodeRunsOnce(t *testing.T) {
	exec := &fakeExecutor{}
	s := newTestSession(t, storage.NewMemoryKV(), exec, false)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	s.SetCode("print(42)")
	state, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, exec.Calls())
	assert.Equal(t, "out:print(42)", state.Output)
}

func TestSession_CacheSurvivesRemount(t *testing.T) {
	kv := storage.NewMemoryKV()
	exec := &fakeExecutor{}
	s := newTestSession(t, kv, exec, false)
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	store := storage.New(kv, zap.NewNop(), time.Hour)
	defer store.Close()
	fresh := NewSession("editor:4b", "print(1)", false, store, exec, nil)

	assert.Equal(t, "out:print(1)", fresh.Mount().Output)
	_, err = fresh.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, exec.Calls())
}

func TestSession_RunWhileRunningIsRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	exec := &fakeExecutor{answer: func(code string) (string, error) {
		close(started)
		<-release
		return "done", nil
	}}
	s := newTestSession(t, storage.NewMemoryKV(), exec, false)

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()
	<-started

	state, err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInFlight)
	assert.True(t, state.Running)

	_, err = s.Reset()
	assert.ErrorIs(t, err, ErrRunInFlight, "reset is disabled while running")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, exec.Calls())
	assert.False(t, s.State().Running)
}

func TestSession_UnmountDiscardsInFlightResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	exec := &fakeExecutor{answer: func(code string) (string, error) {
		close(started)
		<-release
		return "late", nil
	}}
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv, exec, false)
	s.Mount()

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()
	<-started
	s.Unmount()
	close(release)

	assert.ErrorIs(t, <-done, ErrDiscarded)
	out, _, _ := kv.Get("editor:4b:lastOutput")
	assert.Equal(t, "late", out, "the result is still cached")

	state := s.Mount()
	assert.Equal(t, "late", state.Output)
	assert.False(t, state.Running)
}

func TestSession_ResetRestoresStarter(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv, &fakeExecutor{}, false)
	s.SetCode("print(99)")
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	state, err := s.Reset()
	require.NoError(t, err)

	assert.Equal(t, models.EditorState{Code: "print(1)", Open: true}, state)
	draft, _, _ := kv.Get("editor:4b")
	assert.Equal(t, "print(1)", draft)
	for _, k := range []string{"editor:4b:lastCode", "editor:4b:lastOutput", "editor:4b:lastError"} {
		_, ok, _ := kv.Get(k)
		assert.False(t, ok, k)
	}
}

func TestSession_EmbeddedOpenCloseAndResetCloses(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv, &fakeExecutor{}, true)

	assert.False(t, s.Mount().Open)
	assert.True(t, s.Open().Open)
	v, _, _ := kv.Get("editor:4b:isOpen")
	assert.Equal(t, "1", v)

	state, err := s.Reset()
	require.NoError(t, err)
	assert.False(t, state.Open)
	v, _, _ = kv.Get("editor:4b:isOpen")
	assert.Equal(t, "0", v)
}

func TestSession_OpenStateRehydrates(t *testing.T) {
	kv := storage.NewMemoryKV()
	kv.Set("editor:4b:isOpen", "1")
	s := newTestSession(t, kv, &fakeExecutor{}, true)

	assert.True(t, s.Mount().Open)
	assert.False(t, s.Close().Open)
}

func TestSession_StandaloneEditorIgnoresClose(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV(), &fakeExecutor{}, false)

	assert.True(t, s.Close().Open)
}

func TestSession_UnmountFlushesDraft(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv, &fakeExecutor{}, false)

	s.SetCode("typed")
	_, ok, _ := kv.Get("editor:4b")
	require.False(t, ok)

	s.Unmount()
	v, ok, _ := kv.Get("editor:4b")
	require.True(t, ok)
	assert.Equal(t, "typed", v)
}

func TestSession_TransportErrorMessageIsShown(t *testing.T) {
	exec := &fakeExecutor{answer: func(string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	}}
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv, exec, false)

	state, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "dial tcp: connection refused", state.Error)
	cached, _, _ := kv.Get("editor:4b:lastError")
	assert.Equal(t, "dial tcp: connection refused", cached)
}

func TestSession_EmptySourceIsNotCached(t *testing.T) {
	exec := &fakeExecutor{answer: func(string) (string, error) {
		return "", execution.ErrEmptySource
	}}
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv, exec, false)
	s.SetCode("   ")

	state, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, execution.ErrEmptySource.Error(), state.Error)
	_, ok, _ := kv.Get("editor:4b:lastCode")
	assert.False(t, ok)
}

func TestSession_AbandonedRunIsNotCached(t *testing.T) {
	exec := &fakeExecutor{}
	exec.answer = func(string) (string, error) { return "", context.Canceled }
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv, exec, false)
	s.Mount()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state, err := s.Run(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, state.Error)
	assert.Zero(t, kv.Len(), "a cancelled caller leaves no cached result")

	exec.mu.Lock()
	exec.answer = nil
	exec.mu.Unlock()
	state, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "out:print(1)", state.Output)
	assert.Equal(t, 2, exec.Calls())
}

func TestSession_AbandonedRunOverHTTPIsNotCached(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		w.Write([]byte(`{"stdout":"42"}`))
	}))
	t.Cleanup(server.Close)

	client := execution.NewClient(server.URL, 5*time.Second, zap.NewNop())
	s := newTestSession(t, storage.NewMemoryKV(), client, false)
	s.Mount()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Run(ctx)
	require.NoError(t, err)

	close(release)
	state, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", state.Output)
	assert.Empty(t, state.Error)
}

func TestSession_RunDraftReplacesCode(t *testing.T) {
	exec := &fakeExecutor{}
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv, exec, false)
	s.SetCode("print('typed')")

	state, err := s.RunDraft(context.Background(), "print('latest')")
	require.NoError(t, err)
	assert.Equal(t, "print('latest')", state.Code)
	assert.Equal(t, "out:print('latest')", state.Output)

	v, ok, err := kv.Get("editor:4b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "print('latest')", v, "the draft is saved immediately")
}
