package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"talkdeck/internal/models"
	"talkdeck/internal/storage"
)

type memoryScopes struct {
	kvs map[string]*storage.MemoryKV
}

func (m *memoryScopes) open(scope string) storage.KV {
	if m.kvs == nil {
		m.kvs = make(map[string]*storage.MemoryKV)
	}
	kv, ok := m.kvs[scope]
	if !ok {
		kv = storage.NewMemoryKV()
		m.kvs[scope] = kv
	}
	return kv
}

func TestManager_SessionPerSlideKind(t *testing.T) {
	scopes := &memoryScopes{}
	m := NewManager(scopes.open, &fakeExecutor{}, time.Hour, zap.NewNop())
	defer m.Close()

	editorSlide := models.Slide{ID: "4b", Kind: models.KindEditor, StarterCode: "greet()"}
	codeSlide := models.Slide{ID: "4", Kind: models.KindCode, Code: "def f(): pass"}
	bulletsWithCode := models.Slide{ID: "3", Kind: models.KindBullets, Code: "x = 1"}
	finale := models.Slide{ID: "11", Kind: models.KindFinale, Code: "print(1)"}
	title := models.Slide{ID: "1", Kind: models.KindTitle}

	sess, ok := m.Session("a", editorSlide)
	require.True(t, ok)
	assert.Equal(t, "editor:4b", sess.Key())
	assert.True(t, sess.Mount().Open)

	sess, ok = m.Session("a", codeSlide)
	require.True(t, ok)
	assert.False(t, sess.Mount().Open, "code slides embed the editor behind a toggle")

	sess, ok = m.Session("a", bulletsWithCode)
	require.True(t, ok)
	assert.Equal(t, "x = 1", sess.Mount().Code)

	_, ok = m.Session("a", finale)
	assert.False(t, ok, "finale code is static")
	_, ok = m.Session("a", title)
	assert.False(t, ok)
}

func TestManager_ReusesSessions(t *testing.T) {
	m := NewManager((&memoryScopes{}).open, &fakeExecutor{}, time.Hour, nil)
	defer m.Close()
	slide := models.Slide{ID: "4b", Kind: models.KindEditor, StarterCode: "x"}

	a, _ := m.Session("scope", slide)
	b, _ := m.Session("scope", slide)

	assert.Same(t, a, b)
}

func TestManager_ScopesDoNotCollide(t *testing.T) {
	scopes := &memoryScopes{}
	exec := &fakeExecutor{}
	m := NewManager(scopes.open, exec, time.Hour, nil)
	defer m.Close()
	slide := models.Slide{ID: "4b", Kind: models.KindEditor, StarterCode: "print(1)"}

	alice, _ := m.Session("alice", slide)
	bob, _ := m.Session("bob", slide)
	alice.SetCode("print('alice')")
	_, err := alice.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "print(1)", bob.Mount().Code)
	assert.Empty(t, bob.State().Output)
}

func TestManager_CloseScopeFlushesDrafts(t *testing.T) {
	scopes := &memoryScopes{}
	m := NewManager(scopes.open, &fakeExecutor{}, time.Hour, nil)
	slide := models.Slide{ID: "4b", Kind: models.KindEditor, StarterCode: "x"}

	sess, _ := m.Session("a", slide)
	sess.SetCode("pending")
	m.CloseScope("a")

	v, ok, _ := scopes.kvs["a"].Get("editor:4b")
	require.True(t, ok)
	assert.Equal(t, "pending", v)

	again, _ := m.Session("a", slide)
	assert.NotSame(t, sess, again)
	assert.Equal(t, "pending", again.Mount().Code)
	m.Close()
}

func TestManager_DiscardScopeDropsDrafts(t *testing.T) {
	scopes := &memoryScopes{}
	m := NewManager(scopes.open, &fakeExecutor{}, time.Hour, nil)
	defer m.Close()
	slide := models.Slide{ID: "4b", Kind: models.KindEditor, StarterCode: "x"}

	sess, _ := m.Session("a", slide)
	sess.SetCode("pending")
	m.DiscardScope("a")

	_, ok, _ := scopes.kvs["a"].Get("editor:4b")
	assert.False(t, ok, "purged scopes are not written back")

	sess.SetCode("late")
	_, ok, _ = scopes.kvs["a"].Get("editor:4b")
	assert.False(t, ok)

	m.DiscardScope("nobody")
}

func TestManager_UnmountUnknownIsNoop(t *testing.T) {
	m := NewManager((&memoryScopes{}).open, &fakeExecutor{}, time.Hour, nil)
	defer m.Close()

	assert.NotPanics(t, func() {
		m.Unmount("nobody", models.Slide{ID: "x", Kind: models.KindEditor})
	})
}
