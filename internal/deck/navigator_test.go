package deck

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mounted(t *testing.T, total int, fragment string) (*Navigator, *MemoryPort) {
	t.Helper()
	port := NewMemoryPort(fragment)
	nav := New(total, port)
	nav.Mount()
	t.Cleanup(nav.Close)
	return nav, port
}

func TestNavigator_MountFromFragment(t *testing.T) {
	nav, port := mounted(t, 3, "#2")

	assert.Equal(t, 1, nav.Index())
	assert.Empty(t, port.Writes(), "matching fragment must not be rewritten")
}

func TestNavigator_MountInvalidFragmentDefaultsToFirst(t *testing.T) {
	for _, fragment := range []string{"", "#0", "#9", "#abc"} {
		t.Run(fragment, func(t *testing.T) {
			nav, port := mounted(t, 3, fragment)

			assert.Equal(t, 0, nav.Index())
			assert.Equal(t, []string{"#1"}, port.Writes())
		})
	}
}

func TestNavigator_ArrowRightScenario(t *testing.T) {
	nav, port := mounted(t, 3, "#2")

	require.True(t, nav.HandleKey("ArrowRight"))
	assert.Equal(t, 2, nav.Index())
	assert.Equal(t, "#3", port.ReadPosition())

	require.True(t, nav.HandleKey("ArrowRight"))
	assert.Equal(t, 2, nav.Index(), "next saturates at the last slide")
	assert.Equal(t, []string{"#3"}, port.Writes())
}

func TestNavigator_PrevSaturatesAtFirst(t *testing.T) {
	nav, port := mounted(t, 3, "#1")

	nav.Prev()

	assert.Equal(t, 0, nav.Index())
	assert.Empty(t, port.Writes())
}

func TestNavigator_KeyBindings(t *testing.T) {
	tests := []struct {
		key  string
		from int
		want int
	}{
		{"ArrowRight", 2, 3},
		{"PageDown", 2, 3},
		{" ", 2, 3},
		{"ArrowLeft", 2, 1},
		{"PageUp", 2, 1},
		{"Home", 2, 0},
		{"End", 2, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.key), func(t *testing.T) {
			nav, _ := mounted(t, 5, Fragment(tt.from))

			assert.True(t, nav.HandleKey(tt.key), "bound keys suppress the default action")
			assert.Equal(t, tt.want, nav.Index())
		})
	}
}

func TestNavigator_UnboundKey(t *testing.T) {
	nav, _ := mounted(t, 5, "#3")

	assert.False(t, nav.HandleKey("Enter"))
	assert.False(t, nav.HandleKey("ArrowUp"))
	assert.Equal(t, 2, nav.Index())
}

func TestNavigator_ExternalFragmentChange(t *testing.T) {
	nav, port := mounted(t, 5, "#1")

	port.Navigate("#4")
	assert.Equal(t, 3, nav.Index())

	port.Navigate("#42")
	assert.Equal(t, 3, nav.Index(), "out of range fragments are ignored")

	port.Navigate("#nope")
	assert.Equal(t, 3, nav.Index())
}

func TestNavigator_OutboundWriteDoesNotLoop(t *testing.T) {
	nav, port := mounted(t, 5, "#1")
	changes := 0
	nav.OnChange(func(int) { changes++ })

	nav.Next()
	nav.Next()
	port.Deliver()
	port.Deliver()

	assert.Equal(t, 2, nav.Index())
	assert.Equal(t, 2, changes)
	assert.Equal(t, []string{"#2", "#3"}, port.Writes(), "one write per index change")
}

func TestNavigator_CloseStopsListening(t *testing.T) {
	nav, port := mounted(t, 5, "#1")
	nav.Close()

	port.Navigate("#3")

	assert.Equal(t, 0, nav.Index())
}

func TestNavigator_OnChangeReceivesIndex(t *testing.T) {
	nav, _ := mounted(t, 4, "#1")
	var seen []int
	nav.OnChange(func(i int) { seen = append(seen, i) })

	nav.GoTo(3)
	nav.GoTo(3)
	nav.HandleKey("Home")

	assert.Equal(t, []int{3, 0}, seen)
}

func TestNavigator_GoToClampsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 200).Draw(t, "total")
		target := rapid.Int().Draw(t, "target")

		nav := New(total, NewMemoryPort(""))
		nav.Mount()
		nav.GoTo(target)

		want := target
		if want < 0 {
			want = 0
		}
		if want > total-1 {
			want = total - 1
		}
		if nav.Index() != want {
			t.Fatalf("GoTo(%d) with total %d: got %d, want %d", target, total, nav.Index(), want)
		}
	})
}

func TestNavigator_FragmentRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 200).Draw(t, "total")
		target := rapid.IntRange(0, total-1).Draw(t, "target")

		port := NewMemoryPort("")
		nav := New(total, port)
		nav.Mount()
		nav.GoTo(target)

		fragment := port.ReadPosition()
		if fragment != Fragment(target) {
			t.Fatalf("fragment %q, want %q", fragment, Fragment(target))
		}

		reloaded := New(total, NewMemoryPort(fragment))
		reloaded.Mount()
		if reloaded.Index() != target {
			t.Fatalf("reparsed index %d, want %d", reloaded.Index(), target)
		}
	})
}

func TestNavigator_ValidFragmentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 200).Draw(t, "total")
		v := rapid.IntRange(1, total).Draw(t, "v")

		nav := New(total, NewMemoryPort(fmt.Sprintf("#%d", v)))
		nav.Mount()
		if nav.Index() != v-1 {
			t.Fatalf("#%d loaded index %d", v, nav.Index())
		}
	})
}

func TestNavigator_InvalidFragmentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 200).Draw(t, "total")
		v := rapid.OneOf(rapid.IntRange(-1000, 0), rapid.IntRange(total+1, total+1000)).Draw(t, "v")

		nav := New(total, NewMemoryPort(fmt.Sprintf("#%d", v)))
		nav.Mount()
		if nav.Index() != 0 {
			t.Fatalf("#%d loaded index %d, want 0", v, nav.Index())
		}
	})
}

func TestBindings(t *testing.T) {
	b := Bindings()
	require.Len(t, b, 7)
	b[0].Key = "mutated"
	assert.Equal(t, "ArrowRight", Bindings()[0].Key)
	assert.Equal(t, ActionLast, ActionFor("End"))
}

func TestNavigator_LateEchoesDoNotRewind(t *testing.T) {
	nav, port := mounted(t, 5, "#1")
	var seen []int
	nav.OnChange(func(i int) { seen = append(seen, i) })

	// two keys land before the browser applies the first write
	nav.HandleKey("ArrowRight")
	nav.HandleKey("ArrowRight")
	port.Receive("#2")
	assert.Equal(t, 2, nav.Index(), "the echo of #2 is not a navigation")

	nav.HandleKey("ArrowRight")
	port.Receive("#3")
	port.Receive("#4")

	assert.Equal(t, 3, nav.Index())
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, "#4", port.ReadPosition())
}

func TestNavigator_ExternalChangeAfterEchoes(t *testing.T) {
	nav, port := mounted(t, 5, "#1")

	nav.Next()
	port.Deliver()
	port.Receive("#5")

	assert.Equal(t, 4, nav.Index())
	assert.Equal(t, []string{"#2"}, port.Writes(), "a matching fragment is not written back")
}

func TestEchoes_AckOnlyOldestWrite(t *testing.T) {
	var e Echoes
	e.Wrote("#2")
	e.Wrote("#3")

	assert.False(t, e.Ack("#3"), "echoes arrive in write order")
	assert.True(t, e.Ack("#2"))
	assert.True(t, e.Ack("#3"))
	assert.False(t, e.Ack("#3"))
	assert.Zero(t, e.Outstanding())
}
