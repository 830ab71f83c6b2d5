package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
)

func newStore() *editor.Store {
	gen := ids.NewFrom(0)
	return editor.New(gen, schema.Empty())
}

func TestBurstRecordsLeadingEdit(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock))
	defer h.Close()

	s.SetContent("a")
	mock.Add(100 * time.Millisecond)
	s.SetContent("ab")
	mock.Add(100 * time.Millisecond)
	s.SetContent("abc")

	require.Equal(t, 1, h.Len())
	assert.Equal(t, "a", h.Leading(0).Content)
	assert.Nil(t, h.Leading(1))

	require.True(t, h.Undo())
	assert.Equal(t, "", s.Snapshot().Content)
	assert.False(t, h.CanUndo())
	assert.False(t, h.Undo())

	require.True(t, h.Redo())
	assert.Equal(t, "abc", s.Snapshot().Content)
	assert.False(t, h.Redo())
}

func TestUndoReturnsToEndOfPreviousBurst(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock))
	defer h.Close()

	s.SetContent("a")
	s.SetContent("ab")
	s.SetContent("abc")
	mock.Add(2 * time.Second)
	s.SetContent("abcd")
	s.SetContent("abcde")
	require.Equal(t, 2, h.Len())

	require.True(t, h.Undo())
	assert.Equal(t, "abc", s.Snapshot().Content)
	require.True(t, h.Undo())
	assert.Equal(t, "", s.Snapshot().Content)

	require.True(t, h.Redo())
	assert.Equal(t, "abc", s.Snapshot().Content)
	require.True(t, h.Redo())
	assert.Equal(t, "abcde", s.Snapshot().Content)
}

func TestEditAfterUndoStartsFromRestoredDocument(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock))
	defer h.Close()

	s.SetContent("one")
	mock.Add(2 * time.Second)
	s.SetContent("two")
	require.True(t, h.Undo())

	s.SetUsername("bot")
	require.True(t, h.Undo())
	m := s.Snapshot()
	assert.Equal(t, "one", m.Content)
	assert.Equal(t, "", m.Username)
}

func TestEditsAfterWindowOpenNewStep(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock))
	defer h.Close()

	s.SetContent("one")
	mock.Add(time.Second)
	s.SetContent("two")
	mock.Add(999 * time.Millisecond)
	s.SetContent("two!")

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 2, h.Position())
}

func TestNewEditDiscardsRedoBranch(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock))
	defer h.Close()

	s.SetContent("one")
	mock.Add(2 * time.Second)
	s.SetContent("two")

	require.True(t, h.Undo())
	assert.True(t, h.CanRedo())
	assert.Equal(t, "one", s.Snapshot().Content)

	// an undo closes the burst, so the next edit is leading immediately
	s.SetContent("three")
	assert.False(t, h.CanRedo())
	assert.Equal(t, 2, h.Len())

	require.True(t, h.Undo())
	assert.Equal(t, "one", s.Snapshot().Content)
}

func TestRestoreIsNotRecorded(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock))
	defer h.Close()

	s.SetContent("x")
	mock.Add(2 * time.Second)
	require.True(t, h.Undo())
	require.True(t, h.Redo())
	assert.Equal(t, 1, h.Len())
}

func TestLimitEvictsOldest(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock), WithLimit(3))
	defer h.Close()

	for i := 0; i < 5; i++ {
		s.SetContent(fmt.Sprint(i))
		mock.Add(2 * time.Second)
	}
	assert.Equal(t, 3, h.Len())

	for h.Undo() {
	}
	assert.Equal(t, "1", s.Snapshot().Content)
}

func TestNoOpEditsAreIgnored(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock))
	defer h.Close()

	s.SetContent("")
	s.MoveEmbedUp(0)
	assert.Equal(t, 0, h.Len())
}

func TestResetAndClose(t *testing.T) {
	mock := clock.NewMock()
	s := newStore()
	h := New(s, WithClock(mock), WithWindow(10*time.Millisecond))

	s.SetContent("a")
	mock.Add(20 * time.Millisecond)
	s.SetContent("b")
	assert.Equal(t, 2, h.Len())

	h.Reset()
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.CanUndo())

	h.Close()
	mock.Add(time.Second)
	s.SetContent("c")
	assert.Equal(t, 0, h.Len())
}
