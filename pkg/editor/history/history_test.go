package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateCheckpoint(t *testing.T) {
	s := NewStore()

	created := s.CreateCheckpoint("doc", Checkpoint{Markdown: "# One\n", Mode: ModeSource})
	assert.True(t, created)
	undo, redo := s.Depth("doc")
	assert.Equal(t, 1, undo)
	assert.Equal(t, 0, redo)

	cp := s.PopUndo("doc")
	require.NotNil(t, cp)
	assert.Equal(t, "# One\n", cp.Markdown)
	assert.Equal(t, ModeSource, cp.Mode)
	assert.False(t, cp.CreatedAt.IsZero())
}

func TestStore_Dedup(t *testing.T) {
	s := NewStore()

	assert.True(t, s.CreateCheckpoint("doc", Checkpoint{Markdown: "same"}))
	assert.False(t, s.CreateCheckpoint("doc", Checkpoint{Markdown: "same"}))
	undo, _ := s.Depth("doc")
	assert.Equal(t, 1, undo)

	// Different content checkpoints normally again.
	assert.True(t, s.CreateCheckpoint("doc", Checkpoint{Markdown: "other"}))
}

func TestStore_Branching(t *testing.T) {
	s := NewStore()

	s.CreateCheckpoint("doc", Checkpoint{Markdown: "one"})
	s.CreateCheckpoint("doc", Checkpoint{Markdown: "two"})

	popped := s.PopUndo("doc")
	require.NotNil(t, popped)
	s.PushRedo("doc", *popped)
	assert.True(t, s.CanRedo("doc"))

	// A new checkpoint starts a fresh branch.
	s.CreateCheckpoint("doc", Checkpoint{Markdown: "three"})
	assert.False(t, s.CanRedo("doc"))
	undo, redo := s.Depth("doc")
	assert.Equal(t, 2, undo)
	assert.Equal(t, 0, redo)
}

func TestStore_PopEmpty(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.PopUndo("doc"))
	assert.Nil(t, s.PopRedo("doc"))
	assert.False(t, s.CanUndo("doc"))
	assert.False(t, s.CanRedo("doc"))
}

func TestStore_CapEvictsOldest(t *testing.T) {
	s := NewStore()

	for i := 0; i <= DefaultMaxCheckpoints; i++ {
		created := s.CreateCheckpoint("doc", Checkpoint{Markdown: fmt.Sprintf("content-%d", i)})
		require.True(t, created)
	}

	undo, _ := s.Depth("doc")
	assert.Equal(t, DefaultMaxCheckpoints, undo)

	// Drain to the bottom: the first checkpoint is gone.
	var last *Checkpoint
	for cp := s.PopUndo("doc"); cp != nil; cp = s.PopUndo("doc") {
		last = cp
	}
	assert.Equal(t, "content-1", last.Markdown)
}

func TestStore_CustomCap(t *testing.T) {
	s := NewStore(WithMaxCheckpoints(3))

	for i := 0; i < 5; i++ {
		s.CreateCheckpoint("doc", Checkpoint{Markdown: fmt.Sprintf("v%d", i)})
	}
	undo, _ := s.Depth("doc")
	assert.Equal(t, 3, undo)
}

func TestStore_RestoringGuard(t *testing.T) {
	s := NewStore()

	s.SetRestoring(true)
	assert.True(t, s.IsRestoring())
	assert.False(t, s.CreateCheckpoint("doc", Checkpoint{Markdown: "ignored"}))

	// Internal pushes bypass the guard; that is how undo and redo
	// record the state they replace.
	s.PushUndo("doc", Checkpoint{Markdown: "kept"})
	s.PushRedo("doc", Checkpoint{Markdown: "kept too"})
	undo, redo := s.Depth("doc")
	assert.Equal(t, 1, undo)
	assert.Equal(t, 1, redo)

	s.SetRestoring(false)
	assert.True(t, s.CreateCheckpoint("doc", Checkpoint{Markdown: "recorded"}))
}

func TestStore_DocumentsIsolated(t *testing.T) {
	s := NewStore()

	s.CreateCheckpoint("a", Checkpoint{Markdown: "alpha"})
	s.CreateCheckpoint("b", Checkpoint{Markdown: "beta"})

	assert.True(t, s.CanUndo("a"))
	assert.True(t, s.CanUndo("b"))

	s.ClearDocument("a")
	assert.False(t, s.CanUndo("a"))
	assert.True(t, s.CanUndo("b"))
}

func TestCursorInfo_FromTo(t *testing.T) {
	from, to := CursorInfo{Anchor: 9, Head: 4}.FromTo()
	assert.Equal(t, 4, from)
	assert.Equal(t, 9, to)

	from, to = CursorInfo{Anchor: 2, Head: 7}.FromTo()
	assert.Equal(t, 2, from)
	assert.Equal(t, 7, to)
}
