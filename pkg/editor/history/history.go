// Package history implements the unified cross-mode undo/redo store.
// Checkpoints snapshot the document around mode switches and restores,
// independently of each editor surface's native history.
package history

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mode identifies which editing surface produced a checkpoint.
type Mode string

const (
	ModeSource  Mode = "source"
	ModeWysiwyg Mode = "wysiwyg"
)

// CursorInfo is a selection in the coordinate space of the
// checkpoint's mode.
type CursorInfo struct {
	Anchor int
	Head   int
}

// FromTo returns the selection normalized to from <= to.
func (c CursorInfo) FromTo() (from, to int) {
	if c.Anchor <= c.Head {
		return c.Anchor, c.Head
	}
	return c.Head, c.Anchor
}

// Checkpoint is one restorable snapshot.
type Checkpoint struct {
	Markdown  string
	Mode      Mode
	Cursor    *CursorInfo
	CreatedAt time.Time
}

// DefaultMaxCheckpoints caps each stack's depth.
const DefaultMaxCheckpoints = 50

type stacks struct {
	undo []*Checkpoint
	redo []*Checkpoint
}

// Store keeps bounded undo/redo checkpoint stacks per document id.
// The zero depth positions of the undo stack are evicted first when
// the cap is exceeded. Safe for concurrent use; documents are fully
// isolated from one another.
type Store struct {
	mu        sync.Mutex
	maxDepth  int
	restoring bool
	docs      map[string]*stacks
	logger    *zap.Logger
}

type Option func(*Store)

func WithMaxCheckpoints(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		maxDepth: DefaultMaxCheckpoints,
		docs:     map[string]*stacks{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) forDocument(docID string) *stacks {
	st, ok := s.docs[docID]
	if !ok {
		st = &stacks{}
		s.docs[docID] = st
	}
	return st
}

// CreateCheckpoint records a user-facing snapshot and starts a new
// history branch: the redo stack is cleared. It is a no-op while a
// restore is in progress, and a no-op when the markdown equals the
// most recent checkpoint's. Reports whether a checkpoint was created.
func (s *Store) CreateCheckpoint(docID string, cp Checkpoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.restoring {
		return false
	}

	st := s.forDocument(docID)
	if n := len(st.undo); n > 0 && st.undo[n-1].Markdown == cp.Markdown {
		return false
	}

	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	st.undo = s.push(docID, st.undo, &cp)
	st.redo = nil
	return true
}

// PushUndo appends to the undo stack without clearing redo. It is the
// internal mechanism of a redo operation, not a user edit.
func (s *Store) PushUndo(docID string, cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.forDocument(docID)
	st.undo = s.push(docID, st.undo, &cp)
}

// PushRedo appends to the redo stack without clearing undo. It is the
// internal mechanism of an undo operation, not a user edit.
func (s *Store) PushRedo(docID string, cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.forDocument(docID)
	st.redo = s.push(docID, st.redo, &cp)
}

// push appends with FIFO eviction at the bottom when the stack is at
// capacity.
func (s *Store) push(docID string, stack []*Checkpoint, cp *Checkpoint) []*Checkpoint {
	if len(stack) >= s.maxDepth {
		evicted := len(stack) - s.maxDepth + 1
		s.logger.Debug("evicting oldest checkpoints",
			zap.String("docID", docID),
			zap.Int("count", evicted),
		)
		stack = append(stack[:0], stack[evicted:]...)
	}
	return append(stack, cp)
}

// PopUndo removes and returns the most recent undo checkpoint, or nil
// when there is none. A nil result means "nothing to do".
func (s *Store) PopUndo(docID string) *Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.forDocument(docID)
	n := len(st.undo)
	if n == 0 {
		return nil
	}
	cp := st.undo[n-1]
	st.undo = st.undo[:n-1]
	return cp
}

// PopRedo removes and returns the most recent redo checkpoint, or nil
// when there is none.
func (s *Store) PopRedo(docID string) *Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.forDocument(docID)
	n := len(st.redo)
	if n == 0 {
		return nil
	}
	cp := st.redo[n-1]
	st.redo = st.redo[:n-1]
	return cp
}

func (s *Store) CanUndo(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.docs[docID]
	return ok && len(st.undo) > 0
}

func (s *Store) CanRedo(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.docs[docID]
	return ok && len(st.redo) > 0
}

// Depth returns the current stack depths, useful for inspection.
func (s *Store) Depth(docID string) (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.docs[docID]
	if !ok {
		return 0, 0
	}
	return len(st.undo), len(st.redo)
}

// SetRestoring toggles the reentrancy guard. While true,
// CreateCheckpoint is a no-op so restores never checkpoint
// themselves.
func (s *Store) SetRestoring(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restoring = v
}

func (s *Store) IsRestoring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoring
}

// ClearDocument drops both stacks of a document, e.g. when its tab
// closes.
func (s *Store) ClearDocument(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docID)
}
