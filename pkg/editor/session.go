// Package editor orchestrates the two editing surfaces of a document:
// the flat markdown source view and the structured WYSIWYG view. A
// Session owns one document; exactly one representation is
// authoritative at any instant and the other is derived on demand.
// Mode switches are synchronous: checkpoint, transform, cursor remap,
// swap — completed before the caller regains control.
package editor

import (
	"bytes"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/inkwell-md/inkwell/internal/log"
	"github.com/inkwell-md/inkwell/internal/renderer/markdown"
	"github.com/inkwell-md/inkwell/internal/ulid"
	"github.com/inkwell-md/inkwell/pkg/document"
	"github.com/inkwell-md/inkwell/pkg/editor/history"
)

// Mode identifies the active editing surface.
type Mode = history.Mode

const (
	ModeSource  = history.ModeSource
	ModeWysiwyg = history.ModeWysiwyg
)

// CursorInfo is a selection in the active mode's coordinate space.
type CursorInfo = history.CursorInfo

// ErrWrongMode is returned when content is written through the
// surface that is not currently authoritative.
var ErrWrongMode = errors.New("editor: operation does not match the active mode")

// SessionOptions carries the injected collaborators and feature
// toggles. Everything is per-session; there is no shared global
// state.
type SessionOptions struct {
	Parse   document.ParseOptions
	History *history.Store
	Logger  *zap.Logger
}

// Session is the mode sync controller for a single document.
type Session struct {
	id      string
	opts    SessionOptions
	logger  *zap.Logger
	history *history.Store

	mode        Mode
	source      []byte
	doc         *document.Node
	sourceValid bool
	docValid    bool
	cursor      CursorInfo

	lineBreak      []byte
	trailingBreaks int
}

// NewSession starts a session over the given markdown, in source
// mode.
func NewSession(source []byte, opts SessionOptions) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Named("editor")
	}
	if opts.History == nil {
		opts.History = history.NewStore(history.WithLogger(opts.Logger))
	}

	trailing := document.CountTrailingLineBreaks(source, document.DetectLineBreak(source))
	if trailing < 1 {
		trailing = 1
	}

	return &Session{
		id:             ulid.GenerateID(),
		opts:           opts,
		logger:         opts.Logger,
		history:        opts.History,
		mode:           ModeSource,
		source:         source,
		sourceValid:    true,
		lineBreak:      document.DetectLineBreak(source),
		trailingBreaks: trailing,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mode() Mode {
	return s.mode
}

func (s *Session) Cursor() CursorInfo {
	return s.cursor
}

// SetCursor records a cursor-only change. It never triggers
// re-parsing or footnote maintenance.
func (s *Session) SetCursor(c CursorInfo) {
	s.cursor = c
}

// Markdown returns the document's flat form, deriving it from the
// structured form when the WYSIWYG surface is authoritative. The
// derivation preserves the source's line separator and trailing
// line-break count.
func (s *Session) Markdown() ([]byte, error) {
	if s.sourceValid {
		return s.source, nil
	}

	rendered, err := markdown.RenderWith(s.doc, s.lineBreak, s.trailingBreaks)
	if err != nil {
		return nil, errors.Wrap(err, "serializing document")
	}
	s.source = rendered
	s.sourceValid = true
	return s.source, nil
}

// Doc returns the document's structured form, deriving it from the
// flat form when the source surface is authoritative.
func (s *Session) Doc() (*document.Node, error) {
	if s.docValid {
		return s.doc, nil
	}

	root, err := document.Parse(s.source, s.opts.Parse)
	if err != nil {
		return nil, errors.Wrap(err, "parsing markdown")
	}
	s.doc = root
	s.docValid = true
	return s.doc, nil
}

// SetSource replaces the flat content after an edit in the source
// surface.
func (s *Session) SetSource(source []byte, cursor CursorInfo) error {
	if s.mode != ModeSource {
		return errors.WithStack(ErrWrongMode)
	}
	s.source = source
	s.sourceValid = true
	s.docValid = false
	s.cursor = cursor
	return nil
}

// SetDoc replaces the structured content after an edit in the WYSIWYG
// surface. Footnote renumbering runs on every content change here;
// the cursor is remapped through the renumbering edits.
func (s *Session) SetDoc(root *document.Node, cursor CursorInfo) error {
	if s.mode != ModeWysiwyg {
		return errors.WithStack(ErrWrongMode)
	}

	if tx := document.RenumberFootnotes(root); tx != nil {
		applied, err := tx.Apply(root)
		if err != nil {
			return errors.Wrap(err, "renumbering footnotes")
		}
		root = applied
		cursor = CursorInfo{
			Anchor: tx.MapPos(cursor.Anchor),
			Head:   tx.MapPos(cursor.Head),
		}
		s.logger.Debug("footnotes renumbered", zap.String("docID", s.id), zap.Int("edits", tx.Len()))
	}

	s.doc = root
	s.docValid = true
	s.sourceValid = false
	s.cursor = cursor
	return nil
}

// Switch toggles the active surface. The whole pipeline — checkpoint,
// transform, cursor remap — runs to completion synchronously.
// Switching to the already-active mode is a no-op.
func (s *Session) Switch(target Mode) error {
	if target == s.mode {
		s.logger.Debug("mode switch skipped", zap.String("docID", s.id), zap.String("mode", string(target)))
		return nil
	}

	md, err := s.Markdown()
	if err != nil {
		return err
	}

	cursor := s.cursor
	s.history.CreateCheckpoint(s.id, history.Checkpoint{
		Markdown: string(md),
		Mode:     s.mode,
		Cursor:   &cursor,
	})

	doc, err := s.Doc()
	if err != nil {
		return err
	}

	switch target {
	case ModeWysiwyg:
		s.cursor = CursorInfo{
			Anchor: MapTextToDoc(md, doc, s.cursor.Anchor),
			Head:   MapTextToDoc(md, doc, s.cursor.Head),
		}
	case ModeSource:
		s.cursor = CursorInfo{
			Anchor: MapDocToText(md, doc, s.cursor.Anchor),
			Head:   MapDocToText(md, doc, s.cursor.Head),
		}
	default:
		return errors.Errorf("editor: unknown mode %q", target)
	}

	s.mode = target
	return nil
}

// Checkpoint records the current state in the unified history without
// switching modes.
func (s *Session) Checkpoint() error {
	md, err := s.Markdown()
	if err != nil {
		return err
	}
	cursor := s.cursor
	s.history.CreateCheckpoint(s.id, history.Checkpoint{
		Markdown: string(md),
		Mode:     s.mode,
		Cursor:   &cursor,
	})
	return nil
}

// Undo restores the most recent checkpoint, which may have been taken
// in the other mode. Reports whether anything was restored.
func (s *Session) Undo() (bool, error) {
	cp := s.history.PopUndo(s.id)
	if cp == nil {
		return false, nil
	}

	md, err := s.Markdown()
	if err != nil {
		// Put the checkpoint back; the current state could not be
		// snapshotted and must not be lost.
		s.history.PushUndo(s.id, *cp)
		return false, err
	}
	cursor := s.cursor
	s.history.PushRedo(s.id, history.Checkpoint{
		Markdown: string(md),
		Mode:     s.mode,
		Cursor:   &cursor,
	})

	return true, s.restore(cp)
}

// Redo reverses the most recent undo.
func (s *Session) Redo() (bool, error) {
	cp := s.history.PopRedo(s.id)
	if cp == nil {
		return false, nil
	}

	md, err := s.Markdown()
	if err != nil {
		s.history.PushRedo(s.id, *cp)
		return false, err
	}
	cursor := s.cursor
	s.history.PushUndo(s.id, history.Checkpoint{
		Markdown: string(md),
		Mode:     s.mode,
		Cursor:   &cursor,
	})

	return true, s.restore(cp)
}

// restore loads a checkpoint. The restoring guard keeps the restore
// itself from creating new checkpoints.
func (s *Session) restore(cp *history.Checkpoint) error {
	s.history.SetRestoring(true)
	defer s.history.SetRestoring(false)

	s.source = []byte(cp.Markdown)
	s.sourceValid = true
	s.docValid = false
	s.mode = cp.Mode

	if cp.Mode == ModeWysiwyg {
		if _, err := s.Doc(); err != nil {
			return err
		}
	}

	s.cursor = CursorInfo{}
	if cp.Cursor != nil {
		s.cursor = *cp.Cursor
	}
	return nil
}

func (s *Session) CanUndo() bool {
	return s.history.CanUndo(s.id)
}

func (s *Session) CanRedo() bool {
	return s.history.CanRedo(s.id)
}

// Equal content short-circuit for hosts that debounce: reports
// whether the given markdown differs from the session's current flat
// form.
func (s *Session) ContentChanged(md []byte) bool {
	current, err := s.Markdown()
	if err != nil {
		return true
	}
	return !bytes.Equal(current, md)
}

// Close releases the session's history. The id becomes invalid.
func (s *Session) Close() {
	s.history.ClearDocument(s.id)
}
