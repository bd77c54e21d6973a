package markdown

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/inkwell-md/inkwell/pkg/document"
)

// renderInlinesToString renders inline content standalone, for table
// cells and other single-line contexts.
func renderInlinesToString(children []*document.Node) (string, error) {
	var r renderer
	r.lineBreak = []byte{'\n'}
	if err := r.renderInlines(children, false); err != nil {
		return "", err
	}
	return strings.ReplaceAll(r.buf.String(), "\n", " "), nil
}

// renderInlines emits a run sequence, opening and closing mark
// delimiters at transitions. blockStart guards the first characters
// against being re-read as block syntax.
func (r *renderer) renderInlines(children []*document.Node, blockStart bool) error {
	var open document.MarkSet

	closeAll := func() error {
		for i := len(open) - 1; i >= 0; i-- {
			if err := r.writeString(markCloser(open[i])); err != nil {
				return err
			}
		}
		open = nil
		return nil
	}

	for i, n := range children {
		switch n.Kind {
		case document.KindText:
			if n.Marks.Contains(document.MarkCode) {
				// Code spans do not nest other marks; any marks
				// besides the code itself wrap around it.
				wrapping := n.Marks.Without(document.MarkCode)
				if err := r.transitionMarks(&open, wrapping); err != nil {
					return err
				}
				if err := r.writeString(codeSpan(n.Text)); err != nil {
					return err
				}
				continue
			}

			if err := r.transitionMarks(&open, n.Marks); err != nil {
				return err
			}
			text := escapeText(n.Text)
			if blockStart && i == 0 && len(open) == 0 {
				text = escapeBlockStart(text)
			}
			if err := r.writeString(text); err != nil {
				return err
			}

		case document.KindHardBreak:
			if err := closeAll(); err != nil {
				return err
			}
			if err := r.writeString("\\"); err != nil {
				return err
			}
			r.cr()

		case document.KindImage:
			if err := closeAll(); err != nil {
				return err
			}
			s := "![" + escapeText(n.Text) + "](" + n.Destination
			if n.Title != "" {
				s += ` "` + n.Title + `"`
			}
			s += ")"
			if err := r.writeString(s); err != nil {
				return err
			}

		case document.KindFootnoteReference:
			if err := closeAll(); err != nil {
				return err
			}
			if err := r.writeString("[^" + n.Label + "]"); err != nil {
				return err
			}

		case document.KindWikiLink:
			if err := closeAll(); err != nil {
				return err
			}
			s := "[[" + n.Target
			if n.Alias != "" {
				s += "|" + n.Alias
			}
			s += "]]"
			if err := r.writeString(s); err != nil {
				return err
			}

		case document.KindMathInline:
			if err := closeAll(); err != nil {
				return err
			}
			if err := r.writeString("$" + n.Text + "$"); err != nil {
				return err
			}

		default:
			return errors.Errorf("markdown: unexpected inline kind %s", n.Kind)
		}
	}

	return closeAll()
}

// transitionMarks closes and opens delimiters to move from the
// currently open mark set to the target set. Both sets are in
// canonical order, so the longest common prefix stays open.
func (r *renderer) transitionMarks(open *document.MarkSet, target document.MarkSet) error {
	common := 0
	for common < len(*open) && common < len(target) && (*open)[common] == target[common] {
		common++
	}

	for i := len(*open) - 1; i >= common; i-- {
		if err := r.writeString(markCloser((*open)[i])); err != nil {
			return err
		}
	}
	for i := common; i < len(target); i++ {
		if err := r.writeString(markOpener(target[i])); err != nil {
			return err
		}
	}

	*open = target.Clone()
	return nil
}

func markOpener(m document.Mark) string {
	switch m.Kind {
	case document.MarkBold:
		return "**"
	case document.MarkItalic:
		return "*"
	case document.MarkStrikethrough:
		return "~~"
	case document.MarkHighlight:
		return "=="
	case document.MarkSubscript:
		return "~"
	case document.MarkSuperscript:
		return "^"
	case document.MarkLink:
		return "["
	}
	return ""
}

func markCloser(m document.Mark) string {
	switch m.Kind {
	case document.MarkBold:
		return "**"
	case document.MarkItalic:
		return "*"
	case document.MarkStrikethrough:
		return "~~"
	case document.MarkHighlight:
		return "=="
	case document.MarkSubscript:
		return "~"
	case document.MarkSuperscript:
		return "^"
	case document.MarkLink:
		s := "](" + m.Destination
		if m.Title != "" {
			s += ` "` + m.Title + `"`
		}
		return s + ")"
	}
	return ""
}

// codeSpan wraps content in enough backticks, padding with spaces
// when the content itself starts or ends with a backtick.
func codeSpan(content string) string {
	ticks := longestBacktickSeq(content) + 1
	fence := strings.Repeat("`", ticks)
	if strings.HasPrefix(content, "`") || strings.HasSuffix(content, "`") {
		content = " " + content + " "
	}
	return fence + content + fence
}

const escapable = "\\`*_[]~^=<>|$"

// escapeText escapes every character that could be misread as inline
// syntax. Characters escaped in the source arrive here unescaped, so
// nothing is ever escaped twice.
func escapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(escapable, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeBlockStart guards text at the beginning of a paragraph from
// being re-parsed as a block marker (heading, list item, quote).
func escapeBlockStart(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '-', '+', '>':
		return "\\" + s
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if (c == '.' || c == ')') && i > 0 {
			return s[:i] + "\\" + s[i:]
		}
		break
	}
	return s
}
