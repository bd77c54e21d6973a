// Package markdown renders the structured document model back into
// canonical markdown text. Rendering is deterministic: identical
// trees always produce identical bytes.
package markdown

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/inkwell-md/inkwell/pkg/document"
)

// Render serializes the tree rooted at root, terminated by a single
// trailing line break.
func Render(root *document.Node) ([]byte, error) {
	return RenderWith(root, []byte{'\n'}, 1)
}

// RenderWith serializes with an explicit line separator and trailing
// line-break count, so round trips can preserve the source's shape.
func RenderWith(root *document.Node, lineBreak []byte, finalLineBreaks int) ([]byte, error) {
	if root == nil || root.Kind != document.KindDocument {
		return nil, errors.New("markdown: root must be a document node")
	}

	r := renderer{
		lineBreak:       lineBreak,
		finalLineBreaks: finalLineBreaks,
	}

	body, defs := splitFootnoteDefinitions(root)
	for _, n := range body {
		if err := r.renderBlock(n, false); err != nil {
			return nil, err
		}
	}
	for _, def := range defs {
		if err := r.renderBlock(def, false); err != nil {
			return nil, err
		}
	}

	// Finish writing any remaining characters.
	r.needCR = r.finalLineBreaks
	if err := r.write(nil); err != nil {
		return nil, err
	}
	return r.buf.Bytes(), nil
}

// splitFootnoteDefinitions separates definitions from the rest of the
// top-level blocks and orders them by the first occurrence of their
// references, so definitions always land at the document end in a
// canonical order. Unreferenced definitions keep their storage order
// after the referenced ones.
func splitFootnoteDefinitions(root *document.Node) (body, defs []*document.Node) {
	for _, n := range root.Children {
		if n.Kind == document.KindFootnoteDefinition {
			defs = append(defs, n)
		} else {
			body = append(body, n)
		}
	}

	rank := map[string]int{}
	for _, n := range body {
		document.Walk(n, func(c *document.Node) document.WalkStatus {
			if c.Kind == document.KindFootnoteReference {
				if _, ok := rank[c.Label]; !ok {
					rank[c.Label] = len(rank)
				}
			}
			return document.WalkContinue
		})
	}

	referenced := make([]*document.Node, 0, len(defs))
	var orphans []*document.Node
	for _, def := range defs {
		if _, ok := rank[def.Label]; ok {
			referenced = append(referenced, def)
		} else {
			orphans = append(orphans, def)
		}
	}
	for i := 0; i < len(referenced); i++ {
		for j := i + 1; j < len(referenced); j++ {
			if rank[referenced[j].Label] < rank[referenced[i].Label] {
				referenced[i], referenced[j] = referenced[j], referenced[i]
			}
		}
	}

	return body, append(referenced, orphans...)
}

type renderer struct {
	lineBreak []byte

	beginLine       bool
	buf             bytes.Buffer
	finalLineBreaks int
	needCR          int
	prefix          []byte
}

func (r *renderer) blankline() {
	if r.needCR < 2 {
		r.needCR = 2
	}
}

func (r *renderer) cr() {
	if r.needCR < 1 {
		r.needCR = 1
	}
}

func (r *renderer) write(data []byte) error {
	k := len(r.buf.Bytes()) - 1

	for r.needCR > 0 {
		if k < 0 || r.buf.Bytes()[k] == '\n' {
			k--
			if r.beginLine && r.needCR > 1 {
				prefix := bytes.TrimFunc(r.prefix, unicode.IsSpace)
				if _, err := r.buf.Write(prefix); err != nil {
					return err
				}
			}
		} else {
			if _, err := r.buf.Write(r.lineBreak); err != nil {
				return err
			}
			if r.needCR > 1 {
				prefix := bytes.TrimFunc(r.prefix, unicode.IsSpace)
				if _, err := r.buf.Write(prefix); err != nil {
					return err
				}
			}
		}

		r.beginLine = true
		r.needCR--
	}

	for _, c := range data {
		if r.beginLine {
			if _, err := r.buf.Write(r.prefix); err != nil {
				return err
			}
		}

		if err := r.buf.WriteByte(c); err != nil {
			return err
		}

		r.beginLine = c == '\n'
	}

	return nil
}

func (r *renderer) writeString(s string) error {
	return r.write([]byte(s))
}

func (r *renderer) renderBlocks(nodes []*document.Node, tight bool) error {
	for _, n := range nodes {
		if err := r.renderBlock(n, tight); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderBlock(n *document.Node, tight bool) error {
	switch n.Kind {
	case document.KindParagraph:
		if err := r.renderInlines(n.Children, true); err != nil {
			return err
		}
		if tight {
			r.cr()
		} else {
			r.blankline()
		}

	case document.KindHeading:
		level := n.Level
		if level < 1 {
			level = 1
		} else if level > 6 {
			level = 6
		}
		if err := r.write(append(bytes.Repeat([]byte{'#'}, level), ' ')); err != nil {
			return err
		}
		if err := r.renderInlines(n.Children, false); err != nil {
			return err
		}
		r.blankline()

	case document.KindBlockquote, document.KindAlert:
		prefix := []byte{'>', ' '}
		if err := r.write(prefix); err != nil {
			return err
		}
		r.prefix = append(r.prefix, prefix...)
		if n.Kind == document.KindAlert {
			if err := r.writeString("[!" + string(n.Alert) + "]"); err != nil {
				return err
			}
			r.cr()
		}
		if err := r.renderBlocks(n.Children, false); err != nil {
			return err
		}
		r.prefix = r.prefix[0 : len(r.prefix)-len(prefix)]
		r.blankline()

	case document.KindList:
		for i, item := range n.Children {
			if err := r.renderListItem(n, item, i); err != nil {
				return err
			}
		}
		r.blankline()

	case document.KindCodeBlock:
		return r.renderCodeBlock(n)

	case document.KindMathBlock:
		r.blankline()
		if err := r.writeString("$$"); err != nil {
			return err
		}
		r.cr()
		if err := r.writeString(n.Text); err != nil {
			return err
		}
		r.cr()
		if err := r.writeString("$$"); err != nil {
			return err
		}
		r.blankline()

	case document.KindHTMLBlock, document.KindDetails:
		r.blankline()
		if err := r.writeString(n.Text); err != nil {
			return err
		}
		r.blankline()

	case document.KindThematicBreak:
		r.blankline()
		if err := r.writeString("---"); err != nil {
			return err
		}
		r.blankline()

	case document.KindTable:
		return r.renderTable(n)

	case document.KindFootnoteDefinition:
		if err := r.writeString("[^" + n.Label + "]: "); err != nil {
			return err
		}
		prefix := []byte("    ")
		r.prefix = append(r.prefix, prefix...)
		if err := r.renderBlocks(n.Children, len(n.Children) == 1); err != nil {
			return err
		}
		r.prefix = r.prefix[0 : len(r.prefix)-len(prefix)]
		r.blankline()

	default:
		return errors.Errorf("markdown: unexpected block kind %s", n.Kind)
	}

	return nil
}

func (r *renderer) renderListItem(list, item *document.Node, index int) error {
	if item.Kind != document.KindListItem {
		return errors.Errorf("markdown: unexpected list child %s", item.Kind)
	}

	if list.Ordered {
		start := list.Start
		if start == 0 {
			start = 1
		}
		if err := r.writeString(strconv.Itoa(start+index) + ". "); err != nil {
			return err
		}
	} else {
		marker := list.Marker
		if marker == 0 {
			marker = '-'
		}
		if err := r.write([]byte{marker, ' '}); err != nil {
			return err
		}
	}

	if item.Checked != nil {
		box := "[ ] "
		if *item.Checked {
			box = "[x] "
		}
		if err := r.writeString(box); err != nil {
			return err
		}
	}

	// Tight items hold a single paragraph; keep them on one line.
	tight := len(item.Children) == 1 && item.Children[0].Kind == document.KindParagraph

	r.prefix = append(r.prefix, []byte{' ', ' ', ' '}...)
	if err := r.renderBlocks(item.Children, tight); err != nil {
		return err
	}
	r.prefix = r.prefix[0 : len(r.prefix)-3]

	return nil
}

func (r *renderer) renderCodeBlock(n *document.Node) error {
	ticksCount := longestBacktickSeq(n.Text) + 1
	if ticksCount < 3 {
		ticksCount = 3
	}
	fence := strings.Repeat("`", ticksCount)

	r.blankline()
	if err := r.writeString(fence); err != nil {
		return err
	}

	info := n.Language
	if len(n.Attrs) > 0 {
		var attrBuf bytes.Buffer
		if err := document.WriteAttributes(&attrBuf, n.Attrs); err != nil {
			return err
		}
		if info != "" {
			info += " "
		}
		info += attrBuf.String()
	}
	if info != "" {
		if err := r.writeString(info); err != nil {
			return err
		}
	}
	r.cr()

	if n.Text != "" {
		if err := r.writeString(n.Text); err != nil {
			return err
		}
		r.cr()
	}
	if err := r.writeString(fence); err != nil {
		return err
	}
	r.blankline()

	return nil
}

func (r *renderer) renderTable(n *document.Node) error {
	r.blankline()

	columns := len(n.Alignments)
	for _, row := range n.Children {
		if len(row.Children) > columns {
			columns = len(row.Children)
		}
	}

	wroteHeader := false
	for _, row := range n.Children {
		if err := r.renderTableRow(row, columns); err != nil {
			return err
		}
		r.cr()
		if row.IsHeader && !wroteHeader {
			if err := r.renderTableDelimiter(n.Alignments, columns); err != nil {
				return err
			}
			r.cr()
			wroteHeader = true
		}
	}

	r.blankline()
	return nil
}

func (r *renderer) renderTableRow(row *document.Node, columns int) error {
	if err := r.writeString("|"); err != nil {
		return err
	}
	for i := 0; i < columns; i++ {
		cell := ""
		if i < len(row.Children) {
			rendered, err := renderInlinesToString(row.Children[i].Children)
			if err != nil {
				return err
			}
			cell = rendered
		}
		if err := r.writeString(" " + cell + " |"); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderTableDelimiter(alignments []document.Alignment, columns int) error {
	if err := r.writeString("|"); err != nil {
		return err
	}
	for i := 0; i < columns; i++ {
		align := document.AlignNone
		if i < len(alignments) {
			align = alignments[i]
		}
		var marker string
		switch align {
		case document.AlignLeft:
			marker = ":---"
		case document.AlignCenter:
			marker = ":---:"
		case document.AlignRight:
			marker = "---:"
		default:
			marker = "---"
		}
		if err := r.writeString(" " + marker + " |"); err != nil {
			return err
		}
	}
	return nil
}

func longestBacktickSeq(data string) int {
	longest, current := 0, 0
	for _, b := range []byte(data) {
		if b == '`' {
			current++
		} else {
			if current > longest {
				longest = current
			}
			current = 0
		}
	}
	if current > longest {
		longest = current
	}
	return longest
}
