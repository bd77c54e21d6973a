package document

import (
	"strings"
	"unicode/utf8"
)

// NodeKind enumerates every block and inline node the document model
// supports. The set is closed on purpose: consumers switch over it
// instead of comparing type names, so an unhandled kind is a visible
// bug rather than silently skipped content.
type NodeKind int

const (
	// Blocks.
	KindDocument NodeKind = iota + 1
	KindParagraph
	KindHeading
	KindBlockquote
	KindAlert
	KindList
	KindListItem
	KindCodeBlock
	KindMathBlock
	KindHTMLBlock
	KindDetails
	KindTable
	KindTableRow
	KindTableCell
	KindThematicBreak
	KindFootnoteDefinition

	// Inlines.
	KindText
	KindHardBreak
	KindImage
	KindFootnoteReference
	KindWikiLink
	KindMathInline
)

func (k NodeKind) IsBlock() bool {
	return k >= KindDocument && k <= KindFootnoteDefinition
}

func (k NodeKind) IsInline() bool {
	return k >= KindText && k <= KindMathInline
}

func (k NodeKind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindBlockquote:
		return "blockquote"
	case KindAlert:
		return "alert"
	case KindList:
		return "list"
	case KindListItem:
		return "list_item"
	case KindCodeBlock:
		return "code_block"
	case KindMathBlock:
		return "math_block"
	case KindHTMLBlock:
		return "html_block"
	case KindDetails:
		return "details"
	case KindTable:
		return "table"
	case KindTableRow:
		return "table_row"
	case KindTableCell:
		return "table_cell"
	case KindThematicBreak:
		return "thematic_break"
	case KindFootnoteDefinition:
		return "footnote_definition"
	case KindText:
		return "text"
	case KindHardBreak:
		return "hard_break"
	case KindImage:
		return "image"
	case KindFootnoteReference:
		return "footnote_reference"
	case KindWikiLink:
		return "wikilink"
	case KindMathInline:
		return "math_inline"
	}
	return "unknown"
}

// CodeVariant distinguishes fenced code blocks that carry a rendering
// hint (mermaid diagrams) from plain ones.
type CodeVariant int

const (
	CodePlain CodeVariant = iota
	CodeMermaid
)

// Alignment mirrors the column alignment of a pipe table.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// AlertKind is the tag of a GitHub-style alert blockquote.
type AlertKind string

const (
	AlertNote      AlertKind = "NOTE"
	AlertTip       AlertKind = "TIP"
	AlertImportant AlertKind = "IMPORTANT"
	AlertWarning   AlertKind = "WARNING"
	AlertCaution   AlertKind = "CAUTION"
)

// Node is a single node of the structured document. It is a flat
// struct over the closed kind set; only the fields relevant to a
// node's kind are populated.
type Node struct {
	Kind     NodeKind
	Children []*Node

	// Text runs (KindText) and raw content of leaf blocks
	// (code, math, HTML).
	Text  string
	Marks MarkSet

	// Heading.
	Level int

	// Code block.
	Language string
	Variant  CodeVariant
	Attrs    Attributes

	// List and list item.
	Ordered bool
	Start   int
	Marker  byte
	Checked *bool

	// Alert.
	Alert AlertKind

	// Image.
	Destination string
	Title       string

	// Footnote reference and definition.
	Label string

	// Table.
	Alignments []Alignment
	IsHeader   bool

	// Wikilink.
	Target string
	Alias  string

	pos  int
	size int
}

// Pos returns the node's start in the document coordinate space.
// Valid after Measure was called on the root.
func (n *Node) Pos() int { return n.pos }

// Size returns the node's span size. Valid after Measure.
func (n *Node) Size() int { return n.size }

// End returns the exclusive end of the node's span.
func (n *Node) End() int { return n.pos + n.size }

func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Measure assigns contiguous [start, start+size) spans to the whole
// subtree rooted at n. Text contributes its rune count, leaf inlines
// occupy one position, leaf blocks with raw content span their text
// plus open and close tokens, and containers span their children plus
// open and close tokens. The document node itself has no tokens.
func (n *Node) Measure() int {
	return n.measure(0)
}

func (n *Node) measure(start int) int {
	n.pos = start

	switch n.Kind {
	case KindText:
		n.size = utf8.RuneCountInString(n.Text)
	case KindHardBreak, KindImage, KindFootnoteReference, KindWikiLink, KindMathInline:
		n.size = 1
	case KindCodeBlock, KindMathBlock, KindHTMLBlock, KindDetails, KindThematicBreak:
		n.size = utf8.RuneCountInString(n.Text) + 2
	case KindDocument:
		offset := start
		for _, c := range n.Children {
			offset = c.measure(offset)
		}
		n.size = offset - start
	default:
		offset := start + 1
		for _, c := range n.Children {
			offset = c.measure(offset)
		}
		n.size = offset - start + 1
	}

	return n.pos + n.size
}

// WalkStatus controls tree traversal.
type WalkStatus int

const (
	WalkContinue WalkStatus = iota
	WalkSkipChildren
	WalkStop
)

// Walk visits the subtree rooted at n in document (pre-)order.
func Walk(n *Node, fn func(*Node) WalkStatus) WalkStatus {
	switch fn(n) {
	case WalkStop:
		return WalkStop
	case WalkSkipChildren:
		return WalkContinue
	}
	for _, c := range n.Children {
		if Walk(c, fn) == WalkStop {
			return WalkStop
		}
	}
	return WalkContinue
}

// InnerText concatenates the text runs of the subtree, with a single
// space standing in for hard breaks.
func (n *Node) InnerText() string {
	var b strings.Builder
	Walk(n, func(c *Node) WalkStatus {
		switch c.Kind {
		case KindText:
			b.WriteString(c.Text)
		case KindHardBreak:
			b.WriteByte(' ')
		}
		return WalkContinue
	})
	return b.String()
}

// Clone returns a deep copy of the subtree. Positions are not copied;
// call Measure on the clone if spans are needed.
func (n *Node) Clone() *Node {
	clone := *n
	clone.pos, clone.size = 0, 0
	clone.Marks = n.Marks.Clone()
	if n.Checked != nil {
		v := *n.Checked
		clone.Checked = &v
	}
	if n.Attrs != nil {
		clone.Attrs = make(Attributes, len(n.Attrs))
		for k, v := range n.Attrs {
			clone.Attrs[k] = v
		}
	}
	if n.Alignments != nil {
		clone.Alignments = append([]Alignment(nil), n.Alignments...)
	}
	clone.Children = make([]*Node, len(n.Children))
	for i, c := range n.Children {
		clone.Children[i] = c.Clone()
	}
	return &clone
}

// Equal reports structural equality of two subtrees, ignoring
// positions.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind ||
		a.Text != b.Text ||
		a.Level != b.Level ||
		a.Language != b.Language ||
		a.Variant != b.Variant ||
		a.Ordered != b.Ordered ||
		a.Start != b.Start ||
		a.Alert != b.Alert ||
		a.Destination != b.Destination ||
		a.Title != b.Title ||
		a.Label != b.Label ||
		a.IsHeader != b.IsHeader ||
		a.Target != b.Target ||
		a.Alias != b.Alias {
		return false
	}
	if (a.Checked == nil) != (b.Checked == nil) {
		return false
	}
	if a.Checked != nil && *a.Checked != *b.Checked {
		return false
	}
	if !a.Marks.Equal(b.Marks) {
		return false
	}
	if len(a.Alignments) != len(b.Alignments) {
		return false
	}
	for i := range a.Alignments {
		if a.Alignments[i] != b.Alignments[i] {
			return false
		}
	}
	if len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for k, v := range a.Attrs {
		if b.Attrs[k] != v {
			return false
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
