// Package extension provides the goldmark inline extensions for the
// editor's non-CommonMark syntax: ==highlight==, ~subscript~,
// ^superscript^ and [[wiki links]].
package extension

import (
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// A Highlight struct represents a ==highlighted== span.
type Highlight struct {
	gast.BaseInline
}

func (n *Highlight) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, nil, nil)
}

// KindHighlight is a NodeKind of the Highlight node.
var KindHighlight = gast.NewNodeKind("Highlight")

func (n *Highlight) Kind() gast.NodeKind {
	return KindHighlight
}

func NewHighlight() *Highlight {
	return &Highlight{}
}

type highlightDelimiterProcessor struct{}

func (p *highlightDelimiterProcessor) IsDelimiter(b byte) bool {
	return b == '='
}

func (p *highlightDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *highlightDelimiterProcessor) OnMatch(consumes int) gast.Node {
	return NewHighlight()
}

var defaultHighlightDelimiterProcessor = &highlightDelimiterProcessor{}

type highlightParser struct{}

var defaultHighlightParser = &highlightParser{}

// NewHighlightParser returns an InlineParser that parses
// ==highlight== spans.
func NewHighlightParser() parser.InlineParser {
	return defaultHighlightParser
}

func (s *highlightParser) Trigger() []byte {
	return []byte{'='}
}

func (s *highlightParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 2, defaultHighlightDelimiterProcessor)
	if node == nil {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

type highlight struct{}

// HighlightExtension is a goldmark extension adding ==highlight==
// spans.
var HighlightExtension goldmark.Extender = &highlight{}

func (e *highlight) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(NewHighlightParser(), 550),
	))
}
