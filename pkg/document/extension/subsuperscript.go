package extension

import (
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// A Subscript struct represents a ~subscript~ span.
type Subscript struct {
	gast.BaseInline
}

func (n *Subscript) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, nil, nil)
}

// KindSubscript is a NodeKind of the Subscript node.
var KindSubscript = gast.NewNodeKind("Subscript")

func (n *Subscript) Kind() gast.NodeKind {
	return KindSubscript
}

func NewSubscript() *Subscript {
	return &Subscript{}
}

// A Superscript struct represents a ^superscript^ span.
type Superscript struct {
	gast.BaseInline
}

func (n *Superscript) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, nil, nil)
}

// KindSuperscript is a NodeKind of the Superscript node.
var KindSuperscript = gast.NewNodeKind("Superscript")

func (n *Superscript) Kind() gast.NodeKind {
	return KindSuperscript
}

func NewSuperscript() *Superscript {
	return &Superscript{}
}

type subscriptDelimiterProcessor struct{}

func (p *subscriptDelimiterProcessor) IsDelimiter(b byte) bool {
	return b == '~'
}

func (p *subscriptDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	// Single tildes only; double tildes belong to strikethrough.
	return opener.Char == closer.Char && opener.Length == 1 && closer.Length == 1
}

func (p *subscriptDelimiterProcessor) OnMatch(consumes int) gast.Node {
	return NewSubscript()
}

var defaultSubscriptDelimiterProcessor = &subscriptDelimiterProcessor{}

type subscriptParser struct{}

var defaultSubscriptParser = &subscriptParser{}

// NewSubscriptParser returns an InlineParser that parses ~subscript~
// spans. It never fires on ~~ runs, which are left to the
// strikethrough parser.
func NewSubscriptParser() parser.InlineParser {
	return defaultSubscriptParser
}

func (s *subscriptParser) Trigger() []byte {
	return []byte{'~'}
}

func (s *subscriptParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	line, segment := block.PeekLine()
	if len(line) > 1 && line[1] == '~' {
		return nil
	}
	before := block.PrecendingCharacter()
	node := parser.ScanDelimiter(line, before, 1, defaultSubscriptDelimiterProcessor)
	if node == nil {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

type superscriptDelimiterProcessor struct{}

func (p *superscriptDelimiterProcessor) IsDelimiter(b byte) bool {
	return b == '^'
}

func (p *superscriptDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char && opener.Length == 1 && closer.Length == 1
}

func (p *superscriptDelimiterProcessor) OnMatch(consumes int) gast.Node {
	return NewSuperscript()
}

var defaultSuperscriptDelimiterProcessor = &superscriptDelimiterProcessor{}

type superscriptParser struct{}

var defaultSuperscriptParser = &superscriptParser{}

// NewSuperscriptParser returns an InlineParser that parses
// ^superscript^ spans.
func NewSuperscriptParser() parser.InlineParser {
	return defaultSuperscriptParser
}

func (s *superscriptParser) Trigger() []byte {
	return []byte{'^'}
}

func (s *superscriptParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 1, defaultSuperscriptDelimiterProcessor)
	if node == nil {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

type subSuperscript struct{}

// SubSuperscriptExtension is a goldmark extension adding ~subscript~
// and ^superscript^ spans.
var SubSuperscriptExtension goldmark.Extender = &subSuperscript{}

func (e *subSuperscript) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		// After strikethrough (500) so that ~~ runs are claimed first.
		util.Prioritized(NewSubscriptParser(), 600),
		util.Prioritized(NewSuperscriptParser(), 600),
	))
}
