package extension

import (
	"bytes"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// A WikiLink struct represents a [[Target|Alias]] link.
type WikiLink struct {
	gast.BaseInline
	Target []byte
	Alias  []byte
}

func (n *WikiLink) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Target": string(n.Target),
		"Alias":  string(n.Alias),
	}, nil)
}

// KindWikiLink is a NodeKind of the WikiLink node.
var KindWikiLink = gast.NewNodeKind("WikiLink")

func (n *WikiLink) Kind() gast.NodeKind {
	return KindWikiLink
}

func NewWikiLink(target, alias []byte) *WikiLink {
	return &WikiLink{Target: target, Alias: alias}
}

type wikiLinkParser struct{}

var defaultWikiLinkParser = &wikiLinkParser{}

// NewWikiLinkParser returns an InlineParser that parses
// [[Target|Alias]] links. Anything that does not close on the same
// line, or nests brackets, is left to the regular link parser and
// ultimately to literal text.
func NewWikiLinkParser() parser.InlineParser {
	return defaultWikiLinkParser
}

func (p *wikiLinkParser) Trigger() []byte {
	return []byte{'['}
}

func (p *wikiLinkParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	line, _ := block.PeekLine()
	if len(line) < 5 || line[1] != '[' {
		return nil
	}

	stop := bytes.Index(line, []byte("]]"))
	if stop < 3 {
		return nil
	}

	body := line[2:stop]
	if len(body) == 0 || bytes.ContainsAny(body, "[]") {
		return nil
	}

	target, alias := body, []byte(nil)
	if idx := bytes.IndexByte(body, '|'); idx >= 0 {
		target, alias = body[:idx], body[idx+1:]
	}
	if len(bytes.TrimSpace(target)) == 0 {
		return nil
	}

	block.Advance(stop + 2)
	return NewWikiLink(target, alias)
}

type wikiLink struct{}

// WikiLinkExtension is a goldmark extension adding [[wiki]] links.
var WikiLinkExtension goldmark.Extender = &wikiLink{}

func (e *wikiLink) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		// Before the regular link parser (200).
		util.Prioritized(NewWikiLinkParser(), 199),
	))
}
