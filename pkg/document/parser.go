package document

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/gohugoio/hugo-goldmark-extensions/passthrough"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmext "github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	editext "github.com/inkwell-md/inkwell/pkg/document/extension"
)

// ParseOptions are the feature toggles the host's settings layer
// injects into parsing.
type ParseOptions struct {
	// PreserveHardBreaks keeps explicit hard line breaks as nodes.
	// When false they collapse into spaces like soft breaks.
	PreserveHardBreaks bool
}

// DefaultParseOptions match the editor's defaults.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{PreserveHardBreaks: true}
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			gmext.GFM,
			gmext.Footnote,
			passthrough.New(passthrough.Config{
				InlineDelimiters: []passthrough.Delimiters{{Open: "$", Close: "$"}},
				BlockDelimiters:  []passthrough.Delimiters{{Open: "$$", Close: "$$"}},
			}),
			editext.HighlightExtension,
			editext.SubSuperscriptExtension,
			editext.WikiLinkExtension,
		),
	)
}

// Parse converts markdown text into the structured document tree.
// Malformed markdown degrades to literal text; an error indicates an
// internal invariant violation, not bad input.
func Parse(source []byte, opts ParseOptions) (*Node, error) {
	normalized := bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))

	astRoot := newMarkdown().Parser().Parse(text.NewReader(normalized))

	c := &converter{
		source:         normalized,
		opts:           opts,
		footnoteLabels: map[int]string{},
	}
	c.collectFootnoteLabels(astRoot)

	root := &Node{Kind: KindDocument}
	if err := c.convertBlocks(astRoot, root); err != nil {
		return nil, err
	}
	root.Append(c.footnoteDefs...)
	root.Measure()

	return root, nil
}

type converter struct {
	source         []byte
	opts           ParseOptions
	footnoteLabels map[int]string
	footnoteDefs   []*Node
}

// collectFootnoteLabels walks the goldmark AST once so that footnote
// references encountered before the definition list resolve to their
// labels.
func (c *converter) collectFootnoteLabels(root ast.Node) {
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if f, ok := n.(*east.Footnote); ok {
			c.footnoteLabels[f.Index] = string(f.Ref)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

func (c *converter) convertBlocks(parent ast.Node, out *Node) error {
	for astNode := parent.FirstChild(); astNode != nil; astNode = astNode.NextSibling() {
		node, err := c.convertBlock(astNode)
		if err != nil {
			return err
		}
		if node != nil {
			out.Append(node)
		}
	}
	return nil
}

func (c *converter) convertBlock(astNode ast.Node) (*Node, error) {
	switch n := astNode.(type) {
	case *ast.Heading:
		node := &Node{Kind: KindHeading, Level: n.Level}
		node.Children = c.convertInlines(n, nil)
		return node, nil

	case *ast.Paragraph:
		node := &Node{Kind: KindParagraph}
		node.Children = c.convertInlines(n, nil)
		return node, nil

	case *ast.TextBlock:
		// Tight list items carry a TextBlock instead of a Paragraph.
		node := &Node{Kind: KindParagraph}
		node.Children = c.convertInlines(n, nil)
		return node, nil

	case *ast.Blockquote:
		node := &Node{Kind: KindBlockquote}
		if err := c.convertBlocks(n, node); err != nil {
			return nil, err
		}
		promoteAlert(node)
		return node, nil

	case *ast.List:
		node := &Node{Kind: KindList, Ordered: n.IsOrdered(), Marker: n.Marker}
		if n.IsOrdered() {
			node.Start = n.Start
		}
		if err := c.convertBlocks(n, node); err != nil {
			return nil, err
		}
		return node, nil

	case *ast.ListItem:
		node := &Node{Kind: KindListItem}
		node.Checked = taskCheckState(n)
		if err := c.convertBlocks(n, node); err != nil {
			return nil, err
		}
		if node.Checked != nil {
			trimTaskSeparator(node)
		}
		return node, nil

	case *ast.FencedCodeBlock:
		return c.convertFencedCodeBlock(n)

	case *ast.CodeBlock:
		return &Node{Kind: KindCodeBlock, Text: blockLinesText(n, c.source)}, nil

	case *ast.HTMLBlock:
		return c.convertHTMLBlock(n), nil

	case *ast.ThematicBreak:
		return &Node{Kind: KindThematicBreak}, nil

	case *east.Table:
		return c.convertTable(n), nil

	case *east.FootnoteList:
		for f := n.FirstChild(); f != nil; f = f.NextSibling() {
			footnote, ok := f.(*east.Footnote)
			if !ok {
				continue
			}
			def := &Node{Kind: KindFootnoteDefinition, Label: string(footnote.Ref)}
			if err := c.convertBlocks(footnote, def); err != nil {
				return nil, err
			}
			c.footnoteDefs = append(c.footnoteDefs, def)
		}
		return nil, nil

	case *passthrough.PassthroughBlock:
		content := blockLinesText(n, c.source)
		content = strings.TrimPrefix(content, "$$")
		content = strings.TrimSuffix(content, "$$")
		return &Node{Kind: KindMathBlock, Text: strings.Trim(content, "\n")}, nil

	default:
		// Anything unrecognized survives as literal paragraph text.
		if astNode.Type() != ast.TypeBlock {
			return nil, errors.Errorf("unexpected non-block node %s", astNode.Kind())
		}
		literal := blockLinesText(astNode, c.source)
		if literal == "" {
			return nil, nil
		}
		node := &Node{Kind: KindParagraph}
		node.Append(&Node{Kind: KindText, Text: strings.TrimRight(literal, "\n")})
		return node, nil
	}
}

func (c *converter) convertFencedCodeBlock(n *ast.FencedCodeBlock) (*Node, error) {
	node := &Node{Kind: KindCodeBlock, Text: blockLinesText(n, c.source)}

	if n.Info != nil {
		info := n.Info.Segment.Value(c.source)
		if chunk := extractAttributesChunk(info); len(chunk) > 0 {
			attrs, err := ParseAttributes(chunk)
			if err == nil && len(attrs) > 0 {
				node.Attrs = attrs
			}
		}
	}
	// When the info string is only an attribute chunk, goldmark
	// reports the chunk as the language.
	if lang := string(n.Language(c.source)); lang != "" && lang[0] != '{' {
		node.Language = lang
	}
	if node.Language == "mermaid" {
		node.Variant = CodeMermaid
	}

	return node, nil
}

func (c *converter) convertHTMLBlock(n *ast.HTMLBlock) *Node {
	var b bytes.Buffer
	for i := 0; i < n.Lines().Len(); i++ {
		line := n.Lines().At(i)
		b.Write(line.Value(c.source))
	}
	if n.HasClosure() {
		b.Write(n.ClosureLine.Value(c.source))
	}

	raw := strings.TrimRight(b.String(), "\n")
	kind := KindHTMLBlock
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "<details") {
		kind = KindDetails
	}
	return &Node{Kind: kind, Text: raw}
}

func (c *converter) convertTable(n *east.Table) *Node {
	node := &Node{Kind: KindTable}
	for _, a := range n.Alignments {
		node.Alignments = append(node.Alignments, tableAlignment(a))
	}

	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		rowNode := &Node{Kind: KindTableRow, IsHeader: row.Kind() == east.KindTableHeader}
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cellNode := &Node{Kind: KindTableCell}
			cellNode.Children = c.convertInlines(cell, nil)
			rowNode.Append(cellNode)
		}
		node.Append(rowNode)
	}
	return node
}

func tableAlignment(a east.Alignment) Alignment {
	switch a {
	case east.AlignLeft:
		return AlignLeft
	case east.AlignCenter:
		return AlignCenter
	case east.AlignRight:
		return AlignRight
	}
	return AlignNone
}

// trimTaskSeparator drops the space separating the checkbox from the
// item text, so the text run does not accumulate it on round trips.
func trimTaskSeparator(item *Node) {
	if len(item.Children) == 0 || item.Children[0].Kind != KindParagraph {
		return
	}
	para := item.Children[0]
	if len(para.Children) == 0 || para.Children[0].Kind != KindText {
		return
	}
	first := para.Children[0]
	first.Text = strings.TrimPrefix(first.Text, " ")
	if first.Text == "" {
		para.Children = para.Children[1:]
	}
}

// taskCheckState detects a task list checkbox at the start of the
// item's first paragraph.
func taskCheckState(item *ast.ListItem) *bool {
	para := item.FirstChild()
	if para == nil {
		return nil
	}
	cb, ok := para.FirstChild().(*east.TaskCheckBox)
	if !ok {
		return nil
	}
	checked := cb.IsChecked
	return &checked
}

func (c *converter) convertInlines(parent ast.Node, marks MarkSet) []*Node {
	var out []*Node
	c.appendInlines(parent, marks, &out)
	return mergeTextRuns(out)
}

func (c *converter) appendInlines(parent ast.Node, marks MarkSet, out *[]*Node) {
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			value := string(n.Segment.Value(c.source))
			if value != "" {
				*out = append(*out, &Node{Kind: KindText, Text: value, Marks: marks.Clone()})
			}
			if n.HardLineBreak() && c.opts.PreserveHardBreaks {
				*out = append(*out, &Node{Kind: KindHardBreak})
			} else if n.SoftLineBreak() || n.HardLineBreak() {
				*out = append(*out, &Node{Kind: KindText, Text: " ", Marks: marks.Clone()})
			}

		case *ast.String:
			*out = append(*out, &Node{Kind: KindText, Text: string(n.Value), Marks: marks.Clone()})

		case *ast.CodeSpan:
			value := astInnerText(n, c.source)
			*out = append(*out, &Node{
				Kind:  KindText,
				Text:  value,
				Marks: marks.With(Mark{Kind: MarkCode}),
			})

		case *ast.Emphasis:
			kind := MarkItalic
			if n.Level >= 2 {
				kind = MarkBold
			}
			c.appendInlines(n, marks.With(Mark{Kind: kind}), out)

		case *east.Strikethrough:
			c.appendInlines(n, marks.With(Mark{Kind: MarkStrikethrough}), out)

		case *editext.Highlight:
			c.appendInlines(n, marks.With(Mark{Kind: MarkHighlight}), out)

		case *editext.Subscript:
			c.appendInlines(n, marks.With(Mark{Kind: MarkSubscript}), out)

		case *editext.Superscript:
			c.appendInlines(n, marks.With(Mark{Kind: MarkSuperscript}), out)

		case *ast.Link:
			c.appendInlines(n, marks.With(Mark{
				Kind:        MarkLink,
				Destination: string(n.Destination),
				Title:       string(n.Title),
			}), out)

		case *ast.AutoLink:
			url := string(n.URL(c.source))
			dest := url
			if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(dest, "mailto:") {
				dest = "mailto:" + dest
			}
			*out = append(*out, &Node{
				Kind:  KindText,
				Text:  string(n.Label(c.source)),
				Marks: marks.With(Mark{Kind: MarkLink, Destination: dest}),
			})

		case *ast.Image:
			*out = append(*out, &Node{
				Kind:        KindImage,
				Text:        astInnerText(n, c.source),
				Destination: string(n.Destination),
				Title:       string(n.Title),
			})

		case *east.FootnoteLink:
			*out = append(*out, &Node{
				Kind:  KindFootnoteReference,
				Label: c.footnoteLabels[n.Index],
			})

		case *editext.WikiLink:
			*out = append(*out, &Node{
				Kind:   KindWikiLink,
				Target: string(n.Target),
				Alias:  string(n.Alias),
			})

		case *passthrough.PassthroughInline:
			value := string(n.Segment.Value(c.source))
			if n.Delimiters != nil {
				value = strings.TrimPrefix(value, n.Delimiters.Open)
				value = strings.TrimSuffix(value, n.Delimiters.Close)
			}
			*out = append(*out, &Node{Kind: KindMathInline, Text: value})

		case *ast.RawHTML:
			var b strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				b.Write(seg.Value(c.source))
			}
			*out = append(*out, &Node{Kind: KindText, Text: b.String(), Marks: marks.Clone()})

		case *east.TaskCheckBox:
			// Recorded on the list item; not an inline of its own.

		default:
			if literal := astInnerText(n, c.source); literal != "" {
				*out = append(*out, &Node{Kind: KindText, Text: literal, Marks: marks.Clone()})
			}
		}
	}
}

// astInnerText collects the raw text segments of a goldmark inline
// subtree.
func astInnerText(node ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		if s, ok := n.(*ast.String); ok {
			b.Write(s.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func blockLinesText(node ast.Node, source []byte) string {
	var b bytes.Buffer
	for i := 0; i < node.Lines().Len(); i++ {
		line := node.Lines().At(i)
		b.Write(line.Value(source))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// mergeTextRuns joins adjacent text runs with identical mark sets and
// drops empty ones, so that equal content always yields equal trees.
func mergeTextRuns(runs []*Node) []*Node {
	out := runs[:0]
	for _, run := range runs {
		if run.Kind == KindText && run.Text == "" {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.Kind == KindText && run.Kind == KindText && last.Marks.Equal(run.Marks) {
				last.Text += run.Text
				continue
			}
		}
		out = append(out, run)
	}
	return out
}

var alertMarkerRe = regexp.MustCompile(`^\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\][ \t]*`)

// promoteAlert rewrites a blockquote into an alert when its first
// paragraph opens with a [!KIND] marker. The marker is stripped from
// the content.
func promoteAlert(bq *Node) {
	if len(bq.Children) == 0 || bq.Children[0].Kind != KindParagraph {
		return
	}
	para := bq.Children[0]
	if len(para.Children) == 0 {
		return
	}
	first := para.Children[0]
	if first.Kind != KindText || len(first.Marks) > 0 {
		return
	}

	m := alertMarkerRe.FindStringSubmatch(first.Text)
	if m == nil {
		return
	}

	bq.Kind = KindAlert
	bq.Alert = AlertKind(m[1])

	first.Text = strings.TrimPrefix(strings.TrimPrefix(first.Text, m[0]), " ")
	if first.Text == "" {
		para.Children = para.Children[1:]
	}
	if len(para.Children) == 0 {
		bq.Children = bq.Children[1:]
	}
}
