package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, source string) *Node {
	t.Helper()
	root, err := Parse([]byte(source), DefaultParseOptions())
	require.NoError(t, err)
	require.Equal(t, KindDocument, root.Kind)
	return root
}

func textRun(text string, marks ...Mark) *Node {
	var set MarkSet
	for _, m := range marks {
		set = set.With(m)
	}
	return &Node{Kind: KindText, Text: text, Marks: set}
}

func paragraph(children ...*Node) *Node {
	return &Node{Kind: KindParagraph, Children: children}
}

func TestParse_HeadingAndParagraph(t *testing.T) {
	root := parseDoc(t, "# Title\n\nHello **bold** world\n")
	require.Len(t, root.Children, 2)

	heading := root.Children[0]
	assert.Equal(t, KindHeading, heading.Kind)
	assert.Equal(t, 1, heading.Level)
	assert.True(t, Equal(heading, &Node{
		Kind:     KindHeading,
		Level:    1,
		Children: []*Node{textRun("Title")},
	}))

	assert.True(t, Equal(root.Children[1], paragraph(
		textRun("Hello "),
		textRun("bold", Mark{Kind: MarkBold}),
		textRun(" world"),
	)))
}

func TestParse_InlineMarks(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		expected []*Node
	}{
		{
			name:     "italic",
			source:   "*i*",
			expected: []*Node{textRun("i", Mark{Kind: MarkItalic})},
		},
		{
			name:     "bold",
			source:   "**b**",
			expected: []*Node{textRun("b", Mark{Kind: MarkBold})},
		},
		{
			name:     "bold italic",
			source:   "***x***",
			expected: []*Node{textRun("x", Mark{Kind: MarkBold}, Mark{Kind: MarkItalic})},
		},
		{
			name:     "code span",
			source:   "`code`",
			expected: []*Node{textRun("code", Mark{Kind: MarkCode})},
		},
		{
			name:     "strikethrough",
			source:   "~~s~~",
			expected: []*Node{textRun("s", Mark{Kind: MarkStrikethrough})},
		},
		{
			name:     "highlight",
			source:   "==h==",
			expected: []*Node{textRun("h", Mark{Kind: MarkHighlight})},
		},
		{
			name:   "subscript",
			source: "H~2~O",
			expected: []*Node{
				textRun("H"),
				textRun("2", Mark{Kind: MarkSubscript}),
				textRun("O"),
			},
		},
		{
			name:   "superscript",
			source: "x^2^",
			expected: []*Node{
				textRun("x"),
				textRun("2", Mark{Kind: MarkSuperscript}),
			},
		},
		{
			name:     "link",
			source:   "[t](https://x.dev)",
			expected: []*Node{textRun("t", Mark{Kind: MarkLink, Destination: "https://x.dev"})},
		},
		{
			name:   "link with title",
			source: `[t](https://x.dev "ti")`,
			expected: []*Node{
				textRun("t", Mark{Kind: MarkLink, Destination: "https://x.dev", Title: "ti"}),
			},
		},
		{
			name:   "autolink",
			source: "<https://x.dev>",
			expected: []*Node{
				textRun("https://x.dev", Mark{Kind: MarkLink, Destination: "https://x.dev"}),
			},
		},
		{
			name:   "email autolink",
			source: "<me@x.dev>",
			expected: []*Node{
				textRun("me@x.dev", Mark{Kind: MarkLink, Destination: "mailto:me@x.dev"}),
			},
		},
		{
			name:   "marks around code span",
			source: "**`code`**",
			expected: []*Node{
				textRun("code", Mark{Kind: MarkBold}, Mark{Kind: MarkCode}),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := parseDoc(t, tc.source+"\n")
			require.Len(t, root.Children, 1)
			assert.True(t, Equal(root.Children[0], paragraph(tc.expected...)),
				"source %q", tc.source)
		})
	}
}

func TestParse_MergesAdjacentRuns(t *testing.T) {
	root := parseDoc(t, "line one\nline two\n")
	require.Len(t, root.Children, 1)
	assert.True(t, Equal(root.Children[0], paragraph(textRun("line one line two"))))
}

func TestParse_HardBreaks(t *testing.T) {
	root := parseDoc(t, "one\\\ntwo\n")
	require.Len(t, root.Children, 1)
	assert.True(t, Equal(root.Children[0], paragraph(
		textRun("one"),
		&Node{Kind: KindHardBreak},
		textRun("two"),
	)))

	collapsed, err := Parse([]byte("one\\\ntwo\n"), ParseOptions{PreserveHardBreaks: false})
	require.NoError(t, err)
	assert.True(t, Equal(collapsed.Children[0], paragraph(textRun("one two"))))
}

func TestParse_Lists(t *testing.T) {
	t.Run("unordered", func(t *testing.T) {
		root := parseDoc(t, "- a\n- b\n")
		require.Len(t, root.Children, 1)
		list := root.Children[0]
		assert.Equal(t, KindList, list.Kind)
		assert.False(t, list.Ordered)
		assert.Equal(t, byte('-'), list.Marker)
		require.Len(t, list.Children, 2)
		assert.Equal(t, "a", list.Children[0].InnerText())
		assert.Equal(t, "b", list.Children[1].InnerText())
	})

	t.Run("ordered start", func(t *testing.T) {
		root := parseDoc(t, "3. x\n4. y\n")
		list := root.Children[0]
		assert.True(t, list.Ordered)
		assert.Equal(t, 3, list.Start)
	})

	t.Run("tasks", func(t *testing.T) {
		root := parseDoc(t, "- [x] done\n- [ ] todo\n")
		list := root.Children[0]
		require.Len(t, list.Children, 2)

		first, second := list.Children[0], list.Children[1]
		require.NotNil(t, first.Checked)
		assert.True(t, *first.Checked)
		assert.Equal(t, "done", first.InnerText())
		require.NotNil(t, second.Checked)
		assert.False(t, *second.Checked)
		assert.Equal(t, "todo", second.InnerText())
	})

	t.Run("nested", func(t *testing.T) {
		root := parseDoc(t, "- outer\n  - inner\n")
		list := root.Children[0]
		require.Len(t, list.Children, 1)
		item := list.Children[0]
		require.Len(t, item.Children, 2)
		assert.Equal(t, KindParagraph, item.Children[0].Kind)
		assert.Equal(t, KindList, item.Children[1].Kind)
		assert.Equal(t, "inner", item.Children[1].Children[0].InnerText())
	})
}

func TestParse_Blockquote(t *testing.T) {
	root := parseDoc(t, "> quoted line\n")
	require.Len(t, root.Children, 1)
	bq := root.Children[0]
	assert.Equal(t, KindBlockquote, bq.Kind)
	assert.Equal(t, "quoted line", bq.InnerText())
}

func TestParse_Alerts(t *testing.T) {
	t.Run("marker on own line", func(t *testing.T) {
		root := parseDoc(t, "> [!NOTE]\n> Stay calm\n")
		alert := root.Children[0]
		assert.Equal(t, KindAlert, alert.Kind)
		assert.Equal(t, AlertNote, alert.Alert)
		assert.Equal(t, "Stay calm", alert.InnerText())
	})

	t.Run("marker inline", func(t *testing.T) {
		root := parseDoc(t, "> [!WARNING] Careful\n")
		alert := root.Children[0]
		assert.Equal(t, KindAlert, alert.Kind)
		assert.Equal(t, AlertWarning, alert.Alert)
		assert.Equal(t, "Careful", alert.InnerText())
	})

	t.Run("lowercase marker stays blockquote", func(t *testing.T) {
		root := parseDoc(t, "> [!note] nope\n")
		assert.Equal(t, KindBlockquote, root.Children[0].Kind)
	})
}

func TestParse_CodeBlocks(t *testing.T) {
	t.Run("fenced", func(t *testing.T) {
		root := parseDoc(t, "```go\nfmt.Println(42)\n```\n")
		code := root.Children[0]
		assert.Equal(t, KindCodeBlock, code.Kind)
		assert.Equal(t, "go", code.Language)
		assert.Equal(t, CodePlain, code.Variant)
		assert.Equal(t, "fmt.Println(42)", code.Text)
	})

	t.Run("mermaid", func(t *testing.T) {
		root := parseDoc(t, "```mermaid\ngraph TD\n```\n")
		code := root.Children[0]
		assert.Equal(t, "mermaid", code.Language)
		assert.Equal(t, CodeMermaid, code.Variant)
	})

	t.Run("attributes", func(t *testing.T) {
		root := parseDoc(t, "```go {name=demo cache=false}\nx := 1\n```\n")
		code := root.Children[0]
		assert.Equal(t, "go", code.Language)
		assert.Equal(t, Attributes{"name": "demo", "cache": "false"}, code.Attrs)
	})

	t.Run("attributes only", func(t *testing.T) {
		root := parseDoc(t, "``` {name=demo}\nx\n```\n")
		code := root.Children[0]
		assert.Empty(t, code.Language)
		assert.Equal(t, Attributes{"name": "demo"}, code.Attrs)
	})

	t.Run("indented", func(t *testing.T) {
		root := parseDoc(t, "    tab := 1\n")
		code := root.Children[0]
		assert.Equal(t, KindCodeBlock, code.Kind)
		assert.Empty(t, code.Language)
		assert.Equal(t, "tab := 1", code.Text)
	})
}

func TestParse_Math(t *testing.T) {
	t.Run("block", func(t *testing.T) {
		root := parseDoc(t, "$$\nE = mc^2\n$$\n")
		math := root.Children[0]
		assert.Equal(t, KindMathBlock, math.Kind)
		assert.Equal(t, "E = mc^2", math.Text)
	})

	t.Run("inline", func(t *testing.T) {
		root := parseDoc(t, "cost $x+y$ total\n")
		assert.True(t, Equal(root.Children[0], paragraph(
			textRun("cost "),
			&Node{Kind: KindMathInline, Text: "x+y"},
			textRun(" total"),
		)))
	})
}

func TestParse_WikiLinks(t *testing.T) {
	root := parseDoc(t, "See [[Note]] and [[Other|alias]]\n")
	assert.True(t, Equal(root.Children[0], paragraph(
		textRun("See "),
		&Node{Kind: KindWikiLink, Target: "Note"},
		textRun(" and "),
		&Node{Kind: KindWikiLink, Target: "Other", Alias: "alias"},
	)))
}

func TestParse_Footnotes(t *testing.T) {
	root := parseDoc(t, "Read[^a] this[^b]\n\n[^a]: First\n[^b]: Second\n")
	require.Len(t, root.Children, 3)

	assert.True(t, Equal(root.Children[0], paragraph(
		textRun("Read"),
		&Node{Kind: KindFootnoteReference, Label: "a"},
		textRun(" this"),
		&Node{Kind: KindFootnoteReference, Label: "b"},
	)))

	defA, defB := root.Children[1], root.Children[2]
	assert.Equal(t, KindFootnoteDefinition, defA.Kind)
	assert.Equal(t, "a", defA.Label)
	assert.Equal(t, "First", defA.InnerText())
	assert.Equal(t, "b", defB.Label)
	assert.Equal(t, "Second", defB.InnerText())
}

func TestParse_Table(t *testing.T) {
	root := parseDoc(t, "| a | b |\n| :--- | ---: |\n| 1 | 2 |\n")
	table := root.Children[0]
	require.Equal(t, KindTable, table.Kind)
	assert.Equal(t, []Alignment{AlignLeft, AlignRight}, table.Alignments)
	require.Len(t, table.Children, 2)

	header := table.Children[0]
	assert.True(t, header.IsHeader)
	require.Len(t, header.Children, 2)
	assert.Equal(t, "a", header.Children[0].InnerText())
	assert.Equal(t, "b", header.Children[1].InnerText())

	body := table.Children[1]
	assert.False(t, body.IsHeader)
	assert.Equal(t, "1", body.Children[0].InnerText())
	assert.Equal(t, "2", body.Children[1].InnerText())
}

func TestParse_HTMLBlocks(t *testing.T) {
	t.Run("details", func(t *testing.T) {
		root := parseDoc(t, "<details>\n<summary>More</summary>\nHidden\n</details>\n")
		details := root.Children[0]
		assert.Equal(t, KindDetails, details.Kind)
		assert.Contains(t, details.Text, "<summary>More</summary>")
	})

	t.Run("generic html", func(t *testing.T) {
		root := parseDoc(t, "<div>\nraw\n</div>\n")
		assert.Equal(t, KindHTMLBlock, root.Children[0].Kind)
	})
}

func TestParse_ThematicBreak(t *testing.T) {
	root := parseDoc(t, "above\n\n---\n\nbelow\n")
	require.Len(t, root.Children, 3)
	assert.Equal(t, KindThematicBreak, root.Children[1].Kind)
}

func TestParse_SetextHeading(t *testing.T) {
	root := parseDoc(t, "Title\n=====\n")
	heading := root.Children[0]
	assert.Equal(t, KindHeading, heading.Kind)
	assert.Equal(t, 1, heading.Level)
	assert.Equal(t, "Title", heading.InnerText())
}

func TestParse_CRLFNormalized(t *testing.T) {
	crlf := parseDoc(t, "# A\r\n\r\nBody text\r\n")
	lf := parseDoc(t, "# A\n\nBody text\n")
	assert.True(t, Equal(crlf, lf))
}

func TestParse_Empty(t *testing.T) {
	root := parseDoc(t, "")
	assert.Empty(t, root.Children)
	assert.Equal(t, 0, root.Size())
}
