package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func footnoteDef(label string, text string) *Node {
	return &Node{
		Kind:     KindFootnoteDefinition,
		Label:    label,
		Children: []*Node{paragraph(textRun(text))},
	}
}

func TestRenumberFootnotes(t *testing.T) {
	t.Run("relabels in first occurrence order", func(t *testing.T) {
		root := parseDoc(t, "A[^x] B[^y] again[^x]\n\n[^y]: why\n[^x]: ex\n")

		tx := RenumberFootnotes(root)
		require.NotNil(t, tx)
		out, err := tx.Apply(root)
		require.NoError(t, err)

		refs := footnoteRefs(out)
		require.Len(t, refs, 3)
		assert.Equal(t, "1", refs[0].Label)
		assert.Equal(t, "2", refs[1].Label)
		assert.Equal(t, "1", refs[2].Label)

		defs := footnoteDefs(out)
		require.Len(t, defs, 2)
		assert.Equal(t, "1", defs[0].Label)
		assert.Equal(t, "ex", defs[0].InnerText())
		assert.Equal(t, "2", defs[1].Label)
		assert.Equal(t, "why", defs[1].InnerText())

		// Idempotent: the canonical document yields no further work.
		assert.Nil(t, RenumberFootnotes(out))
	})

	t.Run("deleting a reference drops its definition and orphans", func(t *testing.T) {
		root := parseDoc(t, "A[^x] B[^y]\n\n[^x]: ex\n[^y]: why\n")
		root.Append(footnoteDef("z", "orphan"))

		// Simulate a WYSIWYG edit removing the second reference.
		para := root.Children[0]
		require.Equal(t, KindFootnoteReference, para.Children[3].Kind)
		para.Children = para.Children[:3]

		tx := RenumberFootnotes(root)
		require.NotNil(t, tx)
		out, err := tx.Apply(root)
		require.NoError(t, err)

		refs := footnoteRefs(out)
		require.Len(t, refs, 1)
		assert.Equal(t, "1", refs[0].Label)

		defs := footnoteDefs(out)
		require.Len(t, defs, 1)
		assert.Equal(t, "1", defs[0].Label)
		assert.Equal(t, "ex", defs[0].InnerText())

		assert.Nil(t, RenumberFootnotes(out))
	})

	t.Run("missing definition is synthesized empty", func(t *testing.T) {
		root := &Node{Kind: KindDocument, Children: []*Node{
			paragraph(textRun("A"), &Node{Kind: KindFootnoteReference, Label: "ghost"}),
		}}

		tx := RenumberFootnotes(root)
		require.NotNil(t, tx)
		out, err := tx.Apply(root)
		require.NoError(t, err)

		defs := footnoteDefs(out)
		require.Len(t, defs, 1)
		assert.Equal(t, "1", defs[0].Label)
		require.Len(t, defs[0].Children, 1)
		assert.Equal(t, KindParagraph, defs[0].Children[0].Kind)
		assert.Empty(t, defs[0].InnerText())
	})

	t.Run("no footnotes means nothing to do", func(t *testing.T) {
		assert.Nil(t, RenumberFootnotes(parseDoc(t, "Hello\n")))
	})

	t.Run("already canonical", func(t *testing.T) {
		root := parseDoc(t, "A[^1]\n\n[^1]: one\n")
		assert.Nil(t, RenumberFootnotes(root))
	})
}

func TestCleanupOrphanedFootnotes(t *testing.T) {
	root := parseDoc(t, "A[^x]\n\n[^x]: ex\n")
	root.Append(footnoteDef("y", "gone"), footnoteDef("z", "also gone"))
	root.Measure()

	remaining := ReferencedFootnoteLabels(root)
	assert.Equal(t, map[string]bool{"x": true}, remaining)

	tx := CleanupOrphanedFootnotes(root, remaining)
	require.NotNil(t, tx)
	out, err := tx.Apply(root)
	require.NoError(t, err)

	defs := footnoteDefs(out)
	require.Len(t, defs, 1)
	assert.Equal(t, "x", defs[0].Label)

	assert.Nil(t, CleanupOrphanedFootnotes(out, remaining))
}
