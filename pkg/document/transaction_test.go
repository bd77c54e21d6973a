package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_ReplaceBlock(t *testing.T) {
	root := parseDoc(t, "One\n\nTwo\n")
	root.Measure()
	second := root.Children[1]

	tx := NewTransaction().Replace(second.Pos(), second.End(), paragraph(textRun("Three")))
	out, err := tx.Apply(root)
	require.NoError(t, err)

	require.Len(t, out.Children, 2)
	assert.Equal(t, "One", out.Children[0].InnerText())
	assert.Equal(t, "Three", out.Children[1].InnerText())

	// The input tree is untouched.
	assert.Equal(t, "Two", root.Children[1].InnerText())
	// The result is measured.
	assert.Equal(t, out.Children[1].End(), out.Size())
}

func TestTransaction_InsertAndDelete(t *testing.T) {
	root := parseDoc(t, "One\n\nTwo\n")
	root.Measure()

	tx := NewTransaction().
		Replace(root.Children[1].Pos(), root.Children[1].Pos(), paragraph(textRun("Mid"))).
		Delete(root.Children[0].Pos(), root.Children[0].End())
	out, err := tx.Apply(root)
	require.NoError(t, err)

	require.Len(t, out.Children, 2)
	assert.Equal(t, "Mid", out.Children[0].InnerText())
	assert.Equal(t, "Two", out.Children[1].InnerText())
}

func TestTransaction_ApplyNested(t *testing.T) {
	root := parseDoc(t, "- a\n- b\n")
	root.Measure()
	item := root.Children[0].Children[1]

	replacement := &Node{Kind: KindListItem, Children: []*Node{paragraph(textRun("c"))}}
	tx := NewTransaction().Replace(item.Pos(), item.End(), replacement)
	out, err := tx.Apply(root)
	require.NoError(t, err)

	list := out.Children[0]
	require.Len(t, list.Children, 2)
	assert.Equal(t, "a", list.Children[0].InnerText())
	assert.Equal(t, "c", list.Children[1].InnerText())
}

func TestTransaction_MisalignedSpan(t *testing.T) {
	root := parseDoc(t, "Hello\n")
	root.Measure()

	// [2,4) cuts through the middle of the text run.
	tx := NewTransaction().Delete(2, 4)
	_, err := tx.Apply(root)
	assert.Error(t, err)
}

func TestTransaction_MapPos(t *testing.T) {
	// Paragraphs "One" [0,5) and "Two" [5,10).
	root := parseDoc(t, "One\n\nTwo\n")
	root.Measure()

	t.Run("replacement shifts later positions", func(t *testing.T) {
		// Replace [0,5) with a larger paragraph, size 7.
		tx := NewTransaction().Replace(0, 5, paragraph(textRun("Offer")))
		assert.Equal(t, 0, tx.MapPos(0))
		assert.Equal(t, 0, tx.MapPos(3), "inside the range clamps to its start")
		assert.Equal(t, 7, tx.MapPos(5))
		assert.Equal(t, 9, tx.MapPos(7))
	})

	t.Run("insertion keeps position in front", func(t *testing.T) {
		tx := NewTransaction().Replace(5, 5, paragraph(textRun("Mid")))
		assert.Equal(t, 5, tx.MapPos(5))
		assert.Equal(t, 3, tx.MapPos(3))
		assert.Equal(t, 12, tx.MapPos(7))
	})

	t.Run("deletion", func(t *testing.T) {
		tx := NewTransaction().Delete(0, 5)
		assert.Equal(t, 0, tx.MapPos(3))
		assert.Equal(t, 2, tx.MapPos(7))
	})

	t.Run("nil transaction is identity", func(t *testing.T) {
		var tx *Transaction
		assert.Equal(t, 42, tx.MapPos(42))
		assert.Equal(t, 0, tx.Len())
	})
}

func TestTransaction_ReplacementIsolated(t *testing.T) {
	root := parseDoc(t, "One\n")
	root.Measure()

	repl := paragraph(textRun("New"))
	tx := NewTransaction().Replace(0, root.Size(), repl)

	// Mutating the caller's node after recording must not leak in.
	repl.Children[0].Text = "Mutated"

	out, err := tx.Apply(root)
	require.NoError(t, err)
	assert.Equal(t, "New", out.Children[0].InnerText())
}
