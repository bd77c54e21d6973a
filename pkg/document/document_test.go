package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLineBreak(t *testing.T) {
	assert.Equal(t, []byte("\n"), DetectLineBreak([]byte("a\nb\n")))
	assert.Equal(t, []byte("\r\n"), DetectLineBreak([]byte("a\r\nb\r\n")))
	// Mixed endings fall back to LF.
	assert.Equal(t, []byte("\n"), DetectLineBreak([]byte("a\r\nb\n")))
	assert.Equal(t, []byte("\n"), DetectLineBreak(nil))
}

func TestCountTrailingLineBreaks(t *testing.T) {
	assert.Equal(t, 0, CountTrailingLineBreaks([]byte("abc"), []byte("\n")))
	assert.Equal(t, 1, CountTrailingLineBreaks([]byte("abc\n"), []byte("\n")))
	assert.Equal(t, 3, CountTrailingLineBreaks([]byte("abc\n\n\n"), []byte("\n")))
	assert.Equal(t, 2, CountTrailingLineBreaks([]byte("abc\r\n\r\n"), []byte("\r\n")))
}

func TestDocument_ParseOnce(t *testing.T) {
	doc := New([]byte("# Title\r\n\r\nBody\r\n"), DefaultParseOptions())

	root, err := doc.Root()
	require.NoError(t, err)
	require.Len(t, root.Children, 2)

	again, err := doc.Root()
	require.NoError(t, err)
	assert.Same(t, root, again)

	assert.Equal(t, []byte("\r\n"), doc.LineBreak())
	assert.Equal(t, 1, doc.TrailingLineBreaksCount())
}
