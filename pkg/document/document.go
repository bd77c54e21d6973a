package document

import (
	"bytes"
	"sync"
)

// Document owns one markdown source and its structured form. The
// structured tree is derived lazily and exactly once, together with
// the line-break shape needed to reproduce the source on
// serialization.
type Document struct {
	source []byte
	opts   ParseOptions

	onceParse          sync.Once
	parseErr           error
	root               *Node
	lineBreak          []byte
	trailingLineBreaks int
}

func New(source []byte, opts ParseOptions) *Document {
	return &Document{
		source: source,
		opts:   opts,
	}
}

func (d *Document) Source() []byte {
	return d.source
}

func (d *Document) Parse() error {
	_, err := d.Root()
	return err
}

// Root returns the structured form of the document. Malformed
// markdown never fails here; unrecognized constructs degrade to
// literal text.
func (d *Document) Root() (*Node, error) {
	d.onceParse.Do(func() {
		d.lineBreak = detectLineBreak(d.source)
		d.trailingLineBreaks = countTrailingLineBreaks(d.source, d.lineBreak)

		root, err := Parse(d.source, d.opts)
		if err != nil {
			d.parseErr = err
			return
		}
		d.root = root
	})

	if d.parseErr != nil {
		return nil, d.parseErr
	}
	return d.root, nil
}

// LineBreak returns the dominant line separator of the source.
func (d *Document) LineBreak() []byte {
	return d.lineBreak
}

func (d *Document) TrailingLineBreaksCount() int {
	return d.trailingLineBreaks
}

func CountTrailingLineBreaks(source []byte, lineBreak []byte) int {
	return countTrailingLineBreaks(source, lineBreak)
}

func countTrailingLineBreaks(source []byte, lineBreak []byte) int {
	i := len(source) - len(lineBreak)
	numBreaks := 0

	for i >= 0 && bytes.Equal(source[i:i+len(lineBreak)], lineBreak) {
		i -= len(lineBreak)
		numBreaks++
	}

	return numBreaks
}

func DetectLineBreak(source []byte) []byte {
	return detectLineBreak(source)
}

func detectLineBreak(source []byte) []byte {
	crlfCount := bytes.Count(source, []byte{'\r', '\n'})
	lfCount := bytes.Count(source, []byte{'\n'})
	if crlfCount == lfCount && crlfCount > 0 {
		return []byte{'\r', '\n'}
	}
	return []byte{'\n'}
}
