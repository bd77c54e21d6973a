package editor

import (
	"strings"
	"unicode/utf8"

	"github.com/inkwell-md/inkwell/pkg/document"
)

// Position mapping between the flat-text offset space and the
// structured-document position space is landmark based: find the
// nearest structural landmark at or before the position, carry the
// intra-landmark offset across, clamp to the landmark's bounds on the
// other side. The mapping is best effort by contract — the two
// representations are not in lossless bijection — but it never
// produces an out-of-range position.

type landmarkKind int

const (
	lmHeading landmarkKind = iota + 1
	lmParagraph
	lmListItem
	lmCodeBlock
	lmBlockquote
	lmTable
	lmMath
	lmHTML
)

type landmark struct {
	kind    landmarkKind
	ordinal int    // index among landmarks of the same kind
	prefix  string // normalized content prefix for disambiguation
	start   int    // content start: byte offset (flat) or position (doc)
	end     int    // exclusive clamp bound in the same space
}

const landmarkPrefixLen = 16

func landmarkPrefix(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= landmarkPrefixLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:landmarkPrefixLen])
}

// MapTextToDoc translates a flat-text byte offset into a document
// position of the parsed tree. root must be the parse of source.
func MapTextToDoc(source []byte, root *document.Node, offset int) int {
	root.Measure()
	maxPos := root.End()

	if offset <= 0 {
		return clampPos(0, maxPos)
	}
	if offset > len(source) {
		offset = len(source)
	}

	flat := flatLandmarks(source)
	docs := docLandmarks(root)
	if len(flat) == 0 || len(docs) == 0 {
		return clampPos(0, maxPos)
	}

	lm := lastLandmarkAtOrBefore(flat, offset)
	if lm == nil {
		return clampPos(0, maxPos)
	}

	target := matchLandmark(lm, docs)
	if target == nil {
		return clampPos(0, maxPos)
	}

	intraEnd := offset
	if intraEnd > lm.end {
		intraEnd = lm.end
	}
	intra := utf8.RuneCount(source[lm.start:intraEnd])

	pos := target.start + intra
	if pos > target.end {
		pos = target.end
	}
	return clampPos(pos, maxPos)
}

// MapDocToText translates a document position back into a flat-text
// byte offset. root must be the parse of source.
func MapDocToText(source []byte, root *document.Node, pos int) int {
	root.Measure()

	if pos <= 0 {
		return 0
	}
	if pos > root.End() {
		pos = root.End()
	}

	flat := flatLandmarks(source)
	docs := docLandmarks(root)
	if len(flat) == 0 || len(docs) == 0 {
		return 0
	}

	lm := lastLandmarkAtOrBefore(docs, pos)
	if lm == nil {
		return 0
	}

	target := matchLandmark(lm, flat)
	if target == nil {
		return 0
	}

	intra := pos - lm.start
	if max := lm.end - lm.start; intra > max {
		intra = max
	}

	offset := advanceRunes(source, target.start, target.end, intra)
	if offset > len(source) {
		offset = len(source)
	}
	return offset
}

func clampPos(pos, max int) int {
	if pos < 0 {
		return 0
	}
	if pos > max {
		return max
	}
	return pos
}

// advanceRunes moves n runes forward from start, not crossing end.
func advanceRunes(source []byte, start, end, n int) int {
	offset := start
	for n > 0 && offset < end && offset < len(source) {
		_, size := utf8.DecodeRune(source[offset:])
		offset += size
		n--
	}
	return offset
}

func lastLandmarkAtOrBefore(landmarks []landmark, pos int) *landmark {
	var found *landmark
	for i := range landmarks {
		if landmarks[i].start <= pos {
			found = &landmarks[i]
		} else {
			break
		}
	}
	return found
}

// matchLandmark locates the counterpart landmark in the destination
// space: same kind and ordinal when possible, then a content-prefix
// match, then the nearest ordinal of the same kind. Returns nil when
// the destination has no landmark of that kind at all.
func matchLandmark(src *landmark, dest []landmark) *landmark {
	var sameKind []*landmark
	for i := range dest {
		if dest[i].kind == src.kind {
			sameKind = append(sameKind, &dest[i])
		}
	}
	if len(sameKind) == 0 {
		return nil
	}

	if src.ordinal < len(sameKind) {
		candidate := sameKind[src.ordinal]
		if candidate.prefix == src.prefix || src.prefix == "" {
			return candidate
		}
		// The ordinal slot exists but content moved; prefer an exact
		// content match elsewhere.
		for _, d := range sameKind {
			if d.prefix != "" && d.prefix == src.prefix {
				return d
			}
		}
		return candidate
	}

	for _, d := range sameKind {
		if d.prefix != "" && d.prefix == src.prefix {
			return d
		}
	}
	return sameKind[len(sameKind)-1]
}

// docLandmarks walks the measured tree. Only top-level blocks and the
// direct items of top-level lists become landmarks, mirroring what
// the flat-text scanner can recognize without layout context.
func docLandmarks(root *document.Node) []landmark {
	var out []landmark
	counts := map[landmarkKind]int{}

	add := func(kind landmarkKind, n *document.Node) {
		out = append(out, landmark{
			kind:    kind,
			ordinal: counts[kind],
			prefix:  landmarkPrefix(n.InnerText()),
			start:   n.Pos() + 1,
			end:     maxInt(n.Pos()+1, n.End()-1),
		})
		counts[kind]++
	}

	for _, n := range root.Children {
		switch n.Kind {
		case document.KindHeading:
			add(lmHeading, n)
		case document.KindParagraph:
			add(lmParagraph, n)
		case document.KindCodeBlock:
			add(lmCodeBlock, n)
		case document.KindMathBlock:
			add(lmMath, n)
		case document.KindBlockquote, document.KindAlert:
			add(lmBlockquote, n)
		case document.KindTable:
			add(lmTable, n)
		case document.KindHTMLBlock, document.KindDetails:
			add(lmHTML, n)
		case document.KindList:
			for _, item := range n.Children {
				if item.Kind == document.KindListItem {
					add(lmListItem, item)
				}
			}
		}
	}

	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
