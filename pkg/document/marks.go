package document

import "sort"

// MarkKind enumerates the inline marks a text run can carry.
type MarkKind int

const (
	MarkBold MarkKind = iota + 1
	MarkItalic
	MarkCode
	MarkStrikethrough
	MarkHighlight
	MarkSubscript
	MarkSuperscript
	MarkLink
)

func (k MarkKind) String() string {
	switch k {
	case MarkBold:
		return "bold"
	case MarkItalic:
		return "italic"
	case MarkCode:
		return "code"
	case MarkStrikethrough:
		return "strikethrough"
	case MarkHighlight:
		return "highlight"
	case MarkSubscript:
		return "subscript"
	case MarkSuperscript:
		return "superscript"
	case MarkLink:
		return "link"
	}
	return "unknown"
}

// Mark is a single mark on a text run. Destination and Title are only
// set for MarkLink.
type Mark struct {
	Kind        MarkKind
	Destination string
	Title       string
}

// MarkSet is an ordered set of marks. Order is canonical (by kind) so
// that equal sets compare and serialize identically.
type MarkSet []Mark

func (s MarkSet) Contains(kind MarkKind) bool {
	for _, m := range s {
		if m.Kind == kind {
			return true
		}
	}
	return false
}

// With returns a new set including m, keeping canonical order. Adding
// a mark kind already present replaces it.
func (s MarkSet) With(m Mark) MarkSet {
	out := make(MarkSet, 0, len(s)+1)
	for _, existing := range s {
		if existing.Kind != m.Kind {
			out = append(out, existing)
		}
	}
	out = append(out, m)
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Without returns a new set excluding the given kind.
func (s MarkSet) Without(kind MarkKind) MarkSet {
	out := make(MarkSet, 0, len(s))
	for _, m := range s {
		if m.Kind != kind {
			out = append(out, m)
		}
	}
	return out
}

func (s MarkSet) Clone() MarkSet {
	if s == nil {
		return nil
	}
	return append(MarkSet(nil), s...)
}

func (s MarkSet) Equal(other MarkSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
