package document

import (
	"sort"

	"github.com/pkg/errors"
)

// Span is a half-open [From, To) range in the document position
// coordinate space.
type Span struct {
	From int
	To   int
}

type step struct {
	span    Span
	nodes   []*Node
	newSize int
}

// Transaction is an immutable list of (range, replacement) edits over
// a measured tree. Edits are recorded against the pre-transaction
// coordinate space and applied atomically; position remapping across
// the edit list is a pure function. A nil *Transaction means "nothing
// to do".
type Transaction struct {
	steps []step
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Replace returns a new transaction with an additional edit replacing
// [from, to) by the given nodes. An empty replacement deletes the
// range; from == to inserts at a boundary. Spans must align with node
// boundaries of the tree the transaction is applied to and must not
// overlap each other.
func (t *Transaction) Replace(from, to int, nodes ...*Node) *Transaction {
	newSize := 0
	cloned := make([]*Node, len(nodes))
	for i, n := range nodes {
		cloned[i] = n.Clone()
		cloned[i].measure(0)
		newSize += cloned[i].Size()
	}

	steps := make([]step, len(t.steps), len(t.steps)+1)
	copy(steps, t.steps)
	steps = append(steps, step{span: Span{From: from, To: to}, nodes: cloned, newSize: newSize})
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].span.From < steps[j].span.From })

	return &Transaction{steps: steps}
}

// Delete is shorthand for replacing a range with nothing.
func (t *Transaction) Delete(from, to int) *Transaction {
	return t.Replace(from, to)
}

// Len returns the number of recorded edits.
func (t *Transaction) Len() int {
	if t == nil {
		return 0
	}
	return len(t.steps)
}

// MapPos translates a pre-transaction position into the
// post-transaction coordinate space. Positions inside a replaced
// range clamp to the start of the replacement.
func (t *Transaction) MapPos(pos int) int {
	if t == nil {
		return pos
	}
	delta := 0
	for _, s := range t.steps {
		// An edit strictly before pos shifts it; an insertion located
		// exactly at pos leaves it in front of the inserted content.
		endsBefore := s.span.To < pos || (s.span.To == pos && s.span.To > s.span.From)
		if endsBefore {
			delta += s.newSize - (s.span.To - s.span.From)
			continue
		}
		if s.span.From <= pos && pos < s.span.To {
			return s.span.From + delta
		}
		break
	}
	return pos + delta
}

// Apply produces a new tree with every edit applied; the input tree
// is left untouched. The input must be measured. The result is
// measured before returning.
func (t *Transaction) Apply(root *Node) (*Node, error) {
	if t == nil || len(t.steps) == 0 {
		return root, nil
	}

	out := root.Clone()
	out.Measure()

	// Apply from the back so earlier spans keep their coordinates.
	for i := len(t.steps) - 1; i >= 0; i-- {
		s := t.steps[i]
		if !applyStep(out, s.span.From, s.span.To, s.nodes) {
			return nil, errors.Errorf("transaction: span [%d,%d) does not align with node boundaries", s.span.From, s.span.To)
		}
	}

	out.Measure()
	return out, nil
}

// applyStep splices the replacement into the deepest container whose
// child boundaries match the span. Node spans are stale for positions
// after an earlier splice, but steps are applied back to front so the
// spans they rely on are still those of the original tree.
func applyStep(n *Node, from, to int, repl []*Node) bool {
	if from == to {
		if idx, ok := insertionIndex(n, from); ok {
			n.Children = spliceChildren(n.Children, idx, idx, repl)
			return true
		}
	} else {
		startIdx, endIdx := -1, -1
		for i, c := range n.Children {
			if c.Pos() == from {
				startIdx = i
			}
			if c.End() == to && startIdx >= 0 {
				endIdx = i
				break
			}
		}
		if startIdx >= 0 && endIdx >= startIdx {
			n.Children = spliceChildren(n.Children, startIdx, endIdx+1, repl)
			return true
		}
	}

	for _, c := range n.Children {
		if c.Pos() <= from && to <= c.End() {
			return applyStep(c, from, to, repl)
		}
	}
	return false
}

// insertionIndex finds the child index whose boundary equals pos.
// Appending after the last child is allowed.
func insertionIndex(n *Node, pos int) (int, bool) {
	for i, c := range n.Children {
		if c.Pos() == pos {
			return i, true
		}
	}
	if len(n.Children) > 0 && n.Children[len(n.Children)-1].End() == pos {
		return len(n.Children), true
	}
	if len(n.Children) == 0 && n.Kind == KindDocument && pos == n.Pos() {
		return 0, true
	}
	return -1, false
}

func spliceChildren(children []*Node, from, to int, repl []*Node) []*Node {
	out := make([]*Node, 0, len(children)-(to-from)+len(repl))
	out = append(out, children[:from]...)
	out = append(out, repl...)
	out = append(out, children[to:]...)
	return out
}
