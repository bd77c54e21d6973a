package document

import "strconv"

// footnoteRefs collects reference nodes in document order.
func footnoteRefs(root *Node) []*Node {
	var refs []*Node
	Walk(root, func(n *Node) WalkStatus {
		if n.Kind == KindFootnoteReference {
			refs = append(refs, n)
		}
		return WalkContinue
	})
	return refs
}

// footnoteDefs collects definition nodes in storage order.
func footnoteDefs(root *Node) []*Node {
	var defs []*Node
	Walk(root, func(n *Node) WalkStatus {
		if n.Kind == KindFootnoteDefinition {
			defs = append(defs, n)
			return WalkSkipChildren
		}
		return WalkContinue
	})
	return defs
}

// RenumberFootnotes builds a transaction that relabels every
// footnote reference to its first-occurrence rank ("1".."N"),
// rebuilds the definition list at the document end in that order
// (keeping original definition content where a definition exists,
// synthesizing an empty one otherwise) and drops orphaned
// definitions. It returns nil when the document already satisfies
// all of that, so running it twice is a no-op the second time.
// A document without footnote nodes always yields nil.
func RenumberFootnotes(root *Node) *Transaction {
	root.Measure()

	refs := footnoteRefs(root)
	defs := footnoteDefs(root)
	if len(refs) == 0 && len(defs) == 0 {
		return nil
	}

	var order []string
	relabel := map[string]string{}
	for _, ref := range refs {
		if _, seen := relabel[ref.Label]; !seen {
			order = append(order, ref.Label)
			relabel[ref.Label] = strconv.Itoa(len(order))
		}
	}

	if footnotesCanonical(order, relabel, defs) {
		return nil
	}

	defByLabel := map[string]*Node{}
	for _, def := range defs {
		if _, ok := defByLabel[def.Label]; !ok {
			defByLabel[def.Label] = def
		}
	}

	tx := NewTransaction()

	for _, ref := range refs {
		newLabel := relabel[ref.Label]
		if newLabel == ref.Label {
			continue
		}
		clone := ref.Clone()
		clone.Label = newLabel
		tx = tx.Replace(ref.Pos(), ref.End(), clone)
	}

	for _, def := range defs {
		tx = tx.Delete(def.Pos(), def.End())
	}

	newDefs := make([]*Node, 0, len(order))
	for _, oldLabel := range order {
		newDef := &Node{Kind: KindFootnoteDefinition, Label: relabel[oldLabel]}
		if def, ok := defByLabel[oldLabel]; ok {
			content := def.Clone()
			newDef.Children = content.Children
		} else {
			newDef.Append(&Node{Kind: KindParagraph})
		}
		newDefs = append(newDefs, newDef)
	}
	if len(newDefs) > 0 {
		tx = tx.Replace(root.End(), root.End(), newDefs...)
	}

	if tx.Len() == 0 {
		return nil
	}
	return tx
}

// footnotesCanonical reports whether references already carry their
// rank labels and the definitions match them one-to-one in order.
func footnotesCanonical(order []string, relabel map[string]string, defs []*Node) bool {
	for old, label := range relabel {
		if old != label {
			return false
		}
	}
	if len(defs) != len(order) {
		return false
	}
	for i, def := range defs {
		if def.Label != order[i] {
			return false
		}
	}
	return true
}

// CleanupOrphanedFootnotes builds a transaction deleting every
// definition whose label is not in remaining. This is the pass run
// after an edit removed references: remaining holds the labels still
// referenced after the edit. Returns nil when nothing is orphaned.
func CleanupOrphanedFootnotes(root *Node, remaining map[string]bool) *Transaction {
	root.Measure()

	tx := NewTransaction()
	for _, def := range footnoteDefs(root) {
		if !remaining[def.Label] {
			tx = tx.Delete(def.Pos(), def.End())
		}
	}

	if tx.Len() == 0 {
		return nil
	}
	return tx
}

// ReferencedFootnoteLabels returns the set of labels currently
// referenced in the document, for feeding CleanupOrphanedFootnotes.
func ReferencedFootnoteLabels(root *Node) map[string]bool {
	labels := map[string]bool{}
	for _, ref := range footnoteRefs(root) {
		labels[ref.Label] = true
	}
	return labels
}
