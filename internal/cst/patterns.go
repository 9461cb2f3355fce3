// Package cst implements the dialect-independent mutation pattern library
// (C2): a set of tree walks over a tree-sitter CST that emit byte-precise
// Edits, parameterized entirely by node-kind and field-name strings so no
// dialect vocabulary leaks into this package.
package cst

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Edit is one proposed source edit, before it is attached to a target and
// given an identity. It carries exactly the fields the edit-emission
// contract requires: byte_offset, old_text, new_text, line_offset, slug.
type Edit struct {
	ByteOffset uint32
	LineOffset uint32
	OldText    string
	NewText    string
	Slug       string
}

// Punctuation tokens patterns skip when selecting call arguments.
func isPunctuation(text string) bool {
	switch text {
	case "(", ")", ",":
		return true
	default:
		return false
	}
}

// IsInComment reports whether node, or any ancestor, has kind "comment".
// Every pattern in this package skips nodes for which this holds.
func IsInComment(n *sitter.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Type() == "comment" {
			return true
		}
	}
	return false
}

// hasAncestorOfKind reports whether any strict ancestor of n has a kind in
// kinds. Used to restrict nested-family patterns (e.g. nested if-statements)
// to their outermost occurrence.
func hasAncestorOfKind(n *sitter.Node, kinds []string) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if containsKind(kinds, p.Type()) {
			return true
		}
	}
	return false
}

func containsKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// lineOffset counts '\n' bytes in source[0:byteOffset].
func lineOffset(source []byte, byteOffset uint32) uint32 {
	var n uint32
	limit := int(byteOffset)
	if limit > len(source) {
		limit = len(source)
	}
	for _, b := range source[:limit] {
		if b == '\n' {
			n++
		}
	}
	return n
}

// walk visits every node of the tree rooted at root, in preorder, via the
// standard tree-sitter cursor walk (first-child / next-sibling / parent).
func walk(root *sitter.Node, visit func(*sitter.Node)) {
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	for {
		visit(cursor.CurrentNode())

		if cursor.GoToFirstChild() {
			continue
		}
		for {
			if cursor.GoToNextSibling() {
				break
			}
			if !cursor.GoToParent() {
				return
			}
		}
	}
}

func newEdit(n *sitter.Node, source []byte, newText, slug string) Edit {
	return Edit{
		ByteOffset: n.StartByte(),
		LineOffset: lineOffset(source, n.StartByte()),
		OldText:    n.Content(source),
		NewText:    newText,
		Slug:       slug,
	}
}

// Replace emits one mutant per node whose kind is in kinds, is not inside a
// comment, has no strict ancestor also in kinds (so only the outermost node
// of a nested family matches), and for which predicate returns true. Used
// for ER.
func Replace(root *sitter.Node, source []byte, kinds []string, replacement string, predicate func(n *sitter.Node, source []byte) bool, slug string) []Edit {
	var edits []Edit
	walk(root, func(n *sitter.Node) {
		if !containsKind(kinds, n.Type()) {
			return
		}
		if IsInComment(n) || hasAncestorOfKind(n, kinds) {
			return
		}
		if predicate != nil && !predicate(n, source) {
			return
		}
		edits = append(edits, newEdit(n, source, replacement, slug))
	})
	return edits
}

// Wrap emits one mutant per matching node (same filter as Replace) whose
// new_text is prefix+old_text+suffix. Used for CR.
func Wrap(root *sitter.Node, source []byte, kinds []string, prefix, suffix, slug string) []Edit {
	var edits []Edit
	walk(root, func(n *sitter.Node) {
		if !containsKind(kinds, n.Type()) {
			return
		}
		if IsInComment(n) || hasAncestorOfKind(n, kinds) {
			return
		}
		old := n.Content(source)
		edits = append(edits, Edit{
			ByteOffset: n.StartByte(),
			LineOffset: lineOffset(source, n.StartByte()),
			OldText:    old,
			NewText:    prefix + old + suffix,
			Slug:       slug,
		})
	})
	return edits
}

// firstNamedChildAfterKeyword is the positional fallback used when a
// condition-bearing node has no named field for its condition: it returns
// the first named child that is not one of keywords and not punctuation.
func firstNamedChildAfterKeyword(n *sitter.Node, source []byte, keywords []string) *sitter.Node {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		text := child.Content(source)
		if isPunctuation(text) || containsKind(keywords, text) {
			continue
		}
		return child
	}
	return nil
}

// ReplaceCondition replaces the condition of a node of the given kind with
// replacement, preserving outer parentheses when the original condition
// text itself is parenthesized. The condition is looked up by field first,
// falling back to positional search skipping keywords/punctuation. Used for
// IF/IT/INF/INT/WF/UF/RZ/TT/TF.
func ReplaceCondition(root *sitter.Node, source []byte, kind, field string, keywords []string, replacement, slug string) []Edit {
	var edits []Edit
	walk(root, func(n *sitter.Node) {
		if n.Type() != kind || IsInComment(n) {
			return
		}
		cond := n.ChildByFieldName(field)
		if cond == nil {
			cond = firstNamedChildAfterKeyword(n, source, keywords)
		}
		if cond == nil {
			return
		}
		old := cond.Content(source)
		newText := replacement
		if strings.HasPrefix(old, "(") && strings.HasSuffix(old, ")") {
			newText = "(" + replacement + ")"
		}
		edits = append(edits, Edit{
			ByteOffset: cond.StartByte(),
			LineOffset: lineOffset(source, cond.StartByte()),
			OldText:    old,
			NewText:    newText,
			Slug:       slug,
		})
	})
	return edits
}

// SwapArgs emits, for every adjacent pair of non-punctuation children of the
// argument container of a call-like node, a mutant swapping their order.
// argContainerField is tried as a field name first, falling back to
// altContainerKind as a child kind if non-empty. Used for AS.
func SwapArgs(root *sitter.Node, source []byte, callKinds []string, argContainerField, altContainerKind, slug string) []Edit {
	var edits []Edit
	walk(root, func(n *sitter.Node) {
		if !containsKind(callKinds, n.Type()) || IsInComment(n) {
			return
		}
		container := n.ChildByFieldName(argContainerField)
		if container == nil && altContainerKind != "" {
			count := int(n.ChildCount())
			for i := 0; i < count; i++ {
				if child := n.Child(i); child != nil && child.Type() == altContainerKind {
					container = child
					break
				}
			}
		}
		if container == nil {
			return
		}
		var args []*sitter.Node
		count := int(container.ChildCount())
		for i := 0; i < count; i++ {
			child := container.Child(i)
			if child == nil {
				continue
			}
			if isPunctuation(child.Content(source)) {
				continue
			}
			args = append(args, child)
		}
		for i := 0; i+1 < len(args); i++ {
			a, b := args[i], args[i+1]
			aText, bText := a.Content(source), b.Content(source)
			edits = append(edits, Edit{
				ByteOffset: a.StartByte(),
				LineOffset: lineOffset(source, a.StartByte()),
				OldText:    string(source[a.StartByte():b.EndByte()]),
				NewText:    bText + ", " + aText,
				Slug:       slug,
			})
		}
	})
	return edits
}

// ReplaceFirstArg replaces the first non-punctuation child of a call's
// argument container with replacement, for calls whose callee text (the
// call node's first child) satisfies calleePredicate. Used for SU/SI/SC.
func ReplaceFirstArg(root *sitter.Node, source []byte, callKinds []string, argsField string, altArgsKinds []string, calleePredicate func(calleeText string) bool, replacement, slug string) []Edit {
	var edits []Edit
	walk(root, func(n *sitter.Node) {
		if !containsKind(callKinds, n.Type()) || IsInComment(n) {
			return
		}
		if n.ChildCount() == 0 {
			return
		}
		callee := n.Child(0)
		if callee == nil || !calleePredicate(callee.Content(source)) {
			return
		}
		container := n.ChildByFieldName(argsField)
		if container == nil {
			count := int(n.ChildCount())
			for i := 0; i < count; i++ {
				child := n.Child(i)
				if child == nil {
					continue
				}
				if containsKind(altArgsKinds, child.Type()) {
					container = child
					break
				}
			}
		}
		if container == nil {
			return
		}
		count := int(container.ChildCount())
		for i := 0; i < count; i++ {
			child := container.Child(i)
			if child == nil {
				continue
			}
			text := child.Content(source)
			if isPunctuation(text) {
				continue
			}
			edits = append(edits, Edit{
				ByteOffset: child.StartByte(),
				LineOffset: lineOffset(source, child.StartByte()),
				OldText:    text,
				NewText:    replacement,
				Slug:       slug,
			})
			break
		}
	})
	return edits
}

// ShuffleOperators emits, for every direct child of a node whose kind is in
// exprKinds and whose verbatim text equals some op in ops, one mutant per
// other member of ops. Used for the *OS operator-shuffle families.
func ShuffleOperators(root *sitter.Node, source []byte, exprKinds []string, ops []string, slug string) []Edit {
	var edits []Edit
	walk(root, func(n *sitter.Node) {
		if !containsKind(exprKinds, n.Type()) || IsInComment(n) {
			return
		}
		count := int(n.ChildCount())
		for i := 0; i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			text := child.Content(source)
			if !containsKind(ops, text) {
				continue
			}
			for _, op := range ops {
				if op == text {
					continue
				}
				edits = append(edits, Edit{
					ByteOffset: child.StartByte(),
					LineOffset: lineOffset(source, child.StartByte()),
					OldText:    text,
					NewText:    op,
					Slug:       slug,
				})
			}
		}
	})
	return edits
}

// ShuffleNodes emits, for every node whose kind is in kinds and whose text
// equals some label in labels, one mutant per other label. Used for LC
// (break<->continue) and BL (true<->false).
func ShuffleNodes(root *sitter.Node, source []byte, kinds []string, labels []string, slug string) []Edit {
	var edits []Edit
	walk(root, func(n *sitter.Node) {
		if !containsKind(kinds, n.Type()) || IsInComment(n) {
			return
		}
		text := n.Content(source)
		if !containsKind(labels, text) {
			return
		}
		for _, label := range labels {
			if label == text {
				continue
			}
			edits = append(edits, newEdit(n, source, label, slug))
		}
	})
	return edits
}
