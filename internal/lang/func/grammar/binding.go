// Package grammar binds the tree-sitter-func grammar the same way
// go-tree-sitter's own bundled per-language packages (golang, python,
// javascript) bind theirs: a cgo file including the grammar's generated
// parser.c (and scanner.c, if the grammar defines an external scanner) and
// exposing the resulting language via GetLanguage.
//
// The generated parser.c/scanner.c for tree-sitter-func (vendored from the
// dialect's published grammar.js, the same way go-tree-sitter vendors each
// of its bundled grammars) must sit alongside this file at build time.
package grammar

//#include "parser.c"
import "C"

import (
	"unsafe"

	sitter "github.com/smacker/go-tree-sitter"
)

// GetLanguage returns the tree-sitter Language for FunC.
func GetLanguage() *sitter.Language {
	return sitter.NewLanguage(unsafe.Pointer(C.tree_sitter_func()))
}
