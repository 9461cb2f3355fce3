// Package grammar binds the tree-sitter-tact grammar; see the sibling
// FunC grammar package for the vendoring convention this follows.
package grammar

//#include "parser.c"
import "C"

import (
	"unsafe"

	sitter "github.com/smacker/go-tree-sitter"
)

// GetLanguage returns the tree-sitter Language for Tact.
func GetLanguage() *sitter.Language {
	return sitter.NewLanguage(unsafe.Pointer(C.tree_sitter_tact()))
}
