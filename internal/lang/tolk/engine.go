// Package tolk implements the Tolk language engine (C3): the third TON
// dialect, with `/* */` block comments and `//` line comments.
package tolk

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/cst"
	"github.com/trailofbits/muton/internal/lang/tolk/grammar"
	"github.com/trailofbits/muton/internal/target"
)

// Engine is the Tolk LanguageEngine.
type Engine struct {
	mutations []catalog.Mutation
}

func New() *Engine {
	return &Engine{mutations: catalog.Merge(Mutations)}
}

func (e *Engine) Name() string                 { return "Tolk" }
func (e *Engine) Extensions() []string          { return []string{"tolk"} }
func (e *Engine) Mutations() []catalog.Mutation { return e.mutations }

func (e *Engine) parse(source []byte) *sitter.Node {
	parser := sitter.NewParser()
	parser.SetLanguage(grammar.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil
	}
	return tree.RootNode()
}

// ApplyAll parses t.Text and dispatches every catalog slug to the matching
// CST pattern. An unknown slug is a program defect and panics immediately.
func (e *Engine) ApplyAll(t target.Target) []target.Mutant {
	source := []byte(t.Text)
	root := e.parse(source)
	if root == nil {
		return nil
	}

	erKinds := []string{nodeExpressionStatement, nodeReturnStatement, nodeIfStatement, nodeWhileStatement, nodeDoWhileStatement}

	var mutants []target.Mutant
	collect := func(edits []cst.Edit) {
		for _, ed := range edits {
			mutants = append(mutants, target.Mutant{
				TargetID:   t.ID,
				ByteOffset: ed.ByteOffset,
				LineOffset: ed.LineOffset,
				OldText:    ed.OldText,
				NewText:    ed.NewText,
				Slug:       ed.Slug,
			})
		}
	}

	for _, m := range e.mutations {
		switch m.Slug {
		case "ER":
			collect(cst.Replace(root, source, erKinds, "throw 1;",
				func(n *sitter.Node, src []byte) bool { return !strings.Contains(n.Content(src), "throw ") },
				"ER"))
		case "CR":
			collect(cst.Wrap(root, source, erKinds, "/* ", " */", "CR"))
		case "IF":
			collect(cst.ReplaceCondition(root, source, nodeIfStatement, fieldCondition, []string{"if"}, "false", "IF"))
		case "IT":
			collect(cst.ReplaceCondition(root, source, nodeIfStatement, fieldCondition, []string{"if"}, "true", "IT"))
		case "WF":
			collect(cst.ReplaceCondition(root, source, nodeWhileStatement, fieldCondition, []string{"while"}, "false", "WF"))
		case "RZ":
			collect(cst.ReplaceCondition(root, source, nodeRepeatStatement, fieldCondition, []string{"repeat"}, "0", "RZ"))
		case "AS":
			collect(cst.SwapArgs(root, source, []string{nodeFunctionCall}, fieldArguments, "", "AS"))
		case "LC":
			collect(cst.ShuffleNodes(root, source, []string{nodeBreakStatement, nodeContinueStatement}, []string{"break", "continue"}, "LC"))
		case "BL":
			collect(cst.ShuffleNodes(root, source, []string{nodeBooleanLiteral}, []string{"true", "false"}, "BL"))
		case "AOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryOperator}, []string{"+", "-", "*", "/"}, "AOS"))
		case "AAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeAssignment}, []string{"+=", "-=", "*=", "/="}, "AAOS"))
		case "BOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryOperator}, []string{"&", "|", "^"}, "BOS"))
		case "BAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeAssignment}, []string{"&=", "|=", "^="}, "BAOS"))
		case "COS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryOperator}, []string{"==", "!=", "<", "<=", ">", ">="}, "COS"))
		case "LOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryOperator}, []string{"&&", "||"}, "LOS"))
		case "SOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryOperator}, []string{"<<", ">>"}, "SOS"))
		case "SAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeAssignment}, []string{"<<=", ">>="}, "SAOS"))
		default:
			panic(fmt.Sprintf("tolk: unknown mutation slug encountered in dispatch: %s", m.Slug))
		}
	}
	return mutants
}
