// Package func_ implements the FunC language engine (C3): the LISP-y,
// low-level TON dialect with `{- -}` block comments and `;;` line comments.
package func_

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/cst"
	"github.com/trailofbits/muton/internal/lang/func/grammar"
	"github.com/trailofbits/muton/internal/target"
)

// Engine is the FunC LanguageEngine.
type Engine struct {
	mutations []catalog.Mutation
}

// New merges the common catalog with FunC's dialect-specific mutations.
func New() *Engine {
	return &Engine{mutations: catalog.Merge(Mutations)}
}

func (e *Engine) Name() string               { return "FunC" }
func (e *Engine) Extensions() []string        { return []string{"fc"} }
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
			collect(cst.Replace(root, source,
				[]string{nodeExpressionStatement, nodeReturnStatement, nodeAssignmentStatement, nodeVariableDeclaration, nodeIfStatement},
				"throw(1);",
				func(n *sitter.Node, src []byte) bool { return !strings.Contains(n.Content(src), "throw(") },
				"ER"))
		case "CR":
			collect(cst.Wrap(root, source,
				[]string{nodeExpressionStatement, nodeReturnStatement, nodeAssignmentStatement, nodeVariableDeclaration, nodeIfStatement},
				"{- ", " -}", "CR"))
		case "IF":
			collect(cst.ReplaceCondition(root, source, nodeIfStatement, fieldCondition, []string{"if"}, "false", "IF"))
		case "IT":
			collect(cst.ReplaceCondition(root, source, nodeIfStatement, fieldCondition, []string{"if"}, "true", "IT"))
		case "INF":
			collect(cst.ReplaceCondition(root, source, nodeIfnotStatement, fieldCondition, []string{"ifnot"}, "false", "INF"))
		case "INT":
			collect(cst.ReplaceCondition(root, source, nodeIfnotStatement, fieldCondition, []string{"ifnot"}, "true", "INT"))
		case "WF":
			collect(cst.ReplaceCondition(root, source, nodeWhileStatement, fieldCondition, []string{"while"}, "false", "WF"))
		case "RZ":
			collect(cst.ReplaceCondition(root, source, nodeRepeatStatement, fieldCount, []string{"repeat"}, "0", "RZ"))
		case "UF":
			collect(cst.ReplaceCondition(root, source, nodeUntilStatement, fieldCondition, []string{"until"}, "false", "UF"))
		case "AS":
			collect(cst.SwapArgs(root, source, []string{nodeCallExpression, nodeFunctionApplication, nodeMethodCall}, fieldArguments, nodeArgumentList, "AS"))
		case "SU":
			collect(cst.ReplaceFirstArg(root, source, []string{nodeCallExpression, nodeFunctionApplication, nodeMethodCall}, fieldArguments, []string{nodeArgumentList}, calleeContains("store_uint"), "0", "SU"))
		case "SI":
			collect(cst.ReplaceFirstArg(root, source, []string{nodeCallExpression, nodeFunctionApplication, nodeMethodCall}, fieldArguments, []string{nodeArgumentList}, calleeContains("store_int"), "0", "SI"))
		case "SC":
			collect(cst.ReplaceFirstArg(root, source, []string{nodeCallExpression, nodeFunctionApplication, nodeMethodCall}, fieldArguments, []string{nodeArgumentList}, calleeContains("store_coins"), "0", "SC"))
		case "LC":
			collect(cst.ShuffleNodes(root, source, []string{nodeBreakStatement, nodeContinueStatement}, []string{"break", "continue"}, "LC"))
		case "BL":
			collect(cst.ShuffleNodes(root, source, []string{nodeBoolean}, []string{"true", "false"}, "BL"))
		case "AOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"+", "-", "*", "/"}, "AOS"))
		case "AAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"+=", "-=", "*=", "/="}, "AAOS"))
		case "BOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"&", "|", "^"}, "BOS"))
		case "BAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"&=", "|=", "^="}, "BAOS"))
		case "COS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"==", "!=", "<", "<=", ">", ">="}, "COS"))
		case "LOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"&&", "||"}, "LOS"))
		case "SOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"<<", ">>", "~>>", "^>>"}, "SOS"))
		case "SAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"<<=", ">>=", "~>>=", "^>>="}, "SAOS"))
		case "DOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"/", "~/", "^/"}, "DOS"))
		case "DAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"/=", "~/=", "^/="}, "DAOS"))
		case "MOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"%", "~%", "^%"}, "MOS"))
		case "MAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeExpression}, []string{"%=", "~%=", "^%="}, "MAOS"))
		default:
			panic(fmt.Sprintf("func_: unknown mutation slug encountered in dispatch: %s", m.Slug))
		}
	}
	return mutants
}

func calleeContains(sub string) func(string) bool {
	return func(calleeText string) bool { return strings.Contains(calleeText, sub) }
}
