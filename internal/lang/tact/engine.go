// Package tact implements the Tact language engine (C3): the
// contract-oriented TON dialect with `/* */` block comments and `//` line
// comments.
package tact

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/trailofbits/muton/internal/catalog"
	"github.com/trailofbits/muton/internal/cst"
	"github.com/trailofbits/muton/internal/lang/tact/grammar"
	"github.com/trailofbits/muton/internal/target"
)

// Engine is the Tact LanguageEngine.
type Engine struct {
	mutations []catalog.Mutation
}

func New() *Engine {
	return &Engine{mutations: catalog.Merge(Mutations)}
}

func (e *Engine) Name() string                 { return "Tact" }
func (e *Engine) Extensions() []string          { return []string{"tact"} }
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

	statementKinds := []string{
		nodeExpressionStatement, nodeReturnStatement, nodeLetStatement, nodeDestructStatement,
		nodeIfStatement, nodeWhileStatement, nodeDoUntilStatement, nodeRepeatStatement, nodeForeachStatement,
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
			collect(cst.Replace(root, source, statementKinds, "require(false);",
				func(n *sitter.Node, src []byte) bool { return !strings.Contains(n.Content(src), "require(") },
				"ER"))
		case "CR":
			collect(cst.Wrap(root, source, statementKinds, "/* ", " */", "CR"))
		case "IF":
			collect(cst.ReplaceCondition(root, source, nodeIfStatement, fieldCondition, []string{"if"}, "false", "IF"))
		case "IT":
			collect(cst.ReplaceCondition(root, source, nodeIfStatement, fieldCondition, []string{"if"}, "true", "IT"))
		case "WF":
			collect(cst.ReplaceCondition(root, source, nodeWhileStatement, fieldCondition, []string{"while"}, "false", "WF"))
		case "RZ":
			collect(cst.ReplaceCondition(root, source, nodeRepeatStatement, fieldCondition, []string{"repeat"}, "0", "RZ"))
		case "UF":
			collect(cst.ReplaceCondition(root, source, nodeDoUntilStatement, fieldCondition, []string{"until"}, "false", "UF"))
		case "AS":
			collect(cst.SwapArgs(root, source, []string{nodeMethodCallExpression, nodeStaticCallExpression}, fieldArguments, "", "AS"))
		case "LC":
			collect(cst.ShuffleNodes(root, source, []string{nodeBreakStatement, nodeContinueStatement}, []string{"break", "continue"}, "LC"))
		case "BL":
			collect(cst.ShuffleNodes(root, source, []string{nodeBoolean}, []string{"true", "false"}, "BL"))
		case "AOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryExpression}, []string{"+", "-", "*", "/"}, "AOS"))
		case "AAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryExpression}, []string{"+=", "-=", "*=", "/="}, "AAOS"))
		case "BOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryExpression}, []string{"&", "|", "^"}, "BOS"))
		case "BAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryExpression}, []string{"&=", "|=", "^="}, "BAOS"))
		case "COS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryExpression}, []string{"==", "!=", "<", "<=", ">", ">="}, "COS"))
		case "LOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryExpression}, []string{"&&", "||"}, "LOS"))
		case "SOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryExpression}, []string{"<<", ">>"}, "SOS"))
		case "SAOS":
			collect(cst.ShuffleOperators(root, source, []string{nodeBinaryExpression}, []string{"<<=", ">>="}, "SAOS"))
		case "TT":
			collect(cst.ReplaceCondition(root, source, nodeTernaryExpression, fieldCondition, []string{"?"}, "true", "TT"))
		case "TF":
			collect(cst.ReplaceCondition(root, source, nodeTernaryExpression, fieldCondition, []string{"?"}, "false", "TF"))
		default:
			panic(fmt.Sprintf("tact: unknown mutation slug encountered in dispatch: %s", m.Slug))
		}
	}
	return mutants
}
