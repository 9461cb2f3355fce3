package tolk

// Node kinds and field names for the Tolk grammar, grounded on
// original_source/src/languages/tolk/syntax.rs.
const (
	nodeIfStatement         = "if_statement"
	nodeReturnStatement     = "return_statement"
	nodeExpressionStatement = "expression_statement"
	nodeWhileStatement      = "while_statement"
	nodeDoWhileStatement    = "do_while_statement"
	nodeRepeatStatement     = "repeat_statement"
	nodeBreakStatement      = "break_statement"
	nodeContinueStatement   = "continue_statement"
	nodeFunctionCall        = "function_call"
	nodeBinaryOperator      = "binary_operator"
	nodeBooleanLiteral      = "boolean_literal"
	nodeAssignment          = "assignment"

	fieldCondition = "condition"
	fieldArguments = "arguments"
)
