package tact

// Node kinds and field names for the Tact grammar, grounded on
// original_source/src/mutations/tact/syntax.rs.
const (
	nodeBinaryExpression     = "binary_expression"
	nodeBoolean              = "boolean"
	nodeDestructStatement    = "destruct_statement"
	nodeDoUntilStatement     = "do_until_statement"
	nodeExpressionStatement  = "expression_statement"
	nodeForeachStatement     = "foreach_statement"
	nodeIfStatement          = "if_statement"
	nodeLetStatement         = "let_statement"
	nodeMethodCallExpression = "method_call_expression"
	nodeRepeatStatement      = "repeat_statement"
	nodeReturnStatement      = "return_statement"
	nodeStaticCallExpression = "static_call_expression"
	nodeTernaryExpression    = "ternary_expression"
	nodeWhileStatement       = "while_statement"
	nodeBreakStatement       = "break_statement"
	nodeContinueStatement    = "continue_statement"

	fieldCondition = "condition"
	fieldArguments = "arguments"
)
