package func_

// Node kinds and field names for the FunC grammar, grounded on
// original_source/src/languages/func/syntax.rs.
const (
	nodeArgumentList        = "argument_list"
	nodeAssignmentStatement = "assignment_statement"
	nodeCallExpression      = "call_expression"
	nodeExpressionStatement = "expression_statement"
	nodeFunctionApplication = "function_application"
	nodeIfStatement         = "if_statement"
	nodeIfnotStatement      = "ifnot_statement"
	nodeMethodCall          = "method_call"
	nodeRepeatStatement     = "repeat_statement"
	nodeReturnStatement     = "return_statement"
	nodeUntilStatement      = "until_statement"
	nodeVariableDeclaration = "variable_declaration"
	nodeWhileStatement      = "while_statement"
	nodeExpression          = "expression"
	nodeBoolean             = "boolean"
	nodeBreakStatement      = "break_statement"
	nodeContinueStatement   = "continue_statement"

	fieldArguments = "arguments"
	fieldCondition = "condition"
	fieldCount     = "count"
)
