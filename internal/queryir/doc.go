// Package queryir defines the parsed form of the restricted SELECT dialect
// that intent rule templates are written in.
//
// ARCHITECTURE:
//
// The query IR sits between the SQL parser and the in-memory executor:
//
//	[template text] → sqlparse → [query IR] → compiler (schema) → engine
//
// Statements are produced once per rule at catalog load time, rewritten to
// physical field names, and then bound to user parameters per query. Binding
// copies the tree; a loaded statement is never mutated.
//
// SEALED INTERFACES:
//
// Expr is a sealed interface using the marker method pattern. Only types in
// this package implement it, so type switches in the evaluator and formatter
// can be exhaustive:
//
//	switch e := expr.(type) {
//	case *FieldRef:
//	case *Literal:
//	case *Param:
//	case *FuncCall:
//	case *BinOp:
//	case *UnaryOp:
//	case *Case:
//	case *InList:
//	case *IsNull:
//	}
//
// Function calls are resolved to a FuncKind when parsed. No function is ever
// looked up by name at execution time.
//
// SUPPORTED SHAPE:
//
//	SELECT <proj> FROM <table> [WHERE <expr>] [ORDER BY <keys>] [LIMIT <n>[,<m>]]
//	[UNION ALL SELECT ...]
//
// The IR has no joins, subqueries, grouping or HAVING. A statement reads
// exactly one table.
package queryir
