// Package compiler turns rule definitions into executable catalog entries.
//
// Rules come from CUE files (CompileRule, CompileSchema) or from stored rows
// (ir.Rule directly). Either way they pass through the same gate before
// they may be matched:
//
//  1. ValidateRule checks the rule's own fields (E201-E203).
//  2. CompileTemplate parses the template (E204), checks it statically
//     (E206), and rewrites logical field names to physical ones against
//     the schema resolver (E205).
//
// Compilation happens once per rule load, so schema drift surfaces when the
// catalog is built rather than when a user query hits the rule.
package compiler
