// Package eval evaluates query IR expressions against a single record.
//
// Evaluation is pure: the same expression and record always produce the
// same value or the same error. Coercion is deliberately narrow. A string
// takes part in arithmetic or numeric comparison only when its text is a
// number, and in date comparison only when it parses as a date. Anything
// else is a TypeMismatch, except inside ROUND and DATE_FORMAT which fall
// back to 0 and "" respectively.
//
// Comparisons involving Null are false; IS NULL is the only test that sees
// Null. Predicates must evaluate to Bool.
//
// Aggregates read the group of rows passed to EvalAggregate. Plain Eval has
// no group, so an aggregate reached through it is an AggregateMisuse error.
package eval
