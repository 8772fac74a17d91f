package queryir

import "strings"

// Op is a unary or binary operator.
type Op int

const (
	OpEq Op = iota + 1
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpLike
	OpNotLike
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNot
	OpNeg
)

var opText = map[Op]string{
	OpEq:      "=",
	OpNe:      "<>",
	OpLt:      "<",
	OpGt:      ">",
	OpLe:      "<=",
	OpGe:      ">=",
	OpLike:    "LIKE",
	OpNotLike: "NOT LIKE",
	OpAnd:     "AND",
	OpOr:      "OR",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpNot:     "NOT",
	OpNeg:     "-",
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return "?op"
}

// IsComparison reports whether the operator compares two values.
func (o Op) IsComparison() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe, OpLike, OpNotLike:
		return true
	}
	return false
}

// IsArithmetic reports whether the operator is + - * /.
func (o Op) IsArithmetic() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// precedence orders binary operators from loosest (OR) to tightest (* /).
func (o Op) precedence() int {
	switch o {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpNot:
		return 3
	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe, OpLike, OpNotLike:
		return 4
	case OpAdd, OpSub:
		return 5
	case OpMul, OpDiv:
		return 6
	case OpNeg:
		return 7
	}
	return 0
}

// FuncKind identifies a built-in function. The set is closed: adding a
// function means adding a kind here and a case in every switch over FuncKind.
type FuncKind int

const (
	FuncConcat FuncKind = iota + 1
	FuncDateFormat
	FuncCoalesce
	FuncRound
	FuncIfNull
	FuncCount
	FuncSum
	FuncAvg
	FuncMin
	FuncMax
)

type funcInfo struct {
	name      string
	minArgs   int
	maxArgs   int // -1 = variadic
	aggregate bool
}

var funcTable = map[FuncKind]funcInfo{
	FuncConcat:     {"CONCAT", 1, -1, false},
	FuncDateFormat: {"DATE_FORMAT", 2, 2, false},
	FuncCoalesce:   {"COALESCE", 1, -1, false},
	FuncRound:      {"ROUND", 1, 2, false},
	FuncIfNull:     {"IFNULL", 2, 2, false},
	FuncCount:      {"COUNT", 1, 1, true},
	FuncSum:        {"SUM", 1, 1, true},
	FuncAvg:        {"AVG", 1, 1, true},
	FuncMin:        {"MIN", 1, 1, true},
	FuncMax:        {"MAX", 1, 1, true},
}

var funcByName = func() map[string]FuncKind {
	m := make(map[string]FuncKind, len(funcTable))
	for kind, info := range funcTable {
		m[info.name] = kind
	}
	return m
}()

// LookupFunc resolves a function name, case-insensitively.
func LookupFunc(name string) (FuncKind, bool) {
	kind, ok := funcByName[strings.ToUpper(name)]
	return kind, ok
}

func (f FuncKind) String() string {
	if info, ok := funcTable[f]; ok {
		return info.name
	}
	return "?func"
}

// IsAggregate reports whether the function ranges over the filtered rows.
func (f FuncKind) IsAggregate() bool {
	return funcTable[f].aggregate
}

// Arity returns the accepted argument count range. Max is -1 for variadic
// functions.
func (f FuncKind) Arity() (minArgs, maxArgs int) {
	info := funcTable[f]
	return info.minArgs, info.maxArgs
}

// AcceptsArgs reports whether n arguments are valid for the function.
func (f FuncKind) AcceptsArgs(n int) bool {
	minArgs, maxArgs := f.Arity()
	return n >= minArgs && (maxArgs < 0 || n <= maxArgs)
}
