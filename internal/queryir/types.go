package queryir

import "github.com/roach88/qassist/internal/ir"

// Expr is a node of an expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// FieldRef reads a field of the current record. Missing fields read as Null.
type FieldRef struct {
	Name string
}

func (*FieldRef) exprNode() {}

// Literal is a constant value.
type Literal struct {
	Value ir.Value
}

func (*Literal) exprNode() {}

// Param is a ? placeholder. Index is the zero-based position of the
// placeholder in the statement text. Params are replaced by string Literals
// before execution.
type Param struct {
	Index int
}

func (*Param) exprNode() {}

// FuncCall invokes a built-in function.
// Star is set only for COUNT(*), in which case Args is empty.
type FuncCall struct {
	Func FuncKind
	Args []Expr
	Star bool
}

func (*FuncCall) exprNode() {}

// BinOp applies a binary operator.
type BinOp struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (*BinOp) exprNode() {}

// UnaryOp applies NOT or numeric negation.
type UnaryOp struct {
	Op      Op // OpNot or OpNeg
	Operand Expr
}

func (*UnaryOp) exprNode() {}

// When is one WHEN <cond> THEN <result> arm of a CASE expression.
type When struct {
	Cond   Expr
	Result Expr
}

// Case is a searched CASE expression. The simple form CASE x WHEN v is
// desugared by the parser into conditions of the form x = v.
// A nil Else yields Null when no arm matches.
type Case struct {
	Whens []When
	Else  Expr
}

func (*Case) exprNode() {}

// InList tests membership: <expr> [NOT] IN (<items>).
type InList struct {
	Expr    Expr
	Items   []Expr
	Negated bool
}

func (*InList) exprNode() {}

// IsNull tests <expr> IS [NOT] NULL.
type IsNull struct {
	Expr    Expr
	Negated bool
}

func (*IsNull) exprNode() {}

// ProjectionItem is one output column.
// Alias defaults to the expression's source text when no AS is given.
type ProjectionItem struct {
	Expr  Expr
	Alias string
}

// OrderKey is one ORDER BY key.
type OrderKey struct {
	Expr      Expr
	Ascending bool
}

// Limit is the pagination window applied after sorting.
// LIMIT n is {Offset: 0, Count: n}; LIMIT a, b is {Offset: a, Count: b}.
type Limit struct {
	Offset int
	Count  int
}

// SelectStmt is a single SELECT.
//
// Star marks SELECT *: every physical field is passed through with its
// physical name and Projections is empty.
type SelectStmt struct {
	Projections []ProjectionItem
	Star        bool
	Table       string
	Where       Expr // nil = no filter
	OrderBy     []OrderKey
	Limit       *Limit // nil = no pagination
}

// Compound is one or more SELECTs joined by UNION ALL.
// A plain SELECT is a Compound with one branch.
type Compound struct {
	Selects []*SelectStmt
}

// Single wraps one statement in a Compound.
func Single(stmt *SelectStmt) *Compound {
	return &Compound{Selects: []*SelectStmt{stmt}}
}

// HasAggregate reports whether any projection calls an aggregate function.
func (s *SelectStmt) HasAggregate() bool {
	for _, p := range s.Projections {
		if ContainsAggregate(p.Expr) {
			return true
		}
	}
	return false
}

// Aliases returns the projection aliases in order.
func (s *SelectStmt) Aliases() []string {
	aliases := make([]string, len(s.Projections))
	for i, p := range s.Projections {
		aliases[i] = p.Alias
	}
	return aliases
}

// Lit is a shorthand for a Literal node.
func Lit(v ir.Value) *Literal {
	return &Literal{Value: v}
}

// Ref is a shorthand for a FieldRef node.
func Ref(name string) *FieldRef {
	return &FieldRef{Name: name}
}
