package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/qassist/internal/ir"
	"github.com/roach88/qassist/internal/queryir"
)

// Parse parses a single SELECT statement. UNION ALL is rejected; use
// ParseCompound for templates that may contain it.
func Parse(text string) (*queryir.SelectStmt, error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}
	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// ParseCompound parses one or more SELECT statements joined by UNION ALL.
// Placeholders are numbered across all branches in textual order.
func ParseCompound(text string) (*queryir.Compound, error) {
	p, err := newParser(text)
	if err != nil {
		return nil, err
	}
	first, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	c := &queryir.Compound{Selects: []*queryir.SelectStmt{first}}
	for p.peek().isKeyword("UNION") {
		p.next()
		if !p.peek().isKeyword("ALL") {
			return nil, p.unexpected("ALL")
		}
		p.next()
		if !p.peek().isKeyword("SELECT") {
			return nil, p.unexpected("SELECT")
		}
		s, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		c.Selects = append(c.Selects, s)
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseExpr parses a standalone expression, for tools and tests.
func ParseExpr(text string) (queryir.Expr, error) {
	norm := Normalize(text)
	toks, err := tokenize(norm)
	if err != nil {
		return nil, err
	}
	if err := checkParens(toks); err != nil {
		return nil, err
	}
	p := &parser{src: norm, toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected("end of expression")
	}
	return e, nil
}

type parser struct {
	src    string
	toks   []token
	pos    int
	params int
}

func newParser(text string) (*parser, error) {
	norm := Normalize(text)
	toks, err := tokenize(norm)
	if err != nil {
		return nil, err
	}
	if err := checkParens(toks); err != nil {
		return nil, err
	}
	if !toks[0].isKeyword("SELECT") {
		return nil, &ParseError{Kind: MissingClause, Clause: "SELECT", Pos: toks[0].pos, Found: toks[0].describe()}
	}
	return &parser{src: norm, toks: toks}, nil
}

// checkParens runs before parsing so an unclosed "(" is reported as such
// rather than as whatever token follows it.
func checkParens(toks []token) error {
	var open []token
	for _, t := range toks {
		switch {
		case t.is(tokPunct, "("):
			open = append(open, t)
		case t.is(tokPunct, ")"):
			if len(open) == 0 {
				return &ParseError{Kind: UnbalancedParens, Pos: t.pos, Found: ")"}
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		t := open[len(open)-1]
		return &ParseError{Kind: UnbalancedParens, Pos: t.pos, Found: "("}
	}
	return nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// last returns the most recently consumed token.
func (p *parser) last() token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *parser) unexpected(expected string) *ParseError {
	t := p.peek()
	return &ParseError{Kind: UnexpectedToken, Pos: t.pos, Found: t.describe(), Expected: expected}
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peek().isKeyword(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptPunct(s string) bool {
	t := p.peek()
	if (t.kind == tokPunct || t.kind == tokOperator) && t.text == s {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return p.unexpected("'" + s + "'")
	}
	return nil
}

// finish accepts an optional trailing semicolon and requires end of input.
func (p *parser) finish() error {
	p.acceptPunct(";")
	if p.peek().kind != tokEOF {
		return p.unexpected("end of statement")
	}
	return nil
}

func (p *parser) parseSelect() (*queryir.SelectStmt, error) {
	if !p.acceptKeyword("SELECT") {
		return nil, p.unexpected("SELECT")
	}
	stmt := &queryir.SelectStmt{}

	if p.acceptPunct("*") {
		stmt.Star = true
	} else {
		for {
			item, err := p.parseProjection()
			if err != nil {
				return nil, err
			}
			stmt.Projections = append(stmt.Projections, item)
			if !p.acceptPunct(",") {
				break
			}
		}
	}

	if !p.acceptKeyword("FROM") {
		t := p.peek()
		if t.kind == tokEOF || t.isKeyword("WHERE") || t.isKeyword("ORDER") || t.isKeyword("LIMIT") {
			return nil, &ParseError{Kind: MissingClause, Clause: "FROM", Pos: t.pos, Found: t.describe()}
		}
		return nil, p.unexpected("FROM")
	}
	table, err := p.parseIdent("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if p.acceptKeyword("WHERE") {
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if p.acceptKeyword("ORDER") {
		if !p.acceptKeyword("BY") {
			return nil, p.unexpected("BY")
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			key := queryir.OrderKey{Expr: e, Ascending: true}
			if p.acceptKeyword("DESC") {
				key.Ascending = false
			} else {
				p.acceptKeyword("ASC")
			}
			stmt.OrderBy = append(stmt.OrderBy, key)
			if !p.acceptPunct(",") {
				break
			}
		}
	}

	if p.acceptKeyword("LIMIT") {
		lim, err := p.parseLimit()
		if err != nil {
			return nil, err
		}
		stmt.Limit = lim
	}
	return stmt, nil
}

func (p *parser) parseProjection() (queryir.ProjectionItem, error) {
	start := p.peek()
	e, err := p.parseExpr()
	if err != nil {
		return queryir.ProjectionItem{}, err
	}
	item := queryir.ProjectionItem{
		Expr:  e,
		Alias: p.src[start.pos:p.last().end()],
	}
	if p.acceptKeyword("AS") {
		alias, err := p.parseAlias()
		if err != nil {
			return queryir.ProjectionItem{}, err
		}
		item.Alias = alias
		return item, nil
	}
	// Implicit alias: expr name
	if t := p.peek(); (t.kind == tokIdent && !queryir.IsKeyword(t.text)) || t.kind == tokQuotedIdent || t.kind == tokString {
		alias, err := p.parseAlias()
		if err != nil {
			return queryir.ProjectionItem{}, err
		}
		item.Alias = alias
	}
	return item, nil
}

// parseAlias accepts an identifier or a string literal.
func (p *parser) parseAlias() (string, error) {
	if t := p.peek(); t.kind == tokString {
		p.next()
		return unquote(t), nil
	}
	return p.parseIdent("alias")
}

func (p *parser) parseIdent(what string) (string, error) {
	t := p.peek()
	switch {
	case t.kind == tokQuotedIdent:
		p.next()
		return unquote(t), nil
	case t.kind == tokIdent && !queryir.IsKeyword(t.text):
		p.next()
		return t.text, nil
	}
	return "", p.unexpected(what)
}

func (p *parser) parseLimit() (*queryir.Limit, error) {
	first, err := p.parseInt()
	if err != nil {
		return nil, err
	}
	if p.acceptPunct(",") {
		count, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		return &queryir.Limit{Offset: first, Count: count}, nil
	}
	if p.acceptKeyword("OFFSET") {
		offset, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		return &queryir.Limit{Offset: offset, Count: first}, nil
	}
	return &queryir.Limit{Count: first}, nil
}

func (p *parser) parseInt() (int, error) {
	t := p.peek()
	if t.kind != tokNumber || strings.Contains(t.text, ".") {
		return 0, p.unexpected("integer")
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, p.unexpected("integer")
	}
	p.next()
	return n, nil
}

// Expression grammar, loosest first:
//
//	expr       = and { OR and }
//	and        = not { AND not }
//	not        = NOT not | comparison
//	comparison = additive [ cmpop additive | [NOT] LIKE additive
//	           | [NOT] IN "(" expr {"," expr} ")" | IS [NOT] NULL
//	           | [NOT] BETWEEN additive AND additive ]
//	additive   = term { ("+"|"-") term }
//	term       = unary { ("*"|"/") unary }
//	unary      = "-" unary | "+" unary | primary
func (p *parser) parseExpr() (queryir.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &queryir.BinOp{Op: queryir.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (queryir.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &queryir.BinOp{Op: queryir.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (queryir.Expr, error) {
	if p.acceptKeyword("NOT") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &queryir.UnaryOp{Op: queryir.OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]queryir.Op{
	"=":  queryir.OpEq,
	"<>": queryir.OpNe,
	"!=": queryir.OpNe,
	"<":  queryir.OpLt,
	">":  queryir.OpGt,
	"<=": queryir.OpLe,
	">=": queryir.OpGe,
}

func (p *parser) parseComparison() (queryir.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	if t.kind == tokOperator {
		if op, ok := comparisonOps[t.text]; ok {
			p.next()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &queryir.BinOp{Op: op, Left: left, Right: right}, nil
		}
	}

	if t.isKeyword("IS") {
		p.next()
		negated := p.acceptKeyword("NOT")
		if !p.acceptKeyword("NULL") {
			return nil, p.unexpected("NULL")
		}
		return &queryir.IsNull{Expr: left, Negated: negated}, nil
	}

	negated := false
	if t.isKeyword("NOT") {
		n := p.peekAt(1)
		if !n.isKeyword("LIKE") && !n.isKeyword("IN") && !n.isKeyword("BETWEEN") {
			return left, nil
		}
		p.next()
		negated = true
		t = p.peek()
	}

	switch {
	case t.isKeyword("LIKE"):
		p.next()
		pattern, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		op := queryir.OpLike
		if negated {
			op = queryir.OpNotLike
		}
		return &queryir.BinOp{Op: op, Left: left, Right: pattern}, nil

	case t.isKeyword("IN"):
		p.next()
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var items []queryir.Expr
		for {
			item, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if !p.acceptPunct(",") {
				break
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &queryir.InList{Expr: left, Items: items, Negated: negated}, nil

	case t.isKeyword("BETWEEN"):
		p.next()
		lo, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if !p.acceptKeyword("AND") {
			return nil, p.unexpected("AND")
		}
		hi, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		var between queryir.Expr = &queryir.BinOp{
			Op:    queryir.OpAnd,
			Left:  &queryir.BinOp{Op: queryir.OpGe, Left: left, Right: lo},
			Right: &queryir.BinOp{Op: queryir.OpLe, Left: left, Right: hi},
		}
		if negated {
			between = &queryir.UnaryOp{Op: queryir.OpNot, Operand: between}
		}
		return between, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (queryir.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op queryir.Op
		switch {
		case p.acceptPunct("+"):
			op = queryir.OpAdd
		case p.acceptPunct("-"):
			op = queryir.OpSub
		default:
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &queryir.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseTerm() (queryir.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op queryir.Op
		switch {
		case p.acceptPunct("*"):
			op = queryir.OpMul
		case p.acceptPunct("/"):
			op = queryir.OpDiv
		default:
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &queryir.BinOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (queryir.Expr, error) {
	if p.acceptPunct("-") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// Fold negative numeric literals so -1 stays a constant.
		if lit, ok := operand.(*queryir.Literal); ok {
			if n, ok := lit.Value.(ir.Number); ok {
				return queryir.Lit(-n), nil
			}
		}
		return &queryir.UnaryOp{Op: queryir.OpNeg, Operand: operand}, nil
	}
	if p.acceptPunct("+") {
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (queryir.Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &ParseError{Kind: UnexpectedToken, Pos: t.pos, Found: t.describe(), Expected: "number"}
		}
		return queryir.Lit(ir.Number(f)), nil

	case tokString:
		p.next()
		return queryir.Lit(ir.String(unquote(t))), nil

	case tokQuotedIdent:
		p.next()
		return queryir.Ref(unquote(t)), nil

	case tokPunct:
		switch t.text {
		case "?":
			p.next()
			param := &queryir.Param{Index: p.params}
			p.params++
			return param, nil
		case "(":
			p.next()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return e, nil
		}

	case tokIdent:
		upper := strings.ToUpper(t.text)
		switch upper {
		case "NULL":
			p.next()
			return queryir.Lit(ir.Null{}), nil
		case "TRUE":
			p.next()
			return queryir.Lit(ir.Bool(true)), nil
		case "FALSE":
			p.next()
			return queryir.Lit(ir.Bool(false)), nil
		case "CASE":
			return p.parseCase()
		}
		if p.peekAt(1).is(tokPunct, "(") {
			return p.parseCall()
		}
		if queryir.IsKeyword(t.text) {
			return nil, p.unexpected("expression")
		}
		p.next()
		return queryir.Ref(t.text), nil
	}
	return nil, p.unexpected("expression")
}

func (p *parser) parseCall() (queryir.Expr, error) {
	name := p.next()
	kind, ok := queryir.LookupFunc(name.text)
	if !ok {
		return nil, &ParseError{Kind: UnexpectedToken, Pos: name.pos, Found: name.describe(), Expected: "known function"}
	}
	p.next() // (

	call := &queryir.FuncCall{Func: kind}
	if kind == queryir.FuncCount && p.peek().is(tokOperator, "*") {
		p.next()
		call.Star = true
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return call, nil
	}

	if !p.peek().is(tokPunct, ")") {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if !p.acceptPunct(",") {
				break
			}
		}
	}
	closing := p.peek()
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if !kind.AcceptsArgs(len(call.Args)) {
		return nil, &ParseError{
			Kind:     UnexpectedToken,
			Pos:      closing.pos,
			Found:    closing.describe(),
			Expected: arityText(kind),
		}
	}
	return call, nil
}

func arityText(kind queryir.FuncKind) string {
	minArgs, maxArgs := kind.Arity()
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d arguments to %s", minArgs, kind)
	case minArgs == maxArgs:
		return fmt.Sprintf("%d arguments to %s", minArgs, kind)
	default:
		return fmt.Sprintf("%d to %d arguments to %s", minArgs, maxArgs, kind)
	}
}

// parseCase handles both forms:
//
//	CASE WHEN cond THEN x ... [ELSE y] END
//	CASE operand WHEN v THEN x ... [ELSE y] END
func (p *parser) parseCase() (queryir.Expr, error) {
	p.next() // CASE
	var operand queryir.Expr
	if !p.peek().isKeyword("WHEN") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		operand = e
	}

	c := &queryir.Case{}
	for p.acceptKeyword("WHEN") {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if operand != nil {
			cond = &queryir.BinOp{Op: queryir.OpEq, Left: operand, Right: cond}
		}
		if !p.acceptKeyword("THEN") {
			return nil, p.unexpected("THEN")
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, queryir.When{Cond: cond, Result: result})
	}
	if len(c.Whens) == 0 {
		return nil, p.unexpected("WHEN")
	}
	if p.acceptKeyword("ELSE") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		c.Else = e
	}
	if !p.acceptKeyword("END") {
		return nil, p.unexpected("END")
	}
	return c, nil
}
