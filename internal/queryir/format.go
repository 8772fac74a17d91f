package queryir

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/qassist/internal/ir"
)

// Format renders c as SQL text in the dialect sqlparse accepts. Bound
// parameters appear as quoted string literals, so the output of Format on a
// bound statement is the SQL that was effectively executed.
//
// Format(Parse(Format(x))) == Format(x) for every statement the parser
// produces.
func Format(c *Compound) string {
	var b strings.Builder
	for i, s := range c.Selects {
		if i > 0 {
			b.WriteString(" UNION ALL ")
		}
		writeSelect(&b, s)
	}
	return b.String()
}

// FormatSelect renders a single SELECT.
func FormatSelect(s *SelectStmt) string {
	var b strings.Builder
	writeSelect(&b, s)
	return b.String()
}

// FormatExpr renders one expression.
func FormatExpr(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e, 0)
	return b.String()
}

func writeSelect(b *strings.Builder, s *SelectStmt) {
	b.WriteString("SELECT ")
	if s.Star {
		b.WriteString("*")
	}
	for i, p := range s.Projections {
		if i > 0 {
			b.WriteString(", ")
		}
		src := FormatExpr(p.Expr)
		b.WriteString(src)
		if p.Alias != "" && p.Alias != src {
			b.WriteString(" AS ")
			b.WriteString(QuoteIdent(p.Alias))
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(QuoteIdent(s.Table))
	if s.Where != nil {
		b.WriteString(" WHERE ")
		writeExpr(b, s.Where, 0)
	}
	for i, k := range s.OrderBy {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		writeExpr(b, k.Expr, 0)
		if !k.Ascending {
			b.WriteString(" DESC")
		}
	}
	if s.Limit != nil {
		b.WriteString(" LIMIT ")
		if s.Limit.Offset > 0 {
			b.WriteString(strconv.Itoa(s.Limit.Offset))
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(s.Limit.Count))
	}
}

// writeExpr renders e, parenthesizing when e binds looser than its parent.
func writeExpr(b *strings.Builder, e Expr, parent int) {
	switch n := e.(type) {
	case nil:
		b.WriteString("NULL")
	case *FieldRef:
		b.WriteString(QuoteIdent(n.Name))
	case *Literal:
		writeLiteral(b, n.Value)
	case *Param:
		b.WriteString("?")
	case *FuncCall:
		b.WriteString(n.Func.String())
		b.WriteString("(")
		if n.Star {
			b.WriteString("*")
		}
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a, 0)
		}
		b.WriteString(")")
	case *BinOp:
		prec := n.Op.precedence()
		open := prec < parent
		if open {
			b.WriteString("(")
		}
		writeExpr(b, n.Left, prec)
		b.WriteString(" ")
		b.WriteString(n.Op.String())
		b.WriteString(" ")
		// Right operands of equal precedence need parens to keep
		// left-associativity: a - (b - c).
		writeExpr(b, n.Right, prec+1)
		if open {
			b.WriteString(")")
		}
	case *UnaryOp:
		prec := n.Op.precedence()
		open := prec < parent
		if open {
			b.WriteString("(")
		}
		if n.Op == OpNot {
			b.WriteString("NOT ")
		} else {
			b.WriteString("-")
		}
		writeExpr(b, n.Operand, prec)
		if open {
			b.WriteString(")")
		}
	case *Case:
		b.WriteString("CASE")
		for _, w := range n.Whens {
			b.WriteString(" WHEN ")
			writeExpr(b, w.Cond, 0)
			b.WriteString(" THEN ")
			writeExpr(b, w.Result, 0)
		}
		if n.Else != nil {
			b.WriteString(" ELSE ")
			writeExpr(b, n.Else, 0)
		}
		b.WriteString(" END")
	case *InList:
		open := OpEq.precedence() < parent
		if open {
			b.WriteString("(")
		}
		writeExpr(b, n.Expr, OpEq.precedence()+1)
		if n.Negated {
			b.WriteString(" NOT IN (")
		} else {
			b.WriteString(" IN (")
		}
		for i, it := range n.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, it, 0)
		}
		b.WriteString(")")
		if open {
			b.WriteString(")")
		}
	case *IsNull:
		open := OpEq.precedence() < parent
		if open {
			b.WriteString("(")
		}
		writeExpr(b, n.Expr, OpEq.precedence()+1)
		if n.Negated {
			b.WriteString(" IS NOT NULL")
		} else {
			b.WriteString(" IS NULL")
		}
		if open {
			b.WriteString(")")
		}
	}
}

func writeLiteral(b *strings.Builder, v ir.Value) {
	switch x := v.(type) {
	case nil, ir.Null:
		b.WriteString("NULL")
	case ir.String:
		b.WriteString(QuoteString(string(x)))
	case ir.Number:
		if x < 0 {
			// Keep -1 distinct from a subtraction when re-parsed.
			b.WriteString("(")
			b.WriteString(ir.FormatNumber(float64(x)))
			b.WriteString(")")
			return
		}
		b.WriteString(ir.FormatNumber(float64(x)))
	case ir.Bool:
		if x {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	case ir.Date:
		b.WriteString(QuoteString(ir.FormatDate(x.Time())))
	}
}

// QuoteString renders s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent returns name unchanged when it lexes as a bare identifier,
// otherwise wrapped in backticks.
func QuoteIdent(name string) string {
	if isBareIdent(name) {
		return name
	}
	return "`" + name + "`"
}

func isBareIdent(name string) bool {
	if name == "" || IsKeyword(name) {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsNumber(r) {
			continue
		}
		return false
	}
	return true
}

var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "ORDER": true, "BY": true,
	"LIMIT": true, "OFFSET": true, "AS": true, "AND": true, "OR": true,
	"NOT": true, "LIKE": true, "IN": true, "IS": true, "NULL": true,
	"TRUE": true, "FALSE": true, "CASE": true, "WHEN": true, "THEN": true,
	"ELSE": true, "END": true, "ASC": true, "DESC": true, "UNION": true,
	"ALL": true, "BETWEEN": true,
}

// IsKeyword reports whether word is reserved in the dialect.
func IsKeyword(word string) bool {
	return keywords[strings.ToUpper(word)]
}
