package queryir

// Walk visits e and its children in pre-order. Returning false from fn
// skips the children of the current node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *FuncCall:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *BinOp:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *UnaryOp:
		Walk(n.Operand, fn)
	case *Case:
		for _, w := range n.Whens {
			Walk(w.Cond, fn)
			Walk(w.Result, fn)
		}
		Walk(n.Else, fn)
	case *InList:
		Walk(n.Expr, fn)
		for _, it := range n.Items {
			Walk(it, fn)
		}
	case *IsNull:
		Walk(n.Expr, fn)
	}
}

// Rewrite rebuilds e bottom-up, replacing each node with fn's result.
// The input tree is never modified; unchanged leaves may be shared.
func Rewrite(e Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	var out Expr
	switch n := e.(type) {
	case *FuncCall:
		args, err := rewriteAll(n.Args, fn)
		if err != nil {
			return nil, err
		}
		out = &FuncCall{Func: n.Func, Args: args, Star: n.Star}
	case *BinOp:
		l, err := Rewrite(n.Left, fn)
		if err != nil {
			return nil, err
		}
		r, err := Rewrite(n.Right, fn)
		if err != nil {
			return nil, err
		}
		out = &BinOp{Op: n.Op, Left: l, Right: r}
	case *UnaryOp:
		o, err := Rewrite(n.Operand, fn)
		if err != nil {
			return nil, err
		}
		out = &UnaryOp{Op: n.Op, Operand: o}
	case *Case:
		c := &Case{Whens: make([]When, len(n.Whens))}
		for i, w := range n.Whens {
			cond, err := Rewrite(w.Cond, fn)
			if err != nil {
				return nil, err
			}
			res, err := Rewrite(w.Result, fn)
			if err != nil {
				return nil, err
			}
			c.Whens[i] = When{Cond: cond, Result: res}
		}
		els, err := Rewrite(n.Else, fn)
		if err != nil {
			return nil, err
		}
		c.Else = els
		out = c
	case *InList:
		x, err := Rewrite(n.Expr, fn)
		if err != nil {
			return nil, err
		}
		items, err := rewriteAll(n.Items, fn)
		if err != nil {
			return nil, err
		}
		out = &InList{Expr: x, Items: items, Negated: n.Negated}
	case *IsNull:
		x, err := Rewrite(n.Expr, fn)
		if err != nil {
			return nil, err
		}
		out = &IsNull{Expr: x, Negated: n.Negated}
	case *FieldRef:
		out = &FieldRef{Name: n.Name}
	case *Literal:
		out = &Literal{Value: n.Value}
	case *Param:
		out = &Param{Index: n.Index}
	default:
		out = e
	}
	return fn(out)
}

func rewriteAll(es []Expr, fn func(Expr) (Expr, error)) ([]Expr, error) {
	if es == nil {
		return nil, nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		r, err := Rewrite(e, fn)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// RewriteSelect applies Rewrite to every expression of s and returns a new
// statement. Order keys are passed to orderFn when it is non-nil so callers
// can treat projection aliases specially; otherwise fn is used.
func RewriteSelect(s *SelectStmt, fn func(Expr) (Expr, error), orderFn func(Expr) (Expr, error)) (*SelectStmt, error) {
	out := &SelectStmt{
		Star:  s.Star,
		Table: s.Table,
	}
	if s.Projections != nil {
		out.Projections = make([]ProjectionItem, len(s.Projections))
		for i, p := range s.Projections {
			e, err := Rewrite(p.Expr, fn)
			if err != nil {
				return nil, err
			}
			out.Projections[i] = ProjectionItem{Expr: e, Alias: p.Alias}
		}
	}
	if s.Where != nil {
		w, err := Rewrite(s.Where, fn)
		if err != nil {
			return nil, err
		}
		out.Where = w
	}
	if s.OrderBy != nil {
		if orderFn == nil {
			orderFn = func(e Expr) (Expr, error) { return Rewrite(e, fn) }
		}
		out.OrderBy = make([]OrderKey, len(s.OrderBy))
		for i, k := range s.OrderBy {
			e, err := orderFn(k.Expr)
			if err != nil {
				return nil, err
			}
			out.OrderBy[i] = OrderKey{Expr: e, Ascending: k.Ascending}
		}
	}
	if s.Limit != nil {
		lim := *s.Limit
		out.Limit = &lim
	}
	return out, nil
}

// Clone returns a deep copy of s.
func (s *SelectStmt) Clone() *SelectStmt {
	out, _ := RewriteSelect(s, identity, nil)
	return out
}

// Clone returns a deep copy of c.
func (c *Compound) Clone() *Compound {
	out := &Compound{Selects: make([]*SelectStmt, len(c.Selects))}
	for i, s := range c.Selects {
		out.Selects[i] = s.Clone()
	}
	return out
}

func identity(e Expr) (Expr, error) { return e, nil }

// ContainsAggregate reports whether e calls an aggregate function anywhere.
func ContainsAggregate(e Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if fc, ok := n.(*FuncCall); ok && fc.Func.IsAggregate() {
			found = true
		}
		return !found
	})
	return found
}

// RowIndependent reports whether e reads no field outside an aggregate
// call, meaning its value is the same for every row of a result.
func RowIndependent(e Expr) bool {
	independent := true
	Walk(e, func(n Expr) bool {
		switch x := n.(type) {
		case *FuncCall:
			if x.Func.IsAggregate() {
				return false
			}
		case *FieldRef:
			independent = false
		}
		return independent
	})
	return independent
}

// FieldRefs returns the distinct field names e reads, in first-seen order.
func FieldRefs(e Expr) []string {
	var names []string
	seen := map[string]bool{}
	Walk(e, func(n Expr) bool {
		if f, ok := n.(*FieldRef); ok && !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
		return true
	})
	return names
}

// ParamCount returns the number of ? placeholders in c.
func (c *Compound) ParamCount() int {
	n := 0
	c.each(func(e Expr) {
		Walk(e, func(x Expr) bool {
			if _, ok := x.(*Param); ok {
				n++
			}
			return true
		})
	})
	return n
}

func (c *Compound) each(fn func(Expr)) {
	for _, s := range c.Selects {
		for _, p := range s.Projections {
			fn(p.Expr)
		}
		if s.Where != nil {
			fn(s.Where)
		}
		for _, k := range s.OrderBy {
			fn(k.Expr)
		}
	}
}
