package queryir

import (
	"fmt"

	"github.com/roach88/qassist/internal/ir"
)

// BindError reports a placeholder with no parameter to fill it.
type BindError struct {
	Index int // zero-based placeholder index
	Have  int // parameters supplied
}

func (e *BindError) Error() string {
	return fmt.Sprintf("missing parameter: placeholder %d has no value (%d supplied)", e.Index+1, e.Have)
}

// Bind returns a copy of c with every ? replaced by a String literal taken
// positionally from params. Values never pass through SQL text, so quotes
// and keywords inside a parameter are inert.
//
// Extra parameters are ignored. A placeholder beyond len(params) returns a
// *BindError.
func Bind(c *Compound, params []string) (*Compound, error) {
	fn := func(e Expr) (Expr, error) {
		p, ok := e.(*Param)
		if !ok {
			return e, nil
		}
		if p.Index >= len(params) {
			return nil, &BindError{Index: p.Index, Have: len(params)}
		}
		return Lit(ir.String(params[p.Index])), nil
	}
	out := &Compound{Selects: make([]*SelectStmt, len(c.Selects))}
	for i, s := range c.Selects {
		b, err := RewriteSelect(s, fn, nil)
		if err != nil {
			return nil, err
		}
		out.Selects[i] = b
	}
	return out, nil
}

// HasParams reports whether any placeholder remains unbound in s.
func HasParams(s *SelectStmt) bool {
	return Single(s).ParamCount() > 0
}
