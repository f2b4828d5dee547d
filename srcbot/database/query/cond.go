// Package query holds the WHERE-condition value type used by the table
// engine. A Cond is one comparison predicate; sequences of them compose
// with AND. There is deliberately no OR or grouping — no call site needs it.
package query

import (
	"fmt"
	"strings"
)

// Cond is an immutable (column, operator, value) predicate with an optional
// column transform, e.g. LOWER. Render never embeds the value into the
// fragment text; it always comes back separately as the bound parameter.
type Cond struct {
	Col   string
	Op    string
	Value any
	Mod   string
}

func New(col, op string, value any) Cond {
	return Cond{Col: col, Op: op, Value: value}
}

// WithMod returns a copy of the condition with a column transform applied,
// rendering as mod(col) instead of col.
func (c Cond) WithMod(mod string) Cond {
	c.Mod = mod
	return c
}

// Render returns the parameterized fragment and the value to bind to its
// single placeholder.
func (c Cond) Render() (string, any) {
	if c.Mod != "" {
		return fmt.Sprintf("%s(%s) %s ?", c.Mod, c.Col, c.Op), c.Value
	}
	return fmt.Sprintf("%s %s ?", c.Col, c.Op), c.Value
}

// Render composes a sequence of conditions into one AND-joined fragment and
// the bound values in condition order. Empty input renders to "".
func Render(conds []Cond) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	fragments := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, c := range conds {
		frag, arg := c.Render()
		fragments = append(fragments, frag)
		args = append(args, arg)
	}
	return strings.Join(fragments, " AND "), args
}
