package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RenderOptions controls Render. The zero value is strict with no depth limit.
type RenderOptions struct {
	// Lenient renders unrecognized pieces as "" instead of failing.
	Lenient bool

	// MaxDepth rejects trees deeper than this many levels (0 = unlimited).
	MaxDepth int
}

// Render returns the infix text of the tree rooted at n.
func Render(n Node) (string, error) {
	return RenderOptions{}.Render(n)
}

// MustRender is like Render but panics on error.
func MustRender(n Node) string {
	s, err := Render(n)
	if err != nil {
		panic(err)
	}
	return s
}

// renderItem is either a pending node or literal text to emit.
type renderItem struct {
	node  Node
	text  string
	lit   bool
	path  *path
	depth int
}

func literal(s string) renderItem { return renderItem{text: s, lit: true} }

// Render returns the infix text of the tree rooted at n. The traversal keeps
// its own stack, so tree depth is bounded by memory rather than goroutine
// stack size. Items are pushed in reverse so they pop in output order.
func (o RenderOptions) Render(n Node) (string, error) {
	var b strings.Builder
	stack := []renderItem{{node: n, depth: 1}}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if it.lit {
			b.WriteString(it.text)
			continue
		}
		if o.MaxDepth > 0 && it.depth > o.MaxDepth {
			return "", fmt.Errorf("%w: limit %d exceeded at %s", ErrTooDeep, o.MaxDepth, pathOrRoot(it.path))
		}
		if isNil(it.node) {
			if o.Lenient {
				continue
			}
			return "", &UnrecognizedNodeError{Tag: nilTag, Path: it.path.String()}
		}

		d := it.depth + 1
		switch n := it.node.(type) {
		case *Paren:
			stack = append(stack,
				literal(")"),
				renderItem{node: n.Expression, path: it.path.child("expression"), depth: d},
				literal("("),
			)

		case *Value:
			switch n.Kind {
			case Number:
				b.WriteString(FormatNumber(n.Value))
			case ConstE, ConstPi:
				b.WriteString(string(n.Kind))
			default:
				if !o.Lenient {
					return "", &UnrecognizedNodeError{Tag: string(n.Kind), Path: it.path.String()}
				}
			}

		case *Var:
			b.WriteString(n.Name)

		case *Oper:
			sign, ok := n.Op.Sign()
			if !ok && !o.Lenient {
				return "", &UnrecognizedNodeError{Tag: string(n.Op), Path: it.path.String()}
			}
			stack = append(stack,
				renderItem{node: n.Right, path: it.path.child("right"), depth: d},
				literal(" "+sign+" "),
				renderItem{node: n.Left, path: it.path.child("left"), depth: d},
			)

		case *Power:
			stack = append(stack,
				renderItem{node: n.Power, path: it.path.child("power"), depth: d},
				literal("^"),
				renderItem{node: n.Expression, path: it.path.child("expression"), depth: d},
			)

		case *Func:
			name := n.Name.Canonical()
			if !name.Valid() && !o.Lenient {
				return "", &UnrecognizedNodeError{Tag: FunctionTypeName + ":" + string(n.Name), Path: it.path.String()}
			}
			stack = append(stack, literal(")"))
			for i := len(n.Arguments) - 1; i >= 0; i-- {
				stack = append(stack, renderItem{node: n.Arguments[i], path: it.path.arg(i), depth: d})
				if i > 0 {
					stack = append(stack, literal(", "))
				}
			}
			stack = append(stack, literal(string(name)+"("))

		default:
			if !o.Lenient {
				return "", &UnrecognizedNodeError{Tag: it.node.Type(), Path: it.path.String()}
			}
		}
	}

	return b.String(), nil
}

// isNil reports whether n is a nil interface or a typed nil pointer.
func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Paren:
		return v == nil
	case *Power:
		return v == nil
	case *Value:
		return v == nil
	case *Var:
		return v == nil
	case *Func:
		return v == nil
	case *Oper:
		return v == nil
	}
	return false
}

func pathOrRoot(p *path) string {
	if s := p.String(); s != "" {
		return s
	}
	return "root"
}

// FormatNumber formats v the way ECMAScript converts a Number to a String:
// shortest round-trip digits, plain decimal for 1e-6 <= |v| < 1e21 and
// exponent form without zero padding otherwise.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

func stringOf(n Node) string {
	s, err := Render(n)
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return s
}

func (p *Paren) String() string { return stringOf(p) }
func (p *Power) String() string { return stringOf(p) }
func (v *Value) String() string { return stringOf(v) }
func (v *Var) String() string   { return stringOf(v) }
func (f *Func) String() string  { return stringOf(f) }
func (o *Oper) String() string  { return stringOf(o) }
