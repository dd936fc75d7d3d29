package expr

// Validate checks what the type system cannot: nil children and tags outside
// the closed sets. It returns the first *UnrecognizedNodeError in pre-order.
func Validate(n Node) error {
	type frame struct {
		node Node
		path *path
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if isNil(f.node) {
			return &UnrecognizedNodeError{Tag: nilTag, Path: f.path.String()}
		}

		switch n := f.node.(type) {
		case *Paren:
			stack = append(stack, frame{n.Expression, f.path.child("expression")})
		case *Power:
			stack = append(stack,
				frame{n.Power, f.path.child("power")},
				frame{n.Expression, f.path.child("expression")},
			)
		case *Value:
			if !n.Kind.Valid() {
				return &UnrecognizedNodeError{Tag: string(n.Kind), Path: f.path.String()}
			}
		case *Var:
		case *Oper:
			if _, ok := n.Op.Sign(); !ok {
				return &UnrecognizedNodeError{Tag: string(n.Op), Path: f.path.String()}
			}
			stack = append(stack,
				frame{n.Right, f.path.child("right")},
				frame{n.Left, f.path.child("left")},
			)
		case *Func:
			if !n.Name.Canonical().Valid() {
				return &UnrecognizedNodeError{Tag: FunctionTypeName + ":" + string(n.Name), Path: f.path.String()}
			}
			for i := len(n.Arguments) - 1; i >= 0; i-- {
				stack = append(stack, frame{n.Arguments[i], f.path.arg(i)})
			}
		}
	}
	return nil
}
