package expr

// Clone returns a deep copy of the tree rooted at n.
func Clone(n Node) Node {
	if isNil(n) {
		return nil
	}
	switch n := n.(type) {
	case *Paren:
		return &Paren{Expression: Clone(n.Expression)}
	case *Power:
		return &Power{
			Expression: Clone(n.Expression),
			Power:      Clone(n.Power),
		}
	case *Value:
		return &Value{Kind: n.Kind, Value: n.Value}
	case *Var:
		return &Var{Name: n.Name}
	case *Func:
		args := make([]Node, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = Clone(a)
		}
		return &Func{Name: n.Name, Arguments: args}
	case *Oper:
		return &Oper{
			Op:    n.Op,
			Left:  Clone(n.Left),
			Right: Clone(n.Right),
		}
	}
	return n
}

// Equal reports whether a and b are structurally identical. Constants compare
// by kind only since their payload is never read.
func Equal(a, b Node) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	switch x := a.(type) {
	case *Paren:
		y, ok := b.(*Paren)
		return ok && Equal(x.Expression, y.Expression)
	case *Power:
		y, ok := b.(*Power)
		return ok && Equal(x.Expression, y.Expression) && Equal(x.Power, y.Power)
	case *Value:
		y, ok := b.(*Value)
		if !ok || x.Kind != y.Kind {
			return false
		}
		return x.Kind != Number || x.Value == y.Value
	case *Var:
		y, ok := b.(*Var)
		return ok && x.Name == y.Name
	case *Func:
		y, ok := b.(*Func)
		if !ok || x.Name.Canonical() != y.Name.Canonical() || len(x.Arguments) != len(y.Arguments) {
			return false
		}
		for i := range x.Arguments {
			if !Equal(x.Arguments[i], y.Arguments[i]) {
				return false
			}
		}
		return true
	case *Oper:
		y, ok := b.(*Oper)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	}
	return false
}
