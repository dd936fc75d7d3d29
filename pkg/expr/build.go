package expr

// Num returns a numeric literal.
func Num(v float64) *Value { return &Value{Kind: Number, Value: v} }

// E returns the constant e.
func E() *Value { return &Value{Kind: ConstE} }

// Pi returns the constant π.
func Pi() *Value { return &Value{Kind: ConstPi} }

// Variable returns a reference to the named variable.
func Variable(name string) *Var { return &Var{Name: name} }

// Group wraps e in parentheses.
func Group(e Node) *Paren { return &Paren{Expression: e} }

// Pow raises base to exp.
func Pow(base, exp Node) *Power { return &Power{Expression: base, Power: exp} }

func Add(l, r Node) *Oper { return &Oper{Op: Addition, Left: l, Right: r} }
func Sub(l, r Node) *Oper { return &Oper{Op: Subtraction, Left: l, Right: r} }
func Mul(l, r Node) *Oper { return &Oper{Op: Multiplication, Left: l, Right: r} }
func Div(l, r Node) *Oper { return &Oper{Op: Division, Left: l, Right: r} }

// Sqrt applies SQRT to arg.
func Sqrt(arg Node) *Func { return Call(FuncSqrt, arg) }

// Sqr applies SQR to arg.
func Sqr(arg Node) *Func { return Call(FuncSqr, arg) }

// Call applies name to args.
func Call(name FuncType, args ...Node) *Func {
	return &Func{Name: name, Arguments: args}
}
