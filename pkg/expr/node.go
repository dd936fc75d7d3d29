package expr

import "strings"

// Node is the closed union of expression tree variants: *Paren, *Power,
// *Value, *Var, *Func and *Oper. The unexported marker keeps other packages
// from adding variants, so a type switch over the six cases is exhaustive.
type Node interface {
	// Type returns the discriminant tag (PAREN, NUMBER, ADDITION, ...).
	Type() string
	String() string
	node()
}

// OperationType tags a binary arithmetic node.
type OperationType string

const (
	Addition       OperationType = "ADDITION"
	Subtraction    OperationType = "SUBTRACTION"
	Multiplication OperationType = "MULTIPLICATION"
	Division       OperationType = "DIVISION"
)

// ValueType tags a literal: a number or one of the named constants.
type ValueType string

const (
	Number  ValueType = "NUMBER"
	ConstE  ValueType = "E"
	ConstPi ValueType = "PI"
)

// FuncType names a function.
type FuncType string

const (
	FuncSqrt FuncType = "SQRT"
	FuncSqr  FuncType = "SQR"
)

// SignType tags the two variants that wrap an inner expression.
type SignType string

const (
	SignParen SignType = "PAREN"
	SignPower SignType = "POWER"
)

const (
	VariableTypeName = "VARIABLE"
	FunctionTypeName = "FUNCTION"
)

// Paren is a parenthesized sub-expression.
type Paren struct {
	Expression Node
}

// Power raises Expression to Power.
type Power struct {
	Expression Node
	Power      Node
}

// Value is a numeric literal (Kind == Number) or a named constant.
// Value is only read for numbers.
type Value struct {
	Kind  ValueType
	Value float64
}

// Var is a free variable reference.
type Var struct {
	Name string
}

// Func applies a named function to its arguments, in order.
type Func struct {
	Name      FuncType
	Arguments []Node
}

// Oper is a binary arithmetic operation.
type Oper struct {
	Op          OperationType
	Left, Right Node
}

func (*Paren) Type() string   { return string(SignParen) }
func (*Power) Type() string   { return string(SignPower) }
func (v *Value) Type() string { return string(v.Kind) }
func (*Var) Type() string     { return VariableTypeName }
func (*Func) Type() string    { return FunctionTypeName }
func (o *Oper) Type() string  { return string(o.Op) }

func (*Paren) node() {}
func (*Power) node() {}
func (*Value) node() {}
func (*Var) node()   {}
func (*Func) node()  {}
func (*Oper) node()  {}

var operationSigns = map[OperationType]string{
	Addition:       "+",
	Subtraction:    "-",
	Multiplication: "*",
	Division:       "/",
}

// Sign returns the infix symbol for the operation, or false if t is not one
// of the four operation tags.
func (t OperationType) Sign() (string, bool) {
	s, ok := operationSigns[t]
	return s, ok
}

// Valid reports whether t is a known value tag.
func (t ValueType) Valid() bool {
	return t == Number || t == ConstE || t == ConstPi
}

// Valid reports whether t is a known function name.
func (t FuncType) Valid() bool {
	return t == FuncSqrt || t == FuncSqr
}

// Canonical returns the upper-case spelling that Render prints and the
// codec writes.
func (t FuncType) Canonical() FuncType {
	return FuncType(strings.ToUpper(string(t)))
}

// OperationTypes lists the operation tags in declaration order.
func OperationTypes() []OperationType {
	return []OperationType{Addition, Subtraction, Multiplication, Division}
}

// ValueTypes lists the value tags in declaration order.
func ValueTypes() []ValueType {
	return []ValueType{Number, ConstE, ConstPi}
}

// FuncTypes lists the function names in declaration order.
func FuncTypes() []FuncType {
	return []FuncType{FuncSqrt, FuncSqr}
}
