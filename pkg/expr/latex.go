package expr

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var latexConstants = map[ValueType]string{
	ConstE:  "e",
	ConstPi: `\pi`,
}

var latexNameEscaper = strings.NewReplacer(
	`\`, `\backslash{}`,
	"$", `\$`,
	"#", `\#`,
	"%", `\%`,
	"&", `\&`,
	"{", `\{`,
	"}", `\}`,
	"_", `\_`,
	"^", `\hat{}`,
	"~", `\sim{}`,
)

// latexName escapes a variable name for math mode. Names longer than one
// character are wrapped in \mathit so they read as one symbol.
func latexName(name string) string {
	escaped := latexNameEscaper.Replace(name)
	if utf8.RuneCountInString(name) > 1 {
		return `\mathit{` + escaped + "}"
	}
	return escaped
}

// LaTeX returns a LaTeX math-mode rendering of the tree rooted at n.
// Unlike Render it has no lenient mode.
func LaTeX(n Node) (string, error) {
	return latex(n, nil)
}

func latex(n Node, p *path) (string, error) {
	if isNil(n) {
		return "", &UnrecognizedNodeError{Tag: nilTag, Path: p.String()}
	}

	switch n := n.(type) {
	case *Paren:
		inner, err := latex(n.Expression, p.child("expression"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`\left(%s\right)`, inner), nil

	case *Power:
		base, err := latex(n.Expression, p.child("expression"))
		if err != nil {
			return "", err
		}
		exp, err := latex(n.Power, p.child("power"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("{%s}^{%s}", base, exp), nil

	case *Value:
		if n.Kind == Number {
			return FormatNumber(n.Value), nil
		}
		if s, ok := latexConstants[n.Kind]; ok {
			return s, nil
		}
		return "", &UnrecognizedNodeError{Tag: string(n.Kind), Path: p.String()}

	case *Var:
		return latexName(n.Name), nil

	case *Oper:
		left, err := latex(n.Left, p.child("left"))
		if err != nil {
			return "", err
		}
		right, err := latex(n.Right, p.child("right"))
		if err != nil {
			return "", err
		}
		switch n.Op {
		case Addition:
			return fmt.Sprintf("%s + %s", left, right), nil
		case Subtraction:
			return fmt.Sprintf("%s - %s", left, right), nil
		case Multiplication:
			return fmt.Sprintf(`%s \cdot %s`, left, right), nil
		case Division:
			return fmt.Sprintf(`\frac{%s}{%s}`, left, right), nil
		}
		return "", &UnrecognizedNodeError{Tag: string(n.Op), Path: p.String()}

	case *Func:
		args := make([]string, len(n.Arguments))
		for i, a := range n.Arguments {
			s, err := latex(a, p.arg(i))
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		joined := strings.Join(args, ", ")
		switch n.Name.Canonical() {
		case FuncSqrt:
			return fmt.Sprintf(`\sqrt{%s}`, joined), nil
		case FuncSqr:
			return fmt.Sprintf("{%s}^{2}", joined), nil
		}
		return "", &UnrecognizedNodeError{Tag: FunctionTypeName + ":" + string(n.Name), Path: p.String()}
	}

	return "", &UnrecognizedNodeError{Tag: n.Type(), Path: p.String()}
}
