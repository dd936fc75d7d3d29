package pool

import (
	"math/rand"

	"github.com/wildfunctions/infixast/pkg/expr"
)

func init() {
	Register("moderate", func() Pool { return &ModeratePool{} })
}

// ModeratePool extends conservative with E and PI, halves and quarters as
// leaves, SQRT as unary, and power as binary.
type ModeratePool struct{}

var moderateVars = []string{"x", "y", "$a", "$b"}

func (p *ModeratePool) Name() string { return "moderate" }

func (p *ModeratePool) RandomLeaf(rng *rand.Rand) expr.Node {
	r := rng.Float64()
	switch {
	case r < 0.35:
		return randomVar(rng, moderateVars)
	case r < 0.7:
		return expr.Num(float64(rng.Intn(10) + 1))
	case r < 0.85:
		// 0.25, 0.5, ..., 2.5
		return expr.Num(float64(rng.Intn(10)+1) / 4)
	case r < 0.925:
		return expr.E()
	default:
		return expr.Pi()
	}
}

func (p *ModeratePool) RandomUnary(rng *rand.Rand, child expr.Node) expr.Node {
	if rng.Float64() < 0.6 {
		return expr.Group(child)
	}
	return expr.Sqrt(child)
}

func (p *ModeratePool) RandomBinary(rng *rand.Rand, left, right expr.Node) expr.Node {
	if rng.Float64() < 0.2 {
		return expr.Pow(left, right)
	}
	return randomOperation(rng, left, right)
}

func (p *ModeratePool) RandomTree(rng *rand.Rand, maxDepth int) expr.Node {
	return randomTree(p, rng, maxDepth)
}
