package pool

import (
	"math/rand"

	"github.com/wildfunctions/infixast/pkg/expr"
)

func init() {
	Register("kitchensink", func() Pool { return &KitchenSinkPool{} })
}

// KitchenSinkPool extends moderate with SQR, multi-argument calls, negative
// numbers and very large or small magnitudes.
type KitchenSinkPool struct{}

func (p *KitchenSinkPool) Name() string { return "kitchensink" }

func (p *KitchenSinkPool) RandomLeaf(rng *rand.Rand) expr.Node {
	r := rng.Float64()
	switch {
	case r < 0.3:
		return randomVar(rng, moderateVars)
	case r < 0.6:
		return expr.Num(float64(rng.Intn(21) - 10))
	case r < 0.75:
		return expr.Num(rng.NormFloat64() * 100)
	case r < 0.85:
		// magnitudes that switch to exponent notation
		mags := []float64{1e-9, 1e21, 6.02e23}
		return expr.Num(mags[rng.Intn(len(mags))])
	case r < 0.925:
		return expr.E()
	default:
		return expr.Pi()
	}
}

var kitchenSinkUnary = []func(expr.Node) expr.Node{
	func(n expr.Node) expr.Node { return expr.Group(n) },
	func(n expr.Node) expr.Node { return expr.Sqrt(n) },
	func(n expr.Node) expr.Node { return expr.Sqr(n) },
}

func (p *KitchenSinkPool) RandomUnary(rng *rand.Rand, child expr.Node) expr.Node {
	return kitchenSinkUnary[rng.Intn(len(kitchenSinkUnary))](child)
}

func (p *KitchenSinkPool) RandomBinary(rng *rand.Rand, left, right expr.Node) expr.Node {
	r := rng.Float64()
	switch {
	case r < 0.2:
		return expr.Pow(left, right)
	case r < 0.3:
		names := expr.FuncTypes()
		return expr.Call(names[rng.Intn(len(names))], left, right)
	default:
		return randomOperation(rng, left, right)
	}
}

func (p *KitchenSinkPool) RandomTree(rng *rand.Rand, maxDepth int) expr.Node {
	return randomTree(p, rng, maxDepth)
}
