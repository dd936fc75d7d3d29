package pool

import (
	"math/rand"

	"github.com/wildfunctions/infixast/pkg/expr"
)

func init() {
	Register("conservative", func() Pool { return &ConservativePool{} })
}

// ConservativePool provides basic building blocks: x, y, n, ints 1-10,
// parentheses, and the four arithmetic operators.
type ConservativePool struct{}

var conservativeVars = []string{"x", "y", "n"}

func (p *ConservativePool) Name() string { return "conservative" }

func (p *ConservativePool) RandomLeaf(rng *rand.Rand) expr.Node {
	if rng.Float64() < 0.4 {
		return randomVar(rng, conservativeVars)
	}
	return expr.Num(float64(rng.Intn(10) + 1))
}

func (p *ConservativePool) RandomUnary(rng *rand.Rand, child expr.Node) expr.Node {
	return expr.Group(child)
}

func (p *ConservativePool) RandomBinary(rng *rand.Rand, left, right expr.Node) expr.Node {
	return randomOperation(rng, left, right)
}

func (p *ConservativePool) RandomTree(rng *rand.Rand, maxDepth int) expr.Node {
	return randomTree(p, rng, maxDepth)
}
