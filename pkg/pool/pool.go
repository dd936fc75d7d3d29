package pool

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/wildfunctions/infixast/pkg/expr"
)

// Pool provides random building blocks for constructing well-formed
// expression trees.
type Pool interface {
	Name() string
	RandomLeaf(rng *rand.Rand) expr.Node
	RandomUnary(rng *rand.Rand, child expr.Node) expr.Node
	RandomBinary(rng *rand.Rand, left, right expr.Node) expr.Node
	RandomTree(rng *rand.Rand, maxDepth int) expr.Node
}

var registry = map[string]func() Pool{}

// Register adds a pool constructor to the registry.
func Register(name string, constructor func() Pool) {
	registry[name] = constructor
}

// Get returns a pool by name.
func Get(name string) (Pool, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown pool: %s (available: %v)", name, Names())
	}
	return ctor(), nil
}

// Names returns all registered pool names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// randomTree is a shared helper for building random trees of at most
// maxDepth levels.
func randomTree(p Pool, rng *rand.Rand, maxDepth int) expr.Node {
	if maxDepth <= 1 {
		return p.RandomLeaf(rng)
	}
	// Bias toward leaves at shallow depths to keep trees small
	r := rng.Float64()
	switch {
	case r < 0.3:
		return p.RandomLeaf(rng)
	case r < 0.5:
		return p.RandomUnary(rng, randomTree(p, rng, maxDepth-1))
	default:
		return p.RandomBinary(rng,
			randomTree(p, rng, maxDepth-1),
			randomTree(p, rng, maxDepth-1),
		)
	}
}

func randomVar(rng *rand.Rand, names []string) expr.Node {
	return expr.Variable(names[rng.Intn(len(names))])
}

func randomOperation(rng *rand.Rand, left, right expr.Node) expr.Node {
	ops := expr.OperationTypes()
	return &expr.Oper{Op: ops[rng.Intn(len(ops))], Left: left, Right: right}
}
