package pool

import (
	"math/rand"

	"github.com/wildfunctions/infixast/pkg/expr"
)

// Mutation identifies a kind of tree mutation.
type Mutation int

const (
	MutPoint        Mutation = iota // replace a node with a fresh one of the same arity
	MutSubtree                      // replace a random subtree with a new random tree
	MutHoist                        // replace the tree with one of its subtrees
	MutConstPerturb                 // adjust a number by ±1-3
	MutGrow                         // wrap a node in a new unary or binary node
	MutShrink                       // replace a node with one of its children

	numMutations = iota
)

const maxMutationDepth = 3

// Mutate returns a copy of root with one random mutation applied. root is
// never modified. Mutations draw new nodes from p, so a well-formed tree
// stays well-formed.
func Mutate(root expr.Node, p Pool, rng *rand.Rand) expr.Node {
	return Apply(Mutation(rng.Intn(numMutations)), root, p, rng)
}

// Apply returns a copy of root with mutation m applied.
func Apply(m Mutation, root expr.Node, p Pool, rng *rand.Rand) expr.Node {
	root = expr.Clone(root)
	switch m {
	case MutPoint:
		return pointMutate(root, p, rng)
	case MutSubtree:
		return subtreeMutate(root, p, rng)
	case MutHoist:
		return hoistMutate(root, rng)
	case MutConstPerturb:
		return constPerturb(root, rng)
	case MutGrow:
		return growMutate(root, p, rng)
	case MutShrink:
		return shrinkMutate(root, rng)
	default:
		return root
	}
}

// pointMutate swaps a random node for a new one that keeps its children.
func pointMutate(root expr.Node, p Pool, rng *rand.Rand) expr.Node {
	slots := collectSlots(&root)
	target := slots[rng.Intn(len(slots))]

	switch n := (*target).(type) {
	case *expr.Var, *expr.Value:
		*target = p.RandomLeaf(rng)
	case *expr.Paren:
		*target = p.RandomUnary(rng, n.Expression)
	case *expr.Func:
		if len(n.Arguments) == 1 {
			*target = p.RandomUnary(rng, n.Arguments[0])
		}
	case *expr.Power:
		*target = p.RandomBinary(rng, n.Expression, n.Power)
	case *expr.Oper:
		*target = p.RandomBinary(rng, n.Left, n.Right)
	}
	return root
}

// subtreeMutate replaces a random subtree with a new random tree.
func subtreeMutate(root expr.Node, p Pool, rng *rand.Rand) expr.Node {
	slots := collectSlots(&root)
	*slots[rng.Intn(len(slots))] = p.RandomTree(rng, maxMutationDepth)
	return root
}

// hoistMutate replaces the tree with one of its subtrees.
func hoistMutate(root expr.Node, rng *rand.Rand) expr.Node {
	slots := collectSlots(&root)
	return *slots[rng.Intn(len(slots))]
}

// constPerturb adjusts a random number by ±1 to ±3.
func constPerturb(root expr.Node, rng *rand.Rand) expr.Node {
	var nums []*expr.Value
	expr.Walk(root, func(n expr.Node, _ int) bool {
		if v, ok := n.(*expr.Value); ok && v.Kind == expr.Number {
			nums = append(nums, v)
		}
		return true
	})
	if len(nums) == 0 {
		return root
	}
	target := nums[rng.Intn(len(nums))]
	delta := float64(rng.Intn(3) + 1)
	if rng.Float64() < 0.5 {
		delta = -delta
	}
	target.Value += delta
	if target.Value == 0 {
		target.Value = 1 // avoid zero constants
	}
	return root
}

// growMutate wraps a random node in a new unary or binary node.
func growMutate(root expr.Node, p Pool, rng *rand.Rand) expr.Node {
	slots := collectSlots(&root)
	idx := rng.Intn(len(slots))
	old := *slots[idx]

	switch {
	case rng.Float64() < 0.5:
		*slots[idx] = p.RandomUnary(rng, old)
	case rng.Float64() < 0.5:
		*slots[idx] = p.RandomBinary(rng, old, p.RandomLeaf(rng))
	default:
		*slots[idx] = p.RandomBinary(rng, p.RandomLeaf(rng), old)
	}
	return root
}

// shrinkMutate replaces a random node with one of its children.
func shrinkMutate(root expr.Node, rng *rand.Rand) expr.Node {
	slots := collectSlots(&root)
	target := slots[rng.Intn(len(slots))]
	if children := expr.Children(*target); len(children) > 0 {
		*target = children[rng.Intn(len(children))]
	}
	return root
}

// collectSlots returns pointers to every child slot in the tree, root
// included, so a mutation can replace any node in place.
func collectSlots(root *expr.Node) []*expr.Node {
	var result []*expr.Node
	collectSlotsHelper(root, &result)
	return result
}

func collectSlotsHelper(slot *expr.Node, result *[]*expr.Node) {
	*result = append(*result, slot)
	switch n := (*slot).(type) {
	case *expr.Paren:
		collectSlotsHelper(&n.Expression, result)
	case *expr.Power:
		collectSlotsHelper(&n.Expression, result)
		collectSlotsHelper(&n.Power, result)
	case *expr.Func:
		for i := range n.Arguments {
			collectSlotsHelper(&n.Arguments[i], result)
		}
	case *expr.Oper:
		collectSlotsHelper(&n.Left, result)
		collectSlotsHelper(&n.Right, result)
	}
}
