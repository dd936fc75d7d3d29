package expr

// Children returns the direct children of n in rendering order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Paren:
		return []Node{n.Expression}
	case *Power:
		return []Node{n.Expression, n.Power}
	case *Oper:
		return []Node{n.Left, n.Right}
	case *Func:
		return append([]Node{}, n.Arguments...)
	}
	return nil
}

// Walk visits the tree rooted at n in pre-order, calling fn with each node
// and its depth (the root is depth 1). If fn returns false the node's
// children are skipped. Nil children are not visited.
func Walk(n Node, fn func(n Node, depth int) bool) {
	type frame struct {
		node  Node
		depth int
	}
	stack := []frame{{n, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if isNil(f.node) || !fn(f.node, f.depth) {
			continue
		}
		kids := Children(f.node)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{kids[i], f.depth + 1})
		}
	}
}
