package expr

// NodeCount returns the number of nodes in the tree rooted at n.
func NodeCount(n Node) int {
	count := 0
	Walk(n, func(Node, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels in the tree rooted at n; a leaf is 1.
func Depth(n Node) int {
	deepest := 0
	Walk(n, func(_ Node, d int) bool {
		if d > deepest {
			deepest = d
		}
		return true
	})
	return deepest
}
