// Command infix renders algebraic expression trees as infix text.
//
// Usage:
//
//	# Render trees from files or stdin
//	infix render tree.json more.yaml
//	echo '{"type":"VARIABLE","name":"x"}' | infix render
//
//	# Generate random trees
//	infix generate --pool kitchensink --count 5 --depth 4
//
//	# Serve the HTTP render API
//	infix serve --config infix.yaml --watch
//
//	# Interactive session
//	infix repl
package main

func main() {
	Execute()
}
