package dag

import (
	"strings"
	"sync"
)

// Graph is a dependency graph over string IDs. It is safe for concurrent
// use.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
	// order sorts IDs in every result.
	order func(a, b string) int
}

type node struct {
	id         string
	deps       map[string]*node // what this node depends on
	dependents map[string]*node
}

// Option configures a Graph.
type Option func(*Graph)

// WithOrder sets the order IDs are returned in. The default is
// lexicographic.
func WithOrder(order func(a, b string) int) Option {
	return func(g *Graph) {
		if order != nil {
			g.order = order
		}
	}
}

// CycleError reports a dependency cycle. Path starts and ends with the same
// node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}
