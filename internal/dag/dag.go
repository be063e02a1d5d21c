package dag

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// New creates and returns an initialized, empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes: make(map[string]*node),
		order: strings.Compare,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode adds a vertex. Adding an existing ID is a no-op.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = &node{id: id, deps: map[string]*node{}, dependents: map[string]*node{}}
	}
}

// AddEdge records that to depends on from. Both vertices must exist and
// differ.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("node %s cannot depend on itself", from)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("unknown node %s", from)
	}
	dst, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("unknown node %s", to)
	}
	dst.deps[from] = src
	src.dependents[to] = dst
	return nil
}

// Nodes returns every node ID in order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.sorted(g.nodes)
}

// Dependencies returns the IDs the given node depends on, in order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("unknown node %s", id)
	}
	return g.sorted(n.deps), nil
}

// Edges returns every edge as a [from, to] pair, ordered by from then to.
func (g *Graph) Edges() [][2]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out [][2]string
	for _, from := range g.sorted(g.nodes) {
		for _, to := range g.sorted(g.nodes[from].dependents) {
			out = append(out, [2]string{from, to})
		}
	}
	return out
}

func (g *Graph) sorted(set map[string]*node) []string {
	return slices.SortedFunc(maps.Keys(set), g.order)
}

// DetectCycles returns a *CycleError for the first cycle a depth-first
// walk in graph order runs into, or nil.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	done := make(map[string]bool)
	onPath := make(map[string]bool)
	var path []string

	var walk func(n *node) error
	walk = func(n *node) error {
		switch {
		case done[n.id]:
			return nil
		case onPath[n.id]:
			cycle := slices.Clone(path[slices.Index(path, n.id):])
			return &CycleError{Path: append(cycle, n.id)}
		}

		onPath[n.id] = true
		path = append(path, n.id)
		for _, id := range g.sorted(n.dependents) {
			if err := walk(n.dependents[id]); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		onPath[n.id] = false
		done[n.id] = true
		return nil
	}

	for _, id := range g.sorted(g.nodes) {
		if err := walk(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// TopologicalOrder returns the node IDs so that every node comes after the
// nodes it depends on. Among nodes that are ready at the same time the
// graph order applies. It fails with a *CycleError when the graph is not
// acyclic.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	pending := make(map[string]int, len(g.nodes))
	var ready []string
	for id, n := range g.nodes {
		pending[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		slices.SortFunc(ready, g.order)
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)
		for dependent := range g.nodes[id].dependents {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return out, nil
}
