// Package deps resolves service startup ordering from depends_on edges.
package deps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/diyhub/homelabctl/internal/config"
)

// CircularDependencyError names at least one concrete cycle, e.g.
// "circular-a -> circular-b -> circular-a".
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return "circular dependency detected: " + strings.Join(e.Cycle, " -> ")
}

type node struct {
	key      string
	priority int
	deps     []string
}

// Graph is a directed dependency graph over a fixed service set. Edges point
// from a service to each entry of its depends_on list.
type Graph struct {
	nodes      map[string]*node
	dependents map[string][]string // reverse edges
}

// New builds a graph from the given services. Every depends_on entry must
// reference a key of the same set.
func New(services map[string]*config.Service) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[string]*node, len(services)),
		dependents: make(map[string][]string),
	}
	for key, svc := range services {
		g.nodes[key] = &node{key: key, priority: svc.StartupPriority, deps: svc.DependsOn}
	}
	for key, n := range g.nodes {
		for _, dep := range n.deps {
			if _, ok := g.nodes[dep]; !ok {
				return nil, fmt.Errorf("service %q: depends_on references unknown service %q", key, dep)
			}
			g.dependents[dep] = append(g.dependents[dep], key)
		}
	}
	return g, nil
}

// ResolveOrder returns a topological startup order: every service appears
// after all of its transitive dependencies. Ties are broken by ascending
// startup_priority, then lexically, so the order is the same on every run.
func (g *Graph) ResolveOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n.key] = len(n.deps)
	}

	var ready []string
	for key, d := range indegree {
		if d == 0 {
			ready = append(ready, key)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			a, b := g.nodes[ready[i]], g.nodes[ready[j]]
			if a.priority != b.priority {
				return a.priority < b.priority
			}
			return a.key < b.key
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dep := range g.dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(g.nodes) {
		if cerr := g.DetectCycle(); cerr != nil {
			return nil, cerr
		}
		return nil, &CircularDependencyError{Cycle: remaining(g.nodes, order)}
	}
	return order, nil
}

// ShutdownOrder is the reverse of ResolveOrder.
func (g *Graph) ShutdownOrder() ([]string, error) {
	order, err := g.ResolveOrder()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// DependentsOf returns every service that transitively depends on key,
// sorted. Stopping key would break all of them.
func (g *Graph) DependentsOf(key string) []string {
	seen := map[string]bool{}
	var walk func(k string)
	walk = func(k string) {
		for _, d := range g.dependents[k] {
			if !seen[d] {
				seen[d] = true
				walk(d)
			}
		}
	}
	walk(key)
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DetectCycle is the explicit cycle check. It does not fail unrelated
// operations: callers decide whether a cycle is fatal. A nil result means
// the graph is acyclic.
func (g *Graph) DetectCycle() *CircularDependencyError {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(k string) []string
	visit = func(k string) []string {
		color[k] = grey
		stack = append(stack, k)
		for _, dep := range g.nodes[k].deps {
			switch color[dep] {
			case white:
				if cyc := visit(dep); cyc != nil {
					return cyc
				}
			case grey:
				// walk back up the stack to the first occurrence of dep
				start := 0
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == dep {
						start = i
						break
					}
				}
				cyc := append([]string{}, stack[start:]...)
				return append(cyc, dep)
			}
		}
		stack = stack[:len(stack)-1]
		color[k] = black
		return nil
	}

	keys := make([]string, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if color[k] == white {
			stack = stack[:0]
			if cyc := visit(k); cyc != nil {
				return &CircularDependencyError{Cycle: cyc}
			}
		}
	}
	return nil
}

func remaining(nodes map[string]*node, order []string) []string {
	placed := make(map[string]bool, len(order))
	for _, k := range order {
		placed[k] = true
	}
	var out []string
	for k := range nodes {
		if !placed[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
