package migration

import (
	"fmt"
	"sort"
	"strings"
)

type color int

const (
	white color = iota
	gray
	black
)

// Graph orders migrations by their declared dependencies. It is rebuilt
// from the full record set and never mutated afterwards.
type Graph struct {
	nodes      map[string]*Migration
	dependents map[string][]string
	order      []string
	position   map[string]int
}

// NewGraph validates the dependency edges and computes a total order.
// Duplicate names, unknown dependencies and cycles are rejected.
func NewGraph(migrations []*Migration) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[string]*Migration, len(migrations)),
		dependents: make(map[string][]string, len(migrations)),
	}
	for _, m := range migrations {
		if _, ok := g.nodes[m.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, m.Name)
		}
		g.nodes[m.Name] = m
	}
	for _, name := range g.sortedNames() {
		for _, dep := range g.nodes[name].Dependencies {
			if _, ok := g.nodes[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, name, dep)
			}
			g.dependents[dep] = append(g.dependents[dep], name)
		}
	}
	if cycle := g.detectCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
	}

	g.order = g.topoSort()
	g.position = make(map[string]int, len(g.order))
	for i, name := range g.order {
		g.position[name] = i
	}
	return g, nil
}

func (g *Graph) sortedNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// detectCycle uses DFS with three-color marking along dependency edges.
// Returns the cycle path if found, nil otherwise.
func (g *Graph) detectCycle() []string {
	colors := make(map[string]color, len(g.nodes))
	parent := make(map[string]string)

	var dfs func(n string) []string
	dfs = func(n string) []string {
		colors[n] = gray
		for _, dep := range g.nodes[n].Dependencies {
			switch colors[dep] {
			case gray:
				return reconstructCycle(n, dep, parent)
			case white:
				parent[dep] = n
				if cycle := dfs(dep); cycle != nil {
					return cycle
				}
			}
		}
		colors[n] = black
		return nil
	}

	for _, n := range g.sortedNames() {
		if colors[n] == white {
			if cycle := dfs(n); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// reconstructCycle walks parent pointers from the back-edge source to its target
func reconstructCycle(from, to string, parent map[string]string) []string {
	cycle := []string{to}
	for n := from; n != to; n = parent[n] {
		cycle = append([]string{n}, cycle...)
	}
	return append([]string{to}, cycle...)
}

// topoSort is Kahn's algorithm, always taking the lexically smallest ready
// migration so the order is identical across runs
func (g *Graph) topoSort() []string {
	pending := make(map[string]int, len(g.nodes))
	var ready []string
	for name, m := range g.nodes {
		pending[name] = len(m.Dependencies)
		if len(m.Dependencies) == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, dependent := range g.dependents[name] {
			pending[dependent]--
			if pending[dependent] == 0 {
				i := sort.SearchStrings(ready, dependent)
				ready = append(ready, "")
				copy(ready[i+1:], ready[i:])
				ready[i] = dependent
			}
		}
	}
	return order
}

// Len returns the number of migrations
func (g *Graph) Len() int { return len(g.order) }

// Names returns migration names in application order
func (g *Graph) Names() []string {
	return append([]string(nil), g.order...)
}

// Order returns migrations in application order
func (g *Graph) Order() []*Migration {
	out := make([]*Migration, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name]
	}
	return out
}

// Get looks up a migration by name
func (g *Graph) Get(name string) (*Migration, error) {
	m, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return m, nil
}

// Sinks returns the migrations nothing else depends on, sorted by name.
// These become the dependencies of the next generated migration.
func (g *Graph) Sinks() []string {
	var sinks []string
	for name := range g.nodes {
		if len(g.dependents[name]) == 0 {
			sinks = append(sinks, name)
		}
	}
	sort.Strings(sinks)
	return sinks
}

// Dependents returns every migration that transitively depends on one of
// names, plus names themselves, in reverse application order
func (g *Graph) Dependents(names ...string) ([]string, error) {
	seen := make(map[string]bool)
	stack := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := g.nodes[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		stack = append(stack, name)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.dependents[n]...)
	}

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return g.position[out[i]] > g.position[out[j]] })
	return out, nil
}
