// Copyright 2026 The LibScan Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package depgraph builds the dependency graph between libraries in the
// corpus, resolving which library owns each canonical method name and
// finding libraries that cannot be ordered because they depend on each
// other (spec.md §4.2, Dependency Analyzer).
package depgraph

import (
	"sort"

	"github.com/Dilrevx/LibScan/internal/feature"
)

// BuildMethodIndex resolves, for every canonical method name that appears
// in any library, which single library owns it. When more than one library
// declares the same canonical method (an unavoidable collision once
// obfuscation-normalized names are the join key, spec.md §9 open question
// b) the library that appears later in libs wins; callers that care about
// determinism must pass libs in a stable order.
func BuildMethodIndex(libs []*feature.Library) map[string]string {
	owner := make(map[string]string)
	for _, lib := range libs {
		for canonical := range lib.MethodIndex {
			owner[canonical] = lib.Name
		}
	}
	return owner
}

// Graph is a directed dependency graph between libraries: an edge from A to
// B means A invokes at least one method that B defines.
type Graph struct {
	nodes map[string]bool
	edges map[string]map[string]bool
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		edges: make(map[string]map[string]bool),
	}
}

// AddNode registers a library name as a graph node even if it has no edges.
func (g *Graph) AddNode(name string) {
	g.nodes[name] = true
	if g.edges[name] == nil {
		g.edges[name] = make(map[string]bool)
	}
}

// AddEdge records that from depends on to.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[from][to] = true
}

// Dependencies returns the sorted list of libraries a library directly
// depends on.
func (g *Graph) Dependencies(name string) []string {
	var out []string
	for to := range g.edges[name] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// Nodes returns every library name registered in the graph, sorted.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// BuildDependencyGraph constructs the dependency graph for libs: for every
// method a library defines, every one-hop invoke target owned by a
// different library becomes a dependency edge (spec.md §4.2).
func BuildDependencyGraph(libs []*feature.Library, methodOwner map[string]string) *Graph {
	g := NewGraph()
	for _, lib := range libs {
		g.AddNode(lib.Name)
		for _, method := range lib.MethodIndex {
			for _, target := range method.InvokeTargets {
				owner, ok := methodOwner[target]
				if !ok || owner == lib.Name {
					continue
				}
				g.AddEdge(lib.Name, owner)
			}
		}
	}
	return g
}

// tarjan computes strongly connected components via an explicit-stack
// variant of Tarjan's algorithm, avoiding recursion depth limits on large
// library corpora (spec.md §9, recursion-safety).
type tarjan struct {
	g          *Graph
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []string
	nextIndex  int
	components [][]string
}

type frame struct {
	node     string
	children []string
	pos      int
}

func (t *tarjan) run(order []string) {
	for _, n := range order {
		if _, seen := t.index[n]; !seen {
			t.strongConnect(n)
		}
	}
}

func (t *tarjan) strongConnect(start string) {
	var stack []*frame
	push := func(node string) {
		t.index[node] = t.nextIndex
		t.lowlink[node] = t.nextIndex
		t.nextIndex++
		t.stack = append(t.stack, node)
		t.onStack[node] = true
		stack = append(stack, &frame{node: node, children: t.g.Dependencies(node)})
	}
	push(start)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.pos < len(top.children) {
			child := top.children[top.pos]
			top.pos++
			if _, seen := t.index[child]; !seen {
				push(child)
				continue
			} else if t.onStack[child] {
				if t.index[child] < t.lowlink[top.node] {
					t.lowlink[top.node] = t.index[child]
				}
			}
			continue
		}

		// All children processed; pop and propagate lowlink to parent.
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			if t.lowlink[top.node] < t.lowlink[parent.node] {
				t.lowlink[parent.node] = t.lowlink[top.node]
			}
		}

		if t.lowlink[top.node] == t.index[top.node] {
			var component []string
			for {
				n := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[n] = false
				component = append(component, n)
				if n == top.node {
					break
				}
			}
			t.components = append(t.components, component)
		}
	}
}

// StronglyConnectedComponents returns every strongly connected component of
// the graph, each as a sorted slice of library names, in a deterministic
// order (by component's smallest member name).
func (g *Graph) StronglyConnectedComponents() [][]string {
	t := &tarjan{
		g:       g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	t.run(g.Nodes())

	for _, c := range t.components {
		sort.Strings(c)
	}
	sort.Slice(t.components, func(i, j int) bool {
		return t.components[i][0] < t.components[j][0]
	})
	return t.components
}

// CyclicLibraries returns every library name that participates in a cycle:
// a strongly connected component of size greater than one, or a library
// that depends directly on itself. Dependency-ordered detection never waits
// on these libraries and never inlines their methods into a dependent's
// fine match (spec.md §4.2, §9 open question c).
func (g *Graph) CyclicLibraries() []string {
	var out []string
	for _, comp := range g.StronglyConnectedComponents() {
		if len(comp) > 1 {
			out = append(out, comp...)
			continue
		}
		n := comp[0]
		if g.edges[n][n] {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
