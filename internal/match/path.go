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

package match

import "github.com/Dilrevx/LibScan/internal/feature"

// Expander reconstructs a method's inter-procedural opcode set by walking
// its nodes in order, inlining each node's callee before continuing to the
// next node, bounded by MaxDepth and breaking recursive loops by leaving a
// callee uninlined the second time it would recur on the current call path
// (spec.md §4.3.3). The result is a set, not a path: every recursive call
// deduplicates into the same accumulator. Each top-level Expand result is
// memoized by method key, so expanding the same method again reuses it;
// within one expansion, a callee reached from several call sites is walked
// again at each of them.
type Expander struct {
	Methods  map[string]*feature.Method
	External map[string]*feature.Method
	MaxDepth int
	memo     map[string]map[int]bool
}

// NewExpander returns an Expander that resolves callees first against
// methods (the artifact being expanded), then against external, the
// nodes_by_method_key view dependency-aware detection augments the library
// side with (spec.md §4.3.5). external is nil for application-side
// expansion and for single-library runs with no finished dependencies.
func NewExpander(methods, external map[string]*feature.Method, maxDepth int) *Expander {
	return &Expander{Methods: methods, External: external, MaxDepth: maxDepth, memo: make(map[string]map[int]bool)}
}

func (e *Expander) lookup(name string) (*feature.Method, bool) {
	if m, ok := e.Methods[name]; ok {
		return m, true
	}
	if e.External != nil {
		if m, ok := e.External[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Expand returns the deduplicated set of distinct opcode values reachable
// from m, inlining resolvable callees up to MaxDepth.
func (e *Expander) Expand(m *feature.Method) map[int]bool {
	if cached, ok := e.memo[m.CanonicalName]; ok {
		return cached
	}
	out := make(map[int]bool)
	route := map[string]bool{m.CanonicalName: true}
	e.walk(m, route, 0, out)
	e.memo[m.CanonicalName] = out
	return out
}

func (e *Expander) walk(m *feature.Method, route map[string]bool, depth int, out map[int]bool) {
	for _, node := range m.Nodes {
		for _, code := range node.Opcodes {
			out[code] = true
		}
		if node.Callee == "" || depth >= e.MaxDepth {
			continue
		}
		callee, ok := e.lookup(node.Callee)
		if !ok || route[node.Callee] {
			continue
		}
		route[node.Callee] = true
		e.walk(callee, route, depth+1, out)
		delete(route, node.Callee)
	}
}

// OpcodeSetSubset reports whether every distinct value in sub also occurs
// in super: unordered set containment, not ordered subsequence containment
// (spec.md §1, "partial method reordering" tolerance; §4.1, "a library
// method's distinct opcodes must all appear in the application method's
// opcode sequence"). Duplicate and reordered instructions on the
// application side never defeat a match.
func OpcodeSetSubset(sub, super []int) bool {
	set := make(map[int]bool, len(super))
	for _, v := range super {
		set[v] = true
	}
	for _, v := range sub {
		if !set[v] {
			return false
		}
	}
	return true
}

// setSubset is OpcodeSetSubset for already-built opcode sets, used by fine
// matching over Expander output.
func setSubset(sub, super map[int]bool) bool {
	for v := range sub {
		if !super[v] {
			return false
		}
	}
	return true
}
