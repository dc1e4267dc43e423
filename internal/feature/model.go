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

package feature

// MethodNode is one fragment of a method's filtered opcode stream, bounded
// by invoke instructions: Opcodes is the fragment that precedes the invoke,
// and Callee is the canonical name of the method it resolved to (empty for
// the method's closing fragment, and for any fragment that did not end on a
// resolved, non-platform invoke). Splicing a method's nodes in order and
// inlining each non-empty Callee's own nodes reconstructs the inter-
// procedural opcode path used by fine matching (spec.md §3, §4.3.3).
type MethodNode struct {
	Opcodes []int
	Callee  string
}

// Method is the extracted, analysis-ready view of a single eligible method:
// its canonical name (the join key between a Library and an Application),
// its node sequence, and the set of invoke targets reachable in one hop
// (spec.md §3, "method record").
type Method struct {
	CanonicalName string
	Owner         string // dotted class name, e.g. "com.example.Foo"
	Static        bool
	ParamTypes    []string
	ReturnType    string
	Nodes         []MethodNode
	OpcodeCount   int
	Digest        [16]byte
	InvokeTargets []string // canonical names of methods invoked, Java-owned targets excluded
}

// OpcodePath returns the method's full filtered opcode sequence: the
// concatenation of every node's fragment, in order.
func (m *Method) OpcodePath() []int {
	if len(m.Nodes) == 0 {
		return nil
	}
	out := make([]int, 0, m.OpcodeCount)
	for _, n := range m.Nodes {
		out = append(out, n.Opcodes...)
	}
	return out
}

// Class is the extracted view of a class. A concrete class (one with at
// least one eligible method body) carries the full "five slots" of spec.md
// §3: Digest, MethodCount, OpcodeCount, Bloom, and Methods. A pure
// interface or abstract class with no eligible method bodies is recorded as
// interface-only and carries only the "two slots" the spec allows it:
// MethodCount (the declared method count, used for interface equality) and
// Bloom; Methods is nil and Digest/OpcodeCount are zero, since there are no
// method bodies to hash or sum.
type Class struct {
	Name            string
	NonObjectSuper  bool
	IsInterfaceOnly bool
	MethodCount     int // count of all declared methods, eligible or not
	OpcodeCount     int // sum of eligible methods' OpcodeCount; zero if IsInterfaceOnly
	Bloom           map[int]int
	Methods         map[string]*Method // eligible methods only; nil if IsInterfaceOnly
	Digest          [16]byte
}

// Library is the fully extracted view of one third-party library archive:
// every class it defines, a flat method index for O(1) canonical-name
// lookup across class boundaries, the total opcode count used as the
// denominator for pre-match/coarse/fine acceptance ratios, and the set of
// invoked methods this library does not itself define (spec.md §3,
// "library record"). PackageName is the dotted package identity shared by
// every version of the same logical library (spec.md §3, §4.3.4); it falls
// back to Name when no name map entry resolves it.
type Library struct {
	Name                    string
	PackageName             string
	Classes                 map[string]*Class
	MethodIndex             map[string]*Method
	OpcodeCount             int
	InvokedExternalMethods  map[string]bool
	IsInterfaceOnly         bool
}

// Application is the fully extracted view of one APK under scan: the same
// class/method shape as Library, plus AppFilter, the inverse bloom index
// spec.md §3/§4.3.1 calls app_filter: AppFilter[i][slot] is the set of
// application class names whose bloom counter at feature index i is at
// least slot+1. Slot counts are saturated at the same filter_record_limit
// used to build each class's own Bloom map, so AppFilter[i] always has
// exactly filter_record_limit entries.
type Application struct {
	Name        string
	Classes     map[string]*Class
	MethodIndex map[string]*Method
	AppFilter   map[int][]map[string]bool
}

func newIndex() map[string]*Method {
	return make(map[string]*Method)
}

// NewLibrary returns an empty Library ready for incremental population by
// an Extractor.
func NewLibrary(name string) *Library {
	return &Library{
		Name:                   name,
		PackageName:            name,
		Classes:                make(map[string]*Class),
		MethodIndex:            newIndex(),
		InvokedExternalMethods: make(map[string]bool),
	}
}

// NewApplication returns an empty Application ready for incremental
// population by an Extractor.
func NewApplication(name string) *Application {
	return &Application{
		Name:        name,
		Classes:     make(map[string]*Class),
		MethodIndex: newIndex(),
		AppFilter:   make(map[int][]map[string]bool),
	}
}

// Method looks up a method by its canonical name, regardless of which class
// declares it. This is the join key used throughout matching (spec.md §3).
func (l *Library) Method(canonicalName string) (*Method, bool) {
	m, ok := l.MethodIndex[canonicalName]
	return m, ok
}

// Method looks up a method by its canonical name.
func (a *Application) Method(canonicalName string) (*Method, bool) {
	m, ok := a.MethodIndex[canonicalName]
	return m, ok
}

// BloomSubsetOf reports whether sub is a multiset submultiset of super: for
// every feature index present in sub, super's count at that index must be
// at least as large.
func BloomSubsetOf(sub, super map[int]int) bool {
	for idx, need := range sub {
		if super[idx] < need {
			return false
		}
	}
	return true
}

// BuildAppFilter constructs the inverse bloom index of spec.md §4.3.1 from
// an application's classes: for every class whose bloom counter at index i
// is count, the class is recorded in slots 0..count-1 of AppFilter[i],
// since a counter of count satisfies any required threshold of slot+1 up
// to count. Every index's slot slice always has exactly limit entries, so a
// required count beyond limit (itself already saturated at limit by
// AddBloomCount) is satisfied by the last slot.
func BuildAppFilter(classes map[string]*Class, limit int) map[int][]map[string]bool {
	filter := make(map[int][]map[string]bool)
	if limit <= 0 {
		return filter
	}
	for _, c := range classes {
		for idx, count := range c.Bloom {
			slots, ok := filter[idx]
			if !ok {
				slots = make([]map[string]bool, limit)
				for i := range slots {
					slots[i] = make(map[string]bool)
				}
				filter[idx] = slots
			}
			n := count
			if n > limit {
				n = limit
			}
			for slot := 0; slot < n; slot++ {
				slots[slot][c.Name] = true
			}
		}
	}
	return filter
}
