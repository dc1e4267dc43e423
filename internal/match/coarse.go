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

import (
	"sort"
	"strings"

	"github.com/Dilrevx/LibScan/internal/feature"
)

// ClassPair is one (library class, application class) pairing that
// survived coarse matching (spec.md §4.3.2). For an interface-only library
// class, Matched/ExactDigest/OpcodeSum are unused: the pairing itself
// (equal MethodCount, first candidate that binds) is the evidence.
type ClassPair struct {
	LibraryClass string
	AppClass     string
	Interface    bool
	Matched      map[string]string // lib method canonical -> app method canonical
	ExactDigest  map[string]bool   // lib method canonical -> true if bound by exact digest
	OpcodeSum    int               // Σ matched app method OpcodeCount, the class-acceptance numerator
}

func sortedClassNames(classes map[string]*feature.Class) []string {
	names := make([]string, 0, len(classes))
	for n := range classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedMethodNames(methods map[string]*feature.Method) []string {
	names := make([]string, 0, len(methods))
	for n := range methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedCandidateNames(cand map[string]bool) []string {
	names := make([]string, 0, len(cand))
	for n := range cand {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func descriptorKey(m *feature.Method) string {
	var b strings.Builder
	if m.Static {
		b.WriteByte('S')
	} else {
		b.WriteByte('I')
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(m.ParamTypes, ","))
	b.WriteByte('|')
	b.WriteString(m.ReturnType)
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func distinctValues(path []int) []int {
	seen := make(map[int]bool, len(path))
	out := make([]int, 0, len(path))
	for _, v := range path {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// coarseMatchClassPair greedily binds lcls's eligible methods against
// acls's, restricted to this class pair alone (spec.md §4.3.2): a method
// binds to a same-descriptor application method with an identical digest,
// or failing that, to one whose distinct opcodes are a subset of the
// candidate's (spec.md §4.1, opcode containment is unordered set
// containment), breaking ties toward the closest OpcodeCount. An
// exact-digest match may rebind an application method a previous, non-exact
// binding already claimed, releasing the prior library method's binding
// back to the pool.
func coarseMatchClassPair(lcls, acls *feature.Class) (matched map[string]string, exact map[string]bool, opcodeSum int) {
	matched = make(map[string]string)
	exact = make(map[string]bool)
	appToLib := make(map[string]string)

	buckets := make(map[string][]*feature.Method)
	for _, name := range sortedMethodNames(acls.Methods) {
		am := acls.Methods[name]
		buckets[descriptorKey(am)] = append(buckets[descriptorKey(am)], am)
	}

	for _, lname := range sortedMethodNames(lcls.Methods) {
		lm := lcls.Methods[lname]
		candidates := buckets[descriptorKey(lm)]

		bestIdx, bestDiff := -1, 0
		bestExact := false
		for i, am := range candidates {
			if am.Digest == lm.Digest {
				bestIdx, bestExact = i, true
				break
			}
			if _, bound := appToLib[am.CanonicalName]; bound {
				continue
			}
			if !OpcodeSetSubset(distinctValues(lm.OpcodePath()), am.OpcodePath()) {
				continue
			}
			diff := abs(lm.OpcodeCount - am.OpcodeCount)
			if bestIdx == -1 || diff < bestDiff {
				bestIdx, bestDiff = i, diff
			}
		}
		if bestIdx == -1 {
			continue
		}
		chosen := candidates[bestIdx]

		if bestExact {
			if oldLib, bound := appToLib[chosen.CanonicalName]; bound && oldLib != lname {
				delete(matched, oldLib)
				delete(exact, oldLib)
			}
		}
		matched[lname] = chosen.CanonicalName
		exact[lname] = bestExact
		appToLib[chosen.CanonicalName] = lname
	}

	for _, aname := range matched {
		opcodeSum += acls.Methods[aname].OpcodeCount
	}
	return matched, exact, opcodeSum
}

// CoarseMatch pairs every candidate library class against the application
// classes pre-match found for it (spec.md §4.3.2). Interface-only library
// classes require an application class that is also interface-only with an
// identical MethodCount, and the first candidate that qualifies binds
// (first-bind-wins); concrete library classes require a candidate whose
// MethodCount does not exceed the library class's own, then run per-method
// binding and accept the pairing when Σ matched application opcode counts
// over the application class's own OpcodeCount clears class_similar.
func CoarseMatch(lib *feature.Library, app *feature.Application, candidates map[string]map[string]bool, cfg Config) []ClassPair {
	var pairs []ClassPair
	claimedInterfaceApp := make(map[string]bool)

	for _, lname := range sortedClassNames(lib.Classes) {
		lcls := lib.Classes[lname]
		cand := candidates[lname]
		if len(cand) == 0 {
			continue
		}

		if lcls.IsInterfaceOnly {
			for _, aname := range sortedCandidateNames(cand) {
				acls := app.Classes[aname]
				if acls == nil || !acls.IsInterfaceOnly || claimedInterfaceApp[aname] {
					continue
				}
				if acls.MethodCount != lcls.MethodCount {
					continue
				}
				claimedInterfaceApp[aname] = true
				pairs = append(pairs, ClassPair{LibraryClass: lname, AppClass: aname, Interface: true})
				break
			}
			continue
		}

		for _, aname := range sortedCandidateNames(cand) {
			acls := app.Classes[aname]
			if acls == nil || acls.IsInterfaceOnly || acls.OpcodeCount == 0 {
				continue
			}
			if acls.MethodCount > lcls.MethodCount {
				continue
			}
			matched, exact, opcodeSum := coarseMatchClassPair(lcls, acls)
			if len(matched) == 0 {
				continue
			}
			if float64(opcodeSum)/float64(acls.OpcodeCount) <= cfg.ClassSimilar {
				continue
			}
			pairs = append(pairs, ClassPair{
				LibraryClass: lname,
				AppClass:     aname,
				Matched:      matched,
				ExactDigest:  exact,
				OpcodeSum:    opcodeSum,
			})
		}
	}
	return pairs
}

// CoarseLibraryAccepts reports whether the library-level evidence collected
// across every surviving ClassPair clears lib_similar (spec.md §4.3.2): Σ
// library-class OpcodeCount over every concrete class with at least one
// surviving pairing, plus MethodCount*AbstractMethodWeight for every
// interface class that bound, divided by the library's total OpcodeCount.
// An interface-only library (OpcodeCount zero) is accepted whenever at
// least one of its interface classes bound.
func CoarseLibraryAccepts(lib *feature.Library, pairs []ClassPair, cfg Config) bool {
	seenConcrete := make(map[string]bool)
	total := 0
	for _, p := range pairs {
		if p.Interface {
			total += lib.Classes[p.LibraryClass].MethodCount * cfg.AbstractMethodWeight
			continue
		}
		if seenConcrete[p.LibraryClass] {
			continue
		}
		seenConcrete[p.LibraryClass] = true
		total += lib.Classes[p.LibraryClass].OpcodeCount
	}
	if lib.OpcodeCount == 0 {
		return total > 0
	}
	return float64(total)/float64(lib.OpcodeCount) >= cfg.LibSimilar
}
