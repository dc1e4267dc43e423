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

	"github.com/Dilrevx/LibScan/internal/feature"
)

// ClassBinding records that a library class was matched against a specific
// application class, and the opcode weight that binding contributed.
type ClassBinding struct {
	LibraryClass string
	AppClass     string
	Interface    bool
	MatchOpcodes int
}

// Result is the outcome of fine-matching one library against one
// application.
type Result struct {
	Library     string
	PackageName string
	Similarity  float64
	MinLibMatch float64
	Bindings    []ClassBinding
}

type fineCandidate struct {
	appClass     string
	matchOpcodes int
	pathDiff     int
}

// FineMatch reconstructs the inter-procedural opcode set for every
// non-exact coarse pairing and confirms it by set containment, accumulates
// match_opcodes(L,A) per spec.md §4.3.3 (Σ library method OpcodeCount over
// confirmed methods), then binds each library class to the application
// class maximizing match_opcodes, tie-broken toward the smaller Σ of
// per-method path-length differences, one-to-one across the whole library.
// external augments the library-side method lookup with the
// nodes_by_method_key of already-confirmed, non-cyclic dependencies
// (spec.md §4.3.5); pass nil when there are none. The final similarity is
// Σ matched opcodes over the library's total OpcodeCount, checked by the
// caller against MinLibMatch (1.0 for an interface-only library, else
// lib_similar).
func FineMatch(lib *feature.Library, app *feature.Application, pairs []ClassPair, cfg Config, external map[string]*feature.Method) Result {
	libExpander := NewExpander(lib.MethodIndex, external, cfg.MaxPathDepth)
	appExpander := NewExpander(app.MethodIndex, nil, cfg.MaxPathDepth)

	byLibClass := make(map[string][]fineCandidate)
	interfaceByLibClass := make(map[string]string)

	for _, p := range pairs {
		if p.Interface {
			interfaceByLibClass[p.LibraryClass] = p.AppClass
			continue
		}

		matchOpcodes := 0
		pathDiff := 0
		for lname, aname := range p.Matched {
			lm := lib.MethodIndex[lname]
			am := app.MethodIndex[aname]
			if p.ExactDigest[lname] {
				matchOpcodes += lm.OpcodeCount
				continue
			}
			libSet := libExpander.Expand(lm)
			appSet := appExpander.Expand(am)
			if !setSubset(libSet, appSet) {
				continue
			}
			matchOpcodes += lm.OpcodeCount
			pathDiff += abs(len(appSet) - len(libSet))
		}
		if matchOpcodes == 0 {
			continue
		}
		byLibClass[p.LibraryClass] = append(byLibClass[p.LibraryClass], fineCandidate{
			appClass:     p.AppClass,
			matchOpcodes: matchOpcodes,
			pathDiff:     pathDiff,
		})
	}

	usedApp := make(map[string]bool)
	for _, a := range interfaceByLibClass {
		usedApp[a] = true
	}

	libClassNames := make([]string, 0, len(byLibClass))
	for c := range byLibClass {
		libClassNames = append(libClassNames, c)
	}
	sort.Strings(libClassNames)

	var bindings []ClassBinding
	finalOpcodes := 0
	for _, lname := range libClassNames {
		cands := byLibClass[lname]
		sort.Slice(cands, func(i, j int) bool { return cands[i].appClass < cands[j].appClass })

		bestIdx := -1
		for i, c := range cands {
			if usedApp[c.appClass] {
				continue
			}
			if bestIdx == -1 {
				bestIdx = i
				continue
			}
			b := cands[bestIdx]
			if c.matchOpcodes > b.matchOpcodes || (c.matchOpcodes == b.matchOpcodes && c.pathDiff < b.pathDiff) {
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			continue
		}
		chosen := cands[bestIdx]
		usedApp[chosen.appClass] = true
		bindings = append(bindings, ClassBinding{LibraryClass: lname, AppClass: chosen.appClass, MatchOpcodes: chosen.matchOpcodes})
		finalOpcodes += chosen.matchOpcodes
	}

	ifaceNames := make([]string, 0, len(interfaceByLibClass))
	for c := range interfaceByLibClass {
		ifaceNames = append(ifaceNames, c)
	}
	sort.Strings(ifaceNames)
	for _, lname := range ifaceNames {
		aname := interfaceByLibClass[lname]
		weight := lib.Classes[lname].MethodCount * cfg.AbstractMethodWeight
		finalOpcodes += weight
		bindings = append(bindings, ClassBinding{LibraryClass: lname, AppClass: aname, Interface: true, MatchOpcodes: weight})
	}

	minLibMatch := cfg.LibSimilar
	if lib.IsInterfaceOnly {
		minLibMatch = 1.0
	}

	similarity := 0.0
	switch {
	case lib.OpcodeCount > 0:
		similarity = float64(finalOpcodes) / float64(lib.OpcodeCount)
	case lib.IsInterfaceOnly && finalOpcodes > 0:
		similarity = 1.0
	}

	return Result{
		Library:     lib.Name,
		PackageName: lib.PackageName,
		Similarity:  similarity,
		MinLibMatch: minLibMatch,
		Bindings:    bindings,
	}
}
