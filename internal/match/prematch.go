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

// Package match implements the three-stage, obfuscation-tolerant matcher:
// a cheap bloom pre-match that rules out most of the corpus on a per-class
// basis, a coarse per-method match by descriptor and opcode containment,
// and a fine inter-procedural match that confirms surviving candidates by
// reconstructing call paths (spec.md §4.3.1-§4.3.3).
package match

import "github.com/Dilrevx/LibScan/internal/feature"

// PrematchResult is one library that survived pre-match, together with its
// per-library-class candidate application classes (spec.md §4.3.1).
type PrematchResult struct {
	Library    *feature.Library
	Candidates map[string]map[string]bool // library class name -> candidate app class names
}

// candidateClasses intersects app's inverse bloom index across every
// feature index a class's bloom carries, returning the set of application
// class names consistent with every one of that count (spec.md §4.3.1):
// candidates = ⋂_i app_filter[i][bloom[i]-1]. An empty bloom, or any index
// absent from app_filter, yields no candidates (spec.md §9 open question a).
func candidateClasses(bloom map[int]int, appFilter map[int][]map[string]bool) map[string]bool {
	if len(bloom) == 0 {
		return nil
	}
	var result map[string]bool
	for idx, need := range bloom {
		slots, ok := appFilter[idx]
		if !ok || need <= 0 {
			return nil
		}
		slot := need - 1
		if slot >= len(slots) {
			slot = len(slots) - 1
		}
		set := slots[slot]
		if result == nil {
			result = make(map[string]bool, len(set))
			for k := range set {
				result[k] = true
			}
			continue
		}
		for k := range result {
			if !set[k] {
				delete(result, k)
			}
		}
		if len(result) == 0 {
			return nil
		}
	}
	return result
}

// Prematch computes per-library-class candidates for every library against
// app, then accepts a library only if its pre-match opcode weight clears
// lib_similar (spec.md §4.3.1): concrete classes with at least one
// candidate contribute their OpcodeCount, interface-only classes with at
// least one candidate (of any MethodCount) contribute
// MethodCount*AbstractMethodWeight,
// summed and divided by the library's total OpcodeCount. A library with no
// concrete classes (IsInterfaceOnly) has no opcode denominator, so it is
// accepted whenever any interface class found a candidate.
func Prematch(libs []*feature.Library, app *feature.Application, cfg Config) []PrematchResult {
	var out []PrematchResult
	for _, lib := range libs {
		candidates := make(map[string]map[string]bool)
		preWeight := 0
		for name, cls := range lib.Classes {
			cand := candidateClasses(cls.Bloom, app.AppFilter)
			if len(cand) == 0 {
				continue
			}
			candidates[name] = cand
			if cls.IsInterfaceOnly {
				preWeight += cls.MethodCount * cfg.AbstractMethodWeight
			} else {
				preWeight += cls.OpcodeCount
			}
		}
		if len(candidates) == 0 {
			continue
		}
		if lib.OpcodeCount == 0 {
			if preWeight == 0 {
				continue
			}
		} else if float64(preWeight)/float64(lib.OpcodeCount) < cfg.LibSimilar {
			continue
		}
		out = append(out, PrematchResult{Library: lib, Candidates: candidates})
	}
	return out
}
