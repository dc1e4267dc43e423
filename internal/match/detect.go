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

// Config bounds the matcher's behavior. The zero Config is not usable;
// callers should start from DefaultConfig (spec.md §6).
type Config struct {
	// MaxPathDepth caps inter-procedural path reconstruction, preventing
	// runaway expansion through deeply nested call chains.
	MaxPathDepth int
	// ClassSimilar is the minimum fraction of an application class's
	// opcode count a coarse class pairing's matched methods must cover
	// (spec.md §6, class_similar).
	ClassSimilar float64
	// LibSimilar is the minimum fraction of a library's opcode count its
	// matched evidence must cover at pre-match, coarse, and (for
	// non-interface-only libraries) fine stages (spec.md §6, lib_similar).
	LibSimilar float64
	// AbstractMethodWeight is the per-method opcode-count surrogate used
	// when weighing interface-only classes, which have no opcode bodies
	// of their own (spec.md §6, abstract_method_weight).
	AbstractMethodWeight int
}

// DefaultConfig returns the matcher defaults (spec.md §6).
func DefaultConfig() Config {
	return Config{
		MaxPathDepth:         20,
		ClassSimilar:         0.85,
		LibSimilar:           0.85,
		AbstractMethodWeight: 3,
	}
}

// Detect runs the full pre-match, coarse-match, fine-match pipeline for
// every candidate library against one application and returns the
// libraries whose fine similarity clears their MinLibMatch, with version
// ties of the same logical package combined (spec.md §4.3, Matcher).
func Detect(libs []*feature.Library, app *feature.Application, cfg Config) []Result {
	candidates := Prematch(libs, app, cfg)

	var results []Result
	for _, c := range candidates {
		pairs := CoarseMatch(c.Library, app, c.Candidates, cfg)
		if len(pairs) == 0 || !CoarseLibraryAccepts(c.Library, pairs, cfg) {
			continue
		}
		result := FineMatch(c.Library, app, pairs, cfg, nil)
		if result.Similarity >= result.MinLibMatch {
			results = append(results, result)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Library < results[j].Library })
	return CombineVersionTies(results)
}
