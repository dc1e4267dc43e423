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
)

// CombineVersionTies groups detections by PackageName, the dotted package
// identity every version of the same logical library shares (spec.md §3,
// §4.3.4), and reports the version(s) maximizing the library ratio: ties
// are concatenated into one combined label such as "okio-1.15 and
// okio-1.17" rather than reported as independent libraries.
func CombineVersionTies(results []Result) []Result {
	groups := make(map[string][]Result)
	var order []string
	for _, r := range results {
		key := r.PackageName
		if key == "" {
			key = r.Library
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}
	sort.Strings(order)

	var out []Result
	for _, key := range order {
		group := groups[key]
		best := group[0].Similarity
		for _, r := range group[1:] {
			if r.Similarity > best {
				best = r.Similarity
			}
		}
		var tied []Result
		for _, r := range group {
			if r.Similarity == best {
				tied = append(tied, r)
			}
		}
		if len(tied) == 1 {
			out = append(out, tied[0])
			continue
		}
		names := make([]string, len(tied))
		for i, r := range tied {
			names[i] = r.Library
		}
		sort.Strings(names)
		combined := tied[0]
		combined.Library = strings.Join(names, " and ")
		out = append(out, combined)
	}
	return out
}
