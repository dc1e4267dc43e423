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

package orchestrate

import (
	"fmt"
	"io"
	"time"

	"github.com/Dilrevx/LibScan/internal/feature"
	"github.com/Dilrevx/LibScan/internal/match"
)

// Report summarizes one application's scan: every confirmed detection,
// per-stage rejection counts, and the extraction statistics for the
// application itself (spec.md §4.4, Orchestrator Report addition).
type Report struct {
	Application     string
	Detections      []match.Result
	Stats           Stats
	ExtractionStats feature.Stats
	Elapsed         time.Duration
}

// WriteReport appends report's detections to w using the output file
// format spec.md §6 defines: one "lib: / similarity:" block per detected
// library followed by a blank line, in the order they appear in
// report.Detections, then a single trailing "time:" line.
func WriteReport(w io.Writer, report Report) error {
	for _, d := range report.Detections {
		if _, err := fmt.Fprintf(w, "lib: %s\n", d.Library); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "similarity: %.4f\n\n", d.Similarity); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "time: %s\n", report.Elapsed)
	return err
}
