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
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Dilrevx/LibScan/internal/feature"
	"github.com/Dilrevx/LibScan/internal/match"
)

// SingleLibResult is one application's outcome when matching a single
// library across a folder of applications (spec.md §9, search_lib_in_app).
type SingleLibResult struct {
	Application string
	Detected    bool
	Result      match.Result
}

// DetectSingleLibrary matches one library against every application in
// apps concurrently, workers at a time. Unlike RunDependencyAware there is
// no dependency graph to respect: every application is independent, so the
// work is a plain bounded fan-out rather than a queue drained in
// dependency order.
func DetectSingleLibrary(ctx context.Context, lib *feature.Library, apps []*feature.Application, cfg match.Config, workers int) ([]SingleLibResult, error) {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan *feature.Application)
	results := make([]SingleLibResult, 0, len(apps))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case app, ok := <-jobs:
					if !ok {
						return nil
					}
					result, rejectedAt := detectOne(lib, app, cfg, nil)
					entry := SingleLibResult{Application: app.Name}
					if rejectedAt == stageNone {
						entry.Detected = true
						entry.Result = *result
					}
					mu.Lock()
					results = append(results, entry)
					mu.Unlock()
				}
			}
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for _, app := range apps {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case jobs <- app:
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Application < results[j].Application })
	return results, nil
}

// WriteSingleLibraryReport writes one aggregate results file for a
// single-library-against-many-applications run, in the style of
// search_lib_in_app's combined output: every application that matched,
// followed by its similarity.
func WriteSingleLibraryReport(w io.Writer, libraryName string, results []SingleLibResult) error {
	if _, err := fmt.Fprintf(w, "lib: %s\n", libraryName); err != nil {
		return err
	}
	for _, r := range results {
		if !r.Detected {
			continue
		}
		if _, err := fmt.Fprintf(w, "app: %s\n", r.Application); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "similarity: %.4f\n", r.Result.Similarity); err != nil {
			return err
		}
	}
	return nil
}
