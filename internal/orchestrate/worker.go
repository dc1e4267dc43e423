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
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dilrevx/LibScan/internal/depgraph"
	"github.com/Dilrevx/LibScan/internal/feature"
	"github.com/Dilrevx/LibScan/internal/match"
)

// retryBackoff is how long a worker sleeps after Queue.Next reports
// StatusRetry, so a pool of idle workers doesn't spin on the queue mutex
// waiting for an in-flight dependency to finish.
const retryBackoff = 2 * time.Millisecond

// detectionState tracks which libraries have already been positively
// detected, so later libraries in dependency order can fold their methods
// in as external call targets (spec.md §4.3.5, dependency-aware inlining).
type detectionState struct {
	mu       sync.Mutex
	positive map[string]*feature.Library
}

func newDetectionState() *detectionState {
	return &detectionState{positive: make(map[string]*feature.Library)}
}

func (s *detectionState) record(lib *feature.Library) {
	s.mu.Lock()
	s.positive[lib.Name] = lib
	s.mu.Unlock()
}

// externalMethods builds the method view FineMatch should treat as reachable
// beyond lib's own body: the MethodIndex of every dependency of lib that is
// outside any cycle and has already been positively detected. Cyclic
// dependencies are excluded because spec.md §4.2/§9(c) detects cyclic groups
// independently rather than ordering them, so "already detected" has no
// meaning within a cycle.
func (s *detectionState) externalMethods(lib string, graph *depgraph.Graph, cyclic map[string]bool) map[string]*feature.Method {
	s.mu.Lock()
	defer s.mu.Unlock()

	var external map[string]*feature.Method
	for _, dep := range graph.Dependencies(lib) {
		if cyclic[dep] {
			continue
		}
		depLib, ok := s.positive[dep]
		if !ok {
			continue
		}
		if external == nil {
			external = make(map[string]*feature.Method)
		}
		for name, m := range depLib.MethodIndex {
			external[name] = m
		}
	}
	return external
}

// RunDependencyAware matches every library in libs against app, processing
// a library only once its non-cyclic dependencies have already been
// attempted, fanned out across workers concurrent goroutines
// (spec.md §5). It returns the confirmed detections plus per-stage
// rejection counts for the run's Report.
func RunDependencyAware(ctx context.Context, libs []*feature.Library, app *feature.Application, graph *depgraph.Graph, cfg match.Config, workers int) ([]match.Result, Stats, error) {
	byName := make(map[string]*feature.Library, len(libs))
	names := make([]string, 0, len(libs))
	for _, lib := range libs {
		byName[lib.Name] = lib
		names = append(names, lib.Name)
	}
	queue := NewQueue(graph, names)
	state := newDetectionState()

	cyclic := make(map[string]bool)
	for _, n := range graph.CyclicLibraries() {
		cyclic[n] = true
	}

	var mu sync.Mutex
	var results []match.Result
	var stats Stats

	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				name, status := queue.Next()
				switch status {
				case StatusDone:
					return nil
				case StatusRetry:
					time.Sleep(retryBackoff)
					continue
				}

				lib := byName[name]
				external := state.externalMethods(name, graph, cyclic)
				result, rejectedAt := detectOne(lib, app, cfg, external)
				if rejectedAt == stageNone {
					state.record(lib)
				}
				queue.Done(name)

				mu.Lock()
				switch rejectedAt {
				case stagePrematch:
					stats.PrematchRejected++
				case stageCoarse:
					stats.CoarseRejected++
				case stageFine:
					stats.FineRejected++
				case stageNone:
					results = append(results, *result)
				}
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Library < results[j].Library })
	return match.CombineVersionTies(results), stats, nil
}

type rejectionStage int

const (
	stageNone rejectionStage = iota
	stagePrematch
	stageCoarse
	stageFine
)

// Stats counts how many libraries fell out at each matcher stage during a
// dependency-aware run (spec.md §4.4, Orchestrator Report addition).
type Stats struct {
	PrematchRejected int
	CoarseRejected   int
	FineRejected     int
}

// detectOne runs the pre-match, coarse-match, and fine-match stages for one
// library against app. external augments the library's fine-match method
// view with already-detected non-cyclic dependencies' methods (spec.md
// §4.3.5); pass nil when no such augmentation applies (single-library mode).
func detectOne(lib *feature.Library, app *feature.Application, cfg match.Config, external map[string]*feature.Method) (*match.Result, rejectionStage) {
	pre := match.Prematch([]*feature.Library{lib}, app, cfg)
	if len(pre) == 0 {
		return nil, stagePrematch
	}

	pairs := match.CoarseMatch(lib, app, pre[0].Candidates, cfg)
	if len(pairs) == 0 || !match.CoarseLibraryAccepts(lib, pairs, cfg) {
		return nil, stageCoarse
	}

	result := match.FineMatch(lib, app, pairs, cfg, external)
	if result.Similarity < result.MinLibMatch {
		return nil, stageFine
	}
	return &result, stageNone
}
