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

// Package orchestrate schedules library detection across a worker pool in
// dependency order, so that a library is only attempted once every
// non-cyclic library it calls into has already been resolved (spec.md §5,
// Concurrency model).
package orchestrate

import (
	"sync"

	"github.com/Dilrevx/LibScan/internal/depgraph"
)

// Status reports what Queue.Next found.
type Status int

const (
	// StatusReady means name holds a library whose dependencies are all
	// finished and is safe to detect now.
	StatusReady Status = iota
	// StatusRetry means every remaining pending library is still waiting
	// on an unfinished dependency; the caller should back off briefly and
	// call Next again.
	StatusRetry
	// StatusDone means nothing remains pending.
	StatusDone
)

// Queue hands out library names to workers one at a time, gating each on
// its non-cyclic dependencies. A dependency that lies inside a dependency
// cycle never gates anything; a library's non-cyclic dependencies gate it
// whether or not the library is itself cyclic. spec.md §4.2/§9(c) resolves cyclic groups
// by detecting them independently rather than trying to impose an order
// that cannot exist. A library suspended behind an in-flight dependency is
// re-enqueued to the tail rather than blocked on a condition variable:
// spec.md §5/§9 state dependency suspension is re-enqueueing and that no
// blocking primitive is required.
type Queue struct {
	mu       sync.Mutex
	graph    *depgraph.Graph
	cyclic   map[string]bool
	pending  []string
	finished map[string]bool
}

// NewQueue builds a Queue over libraries, computing the cyclic exemption
// set from graph once up front.
func NewQueue(graph *depgraph.Graph, libraries []string) *Queue {
	cyclic := make(map[string]bool)
	for _, n := range graph.CyclicLibraries() {
		cyclic[n] = true
	}
	return &Queue{
		graph:    graph,
		cyclic:   cyclic,
		pending:  append([]string(nil), libraries...),
		finished: make(map[string]bool),
	}
}

func (q *Queue) ready(name string) bool {
	for _, dep := range q.graph.Dependencies(name) {
		if q.cyclic[dep] {
			continue
		}
		if !q.finished[dep] {
			return false
		}
	}
	return true
}

// Next pops the next library whose dependencies have all finished. Any
// pending library it passes over because a dependency is still in flight
// is re-enqueued to the tail, so a full pass over pending that finds no
// ready library returns StatusRetry instead of blocking.
func (q *Queue) Next() (string, Status) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pending)
	if n == 0 {
		return "", StatusDone
	}
	for i := 0; i < n; i++ {
		name := q.pending[0]
		q.pending = q.pending[1:]
		if q.ready(name) {
			return name, StatusReady
		}
		q.pending = append(q.pending, name)
	}
	return "", StatusRetry
}

// Done marks name finished, unblocking any pending library whose
// dependencies now all resolve.
func (q *Queue) Done(name string) {
	q.mu.Lock()
	q.finished[name] = true
	q.mu.Unlock()
}
