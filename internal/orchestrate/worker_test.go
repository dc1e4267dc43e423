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
	"testing"

	"github.com/Dilrevx/LibScan/internal/depgraph"
	"github.com/Dilrevx/LibScan/internal/feature"
	"github.com/Dilrevx/LibScan/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// methodOwnedFor builds a minimal eligible method with a single closing
// node carrying opcodes, no invoke targets.
func methodOwnedFor(owner, canonical string, opcodes []int) *feature.Method {
	return &feature.Method{
		CanonicalName: canonical,
		Owner:         owner,
		ReturnType:    "V",
		Nodes:         []feature.MethodNode{{Opcodes: opcodes}},
		OpcodeCount:   len(opcodes),
	}
}

// singleMethodClass builds a concrete class with exactly one eligible
// method, deriving MethodCount and OpcodeCount from it.
func singleMethodClass(name string, bloom map[int]int, m *feature.Method) *feature.Class {
	return &feature.Class{
		Name:        name,
		MethodCount: 1,
		OpcodeCount: m.OpcodeCount,
		Bloom:       bloom,
		Methods:     map[string]*feature.Method{m.CanonicalName: m},
	}
}

func TestRunDependencyAwareDetectsAndCounts(t *testing.T) {
	present := feature.NewLibrary("present")
	pm := methodOwnedFor("p.P", "p.P.f()V", []int{1, 2})
	pcls := singleMethodClass("p.P", map[int]int{1: 1}, pm)
	present.Classes["p.P"] = pcls
	present.MethodIndex["p.P.f()V"] = pm
	present.OpcodeCount = pcls.OpcodeCount

	absent := feature.NewLibrary("absent")
	qm := methodOwnedFor("q.Q", "q.Q.f()V", []int{1, 2})
	qcls := singleMethodClass("q.Q", map[int]int{2: 100}, qm)
	absent.Classes["q.Q"] = qcls
	absent.MethodIndex["q.Q.f()V"] = qm
	absent.OpcodeCount = qcls.OpcodeCount

	app := feature.NewApplication("app")
	am := methodOwnedFor("app.A", "app.A.f()V", []int{1, 2})
	acls := singleMethodClass("app.A", map[int]int{1: 5}, am)
	app.Classes["app.A"] = acls
	app.MethodIndex["app.A.f()V"] = am
	app.AppFilter = feature.BuildAppFilter(app.Classes, 10)

	graph := depgraph.NewGraph()
	graph.AddNode("present")
	graph.AddNode("absent")

	results, stats, err := RunDependencyAware(context.Background(), []*feature.Library{present, absent}, app, graph, match.DefaultConfig(), 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "present", results[0].Library)
	assert.Equal(t, 1, stats.PrematchRejected)
}

func TestRunDependencyAwareEmptyCorpus(t *testing.T) {
	app := feature.NewApplication("app")
	graph := depgraph.NewGraph()
	results, _, err := RunDependencyAware(context.Background(), nil, app, graph, match.DefaultConfig(), 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}
