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
	"testing"

	"github.com/Dilrevx/LibScan/internal/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFineMatchBindsClassesAndScores(t *testing.T) {
	lib := feature.NewLibrary("sample")
	lm1 := newMethod("a.A.f()V", "a.A", "shared-f", false, nil, "V", []int{1, 2})
	lm2 := newMethod("a.A.g()V", "a.A", "shared-g", false, nil, "V", []int{3, 4})
	lcls := newClass("a.A", nil, lm1, lm2)
	lib.Classes["a.A"] = lcls
	lib.MethodIndex[lm1.CanonicalName] = lm1
	lib.MethodIndex[lm2.CanonicalName] = lm2
	lib.OpcodeCount = lcls.OpcodeCount

	app := feature.NewApplication("app")
	am1 := newMethod("x.Y.f()V", "x.Y", "shared-f", false, nil, "V", []int{1, 2})
	am2 := newMethod("x.Y.g()V", "x.Y", "shared-g", false, nil, "V", []int{3, 4})
	app.MethodIndex[am1.CanonicalName] = am1
	app.MethodIndex[am2.CanonicalName] = am2

	pairs := []ClassPair{{
		LibraryClass: "a.A",
		AppClass:     "x.Y",
		Matched:      map[string]string{lm1.CanonicalName: am1.CanonicalName, lm2.CanonicalName: am2.CanonicalName},
		ExactDigest:  map[string]bool{lm1.CanonicalName: true, lm2.CanonicalName: true},
		OpcodeSum:    4,
	}}

	result := FineMatch(lib, app, pairs, DefaultConfig(), nil)
	assert.Equal(t, "sample", result.Library)
	assert.Equal(t, 1.0, result.Similarity)
	require.Len(t, result.Bindings, 1)
	assert.Equal(t, "a.A", result.Bindings[0].LibraryClass)
	assert.Equal(t, "x.Y", result.Bindings[0].AppClass)
	assert.Equal(t, 4, result.Bindings[0].MatchOpcodes)
}

func TestFineMatchRejectsWhenOpcodeSetNotContained(t *testing.T) {
	lib := feature.NewLibrary("sample")
	lm := newMethod("a.A.f()V", "a.A", "lib-f", false, nil, "V", []int{1, 2, 3})
	lcls := newClass("a.A", nil, lm)
	lib.Classes["a.A"] = lcls
	lib.MethodIndex[lm.CanonicalName] = lm
	lib.OpcodeCount = lcls.OpcodeCount

	app := feature.NewApplication("app")
	// Digest differs (forces the expansion path) and opcode 3 never
	// appears on the app side, so containment must fail.
	am := newMethod("x.Y.f()V", "x.Y", "app-f", false, nil, "V", []int{1, 2})
	app.MethodIndex[am.CanonicalName] = am

	pairs := []ClassPair{{
		LibraryClass: "a.A",
		AppClass:     "x.Y",
		Matched:      map[string]string{lm.CanonicalName: am.CanonicalName},
		ExactDigest:  map[string]bool{lm.CanonicalName: false},
	}}
	result := FineMatch(lib, app, pairs, DefaultConfig(), nil)
	assert.Zero(t, result.Similarity)
	assert.Empty(t, result.Bindings)
}

func TestFineMatchArgmaxTieBreaksOnPathLength(t *testing.T) {
	lib := feature.NewLibrary("sample")
	lm := newMethod("a.A.f()V", "a.A", "lib-f", false, nil, "V", []int{1, 2})
	lcls := newClass("a.A", nil, lm)
	lib.Classes["a.A"] = lcls
	lib.MethodIndex[lm.CanonicalName] = lm
	lib.OpcodeCount = lcls.OpcodeCount

	app := feature.NewApplication("app")
	closeMatch := newMethod("x.Y.f()V", "x.Y", "close", false, nil, "V", []int{1, 2})
	farMatch := newMethod("x.Z.f()V", "x.Z", "far", false, nil, "V", []int{1, 2, 9, 9, 9})
	app.MethodIndex[closeMatch.CanonicalName] = closeMatch
	app.MethodIndex[farMatch.CanonicalName] = farMatch

	pairs := []ClassPair{
		{
			LibraryClass: "a.A",
			AppClass:     "x.Y",
			Matched:      map[string]string{lm.CanonicalName: closeMatch.CanonicalName},
			ExactDigest:  map[string]bool{lm.CanonicalName: false},
		},
		{
			LibraryClass: "a.A",
			AppClass:     "x.Z",
			Matched:      map[string]string{lm.CanonicalName: farMatch.CanonicalName},
			ExactDigest:  map[string]bool{lm.CanonicalName: false},
		},
	}
	result := FineMatch(lib, app, pairs, DefaultConfig(), nil)
	require.Len(t, result.Bindings, 1)
	// Both candidates confirm the same match_opcodes; the path-length-diff
	// tie-break must prefer the closer candidate.
	assert.Equal(t, "x.Y", result.Bindings[0].AppClass)
}

func TestFineMatchInterfaceOnlyRequiresFullCoverage(t *testing.T) {
	lib := feature.NewLibrary("sample")
	iface := interfaceClass("a.Callback", nil, 2)
	lib.Classes["a.Callback"] = iface
	lib.IsInterfaceOnly = true

	pairs := []ClassPair{{LibraryClass: "a.Callback", AppClass: "x.Listener", Interface: true}}
	cfg := DefaultConfig()
	result := FineMatch(lib, feature.NewApplication("app"), pairs, cfg, nil)
	assert.Equal(t, 1.0, result.MinLibMatch)
	assert.Equal(t, 1.0, result.Similarity)
}

func TestFineMatchUsesExternalDependencyMethods(t *testing.T) {
	lib := feature.NewLibrary("sample")
	lm := &feature.Method{
		CanonicalName: "a.A.f()V",
		Owner:         "a.A",
		ReturnType:    "V",
		Nodes:         []feature.MethodNode{{Opcodes: []int{1}, Callee: "b.B.h()V"}, {}},
		OpcodeCount:   1,
		Digest:        fakeDigest("lib-f"),
	}
	lcls := newClass("a.A", nil, lm)
	lib.Classes["a.A"] = lcls
	lib.MethodIndex[lm.CanonicalName] = lm
	lib.OpcodeCount = lcls.OpcodeCount

	app := feature.NewApplication("app")
	am := &feature.Method{
		CanonicalName: "x.Y.f()V",
		Owner:         "x.Y",
		ReturnType:    "V",
		Nodes:         []feature.MethodNode{{Opcodes: []int{1, 5, 6}}},
		OpcodeCount:   3,
		Digest:        fakeDigest("app-f"),
	}
	app.MethodIndex[am.CanonicalName] = am

	dep := &feature.Method{
		CanonicalName: "b.B.h()V",
		Nodes:         []feature.MethodNode{{Opcodes: []int{5, 6}}},
		OpcodeCount:   2,
	}
	external := map[string]*feature.Method{"b.B.h()V": dep}

	pairs := []ClassPair{{
		LibraryClass: "a.A",
		AppClass:     "x.Y",
		Matched:      map[string]string{lm.CanonicalName: am.CanonicalName},
		ExactDigest:  map[string]bool{lm.CanonicalName: false},
	}}
	result := FineMatch(lib, app, pairs, DefaultConfig(), external)
	require.Len(t, result.Bindings, 1, "inlining the dependency's method exposes opcodes 5,6 the app method already contains")
	assert.Equal(t, 1.0, result.Similarity)
}
