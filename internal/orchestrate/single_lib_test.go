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
	"bytes"
	"context"
	"testing"

	"github.com/Dilrevx/LibScan/internal/feature"
	"github.com/Dilrevx/LibScan/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSingleLibraryAcrossApps(t *testing.T) {
	lib := feature.NewLibrary("okhttp")
	pm := methodOwnedFor("p.P", "p.P.f()V", []int{1, 2})
	pcls := singleMethodClass("p.P", map[int]int{1: 1}, pm)
	lib.Classes["p.P"] = pcls
	lib.MethodIndex["p.P.f()V"] = pm
	lib.OpcodeCount = pcls.OpcodeCount

	hit := feature.NewApplication("hit")
	hm := methodOwnedFor("app.A", "app.A.f()V", []int{1, 2})
	hcls := singleMethodClass("app.A", map[int]int{1: 5}, hm)
	hit.Classes["app.A"] = hcls
	hit.MethodIndex["app.A.f()V"] = hm
	hit.AppFilter = feature.BuildAppFilter(hit.Classes, 10)

	miss := feature.NewApplication("miss")
	mm := methodOwnedFor("app.B", "app.B.g()V", []int{9, 9})
	mcls := singleMethodClass("app.B", nil, mm)
	miss.Classes["app.B"] = mcls
	miss.MethodIndex["app.B.g()V"] = mm
	miss.AppFilter = feature.BuildAppFilter(miss.Classes, 10)

	results, err := DetectSingleLibrary(context.Background(), lib, []*feature.Application{hit, miss}, match.DefaultConfig(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "hit", results[0].Application)
	assert.True(t, results[0].Detected)
	assert.Equal(t, "miss", results[1].Application)
	assert.False(t, results[1].Detected)

	var buf bytes.Buffer
	require.NoError(t, WriteSingleLibraryReport(&buf, "okhttp", results))
	assert.Contains(t, buf.String(), "lib: okhttp\n")
	assert.Contains(t, buf.String(), "app: hit\n")
	assert.NotContains(t, buf.String(), "app: miss\n")
}

func TestDetectSingleLibraryNoApps(t *testing.T) {
	lib := feature.NewLibrary("empty")
	results, err := DetectSingleLibrary(context.Background(), lib, nil, match.DefaultConfig(), 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
