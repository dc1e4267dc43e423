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

package store

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodJarRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "methodes_jar.txt")
	jar, err := OpenMethodJar(path)
	require.NoError(t, err)

	require.NoError(t, jar.Append("a.A.f()V", "libA"))
	require.NoError(t, jar.Append("b.B.g()V", "libB"))
	require.NoError(t, jar.Close())

	got, err := ReadMethodJar(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.A.f()V": "libA", "b.B.g()V": "libB"}, got)
}

func TestMethodJarTruncatesOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "methodes_jar.txt")
	jar, err := OpenMethodJar(path)
	require.NoError(t, err)
	require.NoError(t, jar.Append("a.A.f()V", "libA"))
	require.NoError(t, jar.Close())

	jar2, err := OpenMethodJar(path)
	require.NoError(t, err)
	require.NoError(t, jar2.Close())

	got, err := ReadMethodJar(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMethodJarConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "methodes_jar.txt")
	jar, err := OpenMethodJar(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = jar.Append("m", "lib")
		}(i)
	}
	wg.Wait()
	require.NoError(t, jar.Close())

	got, err := ReadMethodJar(path)
	require.NoError(t, err)
	assert.Len(t, got, 1) // same key written 50 times
}

func TestReadMethodJarMissingFile(t *testing.T) {
	got, err := ReadMethodJar(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
