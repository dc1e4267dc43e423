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
	"sync"

	"github.com/Dilrevx/LibScan/internal/feature"
)

// LibraryCache holds every extracted library for the lifetime of one run,
// so that scanning many applications against the same corpus only pays the
// extraction cost once per library (spec.md §4.1, "library records are
// extracted once and reused"). One mutex guards the whole map; lookups and
// inserts are O(1) under lock, never holding it across extraction work.
type LibraryCache struct {
	mu   sync.RWMutex
	libs map[string]*feature.Library
}

// NewLibraryCache returns an empty cache.
func NewLibraryCache() *LibraryCache {
	return &LibraryCache{libs: make(map[string]*feature.Library)}
}

// Get returns the cached library by name, if present.
func (c *LibraryCache) Get(name string) (*feature.Library, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lib, ok := c.libs[name]
	return lib, ok
}

// Put stores lib under its own name, overwriting any prior entry.
func (c *LibraryCache) Put(lib *feature.Library) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.libs[lib.Name] = lib
}

// All returns every cached library. The returned slice is a snapshot; it
// does not alias the cache's internal storage.
func (c *LibraryCache) All() []*feature.Library {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*feature.Library, 0, len(c.libs))
	for _, lib := range c.libs {
		out = append(out, lib)
	}
	return out
}

// Len reports how many libraries are cached.
func (c *LibraryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.libs)
}
