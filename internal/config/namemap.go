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

package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// LoadLibraryNameMap reads a two-column CSV (archive name, dotted package
// name) mapping the names library archives are keyed by internally to the
// logical package identity version resolution groups on (spec.md §3,
// §6, lib_name_map.csv). A missing file yields an empty map rather than an
// error.
func LoadLibraryNameMap(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading library name map %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	out := make(map[string]string)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("config: parsing library name map %s: %w", path, err)
		}
		out[record[0]] = record[1]
	}
	return out, nil
}

// ResolveLibraryName returns the dotted package name for an archive name,
// or the archive name unchanged if it has no entry in nameMap. This is the
// grouping key CombineVersionTies uses to treat different versions of the
// same logical library as the same package (spec.md §3, §4.3.4).
func ResolveLibraryName(archiveName string, nameMap map[string]string) string {
	if pkg, ok := nameMap[archiveName]; ok {
		return pkg
	}
	return archiveName
}
