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

// Package config loads tplscan.yaml and exposes the defaults spec.md §6
// names for every tunable of the extractor, matcher, and orchestrator.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables read from tplscan.yaml. The CLI
// overrides Workers (--workers), and the detect/extract commands override
// OpcodeAlphabetPath (--alphabet) and, for detect, OutputPath (--output);
// the other fields have no flag.
type Config struct {
	FilterRecordLimit    int     `yaml:"filter_record_limit"`
	ClassSimilar         float64 `yaml:"class_similar"`
	LibSimilar           float64 `yaml:"lib_similar"`
	MinMethodOpcodeNum   int     `yaml:"min_method_opcode_num"`
	MaxOpcodeLen         int     `yaml:"max_opcode_len"`
	AbstractMethodWeight int     `yaml:"abstract_method_weight"`
	MaxPathDepth         int     `yaml:"max_path_depth"`
	Workers              int     `yaml:"workers"`
	OpcodeAlphabetPath   string  `yaml:"opcode_alphabet_path"`
	MethodJarPath        string  `yaml:"method_jar_path"`
	LibraryNameMapPath   string  `yaml:"library_name_map_path"`
	OutputPath           string  `yaml:"output_path"`
}

// Default returns the configuration defaults from spec.md §6.
func Default() Config {
	return Config{
		FilterRecordLimit:    10,
		ClassSimilar:         0.85,
		LibSimilar:           0.85,
		MinMethodOpcodeNum:   3,
		MaxOpcodeLen:         10000,
		AbstractMethodWeight: 3,
		MaxPathDepth:         20,
		Workers:              runtime.NumCPU(),
		OpcodeAlphabetPath:   "opcodes_encoding.txt",
		MethodJarPath:        "methodes_jar.txt",
		LibraryNameMapPath:   "lib_name_map.csv",
		OutputPath:           "result.txt",
	}
}

// Load reads and merges a tplscan.yaml file over Default(). A missing file
// is not an error: the caller gets the defaults untouched, matching
// spec.md §7's policy that absent optional configuration falls back
// silently rather than aborting the run.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
