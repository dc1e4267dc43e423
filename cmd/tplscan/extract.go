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

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dilrevx/LibScan/internal/bytecode/disasm"
	"github.com/Dilrevx/LibScan/internal/feature"
)

func newExtractCmd(root *rootOptions) *cobra.Command {
	var input, name, alphabetPath string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract bytecode features from a single artifact and print summary stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if alphabetPath == "" {
				alphabetPath = cfg.OpcodeAlphabetPath
			}

			alphabet, err := loadAlphabetFile(alphabetPath)
			if err != nil {
				return err
			}

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("opening input %s: %w", input, err)
			}
			defer f.Close()

			extractor := feature.NewExtractor(alphabet, cfg.FilterRecordLimit, cfg.MinMethodOpcodeNum, cfg.MaxOpcodeLen)
			lib, stats, err := extractor.ExtractLibrary(name, disasm.New(f))
			if err != nil {
				return fmt.Errorf("extracting %s: %w", input, err)
			}

			slog.Info("extraction complete",
				"name", lib.Name,
				"classes", stats.Classes,
				"methods", stats.Methods,
				"fields", stats.Fields,
				"skipped_mnemonics", stats.SkippedMnemonics,
				"unresolved_invokes", stats.UnresolvedInvokes,
				"opcode_count", lib.OpcodeCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "path to a disasm-format bytecode artifact")
	cmd.Flags().StringVar(&name, "name", "", "name to record the extracted artifact under")
	cmd.Flags().StringVar(&alphabetPath, "alphabet", "", "path to the opcode alphabet file (defaults to the config value)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
