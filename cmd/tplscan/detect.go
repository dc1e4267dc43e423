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
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Dilrevx/LibScan/internal/bytecode/disasm"
	"github.com/Dilrevx/LibScan/internal/config"
	"github.com/Dilrevx/LibScan/internal/depgraph"
	"github.com/Dilrevx/LibScan/internal/feature"
	"github.com/Dilrevx/LibScan/internal/match"
	"github.com/Dilrevx/LibScan/internal/orchestrate"
	"github.com/Dilrevx/LibScan/internal/store"
)

func newDetectCmd(root *rootOptions) *cobra.Command {
	var appPath, libsDir, alphabetPath, outputPath, mode, libPath, appsDir string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect third-party libraries embedded in an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if alphabetPath == "" {
				alphabetPath = cfg.OpcodeAlphabetPath
			}
			if outputPath == "" {
				outputPath = cfg.OutputPath
			}

			alphabet, err := loadAlphabetFile(alphabetPath)
			if err != nil {
				return err
			}
			extractor := feature.NewExtractor(alphabet, cfg.FilterRecordLimit, cfg.MinMethodOpcodeNum, cfg.MaxOpcodeLen)

			if mode == "single-lib" {
				if libPath == "" || appsDir == "" {
					return fmt.Errorf("--mode=single-lib requires --lib and --apps-dir")
				}
				return runSingleLibMode(cmd, extractor, cfg, libPath, appsDir, outputPath)
			}
			if appPath == "" || libsDir == "" {
				return fmt.Errorf("--app and --libs-dir are required unless --mode=single-lib")
			}

			nameMap, err := config.LoadLibraryNameMap(cfg.LibraryNameMapPath)
			if err != nil {
				return err
			}

			libs, err := extractLibraryCorpus(extractor, libsDir, nameMap)
			if err != nil {
				return err
			}

			jar, err := store.OpenMethodJar(cfg.MethodJarPath)
			if err != nil {
				return err
			}
			defer jar.Close()
			owner := depgraph.BuildMethodIndex(libs)
			for canonical, lib := range owner {
				if err := jar.Append(canonical, lib); err != nil {
					return fmt.Errorf("writing method jar: %w", err)
				}
			}
			graph := depgraph.BuildDependencyGraph(libs, owner)

			appFile, err := os.Open(appPath)
			if err != nil {
				return fmt.Errorf("opening application %s: %w", appPath, err)
			}
			defer appFile.Close()
			appName := strings.TrimSuffix(filepath.Base(appPath), filepath.Ext(appPath))
			app, extractStats, err := extractor.ExtractApplication(appName, disasm.New(appFile))
			if err != nil {
				return fmt.Errorf("extracting application %s: %w", appPath, err)
			}

			matchCfg := match.Config{
				MaxPathDepth:         cfg.MaxPathDepth,
				ClassSimilar:         cfg.ClassSimilar,
				LibSimilar:           cfg.LibSimilar,
				AbstractMethodWeight: cfg.AbstractMethodWeight,
			}

			runID := uuid.NewString()
			start := time.Now()
			progress := orchestrate.NewProgress(cmd.ErrOrStderr(), len(libs))
			results, stats, err := orchestrate.RunDependencyAware(cmd.Context(), libs, app, graph, matchCfg, cfg.Workers)
			if err != nil {
				return fmt.Errorf("run %s: %w", runID, err)
			}
			progress.Advance("done")

			report := orchestrate.Report{
				Application:     appName,
				Detections:      results,
				Stats:           stats,
				ExtractionStats: extractStats,
				Elapsed:         time.Since(start),
			}

			outFile, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening output %s: %w", outputPath, err)
			}
			defer outFile.Close()
			if err := orchestrate.WriteReport(outFile, report); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			slog.Info("detect complete",
				"run_id", runID,
				"application", appName,
				"detections", len(results),
				"prematch_rejected", stats.PrematchRejected,
				"coarse_rejected", stats.CoarseRejected,
				"fine_rejected", stats.FineRejected,
				"elapsed", humanize.RelTime(start, time.Now(), "", "elapsed"))
			return nil
		},
	}

	cmd.Flags().StringVar(&appPath, "app", "", "path to the application's disasm-format bytecode artifact")
	cmd.Flags().StringVar(&libsDir, "libs-dir", "", "directory of disasm-format library artifacts, one file per library")
	cmd.Flags().StringVar(&alphabetPath, "alphabet", "", "path to the opcode alphabet file (defaults to the config value)")
	cmd.Flags().StringVar(&outputPath, "output", "", "path to append the detection report to (defaults to the config value)")
	cmd.Flags().StringVar(&mode, "mode", "corpus", "detection mode: corpus (many libraries vs one app) or single-lib (one library vs many apps)")
	cmd.Flags().StringVar(&libPath, "lib", "", "path to a single library's disasm-format bytecode artifact (single-lib mode)")
	cmd.Flags().StringVar(&appsDir, "apps-dir", "", "directory of disasm-format application artifacts (single-lib mode)")
	return cmd
}

// runSingleLibMode implements the search_lib_in_app-style CLI path
// (spec.md §9): one library matched against every application in a
// folder, producing a single aggregate results file.
func runSingleLibMode(cmd *cobra.Command, extractor *feature.Extractor, cfg config.Config, libPath, appsDir, outputPath string) error {
	if outputPath == "" {
		outputPath = cfg.OutputPath
	}

	libFile, err := os.Open(libPath)
	if err != nil {
		return fmt.Errorf("opening library %s: %w", libPath, err)
	}
	defer libFile.Close()
	libName := strings.TrimSuffix(filepath.Base(libPath), filepath.Ext(libPath))
	lib, _, err := extractor.ExtractLibrary(libName, disasm.New(libFile))
	if err != nil {
		return fmt.Errorf("extracting library %s: %w", libPath, err)
	}

	entries, err := os.ReadDir(appsDir)
	if err != nil {
		return fmt.Errorf("reading applications directory %s: %w", appsDir, err)
	}
	apps := make([]*feature.Application, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(appsDir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			slog.Warn("skipping application", "file", path, "error", err)
			continue
		}
		appName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		app, _, err := extractor.ExtractApplication(appName, disasm.New(f))
		f.Close()
		if err != nil {
			slog.Warn("skipping application", "file", path, "error", err)
			continue
		}
		apps = append(apps, app)
	}

	matchCfg := match.Config{
		MaxPathDepth:         cfg.MaxPathDepth,
		ClassSimilar:         cfg.ClassSimilar,
		LibSimilar:           cfg.LibSimilar,
		AbstractMethodWeight: cfg.AbstractMethodWeight,
	}
	results, err := orchestrate.DetectSingleLibrary(cmd.Context(), lib, apps, matchCfg, cfg.Workers)
	if err != nil {
		return fmt.Errorf("single-lib detection: %w", err)
	}

	outFile, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening output %s: %w", outputPath, err)
	}
	defer outFile.Close()
	if err := orchestrate.WriteSingleLibraryReport(outFile, libName, results); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	detected := 0
	for _, r := range results {
		if r.Detected {
			detected++
		}
	}
	slog.Info("single-lib detect complete",
		"library", libName,
		"applications", len(apps),
		"detected_in", detected)
	return nil
}

func loadAlphabetFile(path string) (*feature.Alphabet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening opcode alphabet %s: %w", path, err)
	}
	defer f.Close()
	return feature.LoadAlphabet(f)
}

// extractLibraryCorpus extracts every disasm-format file in dir into a
// feature.Library named after its filename stem, resolving each library's
// PackageName through nameMap so CombineVersionTies can group versions of
// the same logical library (spec.md §3, §4.3.4).
func extractLibraryCorpus(extractor *feature.Extractor, dir string, nameMap map[string]string) ([]*feature.Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading library corpus %s: %w", dir, err)
	}

	cache := store.NewLibraryCache()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		libName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		path := filepath.Join(dir, entry.Name())
		f, err := os.Open(path)
		if err != nil {
			slog.Warn("skipping library", "file", path, "error", err)
			continue
		}
		lib, _, err := extractor.ExtractLibrary(libName, disasm.New(f))
		f.Close()
		if err != nil {
			slog.Warn("skipping library", "file", path, "error", err)
			continue
		}
		lib.PackageName = config.ResolveLibraryName(lib.Name, nameMap)
		cache.Put(lib)
	}

	libs := cache.All()
	sort.Slice(libs, func(i, j int) bool { return libs[i].Name < libs[j].Name })
	return libs, nil
}
