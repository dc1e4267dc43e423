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

package feature

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Alphabet maps opcode mnemonics to their small integer code, shared by the
// library corpus and every application (spec.md §3, "Opcode alphabet").
type Alphabet struct {
	codes map[string]int
}

// LoadAlphabet parses "mnemonic:code" lines, one per line, blank lines
// ignored. An unknown or malformed line is a configuration error (§7,
// fatal).
func LoadAlphabet(r io.Reader) (*Alphabet, error) {
	a := &Alphabet{codes: make(map[string]int)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx == -1 {
			return nil, fmt.Errorf("opcode alphabet: line %d: missing ':' in %q", lineNo, line)
		}
		mnemonic := line[:idx]
		code, err := strconv.Atoi(line[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("opcode alphabet: line %d: bad code: %w", lineNo, err)
		}
		a.codes[mnemonic] = code
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

// Code returns the integer code for a filtered mnemonic. The bool is false
// for a mnemonic outside the configured alphabet, which is a fatal
// configuration error at the call site (§7d).
func (a *Alphabet) Code(mnemonic string) (int, bool) {
	c, ok := a.codes[mnemonic]
	return c, ok
}

// FilterMnemonic applies the filter rules from spec.md §4.1: move-family and
// nop are dropped (ok=false), "/variant" suffixes are stripped, and
// "*-payload" mnemonics collapse to their prefix.
func FilterMnemonic(raw string) (mnemonic string, ok bool) {
	m := raw
	if i := strings.IndexByte(m, '/'); i != -1 {
		m = m[:i]
	}
	if strings.HasSuffix(m, "-payload") {
		m = strings.TrimSuffix(m, "-payload")
	}
	if m == "nop" || strings.HasPrefix(m, "move") {
		return "", false
	}
	return m, true
}
