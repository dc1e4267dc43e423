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

package disasm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Dilrevx/LibScan/internal/bytecode"
)

// Provider reads the disasm text format from an io.Reader.
type Provider struct {
	r io.Reader
}

// New returns a bytecode.Provider backed by r.
func New(r io.Reader) *Provider {
	return &Provider{r: r}
}

func invokeMnemonic(m string) bool {
	base := m
	if i := strings.IndexByte(base, '/'); i != -1 {
		base = base[:i]
	}
	return strings.HasPrefix(base, "invoke-")
}

// Classes implements bytecode.Provider.
func (p *Provider) Classes() ([]bytecode.Class, error) {
	scanner := bufio.NewScanner(p.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var classes []bytecode.Class
	var cur *bytecode.Class
	var method *bytecode.Method
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(trimmed, ".class "):
			if cur != nil {
				return nil, fmt.Errorf("disasm: line %d: nested .class", lineNo)
			}
			c, err := parseClassDirective(trimmed)
			if err != nil {
				return nil, fmt.Errorf("disasm: line %d: %w", lineNo, err)
			}
			cur = c
		case trimmed == ".end class":
			if cur == nil {
				return nil, fmt.Errorf("disasm: line %d: .end class without .class", lineNo)
			}
			classes = append(classes, *cur)
			cur = nil
		case strings.HasPrefix(trimmed, ".super "):
			if cur == nil {
				return nil, fmt.Errorf("disasm: line %d: .super outside .class", lineNo)
			}
			super := strings.TrimSpace(strings.TrimPrefix(trimmed, ".super "))
			cur.NonObjectSuper = bytecode.DottedClassName(super) != "java.lang.Object"
		case strings.HasPrefix(trimmed, ".field "):
			if cur == nil {
				return nil, fmt.Errorf("disasm: line %d: .field outside .class", lineNo)
			}
			cur.Fields = append(cur.Fields, parseFieldDirective(trimmed))
		case strings.HasPrefix(trimmed, ".method "):
			if cur == nil {
				return nil, fmt.Errorf("disasm: line %d: .method outside .class", lineNo)
			}
			m, err := parseMethodDirective(trimmed)
			if err != nil {
				return nil, fmt.Errorf("disasm: line %d: %w", lineNo, err)
			}
			method = m
		case trimmed == ".end method":
			if cur == nil || method == nil {
				return nil, fmt.Errorf("disasm: line %d: .end method without .method", lineNo)
			}
			cur.Methods = append(cur.Methods, *method)
			method = nil
		default:
			if method == nil || !looksLikeInstruction(raw) {
				continue
			}
			inst := parseInstructionLine(strings.TrimSpace(raw))
			method.Instructions = append(method.Instructions, inst)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("disasm: unterminated .class %q", cur.Name)
	}
	return classes, nil
}

func parseInstructionLine(trimmed string) bytecode.Instruction {
	mnemonic := mnemonicOf(trimmed)
	inst := bytecode.Instruction{Mnemonic: mnemonic}
	if invokeMnemonic(mnemonic) {
		inst.Invoke = true
		if target := invokeTargetOf(trimmed); target != "" {
			if canon, ok := bytecode.ParseInvokeTarget(target); ok {
				inst.Callee = canon
			}
		}
	}
	return inst
}

// parseClassDirective parses ".class <flags...> Lowner/path;".
func parseClassDirective(line string) (*bytecode.Class, error) {
	fields := strings.Fields(strings.TrimPrefix(line, ".class "))
	if len(fields) == 0 {
		return nil, fmt.Errorf("malformed .class directive")
	}
	descriptor := fields[len(fields)-1]
	flags := fields[:len(fields)-1]
	c := &bytecode.Class{Name: bytecode.DottedClassName(descriptor)}

	hasInterface, hasAbstract, hasEnum, hasStatic := false, false, false, false
	for _, f := range flags {
		switch f {
		case "interface":
			hasInterface = true
		case "abstract":
			hasAbstract = true
		case "enum":
			hasEnum = true
		case "static":
			hasStatic = true
		}
	}
	switch {
	case hasInterface:
		c.Kind = bytecode.ClassKindInterface
	case hasAbstract:
		c.Kind = bytecode.ClassKindAbstractNonInterface
	case hasEnum:
		c.Kind = bytecode.ClassKindEnum
	case hasStatic:
		c.Kind = bytecode.ClassKindStatic
	default:
		c.Kind = bytecode.ClassKindPublicOrDefault
	}
	return c, nil
}

// parseFieldDirective parses ".field [static] <descriptor> [name]".
func parseFieldDirective(line string) bytecode.Field {
	fields := strings.Fields(strings.TrimPrefix(line, ".field "))
	f := bytecode.Field{}
	idx := 0
	if idx < len(fields) && fields[idx] == "static" {
		f.Static = true
		idx++
	}
	if idx < len(fields) {
		f.Descriptor = fields[idx]
	}
	return f
}

// parseMethodDirective parses ".method [static] name(params)return".
func parseMethodDirective(line string) (*bytecode.Method, error) {
	fields := strings.Fields(strings.TrimPrefix(line, ".method "))
	if len(fields) == 0 {
		return nil, fmt.Errorf("malformed .method directive")
	}
	m := &bytecode.Method{}
	idx := 0
	for idx < len(fields)-1 {
		switch fields[idx] {
		case "static":
			m.Static = true
			idx++
		case "public", "private", "protected", "final", "synchronized", "native", "abstract":
			idx++
		default:
			idx = len(fields) - 1
		}
	}
	sig := fields[len(fields)-1]
	open := strings.IndexByte(sig, '(')
	closeParen := strings.IndexByte(sig, ')')
	if open == -1 || closeParen == -1 || closeParen < open {
		return nil, fmt.Errorf("malformed method signature %q", sig)
	}
	m.Name = sig[:open]
	m.ParamTypes = bytecode.SplitDescriptors(sig[open+1 : closeParen])
	m.ReturnType = sig[closeParen+1:]
	return m, nil
}
