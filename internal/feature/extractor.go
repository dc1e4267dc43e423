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
	"crypto/md5"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Dilrevx/LibScan/internal/bytecode"
)

// Stats summarizes one extraction pass, surfaced in run reports (spec.md
// §6, per-application report).
type Stats struct {
	Classes           int
	Methods           int
	Fields            int
	SkippedMnemonics  int
	UnresolvedInvokes int
}

// Extractor turns decoded bytecode.Class records into the feature.Library /
// feature.Application records the matcher operates on: it linearizes each
// eligible method's opcode path against a shared Alphabet, digests it, and
// folds the class's bloom contribution into a per-class filter (spec.md §3,
// §4.1).
type Extractor struct {
	Alphabet          *Alphabet
	FilterRecordLimit int
	MinMethodOpcodeNum int
	MaxOpcodeLen       int
}

// NewExtractor builds an Extractor. filterRecordLimit is the saturating cap
// applied to every bloom counter (spec.md §6, filter_record_limit);
// minMethodOpcodeNum and maxOpcodeLen bound the eligible opcode-count
// window a method's body must fall within to be kept (spec.md §3, §6,
// min_method_opcode_num/max_opcode_len).
func NewExtractor(alphabet *Alphabet, filterRecordLimit, minMethodOpcodeNum, maxOpcodeLen int) *Extractor {
	return &Extractor{
		Alphabet:           alphabet,
		FilterRecordLimit:  filterRecordLimit,
		MinMethodOpcodeNum: minMethodOpcodeNum,
		MaxOpcodeLen:       maxOpcodeLen,
	}
}

// ExtractLibrary extracts every class a Provider exposes into a Library
// record named name.
func (e *Extractor) ExtractLibrary(name string, p bytecode.Provider) (*Library, Stats, error) {
	classes, methodIdx, stats, err := e.extract(p)
	if err != nil {
		return nil, stats, err
	}
	lib := &Library{
		Name:                   name,
		PackageName:            name,
		Classes:                classes,
		MethodIndex:            methodIdx,
		InvokedExternalMethods: make(map[string]bool),
	}
	interfaceOnly := len(classes) > 0
	for _, c := range classes {
		if !c.IsInterfaceOnly {
			interfaceOnly = false
			lib.OpcodeCount += c.OpcodeCount
		}
	}
	lib.IsInterfaceOnly = interfaceOnly
	for _, m := range methodIdx {
		for _, target := range m.InvokeTargets {
			if _, ok := methodIdx[target]; !ok {
				lib.InvokedExternalMethods[target] = true
			}
		}
	}
	return lib, stats, nil
}

// ExtractApplication extracts every class a Provider exposes into an
// Application record named name, plus the inverse bloom index (app_filter)
// pre-match candidate computation needs (spec.md §4.3.1).
func (e *Extractor) ExtractApplication(name string, p bytecode.Provider) (*Application, Stats, error) {
	classes, methodIdx, stats, err := e.extract(p)
	if err != nil {
		return nil, stats, err
	}
	return &Application{
		Name:        name,
		Classes:     classes,
		MethodIndex: methodIdx,
		AppFilter:   BuildAppFilter(classes, e.FilterRecordLimit),
	}, stats, nil
}

// isResourceClassName reports whether a dotted class name's short name
// starts with "R$" (an Android aapt-generated resource class), which
// spec.md §3 excludes from extraction entirely.
func isResourceClassName(dottedName string) bool {
	short := dottedName
	if i := strings.LastIndexByte(dottedName, '.'); i != -1 {
		short = dottedName[i+1:]
	}
	return strings.HasPrefix(short, "R$")
}

func (e *Extractor) extract(p bytecode.Provider) (map[string]*Class, map[string]*Method, Stats, error) {
	rawClasses, err := p.Classes()
	if err != nil {
		return nil, nil, Stats{}, fmt.Errorf("feature: reading classes: %w", err)
	}

	classes := make(map[string]*Class, len(rawClasses))
	methodIdx := make(map[string]*Method)
	var stats Stats

	for _, rc := range rawClasses {
		if isResourceClassName(rc.Name) {
			continue
		}
		cls, err := e.extractClass(rc, methodIdx, &stats)
		if err != nil {
			return nil, nil, stats, err
		}
		classes[cls.Name] = cls
		stats.Classes++
	}
	return classes, methodIdx, stats, nil
}

func (e *Extractor) extractClass(rc bytecode.Class, methodIdx map[string]*Method, stats *Stats) (*Class, error) {
	bloom := make(map[int]int)
	if kind, ok := ClassAccessIndex(rc.Kind); ok {
		AddBloomCount(bloom, kind, e.FilterRecordLimit)
	}
	if rc.NonObjectSuper {
		AddBloomCount(bloom, NonObjectSuperIndex, e.FilterRecordLimit)
	}
	if len(rc.Fields) == 0 {
		AddBloomCount(bloom, NoFieldsIndex, e.FilterRecordLimit)
	}
	for _, f := range rc.Fields {
		idx := FieldIndex(f.Static, FieldTypeFamily(f.Descriptor))
		AddBloomCount(bloom, idx, e.FilterRecordLimit)
		stats.Fields++
	}

	isAbstractKind := rc.Kind == bytecode.ClassKindInterface || rc.Kind == bytecode.ClassKindAbstractNonInterface

	eligible := make(map[string]*Method)
	var methodDigests [][16]byte
	opcodeCount := 0
	for _, rm := range rc.Methods {
		idx := MethodIndex(rm.Static, ReturnTypeFamily(rm.ReturnType), ParamFamily(rm.ParamTypes))
		AddBloomCount(bloom, idx, e.FilterRecordLimit)

		if isConstructorName(rm.Name) || bytecode.IsJavaOwned(rc.Name) {
			continue
		}

		method, err := e.linearizeMethod(rc.Name, rm, stats)
		if err != nil {
			return nil, err
		}

		if method.OpcodeCount < e.MinMethodOpcodeNum || method.OpcodeCount > e.MaxOpcodeLen {
			continue
		}

		eligible[method.CanonicalName] = method
		methodIdx[method.CanonicalName] = method
		methodDigests = append(methodDigests, method.Digest)
		opcodeCount += method.OpcodeCount
		stats.Methods++
	}

	cls := &Class{
		Name:            rc.Name,
		NonObjectSuper:  rc.NonObjectSuper,
		Bloom:           bloom,
		MethodCount:     len(rc.Methods),
		IsInterfaceOnly: isAbstractKind && len(eligible) == 0,
	}
	if !cls.IsInterfaceOnly {
		cls.Methods = eligible
		cls.OpcodeCount = opcodeCount
		cls.Digest = digestOfAll(methodDigests)
	}
	return cls, nil
}

// isConstructorName reports whether a declared method name is an instance
// or static initializer, which spec.md §3 always drops from method records.
func isConstructorName(name string) bool {
	return name == "<init>" || name == "<clinit>"
}

// linearizeMethod filters a method's raw instruction stream through the
// alphabet (dropping move*/nop, spec.md §4.1), splitting it into nodes at
// every invoke instruction that resolved to a non-platform callee (spec.md
// §3). An invoke whose callee could not be resolved, or that targets a
// java.* owner, does not split a node: it is just an ordinary opcode in the
// current fragment.
func (e *Extractor) linearizeMethod(owner string, rm bytecode.Method, stats *Stats) (*Method, error) {
	m := &Method{
		Owner:         owner,
		Static:        rm.Static,
		ParamTypes:    rm.ParamTypes,
		ReturnType:    rm.ReturnType,
		CanonicalName: bytecode.CanonicalMethodName(owner, rm.Name, rm.ParamTypes, rm.ReturnType),
	}

	var fragment []int
	total := 0
	for _, inst := range rm.Instructions {
		mnemonic, ok := FilterMnemonic(inst.Mnemonic)
		if !ok {
			stats.SkippedMnemonics++
			continue
		}
		code, ok := e.Alphabet.Code(mnemonic)
		if !ok {
			return nil, fmt.Errorf("feature: method %s: mnemonic %q not in opcode alphabet", m.CanonicalName, mnemonic)
		}
		fragment = append(fragment, code)
		total++

		if !inst.Invoke {
			continue
		}
		if inst.Callee == "" {
			stats.UnresolvedInvokes++
			continue
		}
		m.Nodes = append(m.Nodes, MethodNode{Opcodes: fragment, Callee: inst.Callee})
		m.InvokeTargets = append(m.InvokeTargets, inst.Callee)
		fragment = nil
	}
	m.Nodes = append(m.Nodes, MethodNode{Opcodes: fragment})
	m.OpcodeCount = total
	m.Digest = digestOfPath(m.OpcodePath())
	return m, nil
}

func digestOfPath(path []int) [16]byte {
	var b strings.Builder
	for i, code := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(code))
	}
	return md5.Sum([]byte(b.String()))
}

func digestOfAll(digests [][16]byte) [16]byte {
	sort.Slice(digests, func(i, j int) bool {
		return string(digests[i][:]) < string(digests[j][:])
	})
	var buf []byte
	for _, d := range digests {
		buf = append(buf, d[:]...)
	}
	return md5.Sum(buf)
}
