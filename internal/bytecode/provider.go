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

// Package bytecode defines the boundary between a decoded bytecode artifact
// (an APK's DEX files, or a single library DEX/JAR) and the feature
// extractor. Decoding the artifact itself is out of scope for this module;
// a Provider only has to emit stable, already-tokenized class and method
// records.
package bytecode

// Instruction is one linearized bytecode instruction as seen by the
// extractor. Mnemonic is the raw mnemonic exactly as the provider read it,
// including any "/variant" suffix or "-payload" suffix; filtering those is
// the extractor's job, not the provider's.
type Instruction struct {
	Mnemonic string
	// Invoke is true for invoke-family instructions (invoke-virtual,
	// invoke-static, invoke-direct, invoke-interface, invoke-super, and
	// their /range forms).
	Invoke bool
	// Callee is the canonical name of the invoked method, already built in
	// the "owner.class.method(params)return" form with whitespace removed.
	// Empty when Invoke is false, or when the provider could not resolve a
	// concrete callee (e.g. an invoke through a field or dynamic dispatch
	// target it does not track).
	Callee string
}

// Field is a declared field of a class, used only for its bloom
// contribution (§3, field presence / static-ness × family slots).
type Field struct {
	Static     bool
	Descriptor string // e.g. "Ljava/lang/String;", "I", "[B"
}

// Method is one declared method of a class, with its descriptor and its
// linearized instruction stream.
type Method struct {
	Name         string // simple method name, not yet canonicalized
	Static       bool
	ReturnType   string // descriptor, e.g. "V", "Ljava/lang/String;", "[I"
	ParamTypes   []string
	Instructions []Instruction
}

// ClassKind enumerates the class-access bloom slots from §4.1.
type ClassKind int

const (
	ClassKindPublicOrDefault ClassKind = iota + 1
	ClassKindInterface
	ClassKindAbstractNonInterface
	ClassKindEnum
	ClassKindStatic
)

// Class is one class of the bytecode artifact.
type Class struct {
	// Name is the fully-qualified dotted class name, e.g. "org.jsoup.Jsoup".
	Name string
	// Kind classifies the class for the class-access bloom slots 1..5. A
	// plain non-static, non-enum, concrete class is
	// ClassKindPublicOrDefault; Kind == 0 means the provider did not
	// classify the class, and it then contributes no class-access slot.
	Kind ClassKind
	// NonObjectSuper is true when the class's direct superclass is not
	// java.lang.Object (bloom slot 6).
	NonObjectSuper bool
	Fields         []Field
	Methods        []Method
}

// Provider produces the full set of classes of one bytecode artifact
// (one library file, or one application's merged DEX files). Implementors
// are expected to return classes in a stable order across repeated calls
// against byte-identical input, since several of the matcher's testable
// properties (spec.md §8) depend on deterministic iteration.
type Provider interface {
	Classes() ([]Class, error)
}
