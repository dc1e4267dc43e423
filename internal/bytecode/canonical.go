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

package bytecode

import (
	"strings"
)

// CanonicalMethodName builds the canonical method name shared by the
// library and application views: "owner.class.method(param types)return"
// with all whitespace removed. It is the join key between a library's
// method->library map and an application's call sites, so the same inputs
// must always produce the same byte-identical string regardless of which
// side (library or application) is being processed.
func CanonicalMethodName(owner, name string, paramTypes []string, returnType string) string {
	var b strings.Builder
	b.WriteString(owner)
	b.WriteByte('.')
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(strings.Join(paramTypes, ""))
	b.WriteByte(')')
	b.WriteString(returnType)
	return stripWhitespace(b.String())
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsJavaOwned reports whether a dotted or slashed owner/descriptor name
// belongs to the java.* namespace, which is always excluded from TPL
// detection (constructors on java types, and invoke targets into the
// platform, never count as library evidence).
func IsJavaOwned(ownerOrDescriptor string) bool {
	return strings.HasPrefix(ownerOrDescriptor, "Ljava/") || strings.HasPrefix(ownerOrDescriptor, "java.")
}

// DottedClassName converts a slashed JVM/DEX type descriptor such as
// "Lcom/example/Foo;" into the dotted form "com.example.Foo".
func DottedClassName(descriptor string) string {
	d := strings.TrimPrefix(descriptor, "L")
	d = strings.TrimSuffix(d, ";")
	return strings.ReplaceAll(d, "/", ".")
}

// ParseInvokeTarget parses a smali-style call-site token of the form
// "Lowner/path;->name(Lparam1;I)Lreturn;" into its canonical method name. It
// reports ok=false for malformed tokens or Ljava/* owners, since those are
// never treated as library evidence (§4.1).
func ParseInvokeTarget(raw string) (canonical string, ok bool) {
	arrow := strings.Index(raw, "->")
	if arrow == -1 {
		return "", false
	}
	owner := raw[:arrow]
	if IsJavaOwned(owner) {
		return "", false
	}
	rest := raw[arrow+2:]
	open := strings.IndexByte(rest, '(')
	closeParen := strings.IndexByte(rest, ')')
	if open == -1 || closeParen == -1 || closeParen < open {
		return "", false
	}
	name := rest[:open]
	paramBlob := rest[open+1 : closeParen]
	ret := rest[closeParen+1:]
	params := SplitDescriptors(paramBlob)
	return CanonicalMethodName(DottedClassName(owner), name, params, ret), true
}

// SplitDescriptors splits a concatenated JVM descriptor parameter list
// ("Lfoo/Bar;I[J") into its individual type tokens.
func SplitDescriptors(blob string) []string {
	var out []string
	i := 0
	for i < len(blob) {
		start := i
		for i < len(blob) && blob[i] == '[' {
			i++
		}
		if i >= len(blob) {
			break
		}
		switch blob[i] {
		case 'L':
			for i < len(blob) && blob[i] != ';' {
				i++
			}
			if i < len(blob) {
				i++ // consume ';'
			}
		default:
			i++ // primitive, one char
		}
		if i > len(blob) {
			i = len(blob)
		}
		out = append(out, blob[start:i])
	}
	return out
}
