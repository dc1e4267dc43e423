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

// Package disasm implements a reference bytecode.Provider over a small,
// line-oriented textual disassembly format: a stand-in for a real
// baksmali/dexdump front end, which spec.md treats as out of scope.
//
// A unit looks like:
//
//	.class public Lcom/example/Foo;
//	.super Ljava/lang/Object;
//	.field static Ljava/lang/String; name
//	.method public foo(Ljava/lang/String;I)V
//		0000: const-string v0, "hi" ()
//		0003: invoke-virtual {v0}, Lcom/example/Bar;->baz(Ljava/lang/String;)V ()
//		0006: return-void ()
//	.end method
//	.end class
//
// Only lines inside a .method/.end method block are scanned for opcodes, and
// only lines that look like instructions are kept there: the line must begin
// with a tab, contain a ")" separator, be longer than 20 characters with its
// leading tab counted, and its first token must not be a label (":cond_0") or a directive
// ("#comment"). This mirrors the heuristic spec.md §4.1 describes for
// picking instruction lines out of an arbitrary disassembly dump.
package disasm

import "strings"

func isLabelOrDirective(firstToken string) bool {
	return strings.HasPrefix(firstToken, ":") || strings.HasPrefix(firstToken, "#")
}

// looksLikeInstruction applies the spec.md §4.1 heuristic to a raw line.
func looksLikeInstruction(line string) bool {
	if !strings.HasPrefix(line, "\t") {
		return false
	}
	if len(line) <= 20 {
		return false
	}
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, ")") {
		return false
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 || isLabelOrDirective(fields[0]) {
		return false
	}
	return true
}

// mnemonicOf extracts the raw mnemonic token from an instruction line of the
// form "<offset>: <mnemonic> <operands...>". The offset token always ends in
// ':' in this format.
func mnemonicOf(trimmedLine string) string {
	fields := strings.Fields(trimmedLine)
	for i, f := range fields {
		if strings.HasSuffix(f, ":") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	if len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// invokeTargetOf extracts the "Lowner;->name(params)return" callee token
// from an invoke instruction line, or "" if none is present.
func invokeTargetOf(trimmedLine string) string {
	idx := strings.Index(trimmedLine, "L")
	if idx == -1 {
		return ""
	}
	rest := trimmedLine[idx:]
	end := strings.IndexByte(rest, ' ')
	// The callee token runs up to the first space after the closing
	// return-type character; find the matching "(" ... ")" and then one
	// trailing type token with no embedded spaces in our format.
	if paren := strings.IndexByte(rest, '('); paren != -1 {
		if close := strings.IndexByte(rest[paren:], ')'); close != -1 {
			// consume one more token (the return type) if present.
			afterClose := paren + close + 1
			if afterClose < len(rest) {
				tail := rest[afterClose:]
				if sp := strings.IndexByte(tail, ' '); sp != -1 {
					return rest[:afterClose+sp]
				}
				return rest
			}
			return rest[:afterClose]
		}
	}
	if end == -1 {
		return rest
	}
	return rest[:end]
}
