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
	"strings"

	"github.com/Dilrevx/LibScan/internal/bytecode"
)

// Bloom feature index layout (spec.md §4.1). Indices 1..6 are the class
// access kind slots, 7 is "class has no fields", 8..51 are per-field slots,
// and 52..787 are per-method slots.
const (
	NoFieldsIndex        = 7
	NonObjectSuperIndex  = 6
	fieldIndexBase       = 7
	fieldFamilyCount     = 22
	methodIndexBase      = 51
	methodReturnFamilies = 23
	methodParamFamilies  = 16
)

// ClassAccessIndex maps a class's access kind to its bloom slot 1..5; a
// plain concrete, non-static, non-enum class is ClassKindPublicOrDefault
// (slot 1). ok is false for an unclassified kind (0), which contributes no
// class-access slot (only the superclass slot may apply).
func ClassAccessIndex(kind bytecode.ClassKind) (int, bool) {
	switch kind {
	case bytecode.ClassKindPublicOrDefault:
		return 1, true
	case bytecode.ClassKindInterface:
		return 2, true
	case bytecode.ClassKindAbstractNonInterface:
		return 3, true
	case bytecode.ClassKindEnum:
		return 4, true
	case bytecode.ClassKindStatic:
		return 5, true
	default:
		return 0, false
	}
}

var primitiveFieldFamily = map[string]int{
	"B": 4, "S": 5, "I": 6, "J": 7, "F": 8, "D": 9, "Z": 10, "C": 11,
}

var primitiveArrayFieldFamily = map[string]int{
	"[B": 13, "[S": 14, "[I": 15, "[J": 16, "[F": 17, "[D": 18, "[Z": 19, "[C": 20,
}

// FieldTypeFamily classifies a field descriptor into one of the 22 families
// from spec.md §4.1.
func FieldTypeFamily(descriptor string) int {
	switch {
	case strings.HasPrefix(descriptor, "Ljava/lang/Object;"):
		return 1
	case strings.HasPrefix(descriptor, "Ljava/lang/String"):
		return 2
	case strings.HasPrefix(descriptor, "Ljava/"):
		return 3
	}
	if fam, ok := primitiveFieldFamily[descriptor]; ok {
		return fam
	}
	if strings.HasPrefix(descriptor, "[Ljava/") {
		return 12
	}
	if fam, ok := primitiveArrayFieldFamily[descriptor]; ok {
		return fam
	}
	if strings.HasPrefix(descriptor, "[") {
		return 21
	}
	return 22
}

// FieldIndex computes the bloom slot (8..51) for a field's static-ness and
// type family.
func FieldIndex(static bool, family int) int {
	accessKind := 1
	if !static {
		accessKind = 2
	}
	return fieldIndexBase + (accessKind-1)*fieldFamilyCount + family
}

var primitiveReturnFamily = map[string]int{
	"B": 4, "S": 5, "I": 6, "J": 7, "F": 8, "D": 9, "Z": 10, "C": 11, "V": 12,
}

var primitiveArrayReturnFamily = map[string]int{
	"[B": 14, "[S": 15, "[I": 16, "[J": 17, "[F": 18, "[D": 19, "[Z": 20, "[C": 21,
}

// ReturnTypeFamily classifies a method return descriptor into one of the 23
// families from spec.md §4.1.
func ReturnTypeFamily(descriptor string) int {
	switch {
	case strings.HasPrefix(descriptor, "Ljava/lang/Object;"):
		return 1
	case strings.HasPrefix(descriptor, "Ljava/lang/String"):
		return 2
	case strings.HasPrefix(descriptor, "Ljava"):
		return 3
	}
	if fam, ok := primitiveReturnFamily[descriptor]; ok {
		return fam
	}
	if strings.HasPrefix(descriptor, "[Ljava/") {
		return 13
	}
	if fam, ok := primitiveArrayReturnFamily[descriptor]; ok {
		return fam
	}
	if strings.HasPrefix(descriptor, "[") {
		return 22
	}
	return 23
}

func isPrimitiveParam(d string) bool {
	switch d {
	case "B", "S", "I", "J", "F", "D", "Z", "C":
		return true
	default:
		return false
	}
}

// ParamFamily classifies a parameter list into one of 16 families based on
// which of the 4 broad families (java/, primitive, array, other) occur
// among the parameters (spec.md §4.1).
func ParamFamily(paramTypes []string) int {
	if len(paramTypes) == 0 {
		return 1
	}
	present := [5]bool{}
	for _, p := range paramTypes {
		switch {
		case strings.HasPrefix(p, "Ljava/"):
			present[1] = true
		case isPrimitiveParam(p):
			present[2] = true
		case strings.HasPrefix(p, "["):
			present[3] = true
		default:
			present[4] = true
		}
	}
	count := 0
	for _, v := range present {
		if v {
			count++
		}
	}
	switch count {
	case 1:
		switch {
		case present[1]:
			return 2
		case present[2]:
			return 3
		case present[3]:
			return 4
		default:
			return 5
		}
	case 2:
		switch {
		case present[1] && present[2]:
			return 6
		case present[1] && present[3]:
			return 7
		case present[1] && present[4]:
			return 8
		case present[2] && present[3]:
			return 9
		case present[2] && present[4]:
			return 10
		default: // present[3] && present[4]
			return 11
		}
	case 3:
		switch {
		case !present[4]:
			return 12
		case !present[3]:
			return 13
		case !present[2]:
			return 14
		default: // !present[1]
			return 15
		}
	default: // 4
		return 16
	}
}

// MethodIndex computes the bloom slot (52..787) for a method's static-ness,
// return family, and parameter family.
func MethodIndex(static bool, returnFamily, paramFamily int) int {
	staticKind := 1
	if !static {
		staticKind = 2
	}
	return methodIndexBase + (staticKind-1)*methodReturnFamilies*methodParamFamilies +
		(returnFamily-1)*methodParamFamilies + paramFamily
}

// AddBloomCount increments the saturating counter at index, capping at
// limit (spec.md §4.1, filter_record_limit).
func AddBloomCount(bloom map[int]int, index, limit int) {
	count := bloom[index] + 1
	if count > limit {
		count = limit
	}
	bloom[index] = count
}
