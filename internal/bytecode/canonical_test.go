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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalMethodNameStripsWhitespace(t *testing.T) {
	got := CanonicalMethodName("com.example.Foo ", " bar", []string{" I", "Ljava/lang/String; "}, " V")
	assert.Equal(t, "com.example.Foo.bar(ILjava/lang/String;)V", got)
}

func TestDottedClassName(t *testing.T) {
	assert.Equal(t, "com.example.Foo", DottedClassName("Lcom/example/Foo;"))
}

func TestIsJavaOwned(t *testing.T) {
	assert.True(t, IsJavaOwned("Ljava/lang/Object;"))
	assert.True(t, IsJavaOwned("java.lang.Object"))
	assert.False(t, IsJavaOwned("Lcom/example/Foo;"))
}

func TestSplitDescriptors(t *testing.T) {
	got := SplitDescriptors("Lcom/example/Foo;I[J[Lcom/example/Bar;")
	assert.Equal(t, []string{"Lcom/example/Foo;", "I", "[J", "[Lcom/example/Bar;"}, got)
}

func TestSplitDescriptorsMalformedDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		SplitDescriptors("[")
	})
	assert.NotPanics(t, func() {
		SplitDescriptors("Lcom/example/Foo")
	})
}

func TestParseInvokeTarget(t *testing.T) {
	canon, ok := ParseInvokeTarget("Lcom/example/Bar;->baz(Ljava/lang/String;)V")
	assert.True(t, ok)
	assert.Equal(t, "com.example.Bar.baz(Ljava/lang/String;)V", canon)

	_, ok = ParseInvokeTarget("Ljava/lang/Object;-><init>()V")
	assert.False(t, ok)

	_, ok = ParseInvokeTarget("no-arrow-here")
	assert.False(t, ok)
}
