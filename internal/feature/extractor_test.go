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
	"testing"

	"github.com/Dilrevx/LibScan/internal/bytecode/disasm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUnit = `.class public Lcom/example/Foo;
.super Ljava/lang/Object;
.field static Ljava/lang/String; name
.method public foo(Ljava/lang/String;I)V
	0000: const-string v0, "hi" ()
	0003: invoke-virtual {v0}, Lcom/example/Bar;->baz(Ljava/lang/String;)V ()
	0006: return-void ()
.end method
.end class
`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	alphabet, err := LoadAlphabet(strings.NewReader("const-string:1\ninvoke-virtual:2\nreturn-void:3\n"))
	require.NoError(t, err)
	return NewExtractor(alphabet, 10, 1, 1000)
}

func TestExtractLibrary(t *testing.T) {
	e := newTestExtractor(t)
	p := disasm.New(strings.NewReader(sampleUnit))

	lib, stats, err := e.ExtractLibrary("sample-lib", p)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Classes)
	assert.Equal(t, 1, stats.Methods)
	assert.Equal(t, 1, stats.Fields)

	const canonical = "com.example.Foo.foo(Ljava/lang/String;I)V"
	method, ok := lib.Method(canonical)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, method.OpcodePath())
	assert.Equal(t, []string{"com.example.Bar.baz(Ljava/lang/String;)V"}, method.InvokeTargets)
	assert.Equal(t, 3, lib.OpcodeCount)
	assert.False(t, lib.IsInterfaceOnly)

	cls, ok := lib.Classes["com.example.Foo"]
	require.True(t, ok)
	assert.False(t, cls.IsInterfaceOnly)
	assert.Equal(t, 1, cls.Bloom[1])   // class-access kind: public/default
	assert.Equal(t, 1, cls.Bloom[9])   // static String field: 7+(1-1)*22+2
	assert.Equal(t, 1, cls.Bloom[601]) // non-static, return V, 2-param family 6
	assert.Zero(t, cls.Bloom[NoFieldsIndex])
}

func TestExtractLibraryUnknownMnemonicIsFatal(t *testing.T) {
	alphabet, err := LoadAlphabet(strings.NewReader("return-void:3\n"))
	require.NoError(t, err)
	e := NewExtractor(alphabet, 10, 1, 1000)
	p := disasm.New(strings.NewReader(sampleUnit))

	_, _, err = e.ExtractLibrary("sample-lib", p)
	assert.Error(t, err)
}

func TestBloomSaturationAcrossManyFields(t *testing.T) {
	var b strings.Builder
	b.WriteString(".class public Lcom/example/Many;\n")
	b.WriteString(".super Ljava/lang/Object;\n")
	for i := 0; i < 5; i++ {
		b.WriteString(".field static I\n")
	}
	b.WriteString(".end class\n")

	alphabet, err := LoadAlphabet(strings.NewReader("return-void:3\n"))
	require.NoError(t, err)
	e := NewExtractor(alphabet, 3, 1, 1000)
	p := disasm.New(strings.NewReader(b.String()))

	lib, _, err := e.ExtractLibrary("sample-lib", p)
	require.NoError(t, err)
	cls := lib.Classes["com.example.Many"]
	idx := FieldIndex(true, FieldTypeFamily("I"))
	assert.Equal(t, 3, cls.Bloom[idx])
}

func TestExtractLibrarySkipsResourceClasses(t *testing.T) {
	e := newTestExtractor(t)
	unit := ".class public Lcom/example/R$string;\n.super Ljava/lang/Object;\n.end class\n"
	p := disasm.New(strings.NewReader(unit))

	lib, stats, err := e.ExtractLibrary("sample-lib", p)
	require.NoError(t, err)
	assert.Zero(t, stats.Classes)
	assert.Empty(t, lib.Classes)
}

func TestExtractLibraryInterfaceOnlyClassHasTwoSlots(t *testing.T) {
	e := newTestExtractor(t)
	unit := ".class interface Lcom/example/Callback;\n" +
		".super Ljava/lang/Object;\n" +
		".method public abstract onDone(I)V\n" +
		".end method\n" +
		".end class\n"
	p := disasm.New(strings.NewReader(unit))

	lib, _, err := e.ExtractLibrary("sample-lib", p)
	require.NoError(t, err)
	cls := lib.Classes["com.example.Callback"]
	require.NotNil(t, cls)
	assert.True(t, cls.IsInterfaceOnly)
	assert.Equal(t, 1, cls.MethodCount)
	assert.Zero(t, cls.OpcodeCount)
	assert.Nil(t, cls.Methods)
	assert.NotEmpty(t, cls.Bloom)
	assert.True(t, lib.IsInterfaceOnly)
	assert.Zero(t, lib.OpcodeCount)
}

func TestExtractLibraryDropsConstructors(t *testing.T) {
	e := newTestExtractor(t)
	unit := ".class public Lcom/example/Widget;\n" +
		".super Ljava/lang/Object;\n" +
		".method public <init>()V\n" +
		"	0000: return-void ()\n" +
		".end method\n" +
		".method public foo()V\n" +
		"	0000: return-void ()\n" +
		".end method\n" +
		".end class\n"
	p := disasm.New(strings.NewReader(unit))

	lib, stats, err := e.ExtractLibrary("sample-lib", p)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Methods)
	cls := lib.Classes["com.example.Widget"]
	_, ok := cls.Methods["com.example.Widget.<init>()V"]
	assert.False(t, ok)
	_, ok = cls.Methods["com.example.Widget.foo()V"]
	assert.True(t, ok)
}

func TestExtractLibraryDropsJavaOwnedMethods(t *testing.T) {
	e := newTestExtractor(t)
	unit := ".class public Ljava/example/Helper;\n" +
		".super Ljava/lang/Object;\n" +
		".method public foo()V\n" +
		"	0000: return-void ()\n" +
		".end method\n" +
		".end class\n"
	p := disasm.New(strings.NewReader(unit))

	lib, stats, err := e.ExtractLibrary("sample-lib", p)
	require.NoError(t, err)
	assert.Zero(t, stats.Methods, "java.*-owned methods are always dropped")
	cls := lib.Classes["java.example.Helper"]
	assert.Empty(t, cls.Methods)
}

func TestExtractLibraryMethodEligibilityWindow(t *testing.T) {
	alphabet, err := LoadAlphabet(strings.NewReader("return-void:3\n"))
	require.NoError(t, err)
	e := NewExtractor(alphabet, 10, 2, 2)
	unit := ".class public Lcom/example/Bounds;\n" +
		".super Ljava/lang/Object;\n" +
		".method public tooShort()V\n" +
		"	0000: return-void ()\n" +
		".end method\n" +
		".method public justRight()V\n" +
		"	0000: return-void ()\n" +
		"	0001: return-void ()\n" +
		".end method\n" +
		".method public tooLong()V\n" +
		"	0000: return-void ()\n" +
		"	0001: return-void ()\n" +
		"	0002: return-void ()\n" +
		".end method\n" +
		".end class\n"
	p := disasm.New(strings.NewReader(unit))

	lib, stats, err := e.ExtractLibrary("sample-lib", p)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Methods)
	cls := lib.Classes["com.example.Bounds"]
	_, ok := cls.Methods["com.example.Bounds.justRight()V"]
	assert.True(t, ok)
	_, ok = cls.Methods["com.example.Bounds.tooShort()V"]
	assert.False(t, ok)
	_, ok = cls.Methods["com.example.Bounds.tooLong()V"]
	assert.False(t, ok)
}
