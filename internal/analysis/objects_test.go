package analysis

import (
	"go/constant"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldVisibility(t *testing.T) {
	t.Run("unexported fields hidden by default", func(t *testing.T) {
		h := newHarness(t, harnessConfig{})
		out := dump(h, &derived{base: base{Shared: "s", hidden: 7}, Own: "o"})

		assert.Contains(t, out, "<l class=vd-public vd-inherited>.Shared:string=s[value.Shared]")
		assert.Contains(t, out, "<l class=vd-public>.Own:string=o[value.Own]")
		assert.NotContains(t, out, ".hidden:")
	})

	t.Run("promoted unexported fields are protected", func(t *testing.T) {
		h := newHarness(t, harnessConfig{options: Options{ProtectedProperties: true}})
		out := dump(h, &derived{base: base{hidden: 7}})

		assert.Contains(t, out, "<l class=vd-protected vd-inherited>.hidden:int=7[. . .]")
	})

	t.Run("own unexported fields are private", func(t *testing.T) {
		h := newHarness(t, harnessConfig{options: Options{PrivateProperties: true}})
		out := dump(h, &account{myValue: 3})

		assert.Contains(t, out, "<l class=vd-private>.myValue:int=3[. . .]")
	})
}

func TestFieldOfNilEmbeddedPointerIsUnset(t *testing.T) {
	h := newHarness(t, harnessConfig{})

	out := dump(h, &outer{})

	assert.Contains(t, out, "<l class=vd-public vd-inherited vd-unset>.Value:int=[value.Value]")
	assert.Contains(t, out, "This value is not set.")
}

func TestMethodsSection(t *testing.T) {
	h := newHarness(t, harnessConfig{})

	out := dump(h, &derived{})

	assert.Contains(t, out, "Methods:2 elements")
	assert.Contains(t, out, ".Hello(arg0):method=func Hello(string) string[value.Hello(arg0)]")
	assert.Contains(t, out, "Declaring type:=analysis.base[]")
	assert.Less(t, strings.Index(out, "func Bye()"), strings.Index(out, "func Hello("))
}

func TestMethodsFromSource(t *testing.T) {
	idx := source.Static{
		source.Key(reflect.TypeFor[wallet]()): {
			Name: "wallet",
			Methods: map[string]source.Method{
				"GetTotal": {Name: "GetTotal", Doc: "GetTotal sums up.", Receiver: "w", Pointer: true, Results: []source.Param{{Type: "int"}}},
				"total":    {Name: "total", Receiver: "w", Pointer: true, Results: []source.Param{{Type: "int"}}},
			},
		},
	}

	t.Run("private methods need the option", func(t *testing.T) {
		h := newHarness(t, harnessConfig{index: idx})
		out := dump(h, &wallet{})

		assert.Contains(t, out, "func GetTotal() int")
		assert.Contains(t, out, "Comment:=GetTotal sums up.[]")
		assert.Contains(t, out, "Receiver:=w *wallet[]")
		assert.NotContains(t, out, "func total()")
	})

	t.Run("listed when enabled", func(t *testing.T) {
		h := newHarness(t, harnessConfig{index: idx, options: Options{PrivateMethods: true}})
		out := dump(h, &wallet{})

		assert.Contains(t, out, ".total():method=func total() int[. . .]")
	})
}

func TestMethodDocInheritedFromInterface(t *testing.T) {
	idx := source.Static{
		source.Key(reflect.TypeFor[reporter]()): {
			Name:       "reporter",
			Methods:    map[string]source.Method{"Debug": {Name: "Debug", Receiver: "r", Pointer: true}},
			Interfaces: []source.Interface{{Name: "Debugger", Methods: map[string]string{"Debug": "Debug explains the value."}}},
		},
	}
	h := newHarness(t, harnessConfig{index: idx})

	out := dump(h, &reporter{})

	assert.Contains(t, out, "Comment:=Debug explains the value.[]")
}

func TestNamedScalarConstants(t *testing.T) {
	idx := source.Static{
		source.Key(reflect.TypeFor[level]()): {
			Name:    "level",
			PkgName: "analysis",
			Constants: []source.Constant{
				{Name: "LevelLow", Value: constant.MakeInt64(1)},
				{Name: "LevelHigh", Value: constant.MakeInt64(2)},
			},
		},
	}

	t.Run("listed with package qualified source", func(t *testing.T) {
		h := newHarness(t, harnessConfig{index: idx, options: Options{Constants: true}})
		out := dump(h, level(2))

		assert.Contains(t, out, "value:analysis.level=2[value]")
		assert.Contains(t, out, "Matches constant LevelHigh")
		assert.Contains(t, out, "Constants:2 elements")
		assert.Contains(t, out, "<l class=vd-public vd-static>.LevelLow:analysis.level=1[analysis.LevelLow]")
	})

	t.Run("off by option", func(t *testing.T) {
		h := newHarness(t, harnessConfig{index: idx})
		out := dump(h, level(2))

		assert.NotContains(t, out, "LevelLow")
	})
}

func TestTraversable(t *testing.T) {
	t.Run("sequence", func(t *testing.T) {
		h := newHarness(t, harnessConfig{options: Options{Traversable: true}})
		out := dump(h, &bag{items: []string{"x", "y"}})

		assert.Contains(t, out, "Traversable info:iterator=2 elements[slices.Collect(value.All())]")
		assert.Contains(t, out, "[0]:string=x[slices.Collect(value.All())[0]]")
		assert.Contains(t, out, "[1]:string=y[slices.Collect(value.All())[1]]")
	})

	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t, harnessConfig{})
		out := dump(h, &bag{items: []string{"x"}})

		assert.NotContains(t, out, "Traversable info")
	})

	t.Run("panicking iterator", func(t *testing.T) {
		h := newHarness(t, harnessConfig{options: Options{Traversable: true}})
		out := dump(h, broken{})

		assert.Contains(t, out, "The analysis of this value failed.")
		assert.Contains(t, h.keys(), "traversableFailed")
	})

	t.Run("cut at threshold", func(t *testing.T) {
		h := newHarness(t, harnessConfig{options: Options{Traversable: true, LargeArrayThreshold: 1}})
		out := dump(h, &bag{items: []string{"x", "y", "z"}})

		assert.NotContains(t, out, "=z[")
		assert.Contains(t, h.keys(), "traversableTruncated")
	})
}

func TestDebugMethods(t *testing.T) {
	h := newHarness(t, harnessConfig{options: Options{DebugMethods: []string{"Debug", "Explode", "Fail", "Missing"}}})

	out := dump(h, &reporter{Label: "x"})

	assert.Contains(t, out, ".Debug():string=debug:x[value.Debug()]")
	assert.NotContains(t, out, ".Explode():string")
	msgs := h.queue.Messages()
	var failed []string
	for _, m := range msgs {
		if m.Key == "debugMethodFailed" {
			failed = append(failed, m.Args[0].(string))
		}
	}
	assert.Equal(t, []string{"Explode", "Fail"}, failed)
}

func TestScalars(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", (*person)(nil), "value:*analysis.person=nil[value]"},
		{"bool", true, "value:bool=true[value]"},
		{"float", 1.5, "value:float64=1.5[value]"},
		{"complex", complex(1, 2), "value:complex128=(1+2i)[value]"},
		{"control characters", "a\tb", `value:string=a\tb[value]`},
		{"json", `{"a":1}`, "Hint:Valid JSON document"},
		{"timestamp", int64(1700000000), "Hint:Looks like a unix timestamp: 2023-11-14T22:13:20Z"},
		{"long", strings.Repeat("x", 60), strings.Repeat("x", 50) + " . . ."},
		{"multibyte", "ä", "Encoding:UTF-8"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := dump(newHarness(t, harnessConfig{}), tc.value)
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestClosureAndResource(t *testing.T) {
	h := newHarness(t, harnessConfig{})

	out := dump(h, &callbacks{
		OnDone: func(int) error { return nil },
		Events: make(chan string, 4),
	})

	assert.Contains(t, out, ".OnDone:func=func(int) error[value.OnDone]")
	assert.Contains(t, out, "Parameter:=#1 int[]")
	assert.Contains(t, out, ".Events:chan=chan string[value.Events]")
	assert.Contains(t, out, "Capacity:=4[]")
	assert.Contains(t, out, "Direction:=chan[]")
}

func TestMetaSection(t *testing.T) {
	idx := source.Static{
		source.Key(reflect.TypeFor[derived]()): {
			Name:       "derived",
			PkgName:    "analysis",
			Doc:        "derived extends base.",
			Interfaces: []source.Interface{{Name: "Greeter"}},
		},
	}
	h := newHarness(t, harnessConfig{index: idx, options: Options{Meta: true}})

	out := dump(h, &derived{})

	assert.Contains(t, out, "Meta:=[]")
	assert.Contains(t, out, "Type comment:=derived extends base.[]")
	assert.Contains(t, out, "Implements:=analysis.Greeter[]")
	assert.Contains(t, out, "Embeds:=analysis.base[]")
}

func TestBacktrace(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(file, []byte("line one\nline two\nline three\nline four\n"), 0o644))
	h := newHarness(t, harnessConfig{})

	out := h.routing.Backtrace([]model.Frame{
		{Function: "main.main", File: file, Line: 3},
		{Function: "runtime.main", File: filepath.Join(t.TempDir(), "missing.go"), Line: 1},
	})

	assert.Contains(t, out, "Backtrace:2 elements")
	assert.Contains(t, out, "#1:frame=main.main[]")
	assert.Contains(t, out, "<active>3 line three</active>")
	assert.Contains(t, out, "<line>2 line two</line>")
	assert.Contains(t, out, "#2:frame=runtime.main[]")
}
