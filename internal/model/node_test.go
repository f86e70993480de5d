package model

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainAndLevel(t *testing.T) {
	root := NewRoot("value", reflect.ValueOf(1))
	child := NewChild(root, "Prop", reflect.Value{}, ConnectorField)
	leaf := NewChild(child, "key", reflect.Value{}, ConnectorKey)

	chain := leaf.Chain()
	require.Len(t, chain, 3)
	assert.Same(t, root, chain[0])
	assert.Same(t, leaf, chain[2])
	assert.Equal(t, 2, leaf.Level())
	assert.Equal(t, 0, root.Level())
}

func TestConnectors(t *testing.T) {
	tests := []struct {
		name        string
		c           Connectors
		left, right string
	}{
		{"field", Connectors{Type: ConnectorField}, ".", ""},
		{"index", Connectors{Type: ConnectorIndex}, "[", "]"},
		{"key", Connectors{Type: ConnectorKey}, "[", "]"},
		{"method", Connectors{Type: ConnectorMethod, Params: "x int"}, ".", "(x int)"},
		{"none", Connectors{}, "", ""},
		{"custom", Connectors{Type: ConnectorField, CustomLeft: "->"}, "->", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.left, tt.c.Left())
			assert.Equal(t, tt.right, tt.c.Right())
		})
	}
	assert.Equal(t, `"a\"b"`, Connectors{}.KeyLiteral(`a"b`))
	assert.Equal(t, "42", Connectors{Key: "42"}.KeyLiteral("ignored"))
}

func TestFlags(t *testing.T) {
	f := FlagPrivate | FlagInherited
	assert.True(t, f.Has(FlagPrivate))
	assert.False(t, f.Has(FlagPublic))
	assert.Equal(t, []string{"private", "inherited"}, f.Labels())
	assert.Equal(t, "private inherited", f.String())
}

func TestRenderChildrenStreams(t *testing.T) {
	n := NewRoot("v", reflect.Value{})
	assert.False(t, n.HasChildren())

	var b bytes.Buffer
	n.RenderChildren(&b)
	assert.Zero(t, b.Len())

	n.Callback = func(w *bytes.Buffer) {
		w.WriteString("children")
	}
	b.WriteString("<")
	n.RenderChildren(&b)
	assert.True(t, n.HasChildren())
	assert.Equal(t, "<children", b.String())
}

func TestLevelIsKnownForDeepChains(t *testing.T) {
	n := NewRoot("v", reflect.Value{})
	for i := 0; i < 10000; i++ {
		n = NewChild(n, "Next", reflect.Value{}, ConnectorField)
	}
	assert.Equal(t, 10000, n.Level())

	literal := &Node{Parent: n}
	assert.Equal(t, 10001, literal.Level())
}

func TestMeta(t *testing.T) {
	n := NewRoot("v", reflect.Value{})
	n.AddMeta("comment", "")
	n.AddMeta("comment", "hello")
	n.AddMeta("declaredIn", "x.go:1")

	require.Len(t, n.Meta, 2)
	assert.Equal(t, Annotation{Key: "declaredIn", Text: "x.go:1"}, n.Meta[1])

	row := NewMeta(n, "Length", "3")
	assert.Equal(t, CodeGenMeta, row.CodeGen)
	assert.Equal(t, "3", row.Normal)
}

func TestParams(t *testing.T) {
	n := &Node{}
	assert.Empty(t, n.Param("x"))
	n.SetParam("x", "y")
	assert.Equal(t, "y", n.Param("x"))
}
