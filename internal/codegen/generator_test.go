package codegen

import (
	"reflect"
	"strings"
	"testing"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func child(parent *model.Node, name string, v any, c model.ConnectorType) *model.Node {
	var rv reflect.Value
	if v != nil {
		rv = reflect.ValueOf(v)
	}
	return model.NewChild(parent, name, rv, c)
}

func TestChainRoundTrip(t *testing.T) {
	g := New(nil)
	assert.Equal(t, "rootExpr->prop['key']", g.Chain("rootExpr", "->prop", "['key']"))

	root := model.NewRoot("rootExpr", reflect.ValueOf(struct{}{}))
	prop := child(root, "Prop", map[string]int{}, model.ConnectorField)
	key := child(prop, "key", 1, model.ConnectorKey)

	segments := []string{
		prop.Connectors.Left() + prop.Name + prop.Connectors.Right(),
		key.Connectors.Left() + key.Connectors.KeyLiteral(key.Name) + key.Connectors.Right(),
	}
	assert.Equal(t, g.Chain("rootExpr", segments...), g.Generate(key))
	assert.Equal(t, `rootExpr.Prop["key"]`, g.Generate(key))
}

func TestGenerateConnectors(t *testing.T) {
	g := New(GoDialect{})
	root := model.NewRoot("value", reflect.ValueOf(struct{}{}))

	items := child(root, "Items", []int{1}, model.ConnectorField)
	idx := child(items, "0", 1, model.ConnectorIndex)
	assert.Equal(t, "value.Items[0]", g.Generate(idx))

	method := child(root, "Area", nil, model.ConnectorMethod)
	method.Connectors.Params = "scale"
	assert.Equal(t, "value.Area(scale)", g.Generate(method))

	promoted := child(root, "ID", 1, model.ConnectorField)
	promoted.Connectors.Path = []string{"Base"}
	assert.Equal(t, "value.Base.ID", g.Generate(promoted))

	intKey := child(root, "Lookup", map[int]string{}, model.ConnectorField)
	k := child(intKey, "7", "x", model.ConnectorKey)
	k.Connectors.Key = "7"
	assert.Equal(t, "value.Lookup[7]", g.Generate(k))
}

func TestGenerateSuppressedAnywhereInChain(t *testing.T) {
	g := New(nil)
	root := model.NewRoot("value", reflect.ValueOf(struct{}{}))
	private := child(root, "secret", map[string]int{}, model.ConnectorField)
	private.CodeGen = model.CodeGenSuppressed
	leaf := child(private, "a", 1, model.ConnectorKey)

	assert.Equal(t, Placeholder, g.Generate(private))
	assert.Equal(t, Placeholder, g.Generate(leaf))
}

func TestGenerateTransparentAndMeta(t *testing.T) {
	g := New(nil)
	root := model.NewRoot("value", reflect.ValueOf(struct{}{}))
	section := child(root, "Methods", nil, model.ConnectorNone)
	section.CodeGen = model.CodeGenTransparent
	m := child(section, "Name", nil, model.ConnectorMethod)

	assert.Equal(t, "value.Name()", g.Generate(m))
	assert.Equal(t, "", g.Generate(model.NewMeta(m, "Comment", "x")))
	assert.Equal(t, "", g.Generate(nil))
}

func TestGenerateRoot(t *testing.T) {
	g := New(nil)
	root := model.NewRoot("value", reflect.ValueOf(struct{}{}))
	consts := child(root, "Constants", nil, model.ConnectorNone)
	consts.CodeGen = model.CodeGenRoot
	consts.SetParam("root", "shape")
	c := child(consts, "Object", 9, model.ConnectorConstant)

	assert.Equal(t, "shape.Object", g.Generate(c))
	assert.Equal(t, Placeholder, New(TemplateDialect{}).Generate(c))
}

func TestGenerateMultiStatement(t *testing.T) {
	g := New(nil)
	tests := []struct {
		kind string
		want string
	}{
		{IteratorSeq2, `maps.Collect(value.Bag.All())["a"]`},
		{IteratorSeq, `slices.Collect(value.Bag.All())["a"]`},
		{IteratorPlain, `vardump.Collect(value.Bag)["a"]`},
		{IteratorAggregate, `vardump.Collect(value.Bag.Iterator())["a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			root := model.NewRoot("value", reflect.ValueOf(struct{}{}))
			bag := child(root, "Bag", struct{}{}, model.ConnectorField)
			info := child(bag, "Traversable info", model.Pairs{}, model.ConnectorNone)
			info.CodeGen = model.CodeGenMultiStatement
			info.SetParam("iterator", tt.kind)
			entry := child(info, "a", 1, model.ConnectorKey)
			assert.Equal(t, tt.want, g.Generate(entry))
		})
	}

	root := model.NewRoot("value", reflect.ValueOf(struct{}{}))
	info := child(root, "Traversable info", model.Pairs{}, model.ConnectorNone)
	info.CodeGen = model.CodeGenMultiStatement
	assert.Equal(t, Placeholder, g.Generate(info))
}

func TestGoDialectTypeAssertionAndDeref(t *testing.T) {
	type holder struct {
		Any  any
		Ptr  *[]int
		Rows *map[string]int
	}
	h := holder{Any: map[string]int{"x": 1}, Ptr: &[]int{1}, Rows: &map[string]int{}}
	hv := reflect.ValueOf(&h).Elem()

	g := New(nil)
	root := model.NewRoot("value", hv)
	anyField := model.NewChild(root, "Any", hv.Field(0), model.ConnectorField)
	x := child(anyField, "x", 1, model.ConnectorKey)
	assert.Equal(t, `value.Any.(map[string]int)["x"]`, g.Generate(x))

	ptr := model.NewChild(root, "Ptr", hv.Field(1), model.ConnectorField)
	first := child(ptr, "0", 1, model.ConnectorIndex)
	assert.Equal(t, `(*value.Ptr)[0]`, g.Generate(first))
}

func TestTemplateDialect(t *testing.T) {
	g, err := ForName("template")
	require.NoError(t, err)

	root := model.NewRoot("value", reflect.ValueOf(struct{}{}))
	items := child(root, "Items", map[string]int{}, model.ConnectorField)
	key := child(items, "a b", 1, model.ConnectorKey)
	name := child(key, "Name", "", model.ConnectorField)
	assert.Equal(t, `{{ (index .Items "a b").Name }}`, g.Generate(name))

	getter := child(root, "GetName", nil, model.ConnectorMethod)
	assert.Equal(t, "{{ .GetName }}", g.Generate(getter))

	withArgs := child(root, "Scale", nil, model.ConnectorMethod)
	withArgs.Connectors.Params = "f"
	assert.Equal(t, Placeholder, g.Generate(withArgs))

	assert.Equal(t, "{{ . }}", g.Generate(root))
}

func TestForName(t *testing.T) {
	g, err := ForName("")
	require.NoError(t, err)
	assert.Equal(t, "go", g.Dialect().Name())

	_, err = ForName("php")
	assert.Error(t, err)
}

type countingDialect struct {
	GoDialect
	segments int
}

func (d *countingDialect) Segment(expr string, n *model.Node) (string, bool) {
	d.segments++
	return d.GoDialect.Segment(expr, n)
}

func TestGenerateReusesParentExpression(t *testing.T) {
	d := &countingDialect{}
	g := New(d)
	root := model.NewRoot("value", reflect.ValueOf(struct{}{}))
	items := child(root, "Items", []int{1, 2}, model.ConnectorField)

	assert.Equal(t, "value.Items", g.Generate(items))
	assert.Equal(t, 1, d.segments)

	first := child(items, "0", 1, model.ConnectorIndex)
	second := child(items, "1", 2, model.ConnectorIndex)
	assert.Equal(t, "value.Items[0]", g.Generate(first))
	assert.Equal(t, "value.Items[1]", g.Generate(second))
	assert.Equal(t, "value.Items[1]", g.Generate(second))
	assert.Equal(t, 3, d.segments)
}

func TestGenerateDeepChain(t *testing.T) {
	d := &countingDialect{}
	g := New(d)
	n := model.NewRoot("value", reflect.ValueOf(struct{}{}))
	const depth = 5000
	for range depth {
		n = child(n, "Next", nil, model.ConnectorField)
		g.Generate(n)
	}

	assert.Equal(t, depth, d.segments)
	assert.Equal(t, "value"+strings.Repeat(".Next", depth), g.Generate(n))
}
