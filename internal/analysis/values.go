package analysis

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"unsafe"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/shape"
)

// readable lifts the read-only flag of values reached through unexported
// fields. Only addressable values can be lifted.
func readable(v reflect.Value) reflect.Value {
	if !v.IsValid() || v.CanInterface() || !v.CanAddr() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// addressable returns v itself when it is addressable and an addressable
// copy otherwise, so unexported fields and pointer methods can be reached.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() || !v.CanInterface() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// structValue unwraps n's value down to an addressable struct.
func structValue(v reflect.Value) reflect.Value {
	return addressable(readable(shape.Indirect(v)))
}

// typeLabel is the display type of v, looking through interfaces.
func typeLabel(v reflect.Value) string {
	v = shape.Outermost(v)
	if !v.IsValid() {
		return "nil"
	}
	return shape.TypeName(v.Type())
}

// structLike reports whether an embedded field of type t promotes fields.
func structLike(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// keyChild creates the node of a map or pair key. String keys display as
// ["key"], numeric and bool keys as [7]. Keys without a literal form cannot
// be regenerated as code.
func keyChild(parent *model.Node, key, value reflect.Value) *model.Node {
	key = shape.Outermost(key)
	if !key.IsValid() {
		child := model.NewChild(parent, "nil", value, model.ConnectorKey)
		child.Connectors.Key = "nil"
		return child
	}
	switch key.Kind() {
	case reflect.String:
		// The name is the quoted literal without its quotes, so escapes
		// show the way they are written in code.
		lit := strconv.Quote(key.String())
		child := model.NewChild(parent, lit[1:len(lit)-1], value, model.ConnectorKey)
		child.Connectors.Key = lit
		child.Connectors.CustomLeft = `["`
		child.Connectors.CustomRight = `"]`
		return child
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		name := strconv.FormatInt(key.Int(), 10)
		child := model.NewChild(parent, name, value, model.ConnectorKey)
		child.Connectors.Key = name
		return child
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		name := strconv.FormatUint(key.Uint(), 10)
		child := model.NewChild(parent, name, value, model.ConnectorKey)
		child.Connectors.Key = name
		return child
	case reflect.Float32, reflect.Float64:
		name := strconv.FormatFloat(key.Float(), 'g', -1, key.Type().Bits())
		child := model.NewChild(parent, name, value, model.ConnectorKey)
		child.Connectors.Key = name
		return child
	case reflect.Bool:
		name := strconv.FormatBool(key.Bool())
		child := model.NewChild(parent, name, value, model.ConnectorKey)
		child.Connectors.Key = name
		return child
	}
	child := model.NewChild(parent, fmt.Sprint(key), value, model.ConnectorKey)
	child.CodeGen = model.CodeGenSuppressed
	return child
}

// sortedKeys orders map keys deterministically: numbers numerically,
// strings lexically and anything else by its printed form.
func sortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	slices.SortStableFunc(keys, compareKeys)
	return keys
}

func compareKeys(a, b reflect.Value) int {
	a, b = shape.Outermost(a), shape.Outermost(b)
	if a.IsValid() && b.IsValid() && a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return cmp.Compare(a.Int(), b.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return cmp.Compare(a.Uint(), b.Uint())
		case reflect.Float32, reflect.Float64:
			return cmp.Compare(a.Float(), b.Float())
		case reflect.String:
			return cmp.Compare(a.String(), b.String())
		}
	}
	return cmp.Compare(printKey(a), printKey(b))
}

func printKey(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	if v.CanInterface() {
		return fmt.Sprintf("%T %v", v.Interface(), v.Interface())
	}
	return v.Type().String()
}
