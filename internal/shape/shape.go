// Package shape classifies runtime values into the closed set of shapes
// the analysis engine knows how to handle.
package shape

import (
	"reflect"
)

// Tag is the shape of a value as seen by the dispatcher.
type Tag int

const (
	Null Tag = iota
	Bool
	Int
	Float
	String
	Array
	LargeArray
	Resource
	Closure
	Object
	Traversable
)

var tagNames = [...]string{
	Null:        "null",
	Bool:        "bool",
	Int:         "int",
	Float:       "float",
	String:      "string",
	Array:       "array",
	LargeArray:  "large-array",
	Resource:    "resource",
	Closure:     "closure",
	Object:      "object",
	Traversable: "object-implementing-traversable",
}

// String returns the tag name
func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[t]
}

// IsObject reports whether the tag describes a struct value.
func (t Tag) IsObject() bool {
	return t == Object || t == Traversable
}

// IsContainer reports whether values of this shape may hold other values.
func (t Tag) IsContainer() bool {
	return t == Array || t == LargeArray || t.IsObject()
}

// Classify determines the shape of v. Pointers and interfaces are followed
// until a concrete value is found; nil anywhere along the way is Null.
// threshold is the large-array limit, zero or less disables it.
func Classify(v reflect.Value, threshold int) Tag {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return Null
		}
		if v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Struct && IterationOf(v.Type()) != NotIterable {
			return Traversable
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return Null
	}

	switch v.Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Int
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return Float
	case reflect.String:
		return String
	case reflect.Slice, reflect.Map:
		if v.IsNil() {
			return Null
		}
		return arrayTag(v.Len(), threshold)
	case reflect.Array:
		return arrayTag(v.Len(), threshold)
	case reflect.Func:
		if v.IsNil() {
			return Null
		}
		return Closure
	case reflect.Chan:
		if v.IsNil() {
			return Null
		}
		return Resource
	case reflect.Struct:
		if IterationOf(v.Type()) != NotIterable {
			return Traversable
		}
		return Object
	default:
		// unsafe.Pointer and anything the runtime adds later
		return Resource
	}
}

func arrayTag(n, threshold int) Tag {
	if threshold > 0 && n > threshold {
		return LargeArray
	}
	return Array
}

// Indirect follows interfaces and pointers and returns the first value that
// is neither. The result is invalid when a nil was met.
func Indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// Outermost strips interfaces only, keeping pointers so method sets and
// identities stay intact.
func Outermost(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// TypeName returns a short display name for t, "nil" for no type.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
