// Package source answers documentation and declaration questions about
// runtime types by reading the Go source they were compiled from.
package source

import (
	"fmt"
	"go/constant"
	"reflect"
	"strings"
)

// Index looks up source information for a type. Implementations must be
// safe for concurrent use and degrade to "not found" when no source exists.
type Index interface {
	Type(t reflect.Type) (*TypeInfo, bool)
}

// Location is a position in a source file.
type Location struct {
	File string
	Line int
}

// String formats the location as file:line, empty when unknown.
func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Field is a struct field declaration.
type Field struct {
	Name     string
	Doc      string
	Location Location
}

// Param is one parameter or result of a method.
type Param struct {
	Name string
	Type string
}

// Method is a method declaration, exported or not.
type Method struct {
	Name     string
	Doc      string
	Location Location
	// Receiver is the receiver variable name, empty when unnamed.
	Receiver string
	Pointer  bool
	Params   []Param
	Results  []Param
	// Body is the printed source of the method body.
	Body string
}

// Signature formats the parameter and result lists.
func (m Method) Signature() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(joinParams(m.Params))
	b.WriteString(")")
	switch {
	case len(m.Results) == 1 && m.Results[0].Name == "":
		b.WriteString(" " + m.Results[0].Type)
	case len(m.Results) > 0:
		b.WriteString(" (" + joinParams(m.Results) + ")")
	}
	return b.String()
}

func joinParams(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if p.Name == "" {
			parts[i] = p.Type
		} else {
			parts[i] = p.Name + " " + p.Type
		}
	}
	return strings.Join(parts, ", ")
}

// Constant is a typed package level constant.
type Constant struct {
	Name     string
	Value    constant.Value
	Doc      string
	Location Location
}

// Interface is an interface of the same package the type implements.
type Interface struct {
	Name string
	// Methods maps method names to their doc comments.
	Methods map[string]string
}

// TypeInfo is everything the index knows about one named type.
type TypeInfo struct {
	Name     string
	PkgPath  string
	PkgName  string
	Doc      string
	Location Location
	Fields   map[string]Field
	Methods  map[string]Method
	// Constants are listed in declaration order.
	Constants  []Constant
	Interfaces []Interface
}

// Method returns the declaration of name.
func (t *TypeInfo) Method(name string) (Method, bool) {
	if t == nil {
		return Method{}, false
	}
	m, ok := t.Methods[name]
	return m, ok
}

// Field returns the declaration of name.
func (t *TypeInfo) Field(name string) (Field, bool) {
	if t == nil {
		return Field{}, false
	}
	f, ok := t.Fields[name]
	return f, ok
}

// Nop is an Index without any source.
type Nop struct{}

// Type implements Index.
func (Nop) Type(reflect.Type) (*TypeInfo, bool) { return nil, false }

// Static serves fixed type information, keyed by package path and type
// name. It backs tests and precomputed indexes.
type Static map[string]*TypeInfo

// Key returns the Static key of t.
func Key(t reflect.Type) string {
	t = named(t)
	if t == nil {
		return ""
	}
	return t.PkgPath() + "." + baseName(t.Name())
}

// Type implements Index.
func (s Static) Type(t reflect.Type) (*TypeInfo, bool) {
	info, ok := s[Key(t)]
	return info, ok
}

// named strips pointers and reports nil for unnamed types.
func named(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" || t.PkgPath() == "" {
		return nil
	}
	return t
}

// baseName drops type arguments of generic instantiations.
func baseName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}
