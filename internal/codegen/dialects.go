package codegen

import (
	"reflect"
	"strings"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/shape"
)

// Iterator kinds stored in Params["iterator"] of multi-statement nodes.
const (
	IteratorSeq       = "seq"
	IteratorSeq2      = "seq2"
	IteratorPlain     = "plain"
	IteratorAggregate = "aggregate"
)

// GoDialect produces Go expressions such as value.Items["key"].Name().
type GoDialect struct{}

// Name implements Dialect.
func (GoDialect) Name() string { return "go" }

// Root implements Dialect.
func (GoDialect) Root(name string) string { return name }

// Package implements Dialect.
func (GoDialect) Package(name string) (string, bool) { return name, name != "" }

// Segment implements Dialect.
func (GoDialect) Segment(expr string, n *model.Node) (string, bool) {
	c := n.Connectors
	parent := effectiveParent(n)
	if parent != nil && parent.Parent != nil {
		expr = assertConcrete(expr, parent.Value)
	}

	switch c.Type {
	case model.ConnectorNone:
		return expr, true
	case model.ConnectorField:
		return expr + "." + selector(c.Path, n.Name), true
	case model.ConnectorMethod:
		return expr + "." + selector(c.Path, n.Name) + "(" + c.Params + ")", true
	case model.ConnectorConstant:
		return expr + "." + n.Name, true
	case model.ConnectorIndex:
		return derefForIndex(expr, parent) + "[" + n.Name + "]", true
	case model.ConnectorKey:
		return derefForIndex(expr, parent) + "[" + c.KeyLiteral(n.Name) + "]", true
	}
	return expr, false
}

// Flatten implements Dialect.
func (GoDialect) Flatten(expr string, n *model.Node) (string, bool) {
	switch n.Param("iterator") {
	case IteratorSeq:
		return "slices.Collect(" + expr + "." + shape.SeqMethodName + "())", true
	case IteratorSeq2:
		return "maps.Collect(" + expr + "." + shape.SeqMethodName + "())", true
	case IteratorPlain:
		return "vardump.Collect(" + expr + ")", true
	case IteratorAggregate:
		return "vardump.Collect(" + expr + ".Iterator())", true
	}
	return expr, false
}

// Wrap implements Dialect.
func (GoDialect) Wrap(expr string) string { return expr }

func selector(path []string, name string) string {
	if len(path) == 0 {
		return name
	}
	return strings.Join(path, ".") + "." + name
}

// effectiveParent skips grouping nodes that add nothing to the expression.
func effectiveParent(n *model.Node) *model.Node {
	p := n.Parent
	for p != nil && p.CodeGen == model.CodeGenTransparent {
		p = p.Parent
	}
	return p
}

// assertConcrete adds a type assertion when the parent is an interface
// holding a concrete value, since Go cannot select through an interface.
func assertConcrete(expr string, parent reflect.Value) string {
	if !parent.IsValid() || parent.Kind() != reflect.Interface || parent.IsNil() {
		return expr
	}
	return expr + ".(" + parent.Elem().Type().String() + ")"
}

// derefForIndex dereferences pointers to slices and maps, which Go does not
// index implicitly.
func derefForIndex(expr string, parent *model.Node) string {
	if parent == nil {
		return expr
	}
	v := shape.Outermost(parent.Value)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return expr
	}
	switch v.Elem().Kind() {
	case reflect.Slice, reflect.Map:
		return "(*" + expr + ")"
	}
	return expr
}

// TemplateDialect produces text/template actions such as
// {{ (index .Items "key").Name }}.
type TemplateDialect struct{}

// Name implements Dialect.
func (TemplateDialect) Name() string { return "template" }

// Root implements Dialect.
func (TemplateDialect) Root(string) string { return "." }

// Package implements Dialect.
func (TemplateDialect) Package(string) (string, bool) { return "", false }

// Segment implements Dialect.
func (TemplateDialect) Segment(expr string, n *model.Node) (string, bool) {
	c := n.Connectors
	switch c.Type {
	case model.ConnectorNone:
		return expr, true
	case model.ConnectorField:
		return templateField(expr, selector(c.Path, n.Name)), true
	case model.ConnectorMethod:
		if c.Params != "" {
			return "", false
		}
		return templateField(expr, selector(c.Path, n.Name)), true
	case model.ConnectorIndex:
		return "(index " + expr + " " + n.Name + ")", true
	case model.ConnectorKey:
		return "(index " + expr + " " + c.KeyLiteral(n.Name) + ")", true
	}
	return "", false
}

// Flatten implements Dialect.
func (TemplateDialect) Flatten(string, *model.Node) (string, bool) { return "", false }

// Wrap implements Dialect.
func (TemplateDialect) Wrap(expr string) string { return "{{ " + expr + " }}" }

func templateField(expr, sel string) string {
	if expr == "." {
		return "." + sel
	}
	return expr + "." + sel
}
