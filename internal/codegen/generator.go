// Package codegen rebuilds the source expression that reaches a node from
// the dumped root value, for display and copy.
package codegen

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/vardump/internal/model"
)

// Placeholder is shown for nodes that cannot be reached from code.
const Placeholder = ". . ."

// Dialect renders connectors in one target syntax.
type Dialect interface {
	Name() string
	// Root turns the root node name into the start of the expression.
	Root(name string) string
	// Package starts an expression at a package qualifier.
	Package(name string) (string, bool)
	// Segment appends n to expr.
	Segment(expr string, n *model.Node) (string, bool)
	// Flatten turns the iterator reached by expr into an indexable value.
	Flatten(expr string, n *model.Node) (string, bool)
	// Wrap finishes the expression.
	Wrap(expr string) string
}

// Generator walks a node's ancestor chain through a Dialect. The expression
// reached at every node is remembered, so a node costs one Segment call once
// its parent is known. A Generator belongs to one dump.
type Generator struct {
	dialect Dialect
	memo    map[*model.Node]prefix
}

// prefix is the state of the walk after one node of a chain.
type prefix struct {
	expr string
	// done ends the walk with result.
	done   bool
	result string
}

var (
	unreachable = prefix{done: true, result: Placeholder}
	described   = prefix{done: true}
)

// New creates a generator. A nil dialect selects GoDialect.
func New(d Dialect) *Generator {
	if d == nil {
		d = GoDialect{}
	}
	return &Generator{dialect: d, memo: make(map[*model.Node]prefix)}
}

// ForName returns the generator of a registered dialect name.
func ForName(name string) (*Generator, error) {
	switch name {
	case "", "go":
		return New(GoDialect{}), nil
	case "template":
		return New(TemplateDialect{}), nil
	}
	return nil, fmt.Errorf("unknown code generation dialect %q", name)
}

// Dialect returns the active dialect.
func (g *Generator) Dialect() Dialect {
	return g.dialect
}

// Generate returns the expression for n, Placeholder when any node on the
// way is unreachable and "" for descriptive meta rows.
func (g *Generator) Generate(n *model.Node) string {
	if n == nil || n.CodeGen == model.CodeGenMeta {
		return ""
	}
	p := g.walk(n)
	if p.done {
		return p.result
	}
	return g.dialect.Wrap(p.expr)
}

// walk resolves the prefix of n, starting from the nearest ancestor that
// is already known.
func (g *Generator) walk(n *model.Node) prefix {
	var pending []*model.Node
	var p prefix
	for c := n; c != nil; c = c.Parent {
		if known, ok := g.memo[c]; ok {
			p = known
			break
		}
		pending = append(pending, c)
	}
	for i := len(pending) - 1; i >= 0; i-- {
		p = g.step(p, pending[i])
		g.memo[pending[i]] = p
	}
	return p
}

func (g *Generator) step(p prefix, c *model.Node) prefix {
	if p.done {
		return p
	}
	var ok bool
	switch c.CodeGen {
	case model.CodeGenMeta:
		return described
	case model.CodeGenSuppressed:
		return unreachable
	case model.CodeGenTransparent:
		return p
	case model.CodeGenRoot:
		if p.expr, ok = g.dialect.Package(c.Param("root")); !ok {
			return unreachable
		}
		return p
	}

	if c.Parent == nil {
		p.expr = g.dialect.Root(c.Name)
	} else if p.expr, ok = g.dialect.Segment(p.expr, c); !ok {
		return unreachable
	}

	if c.CodeGen == model.CodeGenMultiStatement {
		if p.expr, ok = g.dialect.Flatten(p.expr, c); !ok {
			return unreachable
		}
	}
	return p
}

// Chain concatenates already rendered connector segments onto root.
func (g *Generator) Chain(root string, segments ...string) string {
	var b strings.Builder
	b.WriteString(root)
	for _, s := range segments {
		b.WriteString(s)
	}
	return b.String()
}
