// Package model defines the Node, the unit of analysis output shared by the
// analyzers, the code generator and the renderer.
package model

import (
	"bytes"
	"reflect"
	"strings"

	"github.com/conduit-lang/vardump/internal/shape"
)

// Flags mark visibility and origin of a node.
type Flags uint16

const (
	FlagPublic Flags = 1 << iota
	FlagProtected
	FlagPrivate
	FlagStatic
	FlagInherited
	FlagDynamic
	FlagUnset
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagPublic, "public"},
	{FlagProtected, "protected"},
	{FlagPrivate, "private"},
	{FlagStatic, "static"},
	{FlagInherited, "inherited"},
	{FlagDynamic, "dynamic"},
	{FlagUnset, "unset"},
}

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Labels returns the names of the set flags in a fixed order.
func (f Flags) Labels() []string {
	var labels []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			labels = append(labels, fn.name)
		}
	}
	return labels
}

// String joins the labels with spaces.
func (f Flags) String() string {
	return strings.Join(f.Labels(), " ")
}

// CodeGenMode tells the code generator how to treat a node.
type CodeGenMode int

const (
	// CodeGenNormal appends the node's connectors to its parent's expression.
	CodeGenNormal CodeGenMode = iota
	// CodeGenSuppressed marks a node that cannot be reached from code.
	CodeGenSuppressed
	// CodeGenMultiStatement flattens an iterator before indexing into it.
	CodeGenMultiStatement
	// CodeGenTransparent nodes group children and add nothing to the expression.
	CodeGenTransparent
	// CodeGenRoot starts a fresh expression taken from Params["root"].
	CodeGenRoot
	// CodeGenMeta nodes describe their parent and have no expression at all.
	CodeGenMeta
)

// Annotation is one ordered key/text pair shown in a node's help area.
type Annotation struct {
	Key  string
	Text string
}

// Node is one entry of the analysis tree. Value references the inspected
// value and is never copied by the engine.
type Node struct {
	Name       string
	Value      reflect.Value
	Tag        shape.Tag
	Type       string
	Normal     string
	Extra      string
	Connectors Connectors
	Flags      Flags
	Meta       []Annotation
	CodeGen    CodeGenMode
	Parent     *Node
	DomID      string
	HelpKey    string

	// Params is the mutable parameter bag handed to extension hooks.
	Params map[string]any

	// Callback streams the rendered children into w. The renderer invokes it
	// once, between the opening and the closing markup of the node.
	Callback func(w *bytes.Buffer)

	depth int
}

// NewRoot creates the top level node for value.
func NewRoot(name string, value reflect.Value) *Node {
	return &Node{
		Name:   name,
		Value:  value,
		Params: make(map[string]any),
	}
}

// NewChild creates a node attached to parent.
func NewChild(parent *Node, name string, value reflect.Value, connector ConnectorType) *Node {
	n := &Node{
		Name:       name,
		Value:      value,
		Parent:     parent,
		Connectors: Connectors{Type: connector},
		Params:     make(map[string]any),
	}
	if parent != nil {
		n.depth = parent.Level() + 1
	}
	return n
}

// NewMeta creates a descriptive leaf row that takes no part in code generation.
func NewMeta(parent *Node, name, text string) *Node {
	n := NewChild(parent, name, reflect.Value{}, ConnectorNone)
	n.Normal = text
	n.CodeGen = CodeGenMeta
	return n
}

// AddMeta appends an annotation. Empty texts are dropped.
func (n *Node) AddMeta(key, text string) {
	if text == "" {
		return
	}
	n.Meta = append(n.Meta, Annotation{Key: key, Text: text})
}

// Level is the number of ancestors. Nodes built with NewChild know it
// without walking the chain.
func (n *Node) Level() int {
	if n.depth == 0 && n.Parent != nil {
		return n.Parent.Level() + 1
	}
	return n.depth
}

// Chain returns the nodes from the root down to n, inclusive.
func (n *Node) Chain() []*Node {
	var chain []*Node
	for p := n; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// HasChildren reports whether the renderer should build an expandable node.
func (n *Node) HasChildren() bool {
	return n.Callback != nil
}

// RenderChildren invokes the deferred callback.
func (n *Node) RenderChildren(w *bytes.Buffer) {
	if n.Callback != nil {
		n.Callback(w)
	}
}

// Param returns a string parameter from the bag.
func (n *Node) Param(key string) string {
	if n.Params == nil {
		return ""
	}
	s, _ := n.Params[key].(string)
	return s
}

// SetParam stores a parameter, creating the bag on first use.
func (n *Node) SetParam(key string, value any) {
	if n.Params == nil {
		n.Params = make(map[string]any)
	}
	n.Params[key] = value
}
