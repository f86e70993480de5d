package model

import "strconv"

// ConnectorType describes how a node attaches to its parent expression.
type ConnectorType int

const (
	ConnectorNone ConnectorType = iota
	// ConnectorField is a struct field: .Name
	ConnectorField
	// ConnectorIndex is a slice or array position: [3]
	ConnectorIndex
	// ConnectorKey is a map key: ["key"]
	ConnectorKey
	// ConnectorMethod is a method call: .Name()
	ConnectorMethod
	// ConnectorConstant is a package level constant: pkg.Name
	ConnectorConstant
)

// Connectors holds the connector type plus optional parameters, such as the
// argument list of a method or a literal map key.
type Connectors struct {
	Type   ConnectorType
	Params string
	// Key is the Go literal of a ConnectorKey. Empty means the quoted name.
	Key string
	// Path lists the embedded field names leading to a promoted field when the
	// short selector would be ambiguous.
	Path []string

	CustomLeft  string
	CustomRight string
}

// Left is the text shown before the name.
func (c Connectors) Left() string {
	if c.CustomLeft != "" {
		return c.CustomLeft
	}
	switch c.Type {
	case ConnectorField, ConnectorMethod, ConnectorConstant:
		return "."
	case ConnectorIndex, ConnectorKey:
		return "["
	}
	return ""
}

// Right is the text shown after the name.
func (c Connectors) Right() string {
	if c.CustomRight != "" {
		return c.CustomRight
	}
	switch c.Type {
	case ConnectorIndex, ConnectorKey:
		return "]"
	case ConnectorMethod:
		return "(" + c.Params + ")"
	}
	return ""
}

// KeyLiteral renders the map key for name as Go source.
func (c Connectors) KeyLiteral(name string) string {
	if c.Key != "" {
		return c.Key
	}
	return strconv.Quote(name)
}
