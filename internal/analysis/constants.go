package analysis

import (
	"bytes"
	"go/constant"
	"go/token"
	"reflect"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/source"
	utilstrings "github.com/conduit-lang/vardump/internal/util/strings"
)

// underConstants reports whether n sits in a constants section already, so
// constant values do not list their siblings again.
func underConstants(n *model.Node) bool {
	return n.Parent != nil && n.Parent.CodeGen == model.CodeGenRoot
}

// namedScalar renders a scalar of a named type that has typed constants.
// The value itself stays the node text; its children list the constants.
func (r *Routing) namedScalar(w *bytes.Buffer, n *model.Node, v reflect.Value, info *source.TypeInfo) {
	own := constantOf(v)
	for _, c := range info.Constants {
		if equalConstants(own, c.Value) {
			n.AddMeta("metaHint", r.text("constantMatch", c.Name))
			break
		}
	}
	n.Callback = r.lazy(func(cw *children) {
		r.constantsSection(cw, n, v.Type(), info)
	})
	r.render.ExpandableChild(w, n)
}

func (r *Routing) constantsSection(w *children, parent *model.Node, t reflect.Type, info *source.TypeInfo) {
	s := r.section(parent, "sectionConstants", model.CodeGenRoot)
	s.Type = r.text("elements", len(info.Constants))
	s.SetParam("root", info.PkgName)
	s.Callback = r.lazy(func(cw *children) {
		for _, c := range info.Constants {
			child := model.NewChild(s, c.Name, reflect.Value{}, model.ConnectorConstant)
			child.Type = t.String()
			child.Normal = constantText(c.Value)
			child.Flags = model.FlagStatic
			if utilstrings.StartsUpper(c.Name) {
				child.Flags |= model.FlagPublic
			} else {
				child.Flags |= model.FlagPrivate
				child.CodeGen = model.CodeGenSuppressed
			}
			child.AddMeta("metaComment", c.Doc)
			child.AddMeta("metaDeclaredIn", c.Location.String())
			if !cw.leaf(child) {
				return
			}
		}
	})
	w.stage(StageConstants, s)
}

// constantOf converts a scalar runtime value into a constant for comparison.
func constantOf(v reflect.Value) constant.Value {
	switch v.Kind() {
	case reflect.Bool:
		return constant.MakeBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return constant.MakeInt64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return constant.MakeUint64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return constant.MakeFloat64(v.Float())
	case reflect.String:
		return constant.MakeString(v.String())
	}
	return constant.MakeUnknown()
}

func equalConstants(a, b constant.Value) bool {
	if a == nil || b == nil || a.Kind() == constant.Unknown || b.Kind() == constant.Unknown {
		return false
	}
	if a.Kind() != b.Kind() && !(numeric(a) && numeric(b)) {
		return false
	}
	return constant.Compare(a, token.EQL, b)
}

func numeric(c constant.Value) bool {
	switch c.Kind() {
	case constant.Int, constant.Float:
		return true
	}
	return false
}

func constantText(c constant.Value) string {
	if c == nil {
		return ""
	}
	if c.Kind() == constant.String {
		return constant.StringVal(c)
	}
	return c.ExactString()
}
