package analysis

import (
	"bytes"
	"reflect"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/shape"
	"github.com/conduit-lang/vardump/internal/source"
)

// analyseObject renders a struct. Its children are, in this order, the meta
// section, the fields, the iteration result, the getters, the method list
// and the output of the configured debug methods.
func (r *Routing) analyseObject(w *bytes.Buffer, n *model.Node) {
	v := structValue(n.Value)
	n.Type = "struct"
	n.Normal = typeLabel(n.Value)

	n.Callback = r.lazy(func(cw *children) {
		if r.opts.Meta {
			if s := r.metaSection(n, v); s != nil {
				cw.stage(StageMeta, s)
			}
		}
		cw.group(StageProperties, n, func(pw *children) {
			r.properties(pw, n, v)
		})
		if r.opts.Traversable && n.Tag == shape.Traversable {
			r.traversable(cw, n, v)
		}
		if r.opts.Getter {
			if s := r.getterSection(n, v); s != nil {
				cw.stage(StageGetter, s)
			}
		}
		if s := r.methodsSection(n, v); s != nil {
			cw.stage(StageMethods, s)
		}
		if len(r.opts.DebugMethods) > 0 {
			cw.group(StageDebugMethods, n, func(dw *children) {
				r.debugMethods(dw, n, v)
			})
		}
	})
	r.render.ExpandableChild(w, n)
}

// properties lists the fields of v. Fields of embedded structs are listed
// flat next to the struct's own fields, flagged as inherited.
func (r *Routing) properties(w *children, parent *model.Node, v reflect.Value) {
	t := v.Type()
	info, _ := r.index.Type(t)

	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous && structLike(f.Type) {
			continue
		}
		inherited := len(f.Index) > 1
		var flags model.Flags
		switch {
		case f.IsExported():
			flags = model.FlagPublic
		case inherited:
			if !r.opts.ProtectedProperties {
				continue
			}
			flags = model.FlagProtected
		default:
			if !r.opts.PrivateProperties {
				continue
			}
			flags = model.FlagPrivate
		}

		child := model.NewChild(parent, f.Name, reflect.Value{}, model.ConnectorField)
		child.Flags = flags
		if !f.IsExported() {
			child.CodeGen = model.CodeGenSuppressed
		}
		r.fieldMeta(child, t, info, f)

		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			// promoted through a nil embedded pointer
			child.Flags |= model.FlagUnset
			child.HelpKey = "unset"
			child.Type = f.Type.String()
			if !w.leaf(child) {
				return
			}
			continue
		}
		child.Value = readable(fv)
		if !w.dispatch(child) {
			return
		}
	}
}

func (r *Routing) fieldMeta(child *model.Node, t reflect.Type, info *source.TypeInfo, f reflect.StructField) {
	declaring := t
	if len(f.Index) > 1 {
		child.Flags |= model.FlagInherited
		declaring = deref(t.FieldByIndex(f.Index[:len(f.Index)-1]).Type)
		info, _ = r.index.Type(declaring)
	}
	if decl, ok := info.Field(f.Name); ok {
		child.AddMeta("metaComment", decl.Doc)
		child.AddMeta("metaDeclaredIn", decl.Location.String())
	}
	if declaring != t {
		child.AddMeta("metaDeclaringType", declaring.String())
	}
	child.AddMeta("metaTag", string(f.Tag))
}
