package analysis

import (
	"reflect"

	"github.com/conduit-lang/vardump/internal/model"
)

// getterSection lists the getters of v with the values of their backing
// fields. Getters are never called.
func (r *Routing) getterSection(parent *model.Node, v reflect.Value) *model.Node {
	t := v.Type()
	pt := reflect.PointerTo(t)
	var getters []reflect.Method
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if GetterPrefix(m.Name) == "" || m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			continue
		}
		getters = append(getters, m)
	}
	if len(getters) == 0 {
		return nil
	}

	s := r.section(parent, "sectionGetter", model.CodeGenTransparent)
	s.Type = r.text("elements", len(getters))
	s.Callback = r.lazy(func(w *children) {
		for _, m := range getters {
			if !r.getter(w, s, v, m) {
				return
			}
		}
	})
	return s
}

func (r *Routing) getter(w *children, parent *model.Node, v reflect.Value, m reflect.Method) bool {
	child := model.NewChild(parent, m.Name, reflect.Value{}, model.ConnectorMethod)
	child.Flags = model.FlagPublic

	res, ok := r.resolver.Resolve(v.Type(), m.Name)
	if !ok {
		child.Type = m.Type.Out(0).String()
		child.Normal = r.text("unknownValue")
		child.HelpKey = "getterUnknown"
		return w.leaf(child)
	}

	if len(res.Index) > 1 {
		child.Flags |= model.FlagInherited
	}
	child.AddMeta("metaBackingProperty", res.Field)
	if res.BySource {
		child.HelpKey = "getterResolvedBySource"
	}
	fv, err := v.FieldByIndexErr(res.Index)
	if err != nil {
		child.Type = m.Type.Out(0).String()
		child.Flags |= model.FlagUnset
		child.HelpKey = "unset"
		return w.leaf(child)
	}
	child.Value = readable(fv)
	return w.dispatch(child)
}
