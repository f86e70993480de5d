package analysis

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/source"
	utilstrings "github.com/conduit-lang/vardump/internal/util/strings"
)

// embedDepth bounds the walk through embedded types.
const embedDepth = 5

type method struct {
	name      string
	flags     model.Flags
	declaring reflect.Type
	decl      source.Method
	hasDecl   bool
	// typ is the reflected method type without receiver, nil for methods
	// only known from source.
	typ reflect.Type
}

// methodsSection lists the methods of the struct type of v. Exported ones
// come from the method set of the pointer type, unexported ones from the
// source index.
func (r *Routing) methodsSection(parent *model.Node, v reflect.Value) *model.Node {
	list := r.methods(v.Type())
	if len(list) == 0 {
		return nil
	}

	s := r.section(parent, "sectionMethods", model.CodeGenTransparent)
	s.Type = r.text("elements", len(list))
	s.Callback = r.lazy(func(w *children) {
		for _, m := range list {
			if !w.expandable(r.methodNode(s, m)) {
				return
			}
		}
	})
	return s
}

func (r *Routing) methods(t reflect.Type) []method {
	var list []method
	seen := make(map[string]bool)

	pt := reflect.PointerTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		rm := pt.Method(i)
		m := method{name: rm.Name, flags: model.FlagPublic, typ: rm.Func.Type()}
		m.declaring, m.decl, m.hasDecl = r.declaringType(t, rm.Name, 0)
		if m.declaring != t {
			m.flags |= model.FlagInherited
		}
		seen[rm.Name] = true
		list = append(list, m)
	}

	if r.opts.PrivateMethods {
		if info, ok := r.index.Type(t); ok {
			for name, decl := range info.Methods {
				if seen[name] || utilstrings.StartsUpper(name) {
					continue
				}
				seen[name] = true
				list = append(list, method{name: name, flags: model.FlagPrivate, declaring: t, decl: decl, hasDecl: true})
			}
		}
	}
	if r.opts.ProtectedMethods {
		list = r.promotedUnexported(t, list, seen, 0)
	}

	slices.SortFunc(list, func(a, b method) int {
		return strings.Compare(a.name, b.name)
	})
	return list
}

// promotedUnexported adds the unexported methods of embedded types that are
// not shadowed by a shallower declaration.
func (r *Routing) promotedUnexported(t reflect.Type, list []method, seen map[string]bool, depth int) []method {
	if depth >= embedDepth || t.Kind() != reflect.Struct {
		return list
	}
	var next []reflect.Type
	for _, et := range embedded(t) {
		info, ok := r.index.Type(et)
		if !ok {
			next = append(next, et)
			continue
		}
		for name, decl := range info.Methods {
			if seen[name] || utilstrings.StartsUpper(name) {
				continue
			}
			seen[name] = true
			list = append(list, method{
				name:      name,
				flags:     model.FlagProtected | model.FlagInherited,
				declaring: et,
				decl:      decl,
				hasDecl:   true,
			})
		}
		next = append(next, et)
	}
	for _, et := range next {
		list = r.promotedUnexported(et, list, seen, depth+1)
	}
	return list
}

// declaringType finds the type that declares name, searching t first and
// then its embedded types. Without source the deepest embedded type whose
// method set has the method is taken.
func (r *Routing) declaringType(t reflect.Type, name string, depth int) (reflect.Type, source.Method, bool) {
	if info, ok := r.index.Type(t); ok {
		if decl, ok := info.Method(name); ok {
			return t, decl, true
		}
	}
	if depth < embedDepth && t.Kind() == reflect.Struct {
		for _, et := range embedded(t) {
			if _, ok := reflect.PointerTo(et).MethodByName(name); !ok {
				continue
			}
			return r.declaringType(et, name, depth+1)
		}
	}
	return t, source.Method{}, false
}

// embedded returns the types of the anonymous fields of t, pointers removed.
func embedded(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Anonymous {
			out = append(out, deref(f.Type))
		}
	}
	return out
}

func (r *Routing) methodNode(parent *model.Node, m method) *model.Node {
	child := model.NewChild(parent, m.name, reflect.Value{}, model.ConnectorMethod)
	child.Flags = m.flags
	child.Type = "method"
	if !utilstrings.StartsUpper(m.name) {
		child.CodeGen = model.CodeGenSuppressed
	}

	signature := reflectSignature(m.typ)
	if m.hasDecl {
		signature = m.decl.Signature()
		child.Connectors.Params = paramNames(m.decl.Params)
	} else if m.typ != nil {
		child.Connectors.Params = placeholderParams(m.typ)
	}
	child.Normal = "func " + m.name + signature

	var rows []model.Annotation
	add := func(key, text string) {
		if text != "" {
			rows = append(rows, model.Annotation{Key: key, Text: text})
		}
	}
	add("metaComment", r.methodDoc(m.declaring, m.name, 0))
	if m.hasDecl {
		add("metaDeclaredIn", m.decl.Location.String())
	}
	add("metaDeclaringType", m.declaring.String())
	if m.hasDecl {
		recv := "*" + m.declaring.Name()
		if !m.decl.Pointer {
			recv = m.declaring.Name()
		}
		add("metaReceiver", strings.TrimSpace(m.decl.Receiver+" "+recv))
	}
	add("metaSignature", signature)
	if m.hasDecl {
		for i, p := range m.decl.Params {
			add("metaParameter", fmt.Sprintf("#%d %s", i+1, strings.TrimSpace(p.Name+" "+p.Type)))
		}
	} else if m.typ != nil {
		for i := 1; i < m.typ.NumIn(); i++ {
			add("metaParameter", fmt.Sprintf("#%d %s", i, m.typ.In(i)))
		}
	}
	add("metaReturns", returns(m))

	child.Callback = r.lazy(func(w *children) {
		w.meta(child, rows)
	})
	return child
}

// methodDoc returns the doc comment of name, inherited from embedded types
// or from the interfaces the type implements when it has none itself.
func (r *Routing) methodDoc(t reflect.Type, name string, depth int) string {
	if t == nil || depth > embedDepth {
		return ""
	}
	info, ok := r.index.Type(t)
	if ok {
		if decl, ok := info.Method(name); ok && decl.Doc != "" {
			return decl.Doc
		}
	}
	if t.Kind() == reflect.Struct {
		for _, et := range embedded(t) {
			if doc := r.methodDoc(et, name, depth+1); doc != "" {
				return doc
			}
		}
	}
	if ok {
		for _, iface := range info.Interfaces {
			if doc := iface.Methods[name]; doc != "" {
				return doc
			}
		}
	}
	return ""
}

// reflectSignature formats a method type whose first input is the receiver.
func reflectSignature(t reflect.Type) string {
	if t == nil {
		return "()"
	}
	in := make([]string, 0, t.NumIn())
	for i := 1; i < t.NumIn(); i++ {
		s := t.In(i).String()
		if t.IsVariadic() && i == t.NumIn()-1 {
			s = "..." + t.In(i).Elem().String()
		}
		in = append(in, s)
	}
	sig := "(" + strings.Join(in, ", ") + ")"
	switch t.NumOut() {
	case 0:
	case 1:
		sig += " " + t.Out(0).String()
	default:
		out := make([]string, t.NumOut())
		for i := range out {
			out[i] = t.Out(i).String()
		}
		sig += " (" + strings.Join(out, ", ") + ")"
	}
	return sig
}

func returns(m method) string {
	if m.hasDecl {
		parts := make([]string, len(m.decl.Results))
		for i, p := range m.decl.Results {
			parts[i] = strings.TrimSpace(p.Name + " " + p.Type)
		}
		return strings.Join(parts, ", ")
	}
	if m.typ == nil {
		return ""
	}
	parts := make([]string, m.typ.NumOut())
	for i := range parts {
		parts[i] = m.typ.Out(i).String()
	}
	return strings.Join(parts, ", ")
}

// paramNames lists parameter names as call arguments.
func paramNames(params []source.Param) string {
	names := make([]string, 0, len(params))
	for i, p := range params {
		name := p.Name
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		if strings.HasPrefix(p.Type, "...") {
			name += "..."
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func placeholderParams(t reflect.Type) string {
	names := make([]string, 0, t.NumIn())
	for i := 1; i < t.NumIn(); i++ {
		names = append(names, fmt.Sprintf("arg%d", i-1))
	}
	return strings.Join(names, ", ")
}
