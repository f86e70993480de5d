package analysis

import (
	"reflect"
	"strings"

	"github.com/conduit-lang/vardump/internal/model"
)

// metaSection describes the type of v: its doc comment, where it is
// declared, the interfaces of its package it implements and the types it
// embeds. It returns nil when there is nothing to say.
func (r *Routing) metaSection(parent *model.Node, v reflect.Value) *model.Node {
	t := v.Type()
	var rows []model.Annotation
	add := func(key, text string) {
		if text != "" {
			rows = append(rows, model.Annotation{Key: key, Text: text})
		}
	}

	if info, ok := r.index.Type(t); ok {
		add("metaTypeDoc", strings.TrimSpace(info.Doc))
		add("metaDeclaredIn", info.Location.String())
		names := make([]string, len(info.Interfaces))
		for i, iface := range info.Interfaces {
			names[i] = info.PkgName + "." + iface.Name
		}
		add("metaImplements", strings.Join(names, ", "))
	}
	var embeds []string
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Anonymous {
			embeds = append(embeds, f.Type.String())
		}
	}
	add("metaEmbeds", strings.Join(embeds, ", "))
	if len(rows) == 0 {
		return nil
	}

	s := r.section(parent, "sectionMeta", model.CodeGenMeta)
	s.Callback = r.lazy(func(w *children) {
		w.meta(s, rows)
	})
	return s
}
