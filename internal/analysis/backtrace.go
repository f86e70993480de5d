package analysis

import (
	"bytes"
	"reflect"
	"strconv"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/source"
)

// snippetRadius is the number of source lines shown around a frame.
const snippetRadius = 3

// Backtrace renders stack frames, innermost first. Each frame expands to its
// function, position and the surrounding source lines when readable.
func (r *Routing) Backtrace(frames []model.Frame) string {
	root := model.NewRoot(r.text("sectionBacktrace"), reflect.Value{})
	root.CodeGen = model.CodeGenMeta
	root.Type = r.text("elements", len(frames))
	root.DomID = r.registry.BeginObject(reflect.Value{}).Marker

	var b bytes.Buffer
	r.run(&b, StageBacktrace, root, func(w *bytes.Buffer, n *model.Node) {
		n.Callback = r.lazy(func(cw *children) {
			for i, f := range frames {
				if !cw.expandable(r.frame(n, i, f)) {
					return
				}
			}
		})
		r.render.ExpandableChild(w, n)
	})
	return b.String()
}

func (r *Routing) frame(parent *model.Node, i int, f model.Frame) *model.Node {
	child := model.NewMeta(parent, "#"+strconv.Itoa(i+1), f.Function)
	child.Type = r.text("frame")
	loc := source.Location{File: f.File, Line: f.Line}

	child.Callback = r.lazy(func(w *children) {
		w.meta(child, []model.Annotation{
			{Key: "metaFunction", Text: f.Function},
			{Key: "metaDeclaredIn", Text: loc.String()},
		})
		lines, err := source.Snippet(f.File, f.Line, snippetRadius)
		if err != nil || len(lines) == 0 {
			return
		}
		w.raw(r.render.SourceLines(lines, f.Line))
	})
	return child
}
