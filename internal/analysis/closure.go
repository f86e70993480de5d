package analysis

import (
	"bytes"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/shape"
)

// analyseClosure describes a func value by its runtime symbol and
// signature. Funcs are never called.
func (r *Routing) analyseClosure(w *bytes.Buffer, n *model.Node) {
	v := shape.Outermost(n.Value)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()
	n.Type = "func"
	n.Normal = t.String()

	var rows []model.Annotation
	if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
		rows = append(rows, model.Annotation{Key: "metaFunction", Text: fn.Name()})
		if file, line := fn.FileLine(fn.Entry()); file != "" {
			rows = append(rows, model.Annotation{Key: "metaDeclaredIn", Text: file + ":" + strconv.Itoa(line)})
		}
	}
	rows = append(rows, model.Annotation{Key: "metaSignature", Text: t.String()})
	for i := 0; i < t.NumIn(); i++ {
		rows = append(rows, model.Annotation{Key: "metaParameter", Text: fmt.Sprintf("#%d %s", i+1, t.In(i))})
	}
	if t.NumOut() > 0 {
		out := make([]string, t.NumOut())
		for i := range out {
			out[i] = t.Out(i).String()
		}
		rows = append(rows, model.Annotation{Key: "metaReturns", Text: strings.Join(out, ", ")})
	}

	n.Callback = r.lazy(func(cw *children) {
		cw.meta(n, rows)
	})
	r.render.ExpandableChild(w, n)
}

// analyseResource describes channels and raw pointers.
func (r *Routing) analyseResource(w *bytes.Buffer, n *model.Node) {
	v := shape.Indirect(n.Value)
	n.Type = typeLabel(n.Value)

	var rows []model.Annotation
	switch v.Kind() {
	case reflect.Chan:
		n.Type = "chan"
		n.Normal = v.Type().String()
		rows = append(rows,
			model.Annotation{Key: "metaDirection", Text: v.Type().ChanDir().String()},
			model.Annotation{Key: "metaElementType", Text: v.Type().Elem().String()},
			model.Annotation{Key: "metaLength", Text: strconv.Itoa(v.Len())},
			model.Annotation{Key: "metaCapacity", Text: strconv.Itoa(v.Cap())},
		)
	case reflect.UnsafePointer:
		n.Normal = fmt.Sprintf("0x%x", v.Pointer())
		rows = append(rows, model.Annotation{Key: "metaAddress", Text: n.Normal})
	default:
		if v.IsValid() && v.CanInterface() {
			n.Normal = fmt.Sprint(v.Interface())
		}
		w.WriteString(r.render.SingleChild(n))
		return
	}

	n.Callback = r.lazy(func(cw *children) {
		cw.meta(n, rows)
	})
	r.render.ExpandableChild(w, n)
}
