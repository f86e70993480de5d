package analysis

import (
	"bytes"
	"reflect"
	"strconv"
	"unicode/utf8"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/shape"
)

var pairsType = reflect.TypeFor[model.Pairs]()

func (r *Routing) analyseArray(w *bytes.Buffer, n *model.Node) {
	v := shape.Indirect(n.Value)
	if n.Type == "" {
		n.Type = typeLabel(n.Value)
	}
	n.Normal = r.text("elements", v.Len())
	if v.Len() == 0 {
		w.WriteString(r.render.SingleChild(n))
		return
	}

	n.Callback = r.lazy(func(cw *children) {
		r.elements(n, v, cw.dispatch)
	})
	r.render.ExpandableChild(w, n)
}

// elements walks the entries of a slice, array, map or Pairs value in
// display order. Map keys equal to the recursion sentinel are skipped.
func (r *Routing) elements(parent *model.Node, v reflect.Value, emit func(*model.Node) bool) {
	switch {
	case v.Type() == pairsType:
		for i := 0; i < v.Len(); i++ {
			p := v.Index(i)
			key, value := p.Field(0).Elem(), p.Field(1).Elem()
			if r.isSentinel(key) {
				continue
			}
			if !emit(keyChild(parent, key, value)) {
				return
			}
		}
	case v.Kind() == reflect.Map:
		for _, key := range sortedKeys(v) {
			if r.isSentinel(key) {
				continue
			}
			if !emit(keyChild(parent, key, readable(v.MapIndex(key)))) {
				return
			}
		}
	default:
		for i := 0; i < v.Len(); i++ {
			child := model.NewChild(parent, strconv.Itoa(i), readable(v.Index(i)), model.ConnectorIndex)
			if !emit(child) {
				return
			}
		}
	}
}

func (r *Routing) isSentinel(key reflect.Value) bool {
	key = shape.Outermost(key)
	return key.IsValid() && key.Kind() == reflect.String && key.String() == r.registry.Sentinel()
}

// analyseLargeArray lists the elements of a big collection without
// descending into them.
func (r *Routing) analyseLargeArray(w *bytes.Buffer, n *model.Node) {
	v := shape.Indirect(n.Value)
	n.Type = typeLabel(n.Value)
	n.Normal = r.text("elements", v.Len())
	n.AddMeta("metaHint", r.text("largeArrayNotice", v.Len()))

	n.Callback = r.lazy(func(cw *children) {
		r.elements(n, v, func(child *model.Node) bool {
			r.shallow(child)
			return cw.leaf(child)
		})
	})
	r.render.ExpandableChild(w, n)
}

// shallow describes child in one line.
func (r *Routing) shallow(child *model.Node) {
	child.Tag = shape.Classify(child.Value, 0)
	v := shape.Indirect(child.Value)
	child.Type = typeLabel(child.Value)

	switch child.Tag {
	case shape.Null:
		child.Normal = "nil"
	case shape.Bool:
		child.Normal = strconv.FormatBool(v.Bool())
	case shape.Int:
		if v.CanInt() {
			child.Normal = strconv.FormatInt(v.Int(), 10)
		} else {
			child.Normal = strconv.FormatUint(v.Uint(), 10)
		}
	case shape.Float:
		child.Normal = formatFloat(v)
	case shape.String:
		s := visibleString(v.String())
		if utf8.RuneCountInString(s) > previewRunes {
			s = string([]rune(s)[:previewRunes]) + " . . ."
		}
		child.Normal = s
	case shape.Array, shape.LargeArray:
		child.Normal = r.text("elements", v.Len())
	case shape.Object, shape.Traversable:
		child.Type = "struct"
		child.Normal = typeLabel(child.Value)
	}
}
