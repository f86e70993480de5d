package analysis

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/vardump/internal/codegen"
	"github.com/conduit-lang/vardump/internal/messages"
	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/shape"
	"go.uber.org/zap"
)

// maxIteration caps materialisation when no large array threshold is set.
const maxIteration = 10000

var iteratorParams = map[shape.Iteration]string{
	shape.SeqMethod:     codegen.IteratorSeq,
	shape.Seq2Method:    codegen.IteratorSeq2,
	shape.PlainIterator: codegen.IteratorPlain,
	shape.Aggregate:     codegen.IteratorAggregate,
}

// traversable iterates v and analyses the collected entries as one array
// below a "Traversable info" section.
func (r *Routing) traversable(w *children, parent *model.Node, v reflect.Value) {
	iv := v
	if v.CanAddr() {
		iv = v.Addr()
	}
	if !iv.CanInterface() {
		return
	}
	kind := shape.IterationOf(iv.Type())
	if kind == shape.NotIterable {
		return
	}

	limit := r.opts.LargeArrayThreshold
	if limit <= 0 {
		limit = maxIteration
	}
	pairs, cut, err := materialize(iv, kind, limit+1)

	s := r.section(parent, "sectionTraversable", model.CodeGenMultiStatement)
	s.SetParam("iterator", iteratorParams[kind])
	s.Type = "iterator"
	s.Value = reflect.ValueOf(pairs)

	if err != nil {
		r.logger.Warn("iteration failed", zap.String("type", typeLabel(v)), zap.Error(err))
		r.queue().Add(messages.SeverityWarning, "traversableFailed", typeLabel(v), err.Error())
		if w.consume() {
			w.raw(r.failed(s))
		}
		return
	}
	if cut {
		r.queue().Add(messages.SeverityInfo, "traversableTruncated", len(pairs))
	}
	if w.consume() {
		r.run(w.b, StageTraversable, s, r.analyse)
	}
}

// materialize collects up to limit entries. Sequences without keys are
// numbered from zero. A panicking iterator is reported as error.
func materialize(v reflect.Value, kind shape.Iteration, limit int) (pairs model.Pairs, cut bool, err error) {
	pairs = model.Pairs{}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()

	yield := func(key, value any) bool {
		if len(pairs) >= limit {
			cut = true
			return false
		}
		pairs = append(pairs, model.Pair{Key: key, Value: value})
		return true
	}

	switch kind {
	case shape.PlainIterator:
		v.Interface().(shape.Iterator).Iterate(yield)
	case shape.Aggregate:
		if it := v.Interface().(shape.IteratorAggregate).Iterator(); it != nil {
			it.Iterate(yield)
		}
	case shape.SeqMethod, shape.Seq2Method:
		seq := v.MethodByName(shape.SeqMethodName).Call(nil)[0]
		if seq.IsNil() {
			return pairs, false, nil
		}
		yt := seq.Type().In(0)
		i := 0
		fn := reflect.MakeFunc(yt, func(args []reflect.Value) []reflect.Value {
			var more bool
			if len(args) == 1 {
				more = yield(i, args[0].Interface())
			} else {
				more = yield(args[0].Interface(), args[1].Interface())
			}
			i++
			return []reflect.Value{reflect.ValueOf(more).Convert(yt.Out(0))}
		})
		seq.Call([]reflect.Value{fn})
	}
	return pairs, cut, err
}
