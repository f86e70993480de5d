package analysis

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/vardump/internal/messages"
	"github.com/conduit-lang/vardump/internal/model"
	"go.uber.org/zap"
)

var errorType = reflect.TypeFor[error]()

// debugMethods calls the configured debug methods of v and analyses their
// results. Only methods without arguments are called; a trailing error
// result that is not nil counts as failure.
func (r *Routing) debugMethods(w *children, parent *model.Node, v reflect.Value) {
	iv := v
	if v.CanAddr() {
		iv = v.Addr()
	}
	if !iv.CanInterface() {
		return
	}
	for _, name := range r.opts.DebugMethods {
		m := iv.MethodByName(name)
		if !m.IsValid() || m.Type().NumIn() != 0 || m.Type().NumOut() == 0 {
			continue
		}
		result, err := callDebug(m)
		if err != nil {
			r.logger.Warn("debug method failed", zap.String("method", name), zap.String("type", typeLabel(v)), zap.Error(err))
			r.queue().Add(messages.SeverityWarning, "debugMethodFailed", name, err.Error())
			continue
		}
		child := model.NewChild(parent, name, result, model.ConnectorMethod)
		child.Flags = model.FlagPublic
		if !w.dispatch(child) {
			return
		}
	}
}

func callDebug(m reflect.Value) (result reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	out := m.Call(nil)
	last := out[len(out)-1]
	if len(out) > 1 && last.Type().Implements(errorType) && !last.IsNil() {
		return reflect.Value{}, last.Interface().(error)
	}
	return out[0], nil
}
