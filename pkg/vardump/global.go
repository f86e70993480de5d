package vardump

import (
	"io"
	"reflect"
	"sync"

	"github.com/conduit-lang/vardump/internal/settings"
	"go.uber.org/zap"
)

var (
	defaultInspector *Inspector
	defaultOnce      sync.Once
)

// Default returns the package level Inspector. It reads vardump.yml from
// the working directory and the environment; when they are broken the
// factory settings are used.
func Default() *Inspector {
	defaultOnce.Do(func() {
		i, err := New()
		if err != nil {
			zap.L().Warn("vardump falls back to factory settings", zap.Error(err))
			i, _ = New(withSettings(settings.Defaults()))
		}
		defaultInspector = i
	})
	return defaultInspector
}

// Dump renders v with the Default inspector.
func Dump(v any, headline ...string) string {
	i := Default()
	return i.deliver(i.dump(reflect.ValueOf(v), caller(1), headline))
}

// Fdump writes the dump of v to w with the Default inspector.
func Fdump(w io.Writer, v any, headline ...string) error {
	return Default().fdump(w, reflect.ValueOf(v), caller(1), headline)
}
