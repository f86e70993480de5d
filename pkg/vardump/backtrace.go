package vardump

import (
	"runtime"

	"github.com/conduit-lang/vardump/internal/model"
	"github.com/conduit-lang/vardump/internal/settings"
)

// maxFrames bounds the captured stack depth.
const maxFrames = 64

// Backtrace renders the stack of the calling goroutine, innermost frame
// first, with the source lines around every frame.
func (i *Inspector) Backtrace() string {
	if i.settings.Bool(settings.Disabled) {
		return ""
	}
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var list []model.Frame
	for {
		f, more := frames.Next()
		list = append(list, model.Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}

	sess := i.newSession()
	body := sess.routing.Backtrace(list)
	title := sess.renderer.Text("sectionBacktrace")
	return i.deliver(i.page(sess, title, caller(1), body))
}
