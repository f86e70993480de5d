// Package event implements the extension hook protocol. Hooks are
// registered against "<Stage>::before" or "<Stage>::after" points and run in
// registration order.
package event

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-lang/vardump/internal/model"
)

var (
	// ErrInvalidPoint is returned for point names not shaped <Stage>::before|after.
	ErrInvalidPoint = errors.New("invalid extension point")
	// ErrNilHook is returned when registering a nil hook.
	ErrNilHook = errors.New("nil hook")
)

const (
	suffixBefore = "::before"
	suffixAfter  = "::after"
)

// Before returns the before point of stage.
func Before(stage string) string { return stage + suffixBefore }

// After returns the after point of stage.
func After(stage string) string { return stage + suffixAfter }

// Context is handed to every hook. Node and Params may be mutated; the
// changes are visible to later hooks and to the current analysis only.
type Context struct {
	Point  string
	Node   *model.Node
	Params map[string]any
	// Fragment holds the produced markup for after hooks.
	Fragment string
}

// Hook returns a non-empty fragment to short-circuit the stage.
type Hook func(ctx *Context) (string, error)

// HookError wraps a failing hook with its point and position.
type HookError struct {
	Point string
	Index int
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %d on %s: %v", e.Index, e.Point, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// Registry holds hooks by point. It is safe for concurrent registration and
// dispatch.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string][]Hook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string][]Hook)}
}

// ValidatePoint checks the shape of a point name.
func ValidatePoint(point string) error {
	stage, ok := strings.CutSuffix(point, suffixBefore)
	if !ok {
		stage, ok = strings.CutSuffix(point, suffixAfter)
	}
	if !ok || stage == "" || strings.Contains(stage, "::") {
		return fmt.Errorf("%w: %q", ErrInvalidPoint, point)
	}
	return nil
}

// Register appends hook to point.
func (r *Registry) Register(point string, hook Hook) error {
	if hook == nil {
		return fmt.Errorf("%w for %s", ErrNilHook, point)
	}
	if err := ValidatePoint(point); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks[point] = append(r.hooks[point], hook)
	return nil
}

// Has reports whether any hook listens on point.
func (r *Registry) Has(point string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.hooks[point]) > 0
}

// Len returns the total number of hooks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, hooks := range r.hooks {
		n += len(hooks)
	}
	return n
}

// Dispatch runs the hooks of ctx.Point in order. The first non-empty
// fragment stops the chain and is returned. A hook that fails or panics is
// reported in errs and skipped.
func (r *Registry) Dispatch(ctx *Context) (fragment string, errs []error) {
	if r == nil {
		return "", nil
	}
	r.mu.RLock()
	hooks := append([]Hook(nil), r.hooks[ctx.Point]...)
	r.mu.RUnlock()

	for i, hook := range hooks {
		out, err := call(hook, ctx)
		if err != nil {
			errs = append(errs, &HookError{Point: ctx.Point, Index: i, Err: err})
			continue
		}
		if out != "" {
			return out, errs
		}
	}
	return "", errs
}

func call(hook Hook, ctx *Context) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = ""
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return hook(ctx)
}
