// Package identity tracks which reference values have already been rendered
// during one dump, so cyclic graphs terminate.
package identity

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Key identifies a reference value. Type is part of the key because a
// struct and its first field share an address.
type Key struct {
	Type reflect.Type
	Ptr  uintptr
	Len  int
}

// Registration is the result of BeginObject.
type Registration struct {
	AlreadySeen bool
	Marker      string
}

// Registry maps identities to DOM anchor markers for a single dump.
// It is not safe for concurrent use.
type Registry struct {
	session  string
	sentinel string
	markers  map[Key]string
	counter  int
}

// NewRegistry creates an empty registry. Markers are prefixed with session.
// An empty sentinel is replaced by a random one.
func NewRegistry(session, sentinel string) *Registry {
	if sentinel == "" {
		sentinel = "vardump-recursion-" + uuid.NewString()
	}
	return &Registry{
		session:  session,
		sentinel: sentinel,
		markers:  make(map[Key]string),
	}
}

// Identify returns the identity of v. Only non-nil pointers, maps, channels,
// funcs and non-empty slices have one; interfaces are looked through.
func Identify(v reflect.Value) (Key, bool) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Key{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return Key{}, false
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return Key{}, false
		}
		return Key{Type: v.Type(), Ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			return Key{}, false
		}
		return Key{Type: v.Type(), Ptr: v.Pointer(), Len: v.Len()}, true
	}
	return Key{}, false
}

// BeginObject registers v before it is descended into. A value seen before
// returns AlreadySeen with the marker of its first occurrence. Values
// without identity get a fresh marker and are never recorded.
func (r *Registry) BeginObject(v reflect.Value) Registration {
	key, ok := Identify(v)
	if !ok {
		return Registration{Marker: r.next()}
	}
	if marker, seen := r.markers[key]; seen {
		return Registration{AlreadySeen: true, Marker: marker}
	}
	marker := r.next()
	r.markers[key] = marker
	return Registration{Marker: marker}
}

// Sentinel is the reserved array key the array analyzer skips.
func (r *Registry) Sentinel() string {
	return r.sentinel
}

// Len returns the number of registered identities.
func (r *Registry) Len() int {
	return len(r.markers)
}

func (r *Registry) next() string {
	r.counter++
	return fmt.Sprintf("k%s_%d", r.session, r.counter)
}
