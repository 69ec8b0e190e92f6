// Package object implements the registry of live portal objects and the
// Request/Session state machines. Registration and removal here is what a
// bus object server would do with export/unexport; keeping it as an explicit
// arena keyed by path avoids tying protocol-visible unregistration to
// finalizer timing.
package object

import (
	"errors"
	"sync"
)

// ErrAlreadyExists is returned by Add when a live object already occupies
// the path. A duplicate token from the same caller is a client protocol
// error, not something to paper over.
var ErrAlreadyExists = errors.New("an object is already registered at this path")

// ErrAlreadyClosed is returned by Session.Close when the session has
// already reached its terminal state.
var ErrAlreadyClosed = errors.New("session is already closed")

// An Object is anything registered in the arena under an object path.
type Object interface {
	Path() string
}

// Arena is the set of currently registered objects, keyed by path. It is
// the only mutable structure shared between in-flight calls; all access
// serializes here while per-object state transitions stay lock-free.
type Arena struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{objects: make(map[string]Object)}
}

// Add registers obj at its path. Fails with ErrAlreadyExists if the path is
// taken; the insert is atomic so two concurrent opens of the same path
// cannot both succeed.
func (a *Arena) Add(obj Object) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[obj.Path()]; ok {
		return ErrAlreadyExists
	}
	a.objects[obj.Path()] = obj
	return nil
}

// Remove unregisters the object at path. Reports whether an object was
// present; removing an already-removed path is not an error.
func (a *Arena) Remove(path string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[path]; !ok {
		return false
	}
	delete(a.objects, path)
	return true
}

// Lookup returns the live object at path, if any.
func (a *Arena) Lookup(path string) (Object, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	obj, ok := a.objects[path]
	return obj, ok
}

// Range calls fn for each live object. fn runs outside the arena lock on a
// snapshot, so it may itself add or remove objects.
func (a *Arena) Range(fn func(Object)) {
	a.mu.RLock()
	snapshot := make([]Object, 0, len(a.objects))
	for _, obj := range a.objects {
		snapshot = append(snapshot, obj)
	}
	a.mu.RUnlock()
	for _, obj := range snapshot {
		fn(obj)
	}
}

// Len reports the number of live objects.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}
