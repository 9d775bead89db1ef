// File: message/factory.go
// License: Apache-2.0

package message

import "sync"

// Constructor builds a fresh, zero-valued Message for a given
// (category, id) pair. Registered via Factory.Register.
type Constructor func(category Category, id ID) Message

// Factory resolves a (category, id) pair to a concrete Message
// implementation. A miss falls back to Base, whose Serialize/Deserialize
// report NotImplemented rather than panicking.
type Factory struct {
	mu    sync.RWMutex
	ctors map[uint32]Constructor
}

// NewFactory returns an empty factory. Use DefaultFactory for a
// process-wide singleton.
func NewFactory() *Factory {
	return &Factory{ctors: make(map[uint32]Constructor)}
}

// Register associates a constructor with a (category, id) pair. Returns
// false without overwriting if one is already registered, mirroring the
// original DefaultMessageFactory::registerMessage behavior.
func (f *Factory) Register(category Category, id ID, ctor Constructor) bool {
	key := DispatchKey(category, id)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.ctors[key]; exists {
		return false
	}
	f.ctors[key] = ctor
	return true
}

// Create builds a Message for (category, id), falling back to Base when
// no constructor was registered.
func (f *Factory) Create(category Category, id ID) Message {
	key := DispatchKey(category, id)
	f.mu.RLock()
	ctor, ok := f.ctors[key]
	f.mu.RUnlock()
	if !ok {
		return NewBase(category, id)
	}
	return ctor(category, id)
}

// Registered reports whether a constructor exists for (category, id).
func (f *Factory) Registered(category Category, id ID) bool {
	key := DispatchKey(category, id)
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.ctors[key]
	return ok
}

var (
	defaultFactoryOnce sync.Once
	defaultFactory     *Factory
)

// DefaultFactory returns a lazily-initialized process-wide Factory,
// mirroring the original DefaultMessageFactory singleton.
func DefaultFactory() *Factory {
	defaultFactoryOnce.Do(func() {
		defaultFactory = NewFactory()
	})
	return defaultFactory
}
