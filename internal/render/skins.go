package render

import (
	"fmt"
	"sort"
	"sync"
)

// Skins manages the available skins, each behind its own slot cache.
type Skins struct {
	skins map[string]*SlotCache
	mutex sync.RWMutex
}

// NewSkins creates an empty skin registry.
func NewSkins() *Skins {
	return &Skins{
		skins: make(map[string]*SlotCache),
	}
}

// Register adds a skin. The provider must serve every slot.
func (r *Skins) Register(name string, p TemplateProvider) error {
	if name == "" {
		return fmt.Errorf("invalid skin: empty name")
	}
	if missing := Missing(p); len(missing) > 0 {
		return fmt.Errorf("invalid skin %s: missing slots %v", name, missing)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.skins[name]; exists {
		return fmt.Errorf("skin %s already registered", name)
	}

	r.skins[name] = NewSlotCache(p)
	return nil
}

// Get returns the slot cache of a skin.
func (r *Skins) Get(name string) (*SlotCache, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	cache, exists := r.skins[name]
	if !exists {
		return nil, fmt.Errorf("skin %s not found", name)
	}

	return cache, nil
}

// List returns the registered skin names, sorted.
func (r *Skins) List() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.skins))
	for name := range r.skins {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Exists checks if a skin is registered.
func (r *Skins) Exists(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.skins[name]
	return exists
}

var (
	defaultSkins     *Skins
	defaultSkinsOnce sync.Once
	defaultSkinsErr  error
)

// DefaultSkins returns the process wide registry holding the built-in skins.
func DefaultSkins() (*Skins, error) {
	defaultSkinsOnce.Do(func() {
		defaultSkins = NewSkins()
		defaultSkinsErr = RegisterBuiltinSkins(defaultSkins)
	})
	return defaultSkins, defaultSkinsErr
}

// RegisterBuiltinSkins registers every skin compiled into the binary.
func RegisterBuiltinSkins(r *Skins) error {
	for _, name := range BuiltinSkins() {
		p, err := NewEmbeddedProvider(name)
		if err != nil {
			return err
		}
		if err := r.Register(name, p); err != nil {
			return fmt.Errorf("failed to register skin %s: %w", name, err)
		}
	}
	return nil
}
