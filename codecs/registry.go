package codecs

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry maps payload types to stable names, so payloads can travel as tagged entries
// and be decoded into their concrete type without knowing it in advance.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
	Register[bool](r)
	Register[string](r)
	Register[[]byte](r)
	Register[int](r)
	Register[int8](r)
	Register[int16](r)
	Register[int32](r)
	Register[int64](r)
	Register[uint](r)
	Register[uint8](r)
	Register[uint16](r)
	Register[uint32](r)
	Register[uint64](r)
	Register[float32](r)
	Register[float64](r)
	return r
}

// Register adds T under its Go type name.
func Register[T any](r *Registry) {
	t := reflect.TypeFor[T]()
	RegisterName[T](r, t.String())
}

// RegisterName adds T under name. Registering a name twice for different types panics.
func RegisterName[T any](r *Registry, name string) {
	t := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok {
		if existing != t {
			panic(fmt.Errorf("duplicated payload type name %s: %v and %v", name, existing, t))
		}
		return
	}
	r.byName[name] = t
	r.byType[t] = name
}

func (r *Registry) NameOf(v any) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byType[reflect.TypeOf(v)]
	return name, ok
}

func (r *Registry) TypeOf(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}
