package shaders

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownKernel = errors.New("unknown kernel")

// Registry maps pass names to compiled kernels. It is filled once at
// startup and read by every camera.
type Registry struct {
	mu      sync.RWMutex
	kernels map[string]Kernel
}

func NewRegistry() *Registry {
	return &Registry{kernels: make(map[string]Kernel)}
}

func (r *Registry) Register(k Kernel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kernels[k.Name()] = k
}

func (r *Registry) Get(name string) (Kernel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKernel, name)
	}
	return k, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kernels))
	for n := range r.kernels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Populate compiles every named pass and registers it.
func Populate(r *Registry, c Compiler, names []string) error {
	for _, name := range names {
		k, err := c.Compile(name)
		if err != nil {
			return fmt.Errorf("compile %s: %w", name, err)
		}
		if k.Name() != name {
			return fmt.Errorf("compile %s: compiler returned kernel %q", name, k.Name())
		}
		r.Register(k)
	}
	return nil
}
