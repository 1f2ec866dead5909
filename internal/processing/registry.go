package processing

import (
	"fmt"
	"sort"
	"sync"
)

// CommandRegistry maps crop pipeline step names, as written in the
// pipeline configuration, to the factories that build them.
type CommandRegistry struct {
	mu        sync.RWMutex
	factories map[string]CommandFactory
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		factories: make(map[string]CommandFactory),
	}
}

// Register binds a step name to its factory. Names are unique.
func (r *CommandRegistry) Register(name string, factory CommandFactory) error {
	if name == "" {
		return fmt.Errorf("pipeline step needs a name")
	}
	if factory == nil {
		return fmt.Errorf("pipeline step %q has no factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("pipeline step %q registered twice", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the named step from its configured params
func (r *CommandRegistry) Create(name string, params map[string]any) (Command, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("unknown pipeline step: %s", name)
	}

	command, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("pipeline step %s: %w", name, err)
	}

	return command, nil
}

func (r *CommandRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// Names lists the known steps in sorted order
func (r *CommandRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the region crop, density scale and JPEG encode
// steps; each registers itself from its own file's init.
var DefaultRegistry = NewCommandRegistry()
