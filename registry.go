package ssr

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// Component is one registered entry point: a name callers render by, and
// the dotted global path of the component in the script environment.
type Component struct {
	Name  string
	Entry string
}

// entryPath matches dotted JS identifier paths such as Components.Clock.
var entryPath = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)

// Registry is the component registration table. It is filled at startup
// and shared by reference with the Environment and the Renderer.
type Registry struct {
	mu         sync.RWMutex
	components map[string]Component
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{components: make(map[string]Component)}
}

// Register adds a component. Names are unique; entry must be a dotted
// identifier path.
func (r *Registry) Register(name, entry string) error {
	if name == "" {
		return fmt.Errorf("registering component: empty name")
	}
	if !entryPath.MatchString(entry) {
		return fmt.Errorf("registering component %q: invalid entry point %q", name, entry)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.components[name]; ok {
		return fmt.Errorf("registering component %q: already registered as %s", name, existing.Entry)
	}
	r.components[name] = Component{Name: name, Entry: entry}
	return nil
}

// MustRegister is Register that panics on error, for static tables.
func (r *Registry) MustRegister(name, entry string) *Registry {
	if err := r.Register(name, entry); err != nil {
		panic(err)
	}
	return r
}

// Resolve looks a component up by name.
func (r *Registry) Resolve(name string) (Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	if !ok {
		return Component{}, &ResolutionError{Component: name}
	}
	return c, nil
}

// Components returns all registrations sorted by name.
func (r *Registry) Components() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, 0, len(r.components))
	for _, c := range r.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
