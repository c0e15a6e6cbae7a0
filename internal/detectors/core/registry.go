package core

import (
	"fmt"
	"sort"
	"sync"
)

// Info describes a registered detector.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

type registration struct {
	detector Detector
	enabled  bool
}

// Registry is an ordered set of named detectors. Registration order is the
// order detectors are launched in, which never affects results.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*registration)}
}

// Register adds an enabled detector. Names must be unique.
func (r *Registry) Register(d Detector) error {
	if d == nil {
		return fmt.Errorf("register detector: nil detector")
	}
	name := d.Name()
	if name == "" {
		return fmt.Errorf("register detector: empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[name]; exists {
		return fmt.Errorf("register detector: %q already registered", name)
	}
	r.byID[name] = &registration{detector: d, enabled: true}
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register that panics on error, for static wiring.
func (r *Registry) MustRegister(d Detector) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Disable turns a detector off without removing it.
func (r *Registry) Disable(name string) error {
	return r.setEnabled(name, false)
}

// Enable turns a disabled detector back on.
func (r *Registry) Enable(name string) error {
	return r.setEnabled(name, true)
}

func (r *Registry) setEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byID[name]
	if !ok {
		return fmt.Errorf("unknown detector %q (known: %v)", name, r.namesLocked())
	}
	reg.enabled = enabled
	return nil
}

// Get returns a detector by name.
func (r *Registry) Get(name string) (Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byID[name]
	if !ok {
		return nil, false
	}
	return reg.detector, true
}

// Enabled returns the enabled detectors in registration order.
func (r *Registry) Enabled() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Detector, 0, len(r.order))
	for _, name := range r.order {
		if reg := r.byID[name]; reg.enabled {
			out = append(out, reg.detector)
		}
	}
	return out
}

// Infos returns metadata for all detectors, sorted by name.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		reg := r.byID[name]
		infos = append(infos, Info{
			Name:        name,
			Description: reg.detector.Description(),
			Enabled:     reg.enabled,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *Registry) namesLocked() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}
