// Package registry tracks open dictionaries by name, the Go counterpart to
// the original source's iinq_drop: the C layer addresses a dictionary by
// its declared schema name rather than by an already-open handle, since a
// DROP can be issued long after whatever process created the dictionary
// has exited. A Registry is that schema-name → dictionary mapping.
package registry

import (
	"fmt"
	"sync"

	"github.com/Priyanshu23/FlashLogGo/dictionary"
)

// ErrNotRegistered is returned by Lookup/Drop for a name the Registry
// doesn't know about.
var ErrNotRegistered = fmt.Errorf("registry: name not registered")

// Registry maps dictionary names to the open dictionary.Dictionary
// instance serving that name.
type Registry struct {
	mu    sync.Mutex
	dicts map[string]dictionary.Dictionary
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{dicts: make(map[string]dictionary.Dictionary)}
}

// Register associates name with an already-open dictionary. It replaces
// any prior registration under the same name without closing it — callers
// that care about the previous instance should Drop or close it first.
func (r *Registry) Register(name string, d dictionary.Dictionary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dicts[name] = d
}

// Lookup returns the dictionary registered under name.
func (r *Registry) Lookup(name string) (dictionary.Dictionary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dicts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return d, nil
}

// Names returns every currently registered name, in no particular order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.dicts))
	for name := range r.dicts {
		out = append(out, name)
	}
	return out
}

// Drop closes and destroys the dictionary registered under name, then
// forgets the registration, mirroring iinq_drop's close-then-delete-file
// sequence. It is schema-name-addressed rather than instance-addressed:
// callers don't need to be holding the *Dictionary to drop it.
func (r *Registry) Drop(name string) error {
	r.mu.Lock()
	d, ok := r.dicts[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	delete(r.dicts, name)
	r.mu.Unlock()

	if err := d.Close(); err != nil {
		return fmt.Errorf("registry: drop %q: %w", name, err)
	}
	if err := d.Destroy(); err != nil {
		return fmt.Errorf("registry: drop %q: %w", name, err)
	}
	return nil
}
