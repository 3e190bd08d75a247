// Package locator turns symbolic field references into page-element handles.
package locator

import (
	"sync"

	"github.com/ternarybob/playq/internal/interfaces"
)

// Engine registry keys for the two delegated matching engines.
const (
	EngineSemantic = "semantic" // AI-assisted matcher (engine A)
	EnginePattern  = "pattern"  // learned-pattern matcher (engine B)
)

// Func produces a handle for the current driver. Code-sourced locator
// namespaces register these per [file][page][field].
type Func func(driver interfaces.Driver) (interfaces.Handle, error)

// Registry is the typed, process-wide capability registry for delegated
// matching engines and code-sourced locator namespaces. Presence is checked
// explicitly - a configured-but-absent capability is a warning, never a
// failure.
type Registry struct {
	mu         sync.RWMutex
	engines    map[string]interfaces.MatchEngine
	namespaces map[string]map[string]map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		engines:    make(map[string]interfaces.MatchEngine),
		namespaces: make(map[string]map[string]map[string]Func),
	}
}

// RegisterEngine exposes a delegated matching engine under a well-known key.
func (r *Registry) RegisterEngine(name string, engine interfaces.MatchEngine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[name] = engine
}

// Engine returns the engine registered under name, if any.
func (r *Registry) Engine(name string) (interfaces.MatchEngine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, found := r.engines[name]
	return engine, found
}

// RegisterNamespace registers a code-sourced locator namespace for a file
// key. Existing pages for the same file are replaced.
func (r *Registry) RegisterNamespace(file string, pages map[string]map[string]Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.namespaces[file] = pages
}

// LookupFunc returns the registered locator function for
// [file][page][field]. A missing intermediate key at any level is a miss.
func (r *Registry) LookupFunc(file, page, field string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pages, found := r.namespaces[file]
	if !found {
		return nil, false
	}
	fields, found := pages[page]
	if !found {
		return nil, false
	}
	fn, found := fields[field]
	return fn, found
}
