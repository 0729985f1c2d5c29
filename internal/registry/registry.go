// Package registry stores the table schemas the data layer knows about.
// It distinguishes core tables (pre-declared by the database subsystem
// itself) from caller-registered ones, and supports registration happening
// before the database is ready: early registrations queue up and are
// synchronized in registration order once readiness is signaled.
package registry

import (
	"log/slog"
	"sync"

	"github.com/keystone-gg/keystone/internal/schema"
)

// SyncFunc is invoked for a table that becomes due for synchronization
// after the registry is marked ready. It runs outside the registry lock.
type SyncFunc func(t *schema.Table)

// Registry is the process-wide schema store.
// A table name maps to exactly one active schema at a time; re-registration
// replaces the previous definition used for future synchronization (it does
// not retroactively alter already-created tables).
type Registry struct {
	mu      sync.RWMutex
	tables  map[string]*schema.Table
	core    map[string]bool
	order   []string // declaration/registration order, core first
	pending []string // tables queued before readiness, in registration order
	ready   bool
	readyCh chan struct{}
	onSync  SyncFunc
	log     *slog.Logger
}

// New creates an empty registry.
func New(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		tables:  make(map[string]*schema.Table),
		core:    make(map[string]bool),
		readyCh: make(chan struct{}),
		log:     log,
	}
}

// DeclareCore registers built-in tables. Core tables are synchronized
// unconditionally during startup, before any collaborator's schemas, and
// are never re-queued by late registration.
func (r *Registry) DeclareCore(tables ...*schema.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, exists := r.tables[t.Name]; !exists {
			r.order = append(r.order, t.Name)
		}
		r.tables[t.Name] = t.Clone()
		r.core[t.Name] = true
	}
	return nil
}

// Register upserts a table schema. Before readiness the table is queued for
// synchronization; after readiness it is synchronized immediately through
// the hook installed with OnSync. Registering the same name again
// overwrites the schema; the queue keeps one entry per table, so only the
// latest definition is used when synchronization eventually runs.
func (r *Registry) Register(t *schema.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()

	_, existed := r.tables[t.Name]
	if !existed {
		r.order = append(r.order, t.Name)
	}
	r.tables[t.Name] = t.Clone()

	if r.core[t.Name] {
		// Core tables are handled by the startup pass; a collaborator
		// re-declaring one only updates the stored schema.
		r.mu.Unlock()
		return nil
	}

	if !r.ready {
		if !containsString(r.pending, t.Name) {
			r.pending = append(r.pending, t.Name)
		}
		r.log.Debug("schema registration queued until database is ready", "table", t.Name)
		r.mu.Unlock()
		return nil
	}

	onSync := r.onSync
	snapshot := r.tables[t.Name].Clone()
	r.mu.Unlock()

	if onSync != nil {
		onSync(snapshot)
	}
	return nil
}

// Get returns the active schema for a table.
func (r *Registry) Get(name string) (*schema.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Has reports whether any schema is registered under the name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[name]
	return ok
}

// IsCore reports whether the table is one of the built-in core tables.
func (r *Registry) IsCore(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.core[name]
}

// CoreTables returns the core schemas in declaration order.
func (r *Registry) CoreTables() []*schema.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*schema.Table
	for _, name := range r.order {
		if r.core[name] {
			out = append(out, r.tables[name].Clone())
		}
	}
	return out
}

// All returns every registered schema in declaration/registration order.
func (r *Registry) All() []*schema.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*schema.Table, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tables[name].Clone())
	}
	return out
}

// OnSync installs the hook used to synchronize tables registered after
// readiness. Must be set before MarkReady.
func (r *Registry) OnSync(fn SyncFunc) {
	r.mu.Lock()
	r.onSync = fn
	r.mu.Unlock()
}

// MarkReady flips the registry to ready and returns the queued tables in
// registration order so the owner can synchronize them. Tables registered
// from here on synchronize immediately via the OnSync hook.
func (r *Registry) MarkReady() []*schema.Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ready = true
	out := make([]*schema.Table, 0, len(r.pending))
	for _, name := range r.pending {
		if t, ok := r.tables[name]; ok {
			out = append(out, t.Clone())
		}
	}
	r.pending = nil
	return out
}

// AnnounceReady closes the readiness channel. Called once by the owner
// after core tables exist and the initial synchronization pass (including
// any migration decision) has completed.
func (r *Registry) AnnounceReady() {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.readyCh:
		// already announced
	default:
		close(r.readyCh)
	}
}

// Ready returns a channel closed once the database subsystem is ready.
// Collaborators may block on it before registering or querying tables.
func (r *Registry) Ready() <-chan struct{} {
	return r.readyCh
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
