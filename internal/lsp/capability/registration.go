package capability

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registration is one live binding of a feature to a document selector,
// per spec.md §3: "{ id, method, registerOptions }".
type Registration struct {
	ID       string
	Method   string
	Selector DocumentSelector
	Options  interface{}
}

// Table is the generic insertion-ordered id -> Registration map every
// feature owns for its own registrations (spec.md §9: "maps preserving
// insertion order"). Lookup for a document scans in insertion order and
// returns the first match, so earlier registrations win ties, matching
// spec.md §4.4's "first whose selector matches."
type Table struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Registration
}

// NewTable constructs an empty registration table.
func NewTable() *Table {
	return &Table{byID: make(map[string]Registration)}
}

// Put inserts or replaces a registration, preserving original insertion
// position on replace (re-registering an id is idempotent in place, per
// spec.md §9's "idempotent re-registration for a given id").
func (t *Table) Put(r Registration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byID[r.ID]; !exists {
		t.order = append(t.order, r.ID)
	}
	t.byID[r.ID] = r
}

// Delete removes a registration by id. Reports whether it existed.
func (t *Table) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byID[id]; !exists {
		return false
	}
	delete(t.byID, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the registration for id.
func (t *Table) Get(id string) (Registration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byID[id]
	return r, ok
}

// MatchFirst returns the first registration (insertion order) whose
// selector applies to doc.
func (t *Table) MatchFirst(doc Document) (Registration, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.order {
		r := t.byID[id]
		if r.Selector.Applies(doc) {
			return r, true
		}
	}
	return Registration{}, false
}

// MatchAll returns every registration (insertion order) whose selector
// applies to doc; used by document-sync replay and refresh fan-out.
func (t *Table) MatchAll(doc Document) []Registration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Registration
	for _, id := range t.order {
		r := t.byID[id]
		if r.Selector.Applies(doc) {
			out = append(out, r)
		}
	}
	return out
}

// All returns every registration in insertion order.
func (t *Table) All() []Registration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Registration, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

// Len reports the number of live registrations.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Engine is the registration engine from spec.md §4.3: a lookup from method
// string to the DynamicFeature that owns it, used to dispatch
// client/registerCapability and client/unregisterCapability batches.
type Engine struct {
	mu              sync.RWMutex
	byMethod        map[string]DynamicFeature
	defaultSelector DocumentSelector
}

// NewEngine constructs a registration engine with the given default
// document selector (merged into server registrations that omit one).
func NewEngine(defaultSelector DocumentSelector) *Engine {
	return &Engine{
		byMethod:        make(map[string]DynamicFeature),
		defaultSelector: defaultSelector,
	}
}

// AddFeature indexes a dynamic feature by its registration method.
func (e *Engine) AddFeature(f DynamicFeature) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byMethod[f.RegistrationMethod()] = f
}

// RegistrationEntry mirrors one element of a
// client/registerCapability request.
type RegistrationEntry struct {
	ID              string
	Method          string
	RegisterOptions interface{}
	Selector        DocumentSelector // extracted from RegisterOptions by the caller
}

// Register applies a batch of server registration entries. Per spec.md
// §4.3, a failure on any entry aborts the whole batch with an error; entries
// already applied before the failing one are NOT rolled back, matching the
// source behavior of registering sequentially rather than transactionally
// (the LSP spec doesn't define rollback semantics for a partially-applied
// registerCapability batch, and neither does this client).
func (e *Engine) Register(entries []RegistrationEntry) error {
	for _, entry := range entries {
		id := entry.ID
		if id == "" {
			id = uuid.NewString()
		}

		e.mu.RLock()
		feature, ok := e.byMethod[entry.Method]
		e.mu.RUnlock()
		if !ok {
			return fmt.Errorf("lsp: no feature registered for method %s", entry.Method)
		}

		selector := Merge(entry.Selector, e.defaultSelector)
		if err := feature.Register(id, selector, entry.RegisterOptions); err != nil {
			return fmt.Errorf("lsp: registering %s (%s): %w", id, entry.Method, err)
		}
	}
	return nil
}

// Unregister applies a batch of unregistration entries (id, method pairs).
func (e *Engine) Unregister(entries []RegistrationEntry) error {
	for _, entry := range entries {
		e.mu.RLock()
		feature, ok := e.byMethod[entry.Method]
		e.mu.RUnlock()
		if !ok {
			return fmt.Errorf("lsp: no feature registered for method %s", entry.Method)
		}
		if err := feature.Unregister(entry.ID); err != nil {
			return fmt.Errorf("lsp: unregistering %s (%s): %w", entry.ID, entry.Method, err)
		}
	}
	return nil
}

// DefaultSelector returns the engine's configured default selector.
func (e *Engine) DefaultSelector() DocumentSelector {
	return e.defaultSelector
}
