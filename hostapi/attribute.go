// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: attribute.go — attribute registry
//
// Purpose:
//   - The host framework's notion of an "attribute": a named, typed slot
//     that context-tree nodes and immediate snapshot entries point at.
//   - Registry is the in-memory reference implementation of attribute
//     lookup/creation/notification a real host would provide; it is not
//     on any ingest-hot-path, only at config/attribute-bind time and
//     whenever a host creates a new attribute.
// ─────────────────────────────────────────────────────────────────────────────

package hostapi

import "sync"

// InvalidID marks an unresolved attribute or node id, the same role
// CALI_INV_ID plays for the framework this module generalizes.
const InvalidID = ^uint64(0)

// ValueType is the wire type an attribute's values carry.
type ValueType int

const (
	TypeInt64 ValueType = iota
	TypeUint64
	TypeDouble
	TypeBool
	TypeString
)

// Attribute describes one named, typed slot in the host's attribute
// space.
type Attribute struct {
	ID   uint64
	Name string
	Type ValueType
}

// Invalid is the sentinel Attribute whose ID is InvalidID, analogous
// to Attribute::invalid. It is not the zero value: ID 0 is a valid id.
var Invalid = Attribute{ID: InvalidID}

// Registry resolves attribute names to Attributes, creates new ones,
// and notifies subscribers when a new attribute is created.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Attribute
	nextID uint64
	onNew  []func(Attribute)
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Attribute)}
}

// Lookup resolves name to its Attribute, if it has been created.
func (r *Registry) Lookup(name string) (Attribute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	return a, ok
}

// Create registers a new attribute under name and typ, or returns the
// existing one if name was already registered. Newly created
// attributes fire every subscriber registered via Subscribe.
func (r *Registry) Create(name string, typ ValueType) Attribute {
	r.mu.Lock()
	if a, ok := r.byName[name]; ok {
		r.mu.Unlock()
		return a
	}
	a := Attribute{ID: r.nextID, Name: name, Type: typ}
	r.nextID++
	r.byName[name] = a
	subs := append([]func(Attribute){}, r.onNew...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(a)
	}
	return a
}

// Subscribe registers fn to be called whenever a new attribute is
// created through this registry.
func (r *Registry) Subscribe(fn func(Attribute)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onNew = append(r.onNew, fn)
}
