// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: node.go — context tree
//
// Purpose:
//   - Node is the host's context-tree vertex: a parent-linked
//     attribute/value pair, immutable once interned.
//   - ContextTree interns (attribute, value) chains under a given root,
//     returning the same *Node for any two structurally identical
//     paths — this is what lets two snapshots that visited the same
//     "function.name=foo" frame collapse onto one aggregation key.
//
// Notes:
//   - Interning is keyed by a sha3-256 fingerprint of (parent identity,
//     attribute id, value) rather than an O(n) struct walk, so
//     InternPath is O(depth) regardless of how many nodes already
//     exist in the tree.
// ─────────────────────────────────────────────────────────────────────────────

package hostapi

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/sha3"
)

// Node is one vertex of a context tree.
type Node struct {
	ID          uint64
	AttributeID uint64
	Parent      *Node
	Value       Value
}

// Attribute walks up from n looking for the nearest ancestor (inclusive)
// whose AttributeID equals id, returning nil if none is found. This is
// the primitive aggregatedb uses to discover which snapshot nodes lead
// to a configured key attribute.
func (n *Node) Attribute(id uint64) *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.AttributeID == id {
			return cur
		}
	}
	return nil
}

// PathEntry is one (attribute, value) step to intern under a root.
type PathEntry struct {
	AttributeID uint64
	Value       Value
}

// ContextTree interns attribute/value chains into a shared, deduplicated
// node graph.
type ContextTree struct {
	mu       sync.Mutex
	root     *Node
	interned map[[32]byte]*Node
	nextID   uint64
}

// NewContextTree returns a ContextTree with a single invalid root node.
func NewContextTree() *ContextTree {
	return &ContextTree{
		root:     &Node{ID: InvalidID, AttributeID: InvalidID},
		interned: make(map[[32]byte]*Node),
	}
}

// Root returns the tree's root node.
func (t *ContextTree) Root() *Node {
	return t.root
}

// InternPath finds or creates the node chain for path under underRoot
// (the tree's own root if nil), returning the leaf node. Entries are
// applied in order, each one extending the chain by one level.
func (t *ContextTree) InternPath(path []PathEntry, underRoot *Node) (*Node, error) {
	if underRoot == nil {
		underRoot = t.root
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cur := underRoot
	for _, e := range path {
		fp := fingerprint(cur, e.AttributeID, e.Value)
		child, ok := t.interned[fp]
		if !ok {
			child = &Node{ID: t.nextID, AttributeID: e.AttributeID, Parent: cur, Value: e.Value}
			t.nextID++
			t.interned[fp] = child
		}
		cur = child
	}
	return cur, nil
}

func fingerprint(parent *Node, attributeID uint64, v Value) [32]byte {
	buf := make([]byte, 0, 8+8+1+8+len(v.str))
	buf = binary.LittleEndian.AppendUint64(buf, parent.ID)
	buf = binary.LittleEndian.AppendUint64(buf, attributeID)
	buf = append(buf, byte(v.typ))
	buf = binary.LittleEndian.AppendUint64(buf, v.bits)
	buf = append(buf, v.str...)
	return sha3.Sum256(buf)
}
