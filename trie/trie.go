// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: trie.go — byte-indexed aggregation trie
//
// Purpose:
//   - Maps encoded snapshot keys (see keycodec) to a terminal node that
//     owns a count and a run of aggregation kernels.
//   - Index 0 is the root; FindOrCreate descends one byte at a time,
//     extending the trie on demand.
//
// Notes:
//   - FindOrCreate(key, false) is the signal-context path: it must never
//     allocate a trie node, a trie block, or a kernel block. A miss
//     returns nil and the caller counts the snapshot as dropped.
//   - Node/kernel storage lives in two independent blockalloc.Allocator
//     instances so trie structure and kernel payload can be sized and
//     cleared independently.
// ─────────────────────────────────────────────────────────────────────────────

package trie

import (
	"aggregate/blockalloc"
	"aggregate/kernel"
)

// noKernel marks a node that has not yet been assigned a kernel run.
const noKernel = 0xFFFFFFFF

// Node is one trie vertex: 256 children plus terminal bookkeeping.
type Node struct {
	Children   [256]uint32
	KernelBase uint32
	Count      uint32
}

// Trie is a byte-indexed trie over blockalloc-backed nodes and kernels.
type Trie struct {
	nodes            *blockalloc.Allocator[Node]
	kernels          *blockalloc.Allocator[kernel.Kernel]
	numTrieEntries   uint32
	numKernelEntries uint32
	numAggrAttrs     int
}

// New creates an empty trie sized for numAggrAttrs aggregation attributes
// (the number of kernels a terminal owns).
func New(maxBlocks, entriesPerBlock, numAggrAttrs int) *Trie {
	return &Trie{
		nodes:        blockalloc.New[Node](maxBlocks, entriesPerBlock),
		kernels:      blockalloc.New[kernel.Kernel](maxBlocks, entriesPerBlock),
		numAggrAttrs: numAggrAttrs,
	}
}

// Node0 returns a reference to the root node, allocating the first
// trie block if requested.
func (t *Trie) Node0(allocateIfMissing bool) *Node {
	return t.nodes.Get(0, allocateIfMissing)
}

// NodeAt exposes raw node access by id, without allocating.
func (t *Trie) NodeAt(id uint32) *Node {
	return t.nodes.Get(id, false)
}

// KernelAt returns the kernel at kernels[base+offset], without allocating.
func (t *Trie) KernelAt(base uint32, offset int) *kernel.Kernel {
	return t.kernels.Get(base+uint32(offset), false)
}

// FindOrCreate descends the trie along key, extending it when
// mayAllocate is true, and ensures the terminal node owns a kernel run
// (one slot per aggregation attribute) if it does not already have one.
// Returns nil on any structural limit (block exhaustion) or, in
// mayAllocate=false mode, on any miss.
func (t *Trie) FindOrCreate(key []byte, mayAllocate bool) *Node {
	// Arena blocks come back zero-valued, so a node gets the noKernel
	// sentinel when it is first handed out: the root when its block is
	// allocated, every other node when its id is assigned.
	rootFresh := t.nodes.BlockCount() == 0
	entry := t.nodes.Get(0, mayAllocate)
	if entry == nil {
		return nil
	}
	if rootFresh {
		entry.KernelBase = noKernel
	}

	for _, b := range key {
		id := entry.Children[b]
		created := false
		if id == 0 {
			if !mayAllocate {
				return nil
			}
			t.numTrieEntries++
			id = t.numTrieEntries
			entry.Children[b] = id
			created = true
		}
		entry = t.nodes.Get(id, mayAllocate)
		if entry == nil {
			return nil
		}
		if created {
			entry.KernelBase = noKernel
		}
	}

	if entry.KernelBase == noKernel && t.numAggrAttrs > 0 {
		firstID := t.numKernelEntries + 1
		t.numKernelEntries += uint32(t.numAggrAttrs)

		for i := 0; i < t.numAggrAttrs; i++ {
			k := t.kernels.Get(firstID+uint32(i), mayAllocate)
			if k == nil {
				// Leaving numKernelEntries advanced on failure just
				// wastes a little id space; nothing has observed this
				// kernel run yet so there's nothing to roll back.
				return nil
			}
			*k = kernel.Zero()
		}

		entry.KernelBase = firstID
	}

	return entry
}

// NumTrieEntries, NumKernelEntries, TrieBlockCount, KernelBlockCount,
// EntriesPerBlock expose arena statistics for the coordinator's finish
// report.
func (t *Trie) NumTrieEntries() uint32    { return t.numTrieEntries }
func (t *Trie) NumKernelEntries() uint32  { return t.numKernelEntries }
func (t *Trie) TrieBlockCount() int       { return t.nodes.BlockCount() }
func (t *Trie) KernelBlockCount() int     { return t.kernels.BlockCount() }
func (t *Trie) EntriesPerBlock() int      { return t.nodes.EntriesPerBlock() }

// Clear releases both arenas and resets entry counters. The trie is
// immediately reusable from node 0.
func (t *Trie) Clear() {
	t.nodes.Clear()
	t.kernels.Clear()
	t.numTrieEntries = 0
	t.numKernelEntries = 0
}

// walkFrame is one level of the explicit DFS stack used by Walk, used
// in place of per-level recursion so traversal depth is bounded only by
// a reusable slice rather than the call stack.
type walkFrame struct {
	node *Node
	next int // next child byte to try, 0..256
}

// Visit is called once per reachable node that represents a terminated
// snapshot (Count > 0), with the accumulated key path for that node.
// The path slice is reused across calls and must not be retained.
type Visit func(path []byte, node *Node)

// Walk performs a depth-first traversal of the trie from the root,
// invoking visit for every node with Count > 0, carrying the
// accumulated byte path. Traversal order is ascending child-byte order.
func (t *Trie) Walk(visit Visit) {
	root := t.nodes.Get(0, false)
	if root == nil {
		return
	}

	stack := make([]walkFrame, 0, 64)
	path := make([]byte, 0, 64)

	stack = append(stack, walkFrame{node: root, next: 0})
	if root.Count > 0 {
		visit(path, root)
	}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		advanced := false

		for top.next < 256 {
			b := top.next
			top.next++

			childID := top.node.Children[b]
			if childID == 0 {
				continue
			}
			child := t.nodes.Get(childID, false)
			if child == nil {
				continue
			}

			path = append(path, byte(b))
			if child.Count > 0 {
				visit(path, child)
			}
			stack = append(stack, walkFrame{node: child, next: 0})
			advanced = true
			break
		}

		if !advanced {
			stack = stack[:len(stack)-1]
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		}
	}
}
