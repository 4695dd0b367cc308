// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: aggregatedb.go — per-thread aggregation database
//
// Purpose:
//   - Owns one trie + kernel arena pair for one goroutine's worth of
//     ingest: turns each incoming snapshot into an aggregation key,
//     finds or creates the trie terminal for that key, and folds the
//     snapshot's aggregation-attribute values into the terminal's
//     kernel run.
//   - On flush, walks its trie and re-emits one aggregated snapshot per
//     terminal that has ever been touched (Count > 0), then clears its
//     arenas for the next epoch.
//
// Notes:
//   - ProcessSnapshot never returns an error: every failure mode (trie
//     miss, kernel miss, tree-interning failure) is a drop plus a
//     counter increment. When the host reports InSignalContext() the
//     caller passes mayAllocate=false and no trie node, trie block or
//     kernel block is created; key construction still builds small Go
//     slices and may intern a context-tree node in that mode.
// ─────────────────────────────────────────────────────────────────────────────

package aggregatedb

import (
	"sort"
	"sync/atomic"

	"aggregate/blockalloc"
	"aggregate/hostapi"
	"aggregate/keycodec"
	"aggregate/trie"
)

// snapMax caps how many context-tree nodes and how many aggregate
// entries a single re-emitted snapshot carries.
const snapMax = 80

// StatAttrs bundles the three derived statistics attributes created
// for one configured aggregation attribute.
type StatAttrs struct {
	Min hostapi.Attribute
	Max hostapi.Attribute
	Sum hostapi.Attribute
}

// CreateStatisticsAttributes creates, for each aggregation attribute
// name, its "aggregate.min#name"/"aggregate.max#name"/"aggregate.sum#name"
// derived attributes plus one shared "aggregate.count" attribute. The
// coordinator calls this once when it is constructed (engine.New) and
// passes the result to every Database it creates.
func CreateStatisticsAttributes(host *hostapi.Host, aggrAttributeNames []string) ([]StatAttrs, hostapi.Attribute) {
	stats := make([]StatAttrs, len(aggrAttributeNames))
	for i, name := range aggrAttributeNames {
		stats[i] = StatAttrs{
			Min: host.Registry.Create("aggregate.min#"+name, hostapi.TypeDouble),
			Max: host.Registry.Create("aggregate.max#"+name, hostapi.TypeDouble),
			Sum: host.Registry.Create("aggregate.sum#"+name, hostapi.TypeDouble),
		}
	}
	count := host.Registry.Create("aggregate.count", hostapi.TypeUint64)
	return stats, count
}

// Database is one goroutine's aggregation state: a trie/kernel arena
// pair plus the bookkeeping flush needs.
type Database struct {
	host *hostapi.Host

	aggrAttributes []hostapi.Attribute // resolved aggregation attributes, parallel to config
	stats          []StatAttrs         // derived min/max/sum attributes, parallel to aggrAttributes
	countAttr      hostapi.Attribute
	keyAttributeID *[]atomic.Uint64 // shared with the owning Engine; late-bound

	trie *trie.Trie

	aggrRoot *hostapi.Node

	numDropped uint64
	maxKeyLen  int

	stopped atomic.Bool
	retired atomic.Bool

	next *Database
	prev *Database
}

// New creates a Database for host, resolving aggrAttributeNames against
// host's registry (unresolved names are logged and skipped). stats and
// countAttr come from CreateStatisticsAttributes. The keyAttributeIDs
// slice is shared with (and mutated by) the owning Engine as key
// attributes are discovered; Database only ever reads it.
func New(host *hostapi.Host, aggrAttributeNames []string, stats []StatAttrs, countAttr hostapi.Attribute, keyAttributeIDs *[]atomic.Uint64) *Database {
	host.Log.Info("aggregate: creating aggregation database")

	aggrAttributes := make([]hostapi.Attribute, len(aggrAttributeNames))
	for i, name := range aggrAttributeNames {
		a, ok := host.Registry.Lookup(name)
		if !ok {
			host.Log.Warn("aggregate: warning: aggregation attribute " + name + " not found")
			aggrAttributes[i] = hostapi.Invalid
			continue
		}
		aggrAttributes[i] = a
	}

	return &Database{
		host:           host,
		aggrAttributes: aggrAttributes,
		stats:          stats,
		countAttr:      countAttr,
		keyAttributeID: keyAttributeIDs,
		trie:           trie.New(blockalloc.DefaultMaxBlocks, blockalloc.DefaultEntriesPerBlock, len(aggrAttributes)),
		aggrRoot:       &hostapi.Node{ID: hostapi.InvalidID, AttributeID: hostapi.InvalidID},
	}
}

// Stopped reports whether a flush currently owns this database.
func (db *Database) Stopped() bool { return db.stopped.Load() }

// Retired reports whether Retire has been called on this database; a
// retired database is unlinked and discarded the next time it is
// flushed.
func (db *Database) Retired() bool { return db.retired.Load() }

// Retire marks the database for removal after its next flush.
func (db *Database) Retire() { db.retired.Store(true) }

// Next and SetNext, Prev and SetPrev expose the intrusive doubly-linked
// list pointers the owning Engine threads this database through.
func (db *Database) Next() *Database     { return db.next }
func (db *Database) SetNext(n *Database) { db.next = n }
func (db *Database) Prev() *Database     { return db.prev }
func (db *Database) SetPrev(p *Database) { db.prev = p }

// SetStopped toggles the in-flush flag the coordinator sets while it
// owns this database's arenas.
func (db *Database) SetStopped(v bool) { db.stopped.Store(v) }

// ProcessSnapshot folds one incoming snapshot into this database's
// aggregation state. mayAllocate controls whether new trie nodes or
// kernel slots may be created; callers pass false when
// host.InSignalContext() is true. Interning the key-attribute path
// into the context tree does not depend on mayAllocate.
func (db *Database) ProcessSnapshot(snapshot *hostapi.Snapshot, mayAllocate bool) {
	if len(snapshot.Nodes) == 0 && len(snapshot.Immediates) == 0 {
		return
	}

	nodeIDs, immediates, ok := db.buildKey(snapshot)
	if !ok {
		atomic.AddUint64(&db.numDropped, 1)
		return
	}

	key := keycodec.Encode(nodeIDs, immediates)
	if len(key) > db.maxKeyLen {
		db.maxKeyLen = len(key)
	}

	entry := db.trie.FindOrCreate(key, mayAllocate)
	if entry == nil {
		atomic.AddUint64(&db.numDropped, 1)
		return
	}

	entry.Count++

	for a, attr := range db.aggrAttributes {
		if attr.ID == hostapi.InvalidID {
			continue
		}
		for _, im := range snapshot.Immediates {
			if im.AttributeID != attr.ID {
				continue
			}
			if k := db.trie.KernelAt(entry.KernelBase, a); k != nil {
				k.Add(im.Value.AsDouble())
			}
		}
	}
}

// buildKey resolves the node-id list and key-attribute immediates for
// snapshot, following configured key attributes when any are bound,
// and falling back to the snapshot's own (sorted) node id list
// otherwise. ok is false only when a key-attribute path requires
// interning a context-tree node and the host fails to provide one.
func (db *Database) buildKey(snapshot *hostapi.Snapshot) (nodeIDs []uint64, immediates []keycodec.Immediate, ok bool) {
	keyIDs := db.resolvedKeyAttributeIDs()

	if len(keyIDs) > 0 && len(snapshot.Nodes) > 0 {
		var path []hostapi.PathEntry
		for _, leaf := range snapshot.Nodes {
			for _, kid := range keyIDs {
				if n := leaf.Attribute(kid); n != nil {
					path = append(path, hostapi.PathEntry{AttributeID: n.AttributeID, Value: n.Value})
				}
			}
		}
		if len(path) > 0 {
			node, err := db.host.Tree.InternPath(path, db.aggrRoot)
			if err != nil || node == nil {
				db.host.Log.Warn("aggregate: can't create node")
				return nil, nil, false
			}
			nodeIDs = []uint64{node.ID}
		}
	} else {
		nodeIDs = make([]uint64, len(snapshot.Nodes))
		for i, n := range snapshot.Nodes {
			nodeIDs[i] = n.ID
		}
		sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })
	}

	for k, kid := range keyIDs {
		for _, im := range snapshot.Immediates {
			if im.AttributeID == kid {
				immediates = append(immediates, keycodec.Immediate{KeyIndex: k, Value: im.Value.AsU64()})
			}
		}
	}

	return nodeIDs, immediates, true
}

func (db *Database) resolvedKeyAttributeIDs() []uint64 {
	if db.keyAttributeID == nil {
		return nil
	}
	ids := *db.keyAttributeID
	out := make([]uint64, 0, len(ids))
	for i := range ids {
		if v := ids[i].Load(); v != hostapi.InvalidID {
			out = append(out, v)
		}
	}
	return out
}

// Flush walks the trie and re-emits one aggregated snapshot for every
// terminal node with a non-zero count, delivering each through
// host.FlushSink. It returns the number of snapshots written.
func (db *Database) Flush() int {
	written := 0
	db.trie.Walk(func(path []byte, node *trie.Node) {
		db.writeAggregatedSnapshot(path, node)
		written++
	})
	return written
}

func (db *Database) writeAggregatedSnapshot(key []byte, node *trie.Node) {
	decoded, ok := keycodec.Decode(key, snapMax)
	if !ok {
		return
	}

	snap := &hostapi.Snapshot{}

	for _, id := range decoded.NodeIDs {
		snap.Nodes = append(snap.Nodes, &hostapi.Node{ID: id})
	}

	keyIDs := db.resolvedKeyAttributeIDs()
	for _, im := range decoded.Immediates {
		if im.KeyIndex >= len(keyIDs) {
			continue
		}
		snap.Immediates = append(snap.Immediates, hostapi.Entry{
			AttributeID: keyIDs[im.KeyIndex],
			Value:       hostapi.Uint64Value(im.Value),
		})
	}

	for a := range db.aggrAttributes {
		if db.aggrAttributes[a].ID == hostapi.InvalidID || a >= snapMax/3 {
			continue
		}
		k := db.trie.KernelAt(node.KernelBase, a)
		if k == nil || k.Count == 0 {
			continue
		}
		snap.Immediates = append(snap.Immediates,
			hostapi.Entry{AttributeID: db.stats[a].Min.ID, Value: hostapi.DoubleValue(k.Min)},
			hostapi.Entry{AttributeID: db.stats[a].Max.ID, Value: hostapi.DoubleValue(k.Max)},
			hostapi.Entry{AttributeID: db.stats[a].Sum.ID, Value: hostapi.DoubleValue(k.Sum)},
		)
	}

	snap.Immediates = append(snap.Immediates, hostapi.Entry{
		AttributeID: db.countAttr.ID,
		Value:       hostapi.Uint64Value(uint64(node.Count)),
	})

	db.host.FlushSink(snap)
}

// Clear releases this database's arenas and resets its counters,
// making it immediately reusable for the next epoch.
func (db *Database) Clear() {
	db.trie.Clear()
	db.numDropped = 0
	db.maxKeyLen = 0
}

// Stats reports the arena statistics the coordinator folds into its
// finish report.
func (db *Database) Stats() (numTrieEntries, numKernelEntries uint32, trieBlocks, kernelBlocks int, dropped uint64, maxKeyLen int) {
	return db.trie.NumTrieEntries(), db.trie.NumKernelEntries(),
		db.trie.TrieBlockCount(), db.trie.KernelBlockCount(),
		atomic.LoadUint64(&db.numDropped), db.maxKeyLen
}
