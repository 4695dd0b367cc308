// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: engine.go — aggregation coordinator
//
// Purpose:
//   - Owns the config-resolved set of aggregation/key attributes, the
//     global list of live per-goroutine Databases, and the lifecycle
//     wiring (OnPostInit/OnAttributeCreated/OnFlush/OnFinish) that
//     drives them.
//   - Acquire hands out a Handle a goroutine retains for its own
//     ingest calls and releases with Close when it's done — the
//     stand-in for thread-local storage with an exit destructor, which
//     Go has no equivalent of.
// ─────────────────────────────────────────────────────────────────────────────

package engine

import (
	"strconv"
	"sync/atomic"
	"unsafe"

	"aggregate/aggregatedb"
	"aggregate/blockalloc"
	"aggregate/config"
	"aggregate/hostapi"
	"aggregate/kernel"
	"aggregate/spinlock"
	"aggregate/trie"
)

// Engine coordinates every per-goroutine Database registered against
// one Host.
type Engine struct {
	host *hostapi.Host
	cfg  config.Aggregate

	keyAttributeName []string
	keyAttributeID   []atomic.Uint64

	stats     []aggregatedb.StatAttrs
	countAttr hostapi.Attribute

	listLock spinlock.Spinlock
	list     *aggregatedb.Database

	globalNumTrieEntries   uint32
	globalNumKernelEntries uint32
	globalTrieBlocks       int
	globalKernelBlocks     int
	globalDropped          uint64
	globalMaxKeyLen        int
}

// New builds an Engine from cfg, creating its derived statistics
// attributes against host's registry.
func New(host *hostapi.Host, cfg config.Aggregate) *Engine {
	e := &Engine{
		host:             host,
		cfg:              cfg,
		keyAttributeName: cfg.Key,
		keyAttributeID:   make([]atomic.Uint64, len(cfg.Key)),
	}
	for i := range e.keyAttributeID {
		e.keyAttributeID[i].Store(hostapi.InvalidID)
	}
	e.stats, e.countAttr = aggregatedb.CreateStatisticsAttributes(host, cfg.Attributes)
	return e
}

// Register wires the engine into host's event bus. Call once per
// Engine, before any goroutine calls Acquire.
func (e *Engine) Register() {
	e.host.Bus.OnAttributeCreated(e.onAttributeCreated)
	e.host.Bus.OnPostInit(e.onPostInit)
	e.host.Bus.OnFlush(func() { e.Flush() })
	e.host.Bus.OnFinish(func() { e.Finish() })

	e.host.Log.Warn("Registered aggregation service")
}

func (e *Engine) onPostInit() {
	// Pre-create the master-thread database eagerly so it's already
	// linked into the flush list by the time the first snapshot
	// arrives. The handle itself is discarded: what matters here is
	// the database's place in the list, not this call's own handle.
	e.Acquire()

	for i, name := range e.keyAttributeName {
		if a, ok := e.host.Registry.Lookup(name); ok {
			e.keyAttributeID[i].Store(a.ID)
		}
	}
}

func (e *Engine) onAttributeCreated(a hostapi.Attribute) {
	for i, name := range e.keyAttributeName {
		if name == a.Name {
			e.keyAttributeID[i].Store(a.ID)
		}
	}
}

// Handle is a goroutine's exclusive claim on one Database. The holder
// must call Close when it will no longer process snapshots.
type Handle struct {
	engine *Engine
	db     *aggregatedb.Database
}

// Acquire creates a new Database, links it into the engine's global
// list, and returns a Handle to it. Every goroutine that will call
// ProcessSnapshot must hold its own Handle.
func (e *Engine) Acquire() *Handle {
	db := aggregatedb.New(e.host, e.cfg.Attributes, e.stats, e.countAttr, &e.keyAttributeID)

	e.listLock.Lock()
	db.SetNext(e.list)
	if e.list != nil {
		e.list.SetPrev(db)
	}
	e.list = db
	e.listLock.Unlock()

	return &Handle{engine: e, db: db}
}

// ProcessSnapshot folds snapshot into this handle's database, unless a
// flush currently owns it — in that case the snapshot is dropped and
// counted exactly as if the database itself had dropped it.
func (h *Handle) ProcessSnapshot(snapshot *hostapi.Snapshot) {
	if h.db.Stopped() {
		atomic.AddUint64(&h.engine.globalDropped, 1)
		return
	}
	h.db.ProcessSnapshot(snapshot, !h.engine.host.InSignalContext())
}

// Close retires this handle's database; it is unlinked and discarded
// the next time the engine flushes.
func (h *Handle) Close() {
	h.db.Retire()
}

func (e *Engine) unlink(db *aggregatedb.Database) {
	if db.Next() != nil {
		db.Next().SetPrev(db.Prev())
	}
	if db.Prev() != nil {
		db.Prev().SetNext(db.Next())
	}
	if db == e.list {
		e.list = db.Next()
	}
}

// Flush walks every live database's trie, re-emitting its aggregated
// snapshots, then clears it for the next epoch. Databases retired
// since the last flush are unlinked and dropped. Returns the total
// number of snapshots written across every database.
func (e *Engine) Flush() int {
	e.listLock.Lock()
	db := e.list
	e.listLock.Unlock()

	written := 0
	for db != nil {
		db.SetStopped(true)
		written += db.Flush()

		numTrie, numKernel, trieBlocks, kernelBlocks, dropped, maxKeyLen := db.Stats()
		e.globalNumTrieEntries += numTrie
		e.globalNumKernelEntries += numKernel
		e.globalTrieBlocks += trieBlocks
		e.globalKernelBlocks += kernelBlocks
		e.globalDropped += dropped
		if maxKeyLen > e.globalMaxKeyLen {
			e.globalMaxKeyLen = maxKeyLen
		}

		db.Clear()
		db.SetStopped(false)

		next := db.Next()
		if db.Retired() {
			e.listLock.Lock()
			e.unlink(db)
			e.listLock.Unlock()
		}
		db = next
	}

	e.host.Log.Warn("aggregate: flushed " + strconv.Itoa(written) + " snapshots.")
	return written
}

// Stats summarizes the engine's global counters as of the last Flush.
type Stats struct {
	NumTrieEntries      uint32
	NumKernelEntries    uint32
	TrieBlocks          int
	KernelBlocks        int
	Dropped             uint64
	MaxKeyLen           int
	ApproxBytesReserved int
}

// Finish logs the finish-time statistics report and any key attributes
// that were configured but never observed, matching the engine's
// end-of-run diagnostics.
func (e *Engine) Finish() Stats {
	approxBytes := e.globalTrieBlocks*int(unsafe.Sizeof(trie.Node{}))*blockalloc.DefaultEntriesPerBlock +
		e.globalKernelBlocks*int(unsafe.Sizeof(kernel.Kernel{}))*blockalloc.DefaultEntriesPerBlock

	e.host.Log.Info("aggregate: max key len " + strconv.Itoa(e.globalMaxKeyLen) +
		", " + strconv.Itoa(int(e.globalNumKernelEntries)) + " entries, " +
		strconv.Itoa(int(e.globalNumTrieEntries)) + " nodes, " +
		strconv.Itoa(e.globalTrieBlocks+e.globalKernelBlocks) + " blocks (" +
		strconv.Itoa(approxBytes) + " bytes reserved)")

	for i, name := range e.keyAttributeName {
		if e.keyAttributeID[i].Load() == hostapi.InvalidID {
			e.host.Log.Warn("aggregate: warning: key attribute '" + name + "' was never encountered")
		}
	}

	if e.globalDropped > 0 {
		e.host.Log.Warn("aggregate: dropped " + strconv.FormatUint(e.globalDropped, 10) + " snapshots.")
	}

	return Stats{
		NumTrieEntries:      e.globalNumTrieEntries,
		NumKernelEntries:    e.globalNumKernelEntries,
		TrieBlocks:          e.globalTrieBlocks,
		KernelBlocks:        e.globalKernelBlocks,
		Dropped:             e.globalDropped,
		MaxKeyLen:           e.globalMaxKeyLen,
		ApproxBytesReserved: approxBytes,
	}
}
