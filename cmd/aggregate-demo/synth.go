// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: synth.go — per-core synthetic snapshot generator
//
// Stands in for a real host framework feeding live snapshots: each
// pinned worker goroutine generates its own stream so the demo
// exercises the full acquire/ingest/flush/retire path without any
// external instrumentation source.
// ─────────────────────────────────────────────────────────────────────────────

package main

import (
	"context"
	"math/rand"
	"runtime"
	"time"

	"aggregate/config"
	"aggregate/engine"
	"aggregate/hostapi"
)

// runWorker pins the calling goroutine's OS thread to core and feeds
// synthetic snapshots through its own Database handle until ctx is
// done.
func runWorker(ctx context.Context, host *hostapi.Host, eng *engine.Engine, core int, cfg config.Aggregate) {
	runtime.LockOSThread()
	pinToCPU(core)

	handle := eng.Acquire()
	defer handle.Close()

	keyAttrs := resolveAttributes(host, cfg.Key)
	aggrAttrs := resolveAttributes(host, cfg.Attributes)

	rng := rand.New(rand.NewSource(int64(core + 1)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		handle.ProcessSnapshot(synthesizeSnapshot(rng, core, keyAttrs, aggrAttrs))
		time.Sleep(time.Duration(50+rng.Intn(200)) * time.Microsecond)
	}
}

func resolveAttributes(host *hostapi.Host, names []string) []hostapi.Attribute {
	var out []hostapi.Attribute
	for _, name := range names {
		if a, ok := host.Registry.Lookup(name); ok {
			out = append(out, a)
		}
	}
	return out
}

// synthesizeSnapshot builds one snapshot. Only the first configured key
// attribute groups synthetic data; additional key attributes still
// resolve but are left unused by this generator.
func synthesizeSnapshot(rng *rand.Rand, core int, keyAttrs, aggrAttrs []hostapi.Attribute) *hostapi.Snapshot {
	leaf := &hostapi.Node{ID: uint64(core)<<32 | uint64(rng.Intn(1<<12)), AttributeID: hostapi.InvalidID}
	if len(keyAttrs) > 0 {
		leaf.AttributeID = keyAttrs[0].ID
		leaf.Value = hostapi.Int64Value(int64(core % 4))
	}

	snap := &hostapi.Snapshot{Nodes: []*hostapi.Node{leaf}}
	for _, a := range aggrAttrs {
		snap.Immediates = append(snap.Immediates, hostapi.Entry{
			AttributeID: a.ID,
			Value:       hostapi.DoubleValue(rng.Float64() * 1000),
		})
	}
	return snap
}
