// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: host.go — host bundle
//
// Purpose:
//   - Bundles everything a service needs from its host into one value:
//     attribute registry, context tree, event bus, logger, config
//     reader, a way to tell whether it's running in a signal-restricted
//     context, and the sink re-emitted (aggregated) snapshots flow to.
// ─────────────────────────────────────────────────────────────────────────────

package hostapi

import (
	"sync"
	"sync/atomic"

	"aggregate/config"
	"aggregate/logging"
)

// Host is the minimal, in-process reference host implementation used
// to register and exercise a service end to end.
type Host struct {
	Registry *Registry
	Tree     *ContextTree
	Bus      *Bus
	Log      *logging.Logger
	Config   config.Reader

	signal atomic.Bool

	sinkMu sync.Mutex
	sink   func(*Snapshot)
}

// NewHost builds a Host with fresh Registry/ContextTree/Bus and the
// given logger and config reader. Every attribute the Registry creates
// is announced on the Bus, so subscribers like the key-attribute
// late-binding handler see it without the Registry knowing the Bus
// exists.
func NewHost(log *logging.Logger, cfg config.Reader) *Host {
	h := &Host{
		Registry: NewRegistry(),
		Tree:     NewContextTree(),
		Bus:      NewBus(),
		Log:      log,
		Config:   cfg,
	}
	h.Registry.Subscribe(h.Bus.FireAttributeCreated)
	return h
}

// InSignalContext reports whether the calling code is running somewhere
// that cannot safely allocate or take a lock. The in-process reference
// host never runs inside a real signal handler; SetSignalContext lets
// tests simulate one.
func (h *Host) InSignalContext() bool {
	return h.signal.Load()
}

// SetSignalContext toggles the signal-context flag InSignalContext
// reports, for tests that need to exercise the no-allocation path.
func (h *Host) SetSignalContext(v bool) {
	h.signal.Store(v)
}

// SetFlushSink installs the function re-emitted snapshots are delivered
// to during a flush.
func (h *Host) SetFlushSink(fn func(*Snapshot)) {
	h.sinkMu.Lock()
	defer h.sinkMu.Unlock()
	h.sink = fn
}

// FlushSink delivers snapshot to the installed sink, if any.
func (h *Host) FlushSink(snapshot *Snapshot) {
	h.sinkMu.Lock()
	fn := h.sink
	h.sinkMu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}
