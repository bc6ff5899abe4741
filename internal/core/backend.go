package core

import "context"

// EngineBackend is the interface that engine implementations (QuickJS, V8,
// goja) must satisfy. The root ssr.Environment delegates to one of these
// based on build tags.
type EngineBackend interface {
	// Name identifies the engine ("quickjs", "v8", "goja").
	Name() string

	// Load compiles the scripts and replaces the engine pool with one whose
	// engines have all scripts evaluated. Leases held on a previous pool stay
	// valid; their engines are destroyed on release.
	Load(scripts []Script) error

	// Acquire leases one engine. It blocks until an engine is free, a new
	// one can be created, or ctx is done.
	Acquire(ctx context.Context) (Lease, error)

	// Stats reports the current pool counters.
	Stats() PoolStats

	// Shutdown destroys all idle engines and refuses further leases.
	Shutdown()
}

// Lease is exclusive access to one pooled engine for the duration of a
// render. Exactly one of Release or Discard takes effect; later calls are
// no-ops.
type Lease interface {
	Runtime() JSRuntime

	// Interrupt aborts the script currently running on the engine. It is
	// safe to call from another goroutine. An interrupted engine must be
	// discarded.
	Interrupt()

	// Release returns the engine to the pool after resetting it.
	Release()

	// Discard destroys the engine instead of returning it.
	Discard()
}

// Script is one named source evaluated into every engine at creation time.
type Script struct {
	Name   string
	Source string
}
