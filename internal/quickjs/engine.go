//go:build !v8 && !goja

// Package quickjs is the default engine backend, built on the pure-Go
// QuickJS port modernc.org/quickjs. QuickJS exposes no bytecode cache
// through that port, so AllowPrecompilation has no effect here.
package quickjs

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/enginepool"
)

// Engine owns the QuickJS worker pool.
type Engine struct {
	config core.EngineConfig
	setup  []core.SetupFunc
	pool   atomic.Pointer[enginepool.Pool[*qjsWorker]]
}

var _ core.EngineBackend = (*Engine)(nil)

// NewEngine creates an Engine with the given configuration. setup runs on
// every VM before any script is evaluated.
func NewEngine(cfg core.EngineConfig, setup []core.SetupFunc) *Engine {
	return &Engine{config: cfg, setup: setup}
}

// Name returns "quickjs".
func (e *Engine) Name() string { return "quickjs" }

// Load builds a new pool whose VMs evaluate scripts, pre-warms it, and
// swaps it in. The first VM doubles as validation: a script that fails to
// evaluate fails Load and keeps the previous pool.
func (e *Engine) Load(scripts []core.Script) error {
	pool := enginepool.New(enginepool.Config{
		Max:       e.config.MaxEngines,
		MaxUsages: e.config.MaxUsagesPerEngine,
		Reuse:     e.config.ReuseEngines,
	}, func() (*qjsWorker, error) {
		return newQJSWorker(scripts, e.setup, e.config.MemoryLimitMB)
	})

	if err := pool.Prewarm(max(1, e.config.StartEngines)); err != nil {
		pool.Close()
		return err
	}

	if old := e.pool.Swap(pool); old != nil {
		old.Close()
	}
	return nil
}

// Acquire leases one VM.
func (e *Engine) Acquire(ctx context.Context) (core.Lease, error) {
	pool := e.pool.Load()
	if pool == nil {
		return nil, errors.New("quickjs: no scripts loaded")
	}
	l, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &lease{l: l}, nil
}

// Stats reports the current pool counters.
func (e *Engine) Stats() core.PoolStats {
	if pool := e.pool.Load(); pool != nil {
		return pool.Stats()
	}
	return core.PoolStats{}
}

// Shutdown closes the pool.
func (e *Engine) Shutdown() {
	if pool := e.pool.Load(); pool != nil {
		pool.Close()
	}
}

type lease struct {
	l *enginepool.Lease[*qjsWorker]
}

func (l *lease) Runtime() core.JSRuntime { return l.l.Worker().rt }
func (l *lease) Interrupt()              { l.l.Worker().vm.Interrupt() }
func (l *lease) Release()                { l.l.Release() }
func (l *lease) Discard()                { l.l.Discard() }
