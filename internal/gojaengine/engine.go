//go:build goja && !v8

// Package gojaengine is the pure-Go engine backend built on goja (build with
// -tags goja). With AllowPrecompilation, scripts are compiled once and the
// resulting programs are shared by every runtime.
package gojaengine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/enginepool"
	"github.com/dop251/goja"
)

// Engine owns the goja runtime pool.
type Engine struct {
	config core.EngineConfig
	setup  []core.SetupFunc
	cache  *programCache
	pool   atomic.Pointer[enginepool.Pool[*gojaWorker]]
}

var _ core.EngineBackend = (*Engine)(nil)

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg core.EngineConfig, setup []core.SetupFunc) *Engine {
	e := &Engine{config: cfg, setup: setup}
	if cfg.AllowPrecompilation {
		e.cache = &programCache{programs: make(map[string]*goja.Program)}
	}
	return e
}

// Name returns "goja".
func (e *Engine) Name() string { return "goja" }

// Load builds, pre-warms and swaps in a pool whose runtimes run scripts.
func (e *Engine) Load(scripts []core.Script) error {
	pool := enginepool.New(enginepool.Config{
		Max:       e.config.MaxEngines,
		MaxUsages: e.config.MaxUsagesPerEngine,
		Reuse:     e.config.ReuseEngines,
	}, func() (*gojaWorker, error) {
		return newGojaWorker(scripts, e.setup, e.cache)
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

// Acquire leases one runtime.
func (e *Engine) Acquire(ctx context.Context) (core.Lease, error) {
	pool := e.pool.Load()
	if pool == nil {
		return nil, errors.New("goja: no scripts loaded")
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
	l *enginepool.Lease[*gojaWorker]
}

func (l *lease) Runtime() core.JSRuntime { return l.l.Worker().rt }
func (l *lease) Interrupt()              { l.l.Worker().vm.Interrupt(errInterrupted) }
func (l *lease) Release()                { l.l.Release() }
func (l *lease) Discard()                { l.l.Discard() }

var errInterrupted = errors.New("script execution interrupted")
