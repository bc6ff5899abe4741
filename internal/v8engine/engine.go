//go:build v8

// Package v8engine is the V8 engine backend (build with -tags v8). With
// AllowPrecompilation, engines share V8 code-cache data for each script.
package v8engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/enginepool"
)

// Engine owns the V8 worker pool.
type Engine struct {
	config core.EngineConfig
	setup  []core.SetupFunc
	cache  *codeCache
	pool   atomic.Pointer[enginepool.Pool[*v8Worker]]
}

var _ core.EngineBackend = (*Engine)(nil)

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg core.EngineConfig, setup []core.SetupFunc) *Engine {
	e := &Engine{config: cfg, setup: setup}
	if cfg.AllowPrecompilation {
		e.cache = newCodeCache()
	}
	return e
}

// Name returns "v8".
func (e *Engine) Name() string { return "v8" }

// Load builds, pre-warms and swaps in a pool whose isolates run scripts.
func (e *Engine) Load(scripts []core.Script) error {
	pool := enginepool.New(enginepool.Config{
		Max:       e.config.MaxEngines,
		MaxUsages: e.config.MaxUsagesPerEngine,
		Reuse:     e.config.ReuseEngines,
	}, func() (*v8Worker, error) {
		return newV8Worker(scripts, e.setup, e.config.MemoryLimitMB, e.cache)
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

// Acquire leases one isolate.
func (e *Engine) Acquire(ctx context.Context) (core.Lease, error) {
	pool := e.pool.Load()
	if pool == nil {
		return nil, errors.New("v8: no scripts loaded")
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
	l *enginepool.Lease[*v8Worker]
}

func (l *lease) Runtime() core.JSRuntime { return l.l.Worker().rt }
func (l *lease) Interrupt()              { l.l.Worker().iso.TerminateExecution() }
func (l *lease) Release()                { l.l.Release() }
func (l *lease) Discard()                { l.l.Discard() }
