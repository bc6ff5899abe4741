//go:build v8

package v8engine

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/jsenv"
	v8 "github.com/tommie/v8go"
)

// v8Worker is a single V8 isolate+context pair in the pool.
type v8Worker struct {
	iso *v8.Isolate
	ctx *v8.Context
	rt  *v8Runtime
}

// Reset deletes every global the last render created.
func (w *v8Worker) Reset() error {
	return w.rt.Eval(jsenv.ResetJS)
}

// Close disposes the context and the isolate.
func (w *v8Worker) Close() {
	w.ctx.Close()
	w.iso.Dispose()
}

// codeCache keeps V8 code-cache data per script content so engines created
// after the first skip parsing and compilation.
type codeCache struct {
	mu      sync.Mutex
	entries map[[sha256.Size]byte]*v8.CompilerCachedData
}

func newCodeCache() *codeCache {
	return &codeCache{entries: make(map[[sha256.Size]byte]*v8.CompilerCachedData)}
}

func (c *codeCache) get(key [sha256.Size]byte) *v8.CompilerCachedData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key]
}

func (c *codeCache) put(key [sha256.Size]byte, data *v8.CompilerCachedData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
}

// compile compiles a script, consuming and feeding the code cache when one
// is given.
func compile(iso *v8.Isolate, s core.Script, cache *codeCache) (*v8.UnboundScript, error) {
	if cache == nil {
		return iso.CompileUnboundScript(s.Source, s.Name, v8.CompileOptions{})
	}

	key := sha256.Sum256([]byte(s.Name + "\x00" + s.Source))
	if cached := cache.get(key); cached != nil {
		script, err := iso.CompileUnboundScript(s.Source, s.Name, v8.CompileOptions{CachedData: cached})
		if err == nil && !cached.Rejected {
			return script, nil
		}
	}

	script, err := iso.CompileUnboundScript(s.Source, s.Name, v8.CompileOptions{})
	if err != nil {
		return nil, err
	}
	cache.put(key, script.CreateCodeCache())
	return script, nil
}

// newV8Worker creates a single V8 isolate+context, runs all setup functions,
// runs the scripts, and snapshots the global baseline.
func newV8Worker(scripts []core.Script, setupFns []core.SetupFunc, memoryLimitMB int, cache *codeCache) (*v8Worker, error) {
	var iso *v8.Isolate
	if memoryLimitMB > 0 {
		heapSize := uint64(memoryLimitMB) * 1024 * 1024
		iso = v8.NewIsolate(v8.WithResourceConstraints(heapSize/2, heapSize))
	} else {
		iso = v8.NewIsolate()
	}
	ctx := v8.NewContext(iso)
	w := &v8Worker{iso: iso, ctx: ctx, rt: &v8Runtime{iso: iso, ctx: ctx}}

	for _, setup := range setupFns {
		if err := setup(w.rt); err != nil {
			w.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	for _, s := range scripts {
		script, err := compile(iso, s, cache)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("compiling %s: %w", s.Name, err)
		}
		if _, err := script.Run(ctx); err != nil {
			w.Close()
			return nil, fmt.Errorf("running %s: %w", s.Name, err)
		}
	}
	w.rt.RunMicrotasks()

	if err := w.rt.Eval(jsenv.BaselineJS); err != nil {
		w.Close()
		return nil, fmt.Errorf("installing global baseline: %w", err)
	}

	return w, nil
}
