//go:build goja && !v8

package gojaengine

import (
	"fmt"
	"sync"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/jsenv"
	"github.com/dop251/goja"
)

// gojaWorker is a single goja runtime in the pool.
type gojaWorker struct {
	vm *goja.Runtime
	rt *gojaRuntime
}

// Reset deletes every global the last render created and clears a pending
// interrupt.
func (w *gojaWorker) Reset() error {
	w.vm.ClearInterrupt()
	return w.rt.Eval(jsenv.ResetJS)
}

// Close drops the runtime; goja is garbage collected.
func (w *gojaWorker) Close() {
	w.vm.Interrupt("engine closed")
}

// programCache shares compiled programs between runtimes. A *goja.Program
// is immutable and safe to run on many runtimes.
type programCache struct {
	mu       sync.Mutex
	programs map[string]*goja.Program
}

func (c *programCache) compile(s core.Script) (*goja.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := s.Name + "\x00" + s.Source
	if p, ok := c.programs[key]; ok {
		return p, nil
	}
	p, err := goja.Compile(s.Name, s.Source, false)
	if err != nil {
		return nil, err
	}
	c.programs[key] = p
	return p, nil
}

// newGojaWorker creates a runtime, runs all setup functions and scripts,
// and snapshots the global baseline.
func newGojaWorker(scripts []core.Script, setupFns []core.SetupFunc, cache *programCache) (*gojaWorker, error) {
	vm := goja.New()
	w := &gojaWorker{vm: vm, rt: &gojaRuntime{vm: vm}}

	for _, setup := range setupFns {
		if err := setup(w.rt); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	for _, s := range scripts {
		var err error
		if cache != nil {
			var prog *goja.Program
			if prog, err = cache.compile(s); err == nil {
				_, err = vm.RunProgram(prog)
			}
		} else {
			_, err = vm.RunScript(s.Name, s.Source)
		}
		if err != nil {
			return nil, fmt.Errorf("running %s: %w", s.Name, err)
		}
	}

	if err := w.rt.Eval(jsenv.BaselineJS); err != nil {
		return nil, fmt.Errorf("installing global baseline: %w", err)
	}
	return w, nil
}
