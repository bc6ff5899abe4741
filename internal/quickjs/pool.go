//go:build !v8 && !goja

package quickjs

import (
	"fmt"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/jsenv"
	"modernc.org/quickjs"
)

// qjsWorker is a single QuickJS VM in the pool.
type qjsWorker struct {
	vm *quickjs.VM
	rt *qjsRuntime
}

// Reset deletes every global the last render created.
func (w *qjsWorker) Reset() error {
	return w.rt.Eval(jsenv.ResetJS)
}

// Close frees the VM.
func (w *qjsWorker) Close() {
	w.vm.Close()
}

// newQJSWorker creates a single QuickJS VM, runs all setup functions,
// evaluates the scripts in order, and snapshots the global baseline.
func newQJSWorker(scripts []core.Script, setupFns []core.SetupFunc, memoryLimitMB int) (*qjsWorker, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("creating QuickJS VM: %w", err)
	}

	if memoryLimitMB > 0 {
		vm.SetMemoryLimit(uintptr(memoryLimitMB) * 1024 * 1024)
	}

	rt := &qjsRuntime{vm: vm}

	for _, setup := range setupFns {
		if err := setup(rt); err != nil {
			vm.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	for _, s := range scripts {
		if err := rt.Eval(s.Source); err != nil {
			vm.Close()
			return nil, fmt.Errorf("running %s: %w", s.Name, err)
		}
	}
	rt.RunMicrotasks()

	if err := rt.Eval(jsenv.BaselineJS); err != nil {
		vm.Close()
		return nil, fmt.Errorf("installing global baseline: %w", err)
	}

	return &qjsWorker{vm: vm, rt: rt}, nil
}
