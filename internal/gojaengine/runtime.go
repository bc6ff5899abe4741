//go:build goja && !v8

package gojaengine

import (
	"github.com/cryguy/ssr/internal/core"
	"github.com/dop251/goja"
)

// gojaRuntime implements core.JSRuntime on a goja.Runtime.
type gojaRuntime struct {
	vm *goja.Runtime
}

var _ core.JSRuntime = (*gojaRuntime)(nil)

// Eval evaluates JavaScript and discards the result.
func (r *gojaRuntime) Eval(js string) error {
	_, err := r.vm.RunString(js)
	return err
}

// EvalString evaluates JavaScript and returns the result as a Go string.
func (r *gojaRuntime) EvalString(js string) (string, error) {
	v, err := r.vm.RunString(js)
	if err != nil {
		return "", err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", nil
	}
	return v.String(), nil
}

// EvalBool evaluates JavaScript and returns the result as a Go bool.
func (r *gojaRuntime) EvalBool(js string) (bool, error) {
	v, err := r.vm.RunString(js)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	return v.ToBoolean(), nil
}

// RegisterFunc exposes fn as a global. goja wraps Go functions itself and
// throws when a trailing error return is non-nil.
func (r *gojaRuntime) RegisterFunc(name string, fn any) error {
	return r.vm.Set(name, fn)
}

// SetGlobal sets a global variable on the runtime.
func (r *gojaRuntime) SetGlobal(name string, value any) error {
	return r.vm.Set(name, value)
}

// RunMicrotasks is a no-op: goja drains its job queue when each top-level
// evaluation returns.
func (r *gojaRuntime) RunMicrotasks() {}
