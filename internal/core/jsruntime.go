package core

import "github.com/cryguy/ssr/internal/enginepool"

// JSRuntime abstracts the JavaScript engine (QuickJS, V8 or goja) behind a
// common interface used by the shared setup functions in internal/jsenv and
// by the render path in the root package.
type JSRuntime interface {
	// Eval evaluates JavaScript source and discards the result.
	Eval(js string) error

	// EvalString evaluates JavaScript and returns the result as a Go string.
	EvalString(js string) (string, error)

	// EvalBool evaluates JavaScript and returns the result as a Go bool.
	EvalBool(js string) (bool, error)

	// RegisterFunc registers a Go function as a global JavaScript function.
	// Supported argument and return types are string, int, float64 and bool.
	// A trailing error return makes the JS wrapper throw instead of returning.
	RegisterFunc(name string, fn any) error

	// SetGlobal sets a global variable on the JS context. Basic Go types
	// (string, int, float64, bool) are converted to JS values.
	SetGlobal(name string, value any) error

	// RunMicrotasks pumps the microtask queue (Promise callbacks, etc.).
	RunMicrotasks()
}

// SetupFunc configures a freshly created engine before any script runs.
type SetupFunc func(rt JSRuntime) error

// PoolStats mirrors the engine pool counters.
type PoolStats = enginepool.Stats
