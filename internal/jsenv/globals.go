package jsenv

import (
	"time"

	"github.com/cryguy/ssr/internal/core"
)

// globalsJS gives bundles written for Node-style environments a `global`
// alias and a no-op `process.env.NODE_ENV`.
const globalsJS = `
(function() {
	if (typeof globalThis.global === 'undefined') globalThis.global = globalThis;
	if (typeof globalThis.process === 'undefined') {
		globalThis.process = { env: { NODE_ENV: 'production' } };
	}
})();
`

// SetupGlobals installs the `global` and `process` shims.
func SetupGlobals(rt core.JSRuntime) error {
	return rt.Eval(globalsJS)
}

// SetupClock installs __ssr_now, the time source SSR.now() reads from.
// now returns wall-clock time; it is called once per SSR.now() call.
func SetupClock(now func() time.Time) core.SetupFunc {
	return func(rt core.JSRuntime) error {
		return rt.RegisterFunc("__ssr_now", func() float64 {
			return float64(now().UnixMilli())
		})
	}
}
