package jsenv

// BaselineJS snapshots the global names that exist once all scripts are
// loaded and defines the non-enumerable __ssr_reset function. Backends
// evaluate it after the last script.
const BaselineJS = `
(function() {
	var base = {};
	var names = Object.getOwnPropertyNames(globalThis);
	for (var i = 0; i < names.length; i++) base[names[i]] = true;
	base['__ssr_reset'] = true;
	Object.defineProperty(globalThis, '__ssr_reset', {
		value: function() {
			var now = Object.getOwnPropertyNames(globalThis);
			for (var i = 0; i < now.length; i++) {
				if (!base[now[i]]) {
					try { delete globalThis[now[i]]; } catch (e) {}
				}
			}
		},
		enumerable: false,
		configurable: false,
		writable: false
	});
})();
`

// ResetJS removes every global created after BaselineJS ran, including the
// per-render props slot.
const ResetJS = `globalThis.__ssr_reset();`

// PropsGlobal is the global the render path stores serialized props in.
const PropsGlobal = "__ssr_props"

// CheckRuntimeJS evaluates to true when the component runtime is present.
const CheckRuntimeJS = `typeof globalThis.SSR === 'object' && globalThis.SSR !== null && typeof globalThis.SSR.renderToString === 'function'`
