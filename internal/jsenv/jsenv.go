// Package jsenv holds the engine-independent JavaScript environment: the
// component runtime, the setup functions every backend runs on a fresh
// engine, and the scripts that keep pooled engines isolated between renders.
package jsenv

import _ "embed"

// RuntimeSource is the component runtime that defines globalThis.SSR.
//
//go:embed runtime.js
var RuntimeSource string

// RuntimeScriptName is the name engines report in stack traces for
// RuntimeSource.
const RuntimeScriptName = "ssr-runtime.js"
