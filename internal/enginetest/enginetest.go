// Package enginetest holds the behaviour every engine backend must share.
// Backend packages run it from their own tests.
package enginetest

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/jsenv"
)

// NewBackend builds an unloaded backend.
type NewBackend func(cfg core.EngineConfig, setup []core.SetupFunc) core.EngineBackend

func config() core.EngineConfig {
	return core.EngineConfig{
		StartEngines:        1,
		MaxEngines:          1,
		ReuseEngines:        true,
		MemoryLimitMB:       64,
		AllowPrecompilation: true,
	}
}

func runtimeScripts(extra ...core.Script) []core.Script {
	return append([]core.Script{{Name: jsenv.RuntimeScriptName, Source: jsenv.RuntimeSource}}, extra...)
}

func load(t *testing.T, newBackend NewBackend, cfg core.EngineConfig, setup []core.SetupFunc, scripts []core.Script) core.EngineBackend {
	t.Helper()
	b := newBackend(cfg, setup)
	require.NoError(t, b.Load(scripts))
	t.Cleanup(b.Shutdown)
	return b
}

func acquire(t *testing.T, b core.EngineBackend) core.Lease {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l, err := b.Acquire(ctx)
	require.NoError(t, err)
	return l
}

// Run exercises newBackend against the shared contract.
func Run(t *testing.T, newBackend NewBackend) {
	t.Run("Eval", func(t *testing.T) { testEval(t, newBackend) })
	t.Run("RegisterFunc", func(t *testing.T) { testRegisterFunc(t, newBackend) })
	t.Run("ResetRemovesRenderGlobals", func(t *testing.T) { testReset(t, newBackend) })
	t.Run("Microtasks", func(t *testing.T) { testMicrotasks(t, newBackend) })
	t.Run("Interrupt", func(t *testing.T) { testInterrupt(t, newBackend) })
	t.Run("LoadFailure", func(t *testing.T) { testLoadFailure(t, newBackend) })
	t.Run("Shutdown", func(t *testing.T) { testShutdown(t, newBackend) })
	t.Run("Console", func(t *testing.T) { testConsole(t, newBackend) })
	t.Run("Clock", func(t *testing.T) { testClock(t, newBackend) })
	t.Run("Reload", func(t *testing.T) { testReload(t, newBackend) })
}

func testEval(t *testing.T, newBackend NewBackend) {
	b := load(t, newBackend, config(), []core.SetupFunc{jsenv.SetupGlobals}, runtimeScripts())
	l := acquire(t, b)
	defer l.Release()
	rt := l.Runtime()

	s, err := rt.EvalString(`SSR.renderToString(SSR.createElement('b', {title: 'a"b'}, 'x < y'))`)
	require.NoError(t, err)
	assert.Equal(t, `<b title="a&quot;b" data-ssr-root="">x &lt; y</b>`, s)

	s, err = rt.EvalString(`undefined`)
	require.NoError(t, err)
	assert.Empty(t, s)

	ok, err := rt.EvalBool(jsenv.CheckRuntimeJS)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rt.EvalBool(`global === globalThis && process.env.NODE_ENV === 'production'`)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, rt.SetGlobal(jsenv.PropsGlobal, `{"n":2}`))
	s, err = rt.EvalString(`String(JSON.parse(globalThis.` + jsenv.PropsGlobal + `).n * 21)`)
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	_, err = rt.EvalString(`throw new Error('kaboom')`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func testRegisterFunc(t *testing.T, newBackend NewBackend) {
	setup := func(rt core.JSRuntime) error {
		if err := rt.RegisterFunc("goUpper", func(s string) string {
			return s + "!"
		}); err != nil {
			return err
		}
		return rt.RegisterFunc("goFail", func(s string) (string, error) {
			if s == "bad" {
				return "", errors.New("refused")
			}
			return "fine", nil
		})
	}
	b := load(t, newBackend, config(), []core.SetupFunc{setup}, runtimeScripts())
	l := acquire(t, b)
	defer l.Release()
	rt := l.Runtime()

	s, err := rt.EvalString(`goUpper('hi')`)
	require.NoError(t, err)
	assert.Equal(t, "hi!", s)

	s, err = rt.EvalString(`goFail('ok')`)
	require.NoError(t, err)
	assert.Equal(t, "fine", s)

	s, err = rt.EvalString(`(function(){ try { goFail('bad'); return 'no'; } catch (e) { return 'threw'; } })()`)
	require.NoError(t, err)
	assert.Equal(t, "threw", s)
}

func testReset(t *testing.T, newBackend NewBackend) {
	b := load(t, newBackend, config(), nil, runtimeScripts(core.Script{Name: "app.js", Source: `var keep = 'bundle';`}))

	l := acquire(t, b)
	rt := l.Runtime()
	require.NoError(t, rt.Eval(`globalThis.leaked = 1; this.alsoLeaked = 2;`))
	require.NoError(t, rt.SetGlobal(jsenv.PropsGlobal, "{}"))
	l.Release()

	l = acquire(t, b)
	defer l.Release()
	ok, err := l.Runtime().EvalBool(`typeof leaked === 'undefined' && typeof alsoLeaked === 'undefined' && typeof ` + jsenv.PropsGlobal + ` === 'undefined'`)
	require.NoError(t, err)
	assert.True(t, ok, "render globals must not survive release")

	ok, err = l.Runtime().EvalBool(`keep === 'bundle' && typeof SSR === 'object'`)
	require.NoError(t, err)
	assert.True(t, ok, "script globals must survive release")

	stats := b.Stats()
	assert.EqualValues(t, 1, stats.Created)
	assert.Equal(t, 1, stats.InUse)
}

func testMicrotasks(t *testing.T, newBackend NewBackend) {
	b := load(t, newBackend, config(), nil, runtimeScripts())
	l := acquire(t, b)
	defer l.Release()
	rt := l.Runtime()

	require.NoError(t, rt.Eval(`globalThis.settled = false; Promise.resolve().then(function () { globalThis.settled = true; });`))
	rt.RunMicrotasks()
	ok, err := rt.EvalBool(`globalThis.settled`)
	require.NoError(t, err)
	assert.True(t, ok)
}

func testInterrupt(t *testing.T, newBackend NewBackend) {
	b := load(t, newBackend, config(), nil, runtimeScripts())
	l := acquire(t, b)

	timer := time.AfterFunc(100*time.Millisecond, l.Interrupt)
	defer timer.Stop()

	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = errors.New("interrupted by panic")
			}
		}()
		_, err = l.Runtime().EvalString(`for (;;) {}`)
	}()
	assert.Error(t, err)
	l.Discard()

	stats := b.Stats()
	assert.EqualValues(t, 1, stats.Destroyed)
	assert.Equal(t, 0, stats.Live)

	l = acquire(t, b)
	defer l.Release()
	s, err := l.Runtime().EvalString(`'alive'`)
	require.NoError(t, err)
	assert.Equal(t, "alive", s)
}

func testLoadFailure(t *testing.T, newBackend NewBackend) {
	b := newBackend(config(), nil)
	defer b.Shutdown()
	err := b.Load([]core.Script{{Name: "broken.js", Source: `this is not javascript`}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.js")
}

func testShutdown(t *testing.T, newBackend NewBackend) {
	b := newBackend(config(), nil)
	require.NoError(t, b.Load(runtimeScripts()))
	b.Shutdown()

	_, err := b.Acquire(context.Background())
	assert.Error(t, err)
}

func testConsole(t *testing.T, newBackend NewBackend) {
	obsCore, logs := observer.New(zap.DebugLevel)
	b := load(t, newBackend, config(), []core.SetupFunc{jsenv.SetupConsole(zap.New(obsCore))}, runtimeScripts())
	l := acquire(t, b)
	defer l.Release()

	require.NoError(t, l.Runtime().Eval(`console.log('a', 1, {b: true}); console.error('bad');`))

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, `a 1 {"b":true}`, all[0].Message)
	assert.Equal(t, zap.InfoLevel, all[0].Level)
	assert.Equal(t, "bad", all[1].Message)
	assert.Equal(t, zap.ErrorLevel, all[1].Level)
}

func testClock(t *testing.T, newBackend NewBackend) {
	fixed := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	b := load(t, newBackend, config(), []core.SetupFunc{jsenv.SetupClock(func() time.Time { return fixed })}, runtimeScripts())
	l := acquire(t, b)
	defer l.Release()

	ok, err := l.Runtime().EvalBool(`SSR.now() === ` + formatMillis(fixed))
	require.NoError(t, err)
	assert.True(t, ok)
}

func testReload(t *testing.T, newBackend NewBackend) {
	b := load(t, newBackend, config(), nil, runtimeScripts(core.Script{Name: "v1.js", Source: `var version = 1;`}))

	held := acquire(t, b)
	require.NoError(t, b.Load(runtimeScripts(core.Script{Name: "v2.js", Source: `var version = 2;`})))

	s, err := held.Runtime().EvalString(`String(version)`)
	require.NoError(t, err)
	assert.Equal(t, "1", s, "leases on the old pool stay valid")
	held.Release()

	l := acquire(t, b)
	defer l.Release()
	s, err = l.Runtime().EvalString(`String(version)`)
	require.NoError(t, err)
	assert.Equal(t, "2", s)
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
