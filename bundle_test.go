package ssr

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsBundling(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`var a = 1;`, false},
		{`const C = () => <div/>;`, false},
		{`import Clock from './Clock.jsx';`, true},
		{`import{x}from"y"`, true},
		{`const m = import('./lazy.js');`, true},
		{`const fs = require('fs');`, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, needsBundling(tt.src), tt.src)
	}
}

func TestTransformJSX(t *testing.T) {
	out, err := TransformJSX(`var C = function () { return <><b>hi</b></>; };`, "c.jsx")
	require.NoError(t, err)
	assert.Contains(t, out, "SSR.createElement(")
	assert.Contains(t, out, "SSR.Fragment")
	assert.Contains(t, out, "var C")
}

func TestTransformJSX_SyntaxError(t *testing.T) {
	_, err := TransformJSX(`var C = <div>;`, "broken.jsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.jsx")
}

func TestBundleComponents_ClockExample(t *testing.T) {
	bundle, err := BundleComponents(filepath.Join("examples", "clock", "components", "expose-components.jsx"), BundleOptions{IncludeRuntime: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bundle, "// Minimal component runtime"), "runtime is prepended")
	assert.NotContains(t, bundle, "import ")

	cfg := testConfig()
	cfg.LoadRuntime = false
	cfg.Scripts = nil
	env, err := NewEnvironment(cfg,
		NewRegistry().
			MustRegister("Clock", "Components.Clock").
			MustRegister("RootComponent", "RootComponent"),
		WithScript(ServerBundleName, bundle),
	)
	require.NoError(t, err)
	t.Cleanup(env.Shutdown)

	r := NewRenderer(env)
	for _, name := range []string{"Clock", "RootComponent"} {
		out, err := r.Render(context.Background(), name, nil)
		require.NoError(t, err)
		assert.Regexp(t, clockText, containerText(t, out, DefaultContainerID), name)
	}
}

func TestBundleComponents_MissingEntry(t *testing.T) {
	_, err := BundleComponents(filepath.Join(t.TempDir(), "nope.jsx"), BundleOptions{})
	assert.Error(t, err)
}
