package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cryguy/ssr"
	"github.com/cryguy/ssr/internal/jsenv"
)

var exampleEntry = filepath.Join("..", "..", "examples", "clock", "components", "expose-components.jsx")

func TestRun_WritesBundles(t *testing.T) {
	obsCore, logs := observer.New(zap.InfoLevel)
	out := filepath.Join(t.TempDir(), "dist")

	require.NoError(t, run(zap.New(obsCore), exampleEntry, exampleEntry, out, false))

	for _, name := range []string{ssr.ServerBundleName, "client.js"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(data), jsenv.RuntimeSource, name)
		assert.Contains(t, string(data), "Components", name)
	}

	entries := logs.FilterMessage("bundle written").All()
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(out, ssr.ServerBundleName), entries[0].ContextMap()["path"])
}

func TestRun_MissingEntry(t *testing.T) {
	err := run(zap.NewNop(), "does-not-exist.jsx", "does-not-exist.jsx", t.TempDir(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bundle")
}
