//go:build goja && !v8

package ssr

import (
	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/gojaengine"
)

func newBackend(cfg core.EngineConfig, setup []core.SetupFunc) core.EngineBackend {
	return gojaengine.NewEngine(cfg, setup)
}
