//go:build v8

package ssr

import (
	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/v8engine"
)

func newBackend(cfg core.EngineConfig, setup []core.SetupFunc) core.EngineBackend {
	return v8engine.NewEngine(cfg, setup)
}
