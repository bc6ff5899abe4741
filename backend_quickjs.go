//go:build !v8 && !goja

package ssr

import (
	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/quickjs"
)

func newBackend(cfg core.EngineConfig, setup []core.SetupFunc) core.EngineBackend {
	return quickjs.NewEngine(cfg, setup)
}
