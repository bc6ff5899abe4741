//go:build goja && !v8

package gojaengine

import (
	"testing"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/enginetest"
)

func TestEngine(t *testing.T) {
	enginetest.Run(t, func(cfg core.EngineConfig, setup []core.SetupFunc) core.EngineBackend {
		return NewEngine(cfg, setup)
	})
}
