//go:build v8

package v8engine

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
