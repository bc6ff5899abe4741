//go:build !v8 && !goja

package quickjs

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

func TestExecutePendingJobs_Bounded(t *testing.T) {
	w, err := newQJSWorker(nil, nil, 0)
	if err != nil {
		t.Fatalf("newQJSWorker: %v", err)
	}
	defer w.Close()

	if err := w.rt.Eval(`globalThis.n = 0; (function loop() { n++; Promise.resolve().then(loop); })();`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got := executePendingJobs(w.vm); got != maxPendingJobs {
		t.Errorf("executePendingJobs = %d, want %d", got, maxPendingJobs)
	}
}
