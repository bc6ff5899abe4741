package ssr

import (
	"errors"
	"fmt"
	"time"

	"github.com/cryguy/ssr/internal/core"
)

// Config is the environment configuration surface. Field tags drive both
// YAML loading and SSR_* environment overrides (see internal/config).
type Config struct {
	// ReuseEngines returns engines to the pool after a render instead of
	// destroying them.
	ReuseEngines bool `yaml:"reuse_engines" env:"SSR_REUSE_ENGINES"`
	// LoadTranspiler runs each file in Scripts through the JSX transpiler.
	LoadTranspiler bool `yaml:"load_transpiler" env:"SSR_LOAD_TRANSPILER"`
	// LoadRuntime evaluates the built-in component runtime before any
	// other script. Bundles produced by ssr-build already include it.
	LoadRuntime bool `yaml:"load_runtime" env:"SSR_LOAD_RUNTIME"`
	// AllowPrecompilation caches compiled scripts across engines where the
	// backend supports it.
	AllowPrecompilation bool        `yaml:"allow_precompilation" env:"SSR_ALLOW_PRECOMPILATION"`
	JSON                JSONOptions `yaml:"json"`

	// BuildPath is the directory holding the server bundle (server.js).
	BuildPath string `yaml:"build_path" env:"SSR_BUILD_PATH"`
	// Scripts are additional script files evaluated after the bundle.
	Scripts []string `yaml:"scripts" env:"SSR_SCRIPTS"`

	StartEngines       int `yaml:"start_engines" env:"SSR_START_ENGINES"`
	MaxEngines         int `yaml:"max_engines" env:"SSR_MAX_ENGINES"`
	MaxUsagesPerEngine int `yaml:"max_usages_per_engine" env:"SSR_MAX_USAGES_PER_ENGINE"`
	MemoryLimitMB      int `yaml:"memory_limit_mb" env:"SSR_MEMORY_LIMIT_MB"`

	// ExecutionTimeout bounds a single entry-point execution. Zero disables
	// the watchdog.
	ExecutionTimeout time.Duration `yaml:"execution_timeout" env:"SSR_EXECUTION_TIMEOUT"`
	// AcquireTimeout bounds the wait for a free engine. Zero waits as long
	// as the caller's context allows.
	AcquireTimeout time.Duration `yaml:"acquire_timeout" env:"SSR_ACQUIRE_TIMEOUT"`

	// ContainerTag is the default container element name.
	ContainerTag string `yaml:"container_tag" env:"SSR_CONTAINER_TAG"`
}

// JSONOptions controls props serialization.
type JSONOptions struct {
	IgnoreNulls bool `yaml:"ignore_nulls" env:"SSR_JSON_IGNORE_NULLS"`
	EscapeHTML  bool `yaml:"escape_html" env:"SSR_JSON_ESCAPE_HTML"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		ReuseEngines:        true,
		AllowPrecompilation: true,
		JSON: JSONOptions{
			IgnoreNulls: true,
			EscapeHTML:  true,
		},
		BuildPath:          "dist",
		StartEngines:       2,
		MaxEngines:         25,
		MaxUsagesPerEngine: 100,
		MemoryLimitMB:      128,
		ExecutionTimeout:   5 * time.Second,
		AcquireTimeout:     10 * time.Second,
		ContainerTag:       "div",
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.MaxEngines < 1:
		return errors.New("max_engines must be at least 1")
	case c.StartEngines < 0:
		return errors.New("start_engines must not be negative")
	case c.StartEngines > c.MaxEngines:
		return fmt.Errorf("start_engines (%d) exceeds max_engines (%d)", c.StartEngines, c.MaxEngines)
	case c.MaxUsagesPerEngine < 0:
		return errors.New("max_usages_per_engine must not be negative")
	case c.MemoryLimitMB < 0:
		return errors.New("memory_limit_mb must not be negative")
	case c.ExecutionTimeout < 0:
		return errors.New("execution_timeout must not be negative")
	case c.AcquireTimeout < 0:
		return errors.New("acquire_timeout must not be negative")
	}
	if c.ContainerTag != "" && !validTag(c.ContainerTag) {
		return fmt.Errorf("container_tag %q is not a valid element name", c.ContainerTag)
	}
	return nil
}

func (c Config) engineConfig() core.EngineConfig {
	return core.EngineConfig{
		StartEngines:        c.StartEngines,
		MaxEngines:          c.MaxEngines,
		MaxUsagesPerEngine:  c.MaxUsagesPerEngine,
		ReuseEngines:        c.ReuseEngines,
		MemoryLimitMB:       c.MemoryLimitMB,
		AllowPrecompilation: c.AllowPrecompilation,
	}
}
