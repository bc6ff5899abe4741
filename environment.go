package ssr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/jsenv"
	"go.uber.org/zap"
)

// ServerBundleName is the file looked up in Config.BuildPath.
const ServerBundleName = "server.js"

// PoolStats reports engine pool counters.
type PoolStats = core.PoolStats

// Environment owns the script engines and the loaded component scripts.
// It is safe for concurrent use.
type Environment struct {
	cfg      Config
	registry *Registry
	backend  core.EngineBackend
	logger   *zap.Logger
	metrics  *Metrics
}

// NewEnvironment assembles the configured scripts, loads them into a fresh
// engine pool and verifies that the component runtime and every registered
// entry point are present.
func NewEnvironment(cfg Config, registry *Registry, opts ...Option) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if registry == nil {
		registry = NewRegistry()
	}

	o := envOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	scripts, err := assembleScripts(cfg, o.scripts)
	if err != nil {
		return nil, err
	}

	setup := []core.SetupFunc{
		jsenv.SetupGlobals,
		jsenv.SetupConsole(o.logger),
	}
	if o.clock != nil {
		setup = append(setup, jsenv.SetupClock(o.clock))
	}

	backend := newBackend(cfg.engineConfig(), setup)
	if err := backend.Load(scripts); err != nil {
		return nil, fmt.Errorf("loading scripts: %w", err)
	}

	env := &Environment{
		cfg:      cfg,
		registry: registry,
		backend:  backend,
		logger:   o.logger,
		metrics:  o.metrics,
	}

	if err := env.verify(); err != nil {
		backend.Shutdown()
		return nil, err
	}

	o.metrics.observePool(env.Stats)

	o.logger.Info("script environment ready",
		zap.String("backend", backend.Name()),
		zap.Int("scripts", len(scripts)),
		zap.Int("components", len(registry.Components())),
		zap.Int("start_engines", cfg.StartEngines),
		zap.Int("max_engines", cfg.MaxEngines),
	)
	return env, nil
}

// assembleScripts collects the scripts every engine evaluates, in order:
// the component runtime, the server bundle, configured files, then
// in-memory sources.
func assembleScripts(cfg Config, extra []namedSource) ([]core.Script, error) {
	var scripts []core.Script

	if cfg.LoadRuntime {
		scripts = append(scripts, core.Script{Name: jsenv.RuntimeScriptName, Source: jsenv.RuntimeSource})
	}

	if cfg.BuildPath != "" {
		bundle := filepath.Join(cfg.BuildPath, ServerBundleName)
		src, err := os.ReadFile(bundle)
		switch {
		case err == nil:
			scripts = append(scripts, core.Script{Name: bundle, Source: string(src)})
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("reading %s: %w", bundle, err)
		}
	}

	for _, path := range cfg.Scripts {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading script %s: %w", path, err)
		}
		source := string(src)
		if cfg.LoadTranspiler {
			source, err = transpileScript(path, source)
			if err != nil {
				return nil, err
			}
		}
		scripts = append(scripts, core.Script{Name: path, Source: source})
	}

	for _, s := range extra {
		scripts = append(scripts, core.Script{Name: s.name, Source: s.source})
	}

	if len(scripts) == 0 {
		return nil, errors.New("no scripts to load: set load_runtime, provide a server bundle, or list scripts")
	}
	return scripts, nil
}

// verify leases one engine and checks the runtime and registered entries.
func (e *Environment) verify() error {
	ctx, cancel := e.acquireContext(context.Background())
	defer cancel()

	lease, err := e.backend.Acquire(ctx)
	if err != nil {
		return &EngineExhaustionError{Err: err}
	}
	defer lease.Release()

	rt := lease.Runtime()
	ok, err := rt.EvalBool(jsenv.CheckRuntimeJS)
	if err != nil {
		return fmt.Errorf("checking component runtime: %w", err)
	}
	if !ok {
		return errors.New("component runtime missing: globalThis.SSR is not defined (enable load_runtime or bundle it)")
	}

	for _, c := range e.registry.Components() {
		ok, err := rt.EvalBool(entryIsFunctionJS(c.Entry))
		if err != nil {
			return fmt.Errorf("checking component %q: %w", c.Name, err)
		}
		if !ok {
			return &ResolutionError{Component: c.Name, Entry: c.Entry}
		}
	}
	return nil
}

// entryIsFunctionJS evaluates to true when the dotted path entry names a
// function. entry has already been validated by the Registry.
func entryIsFunctionJS(entry string) string {
	return fmt.Sprintf("(function() { try { return typeof (%s) === 'function'; } catch (e) { return false; } })()", entry)
}

func (e *Environment) acquireContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.AcquireTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.AcquireTimeout)
	}
	return context.WithCancel(ctx)
}

// CreateRenderable leases an engine and binds it to one component
// invocation. The returned handle must be given back with
// ReturnEngineToPool. A client-only render still holds a lease so the
// handle behaves the same in every mode.
func (e *Environment) CreateRenderable(ctx context.Context, component Component, propsJSON, containerID string, clientOnly, serverOnly bool) (RenderableHandle, error) {
	actx, cancel := e.acquireContext(ctx)
	defer cancel()

	start := time.Now()
	lease, err := e.backend.Acquire(actx)
	e.metrics.RecordAcquire(time.Since(start))
	if err != nil {
		return nil, &EngineExhaustionError{Err: err}
	}
	e.logger.Debug("engine leased",
		zap.String("component", component.Name),
		zap.String("container_id", containerID),
		zap.Bool("client_only", clientOnly),
		zap.Bool("server_only", serverOnly),
	)

	return &renderable{
		component:   component,
		propsJSON:   propsJSON,
		containerID: containerID,
		tag:         e.cfg.ContainerTag,
		lease:       lease,
		timeout:     e.cfg.ExecutionTimeout,
		logger:      e.logger,
	}, nil
}

// Stats reports the engine pool counters.
func (e *Environment) Stats() PoolStats {
	return e.backend.Stats()
}

// Backend names the engine implementation compiled in.
func (e *Environment) Backend() string {
	return e.backend.Name()
}

// Config returns the configuration the environment was built with.
func (e *Environment) Config() Config {
	return e.cfg
}

// Registry returns the component registry the environment resolves from.
func (e *Environment) Registry() *Registry {
	return e.registry
}

// Shutdown destroys idle engines and refuses new leases. Engines still
// leased are destroyed when returned.
func (e *Environment) Shutdown() {
	e.backend.Shutdown()
	e.logger.Info("script environment shut down")
}
