package ssr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultContainerID is the container id used when none is given.
const DefaultContainerID = "root"

// ExceptionHandler receives script faults raised while a component
// executes on the server. It is called at most once per Render.
type ExceptionHandler interface {
	HandleRenderError(err error, componentName, containerID string)
}

// ExceptionHandlerFunc adapts a function to ExceptionHandler.
type ExceptionHandlerFunc func(err error, componentName, containerID string)

func (f ExceptionHandlerFunc) HandleRenderError(err error, componentName, containerID string) {
	f(err, componentName, containerID)
}

// RenderOption configures a single Render call.
type RenderOption func(*renderOptions)

type renderOptions struct {
	tag         string
	containerID string
	generateID  bool
	class       string
	clientOnly  bool
	serverOnly  bool
	handler     ExceptionHandler
	fns         RenderFunctions
}

// WithHTMLTag sets the container element name.
func WithHTMLTag(tag string) RenderOption {
	return func(o *renderOptions) { o.tag = tag }
}

// WithContainerID sets the container element id.
func WithContainerID(id string) RenderOption {
	return func(o *renderOptions) {
		o.containerID = id
		o.generateID = false
	}
}

// WithGeneratedContainerID gives the container a unique id of the form
// ssr_<uuid>.
func WithGeneratedContainerID() RenderOption {
	return func(o *renderOptions) { o.generateID = true }
}

// ClientOnly skips server execution and emits only the container and the
// client bootstrap.
func ClientOnly() RenderOption {
	return func(o *renderOptions) { o.clientOnly = true }
}

// ServerOnly emits static markup only, with no container and no client
// bootstrap.
func ServerOnly() RenderOption {
	return func(o *renderOptions) { o.serverOnly = true }
}

// WithContainerClass sets the container's class attribute.
func WithContainerClass(class string) RenderOption {
	return func(o *renderOptions) { o.class = class }
}

// WithExceptionHandler replaces the default handler, which logs the fault.
func WithExceptionHandler(h ExceptionHandler) RenderOption {
	return func(o *renderOptions) { o.handler = h }
}

// WithRenderFunctions installs hooks run around server execution.
func WithRenderFunctions(fns RenderFunctions) RenderOption {
	return func(o *renderOptions) { o.fns = fns }
}

// environment is the part of *Environment the Renderer uses.
type environment interface {
	CreateRenderable(ctx context.Context, component Component, propsJSON, containerID string, clientOnly, serverOnly bool) (RenderableHandle, error)
}

// Renderer turns a component name and props into HTML.
type Renderer struct {
	env      environment
	registry *Registry
	json     JSONOptions
	tag      string
	logger   *zap.Logger
	metrics  *Metrics
	handler  ExceptionHandler
}

// NewRenderer returns a Renderer backed by env.
func NewRenderer(env *Environment) *Renderer {
	return newRenderer(env, env.registry, env.cfg, env.logger, env.metrics)
}

func newRenderer(env environment, registry *Registry, cfg Config, logger *zap.Logger, metrics *Metrics) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	tag := cfg.ContainerTag
	if tag == "" {
		tag = "div"
	}
	r := &Renderer{
		env:      env,
		registry: registry,
		json:     cfg.JSON,
		tag:      tag,
		logger:   logger,
		metrics:  metrics,
	}
	r.handler = ExceptionHandlerFunc(r.logFault)
	return r
}

func (r *Renderer) logFault(err error, componentName, containerID string) {
	r.logger.Error("component render failed",
		zap.String("component", componentName),
		zap.String("container_id", containerID),
		zap.Error(err),
	)
}

var bufferPool = sync.Pool{
	New: func() any { return bytes.NewBuffer(make([]byte, 0, 128)) },
}

// Render executes the named component with props and returns its markup.
//
// Unregistered components, unserializable props and engine exhaustion are
// returned as errors before anything is rendered. A fault inside the
// component is passed to the exception handler and Render returns the
// container with empty content and a nil error.
func (r *Renderer) Render(ctx context.Context, componentName string, props any, opts ...RenderOption) (_ string, err error) {
	start := time.Now()
	outcome := outcomeOK
	defer func() {
		if err != nil {
			outcome = outcomeFor(err)
		}
		r.metrics.RecordRender(componentName, outcome, time.Since(start))
	}()

	o := renderOptions{
		tag:         r.tag,
		containerID: DefaultContainerID,
		handler:     r.handler,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.generateID {
		o.containerID = "ssr_" + uuid.NewString()
	}
	if !validTag(o.tag) {
		return "", fmt.Errorf("container tag %q is not a valid element name", o.tag)
	}

	component, err := r.registry.Resolve(componentName)
	if err != nil {
		return "", err
	}

	propsJSON, err := SerializeProps(props, r.json)
	if err != nil {
		return "", &SerializationError{Component: componentName, Err: err}
	}

	handle, err := r.env.CreateRenderable(ctx, component, propsJSON, o.containerID, o.clientOnly, o.serverOnly)
	if err != nil {
		return "", err
	}
	defer handle.ReturnEngineToPool()

	handle.SetContainerTag(o.tag)
	if o.class != "" {
		handle.SetContainerClass(o.class)
	}

	faulted := false
	handler := ExceptionHandlerFunc(func(err error, name, id string) {
		faulted = true
		r.metrics.RecordFault(name)
		if o.handler != nil {
			o.handler.HandleRenderError(err, name, id)
		}
	})

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if err := handle.RenderHTML(buf, o.clientOnly, o.serverOnly, handler, o.fns); err != nil {
		return "", err
	}
	if faulted {
		outcome = outcomeDegraded
	}
	return buf.String(), nil
}

func outcomeFor(err error) string {
	var (
		resolution    *ResolutionError
		serialization *SerializationError
		exhaustion    *EngineExhaustionError
	)
	switch {
	case errors.As(err, &resolution):
		return outcomeUnresolved
	case errors.As(err, &serialization):
		return outcomeUnserializable
	case errors.As(err, &exhaustion):
		return outcomeExhausted
	default:
		return outcomeError
	}
}
