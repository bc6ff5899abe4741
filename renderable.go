package ssr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cryguy/ssr/internal/core"
	"github.com/cryguy/ssr/internal/jsenv"
	"go.uber.org/zap"
)

// RenderableHandle is one component invocation bound to a leased engine.
type RenderableHandle interface {
	// RenderHTML writes the component markup to w. Script faults are passed
	// to handler and the container is written empty; the returned error is
	// reserved for resolution and write failures.
	RenderHTML(w io.Writer, clientOnly, serverOnly bool, handler ExceptionHandler, fns RenderFunctions) error

	// ReturnEngineToPool gives the leased engine back. Calls after the
	// first are no-ops.
	ReturnEngineToPool()

	// ContainerID is the id of the element the component renders into.
	ContainerID() string

	// SetContainerTag and SetContainerClass customise the container element.
	SetContainerTag(tag string)
	SetContainerClass(class string)
}

var tagName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

func validTag(tag string) bool { return tagName.MatchString(tag) }

type renderable struct {
	component   Component
	propsJSON   string
	containerID string
	tag         string
	class       string

	lease   core.Lease
	timeout time.Duration
	logger  *zap.Logger

	discard  bool
	released sync.Once
}

func (r *renderable) ContainerID() string        { return r.containerID }
func (r *renderable) SetContainerTag(tag string) { r.tag = tag }
func (r *renderable) SetContainerClass(c string) { r.class = c }

func (r *renderable) ReturnEngineToPool() {
	r.released.Do(func() {
		if r.discard {
			r.lease.Discard()
			return
		}
		r.lease.Release()
	})
}

func (r *renderable) RenderHTML(w io.Writer, clientOnly, serverOnly bool, handler ExceptionHandler, fns RenderFunctions) error {
	if fns == nil {
		fns = RenderFunctionsBase{}
	}
	tag := r.tag
	if tag == "" {
		tag = "div"
	}
	if !validTag(tag) {
		return fmt.Errorf("container tag %q is not a valid element name", tag)
	}

	var inner string
	if !clientOnly {
		out, err := r.execute(serverOnly, fns)
		if err != nil {
			var rerr *ResolutionError
			if errors.As(err, &rerr) {
				return err
			}
			fault := &ScriptExecutionError{Component: r.component.Name, ContainerID: r.containerID, Err: err}
			if handler != nil {
				handler.HandleRenderError(fault, r.component.Name, r.containerID)
			}
			out = ""
		}
		inner = out
	}

	if serverOnly {
		_, err := io.WriteString(w, inner)
		return err
	}

	if err := r.writeContainer(w, tag, inner); err != nil {
		return err
	}
	return r.writeBootstrap(w, clientOnly)
}

// execute runs the entry point and returns its markup. Faults that leave
// the engine in an unknown state mark the lease for discard.
func (r *renderable) execute(static bool, fns RenderFunctions) (markup string, err error) {
	rt := r.lease.Runtime()

	var timedOut atomic.Bool
	var timer *time.Timer
	if r.timeout > 0 {
		timer = time.AfterFunc(r.timeout, func() {
			timedOut.Store(true)
			r.lease.Interrupt()
		})
	}

	defer func() {
		// A timer that can no longer be stopped has fired or is firing, and
		// its interrupt may still land on the engine.
		if timer != nil && !timer.Stop() {
			timedOut.Store(true)
		}
		if p := recover(); p != nil {
			r.discard = true
			markup, err = "", fmt.Errorf("engine panic: %v", p)
		}
		if timedOut.Load() {
			r.discard = true
			if err != nil {
				err = fmt.Errorf("%w after %s: %w", ErrExecutionTimeout, r.timeout, err)
			}
		}
		if r.discard {
			r.logger.Warn("engine will be discarded after render",
				zap.String("component", r.component.Name),
				zap.Bool("timed_out", timedOut.Load()),
				zap.Error(err),
			)
		}
	}()

	if err := fns.PreRender(rt); err != nil {
		return "", fmt.Errorf("pre-render: %w", err)
	}

	ok, err := rt.EvalBool(entryIsFunctionJS(r.component.Entry))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ResolutionError{Component: r.component.Name, Entry: r.component.Entry}
	}

	if err := rt.SetGlobal(jsenv.PropsGlobal, r.propsJSON); err != nil {
		return "", fmt.Errorf("setting props: %w", err)
	}

	method := "renderToString"
	if static {
		method = "renderToStaticMarkup"
	}
	js := fmt.Sprintf("SSR.%s(SSR.createElement(%s, JSON.parse(globalThis.%s)))", method, r.component.Entry, jsenv.PropsGlobal)

	markup, err = rt.EvalString(fns.WrapComponent(js))
	rt.RunMicrotasks()
	if err != nil {
		return "", err
	}
	markup = fns.TransformRenderedHTML(markup)

	if err := fns.PostRender(rt); err != nil {
		return "", fmt.Errorf("post-render: %w", err)
	}
	return markup, nil
}

func (r *renderable) writeContainer(w io.Writer, tag, inner string) error {
	var err error
	if r.class != "" {
		_, err = fmt.Fprintf(w, `<%s id="%s" class="%s">%s</%s>`, tag, html.EscapeString(r.containerID), html.EscapeString(r.class), inner, tag)
	} else {
		_, err = fmt.Fprintf(w, `<%s id="%s">%s</%s>`, tag, html.EscapeString(r.containerID), inner, tag)
	}
	return err
}

// writeBootstrap emits the client script that hydrates the server markup,
// or renders from scratch for client-only output.
func (r *renderable) writeBootstrap(w io.Writer, clientOnly bool) error {
	method := "hydrate"
	if clientOnly {
		method = "render"
	}
	id, err := json.Marshal(r.containerID)
	if err != nil {
		return err
	}
	// The inline copy is always escaped, whatever the JSON options say, so
	// a "</script>" inside a prop cannot close the element.
	var props bytes.Buffer
	json.HTMLEscape(&props, []byte(r.propsJSON))
	_, err = fmt.Fprintf(w, `<script>SSR.%s(SSR.createElement(%s, %s), document.getElementById(%s));</script>`,
		method, r.component.Entry, props.Bytes(), id)
	return err
}
