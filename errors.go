package ssr

import (
	"errors"
	"fmt"
)

// ErrExecutionTimeout is wrapped by a ScriptExecutionError when the render
// watchdog interrupted the script.
var ErrExecutionTimeout = errors.New("script execution timed out")

// ResolutionError reports a component name that is not registered, or whose
// entry point is not a function in the loaded scripts.
type ResolutionError struct {
	Component string
	Entry     string // empty when the name is not registered at all
}

func (e *ResolutionError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("component %q is not registered", e.Component)
	}
	return fmt.Sprintf("component %q: entry point %s is not a function in the script environment", e.Component, e.Entry)
}

// SerializationError reports props that could not be serialized.
type SerializationError struct {
	Component string
	Err       error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serializing props for component %q: %v", e.Component, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// ScriptExecutionError reports an uncaught fault while a component's entry
// point ran. It is handed to the ExceptionHandler, never returned by Render.
type ScriptExecutionError struct {
	Component   string
	ContainerID string
	Err         error
}

func (e *ScriptExecutionError) Error() string {
	return fmt.Sprintf("rendering component %q into #%s: %v", e.Component, e.ContainerID, e.Err)
}

func (e *ScriptExecutionError) Unwrap() error { return e.Err }

// EngineExhaustionError reports that the engine pool could not supply an
// engine.
type EngineExhaustionError struct {
	Err error
}

func (e *EngineExhaustionError) Error() string {
	return fmt.Sprintf("acquiring script engine: %v", e.Err)
}

func (e *EngineExhaustionError) Unwrap() error { return e.Err }
