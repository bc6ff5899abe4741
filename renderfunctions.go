package ssr

// Executor runs script on the engine leased for the current render.
type Executor interface {
	Eval(js string) error
	EvalString(js string) (string, error)
}

// RenderFunctions are hooks run around a component's server execution, on
// the engine that renders it. They run only when the component executes
// on the server (not for client-only renders).
type RenderFunctions interface {
	// PreRender runs before the component executes.
	PreRender(exec Executor) error
	// WrapComponent may wrap the expression that renders the component.
	// The expression must still evaluate to the markup string.
	WrapComponent(js string) string
	// TransformRenderedHTML may rewrite the server markup.
	TransformRenderedHTML(html string) string
	// PostRender runs after the component executed successfully.
	PostRender(exec Executor) error
}

// RenderFunctionsBase implements RenderFunctions with no-ops. Embed it to
// override only some hooks.
type RenderFunctionsBase struct{}

func (RenderFunctionsBase) PreRender(Executor) error                 { return nil }
func (RenderFunctionsBase) WrapComponent(js string) string           { return js }
func (RenderFunctionsBase) TransformRenderedHTML(html string) string { return html }
func (RenderFunctionsBase) PostRender(Executor) error                { return nil }

// ChainRenderFunctions runs several RenderFunctions in order. Wrapping and
// transforms are applied in order too, so the last one sees the output of
// the others.
func ChainRenderFunctions(fns ...RenderFunctions) RenderFunctions {
	return renderChain(fns)
}

type renderChain []RenderFunctions

func (c renderChain) PreRender(exec Executor) error {
	for _, f := range c {
		if err := f.PreRender(exec); err != nil {
			return err
		}
	}
	return nil
}

func (c renderChain) WrapComponent(js string) string {
	for _, f := range c {
		js = f.WrapComponent(js)
	}
	return js
}

func (c renderChain) TransformRenderedHTML(html string) string {
	for _, f := range c {
		html = f.TransformRenderedHTML(html)
	}
	return html
}

func (c renderChain) PostRender(exec Executor) error {
	for _, f := range c {
		if err := f.PostRender(exec); err != nil {
			return err
		}
	}
	return nil
}
