package ssr

import (
	"fmt"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/cryguy/ssr/internal/jsenv"
)

// BundleOptions controls BundleComponents.
type BundleOptions struct {
	// IncludeRuntime prepends the component runtime so the bundle can be
	// loaded without load_runtime.
	IncludeRuntime bool
	Minify         bool
	// Define adds compile-time replacements on top of the defaults.
	Define map[string]string
}

// jsxOptions are shared by bundling and single-file transforms so JSX
// compiles against the embedded runtime.
const (
	jsxFactory  = "SSR.createElement"
	jsxFragment = "SSR.Fragment"
)

// BundleComponents uses esbuild to bundle entry and everything it imports
// into one self-contained script for the engines. The result is an IIFE;
// the entry exposes components by assigning globals.
func BundleComponents(entry string, opts BundleOptions) (string, error) {
	abs, err := filepath.Abs(entry)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", entry, err)
	}

	define := map[string]string{
		"global":               "globalThis",
		"process.env.NODE_ENV": `"production"`,
	}
	for k, v := range opts.Define {
		define[k] = v
	}

	result := esbuild.Build(esbuild.BuildOptions{
		EntryPoints:       []string{abs},
		AbsWorkingDir:     filepath.Dir(abs),
		Bundle:            true,
		Format:            esbuild.FormatIIFE,
		Write:             false,
		Platform:          esbuild.PlatformBrowser,
		Target:            esbuild.ES2015,
		JSX:               esbuild.JSXTransform,
		JSXFactory:        jsxFactory,
		JSXFragment:       jsxFragment,
		Define:            define,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
		Loader: map[string]esbuild.Loader{
			".js":  esbuild.LoaderJSX,
			".jsx": esbuild.LoaderJSX,
		},
	})

	if len(result.Errors) > 0 {
		return "", fmt.Errorf("bundling %s: %s", entry, joinMessages(result.Errors))
	}

	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("bundling produced no output")
	}

	out := string(result.OutputFiles[0].Contents)
	if opts.IncludeRuntime {
		out = jsenv.RuntimeSource + "\n" + out
	}
	return out, nil
}

// TransformJSX compiles JSX in a single script without bundling. Top-level
// declarations stay global.
func TransformJSX(source, filename string) (string, error) {
	result := esbuild.Transform(source, esbuild.TransformOptions{
		Loader:      esbuild.LoaderJSX,
		Sourcefile:  filename,
		Target:      esbuild.ES2015,
		JSX:         esbuild.JSXTransform,
		JSXFactory:  jsxFactory,
		JSXFragment: jsxFragment,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("transpiling %s: %s", filename, joinMessages(result.Errors))
	}
	return string(result.Code), nil
}

// transpileScript prepares a configured script file: files that import
// other modules are bundled, the rest are transformed in place.
func transpileScript(path, source string) (string, error) {
	if needsBundling(source) {
		return BundleComponents(path, BundleOptions{})
	}
	return TransformJSX(source, path)
}

// needsBundling checks if a script contains import statements that
// require bundling. Simple scripts without imports can skip this step.
func needsBundling(source string) bool {
	return strings.Contains(source, "import ") ||
		strings.Contains(source, "import{") ||
		strings.Contains(source, "import(") ||
		strings.Contains(source, "require(")
}

func joinMessages(msgs []esbuild.Message) string {
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			texts = append(texts, fmt.Sprintf("%s:%d: %s", m.Location.File, m.Location.Line, m.Text))
			continue
		}
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, "; ")
}
