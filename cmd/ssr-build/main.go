// Command ssr-build bundles components into the server and client scripts
// the environment loads.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cryguy/ssr"
	"go.uber.org/zap"
)

func main() {
	var (
		serverEntry = flag.String("server-entry", "", "Entry that exposes components as globals for the server bundle")
		clientEntry = flag.String("client-entry", "", "Entry for the client bundle (defaults to server-entry)")
		outDir      = flag.String("out", "dist", "Output directory (the environment's build_path)")
		minify      = flag.Bool("minify", false, "Minify output")
		dev         = flag.Bool("dev", false, "Human-readable development logging")
	)
	flag.Parse()

	if *serverEntry == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *clientEntry == "" {
		*clientEntry = *serverEntry
	}

	logger, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *serverEntry, *clientEntry, *outDir, *minify); err != nil {
		logger.Fatal("build failed", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(logger *zap.Logger, serverEntry, clientEntry, outDir string, minify bool) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	opts := ssr.BundleOptions{IncludeRuntime: true, Minify: minify}
	bundles := []struct {
		entry string
		name  string
	}{
		{serverEntry, ssr.ServerBundleName},
		{clientEntry, "client.js"},
	}
	for _, b := range bundles {
		code, err := ssr.BundleComponents(b.entry, opts)
		if err != nil {
			return fmt.Errorf("failed to bundle %s: %w", b.entry, err)
		}
		path := filepath.Join(outDir, b.name)
		if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Info("bundle written",
			zap.String("entry", b.entry),
			zap.String("path", path),
			zap.Int("bytes", len(code)),
		)
	}
	return nil
}
