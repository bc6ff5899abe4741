// Command clockserver serves the clock component rendered on the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/cryguy/ssr"
	"github.com/cryguy/ssr/internal/config"
	"github.com/cryguy/ssr/internal/server"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		configPath = flag.String("config", "", "Path to YAML config (optional)")
		envFile    = flag.String("env-file", ".env", "Path to .env file (ignored if missing)")
		component  = flag.String("component", "RootComponent", "Component rendered for every page")
		clientJS   = flag.String("client-script", "", "URL of the client bundle to include in pages")
		dev        = flag.Bool("dev", false, "Development logging and error details in 500 pages")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load env file %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	logger, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := ssr.DefaultConfig()
	if err := config.Load(*configPath, &cfg); err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	registry := ssr.NewRegistry().
		MustRegister("Clock", "Components.Clock").
		MustRegister("RootComponent", "RootComponent")

	metrics := ssr.NewMetrics("ssr")
	metrics.Registry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	env, err := ssr.NewEnvironment(cfg, registry,
		ssr.WithLogger(logger),
		ssr.WithMetrics(metrics),
		ssr.WithClock(time.Now),
	)
	if err != nil {
		logger.Fatal("create script environment", zap.Error(err))
	}
	defer env.Shutdown()

	var scripts []string
	if *clientJS != "" {
		scripts = append(scripts, *clientJS)
	}

	srv, err := server.New(server.Options{
		Renderer:  ssr.NewRenderer(env),
		Component: *component,
		Title:     "Clock",
		Scripts:   scripts,
		Gatherer:  metrics.Registry(),
		Stats:     env.Stats,
		Debug:     *dev,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("create server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("serving",
			zap.String("addr", *addr),
			zap.String("backend", env.Backend()),
			zap.String("component", *component),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
