// Package server is the HTTP host that renders the root component into a
// full HTML page.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cryguy/ssr"
)

// Renderer renders a registered component to markup.
type Renderer interface {
	Render(ctx context.Context, componentName string, props any, opts ...ssr.RenderOption) (string, error)
}

// Options configures the HTTP handler.
type Options struct {
	Renderer Renderer
	// Component is rendered for every page request.
	Component string
	Title     string
	// Props builds the component props for a request. Nil renders with no
	// props.
	Props func(*http.Request) (any, error)
	// Scripts are script URLs appended to the page, typically the client
	// bundle.
	Scripts []string
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Stats backs /healthz. Nil reports only status.
	Stats func() ssr.PoolStats
	// Debug includes error details in 500 pages.
	Debug  bool
	Logger *zap.Logger
}

// Server serves rendered pages.
type Server struct {
	opts   Options
	logger *zap.Logger
}

// New returns a Server. Component must be set.
func New(opts Options) (*Server, error) {
	if opts.Renderer == nil {
		return nil, errors.New("server: renderer is required")
	}
	if opts.Component == "" {
		return nil, errors.New("server: component is required")
	}
	if opts.Title == "" {
		opts.Title = opts.Component
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{opts: opts, logger: logger}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	compressor := middleware.NewCompressor(5, "text/html", "text/plain", "application/json")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	r.Use(compressor.Handler)

	if s.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", s.healthz)
	r.Get("/*", s.page)

	return r
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	var props any
	if s.opts.Props != nil {
		p, err := s.opts.Props(r)
		if err != nil {
			s.fail(w, r, http.StatusInternalServerError, err)
			return
		}
		props = p
	}

	markup, err := s.opts.Renderer.Render(r.Context(), s.opts.Component, props)
	if err != nil {
		status := http.StatusInternalServerError
		var exhausted *ssr.EngineExhaustionError
		if errors.As(err, &exhausted) {
			status = http.StatusServiceUnavailable
		}
		s.fail(w, r, status, err)
		return
	}

	var buf bytes.Buffer
	if err := writePage(&buf, pageData{
		Title:   s.opts.Title,
		Body:    template.HTML(markup),
		Scripts: s.opts.Scripts,
	}); err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Error("page render failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	)

	d := errorData{Status: status, StatusText: http.StatusText(status)}
	if s.opts.Debug {
		d.Detail = err.Error()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = writeError(w, d)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.opts.Stats != nil {
		body["engines"] = s.opts.Stats()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
