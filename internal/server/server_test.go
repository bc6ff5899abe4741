package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryguy/ssr"
)

type stubRenderer struct {
	markup string
	err    error
	calls  int
	last   string
	props  any
}

func (s *stubRenderer) Render(_ context.Context, name string, props any, _ ...ssr.RenderOption) (string, error) {
	s.calls++
	s.last = name
	s.props = props
	return s.markup, s.err
}

func newTestServer(t *testing.T, r Renderer, mutate func(*Options)) http.Handler {
	t.Helper()
	opts := Options{Renderer: r, Component: "RootComponent", Title: "Clock"}
	if mutate != nil {
		mutate(&opts)
	}
	srv, err := New(opts)
	require.NoError(t, err)
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPage_RendersComponent(t *testing.T) {
	stub := &stubRenderer{markup: `<div id="root"><div data-ssr-root="">3:45 PM</div></div>`}
	h := newTestServer(t, stub, func(o *Options) { o.Scripts = []string{"/client.js"} })

	for _, path := range []string{"/", "/some/deep/path"} {
		rec := get(t, h, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := rec.Body.String()
		assert.Contains(t, body, stub.markup)
		assert.Contains(t, body, "<title>Clock</title>")
		assert.Contains(t, body, `<script src="/client.js"></script>`)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	}
	assert.Equal(t, "RootComponent", stub.last)
	assert.Equal(t, 2, stub.calls)
}

func TestPage_PropsFromRequest(t *testing.T) {
	stub := &stubRenderer{markup: "ok"}
	h := newTestServer(t, stub, func(o *Options) {
		o.Props = func(r *http.Request) (any, error) {
			return map[string]string{"path": r.URL.Path}, nil
		}
	})

	rec := get(t, h, "/hello")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"path": "/hello"}, stub.props)
}

func TestPage_PropsError(t *testing.T) {
	stub := &stubRenderer{markup: "ok"}
	h := newTestServer(t, stub, func(o *Options) {
		o.Props = func(*http.Request) (any, error) { return nil, errors.New("no props") }
	})

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, stub.calls)
}

func TestPage_PropagatedErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"resolution", &ssr.ResolutionError{Component: "RootComponent"}, http.StatusInternalServerError},
		{"serialization", &ssr.SerializationError{Component: "RootComponent", Err: errors.New("bad")}, http.StatusInternalServerError},
		{"exhaustion", &ssr.EngineExhaustionError{Err: context.DeadlineExceeded}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &stubRenderer{err: tt.err}, nil)
			rec := get(t, h, "/")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), http.StatusText(tt.status))
			assert.NotContains(t, rec.Body.String(), "<pre>")
		})
	}
}

func TestPage_DebugShowsDetail(t *testing.T) {
	h := newTestServer(t, &stubRenderer{err: &ssr.ResolutionError{Component: "RootComponent"}}, func(o *Options) { o.Debug = true })
	rec := get(t, h, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "is not registered")
}

func TestPage_BrotliCompression(t *testing.T) {
	stub := &stubRenderer{markup: strings.Repeat(`<div>tick</div>`, 200)}
	h := newTestServer(t, stub, nil)

	rec := get(t, h, "/", "Accept-Encoding", "br")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "br", rec.Header().Get("Content-Encoding"))

	body, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)
	assert.Contains(t, string(body), stub.markup)
}

func TestMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "ssr_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	h := newTestServer(t, &stubRenderer{}, func(o *Options) {
		o.Gatherer = reg
		o.Stats = func() ssr.PoolStats { return ssr.PoolStats{Live: 2, Idle: 2} }
	})

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ssr_test_total 1")

	rec = get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"Live":2`)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Component: "X"})
	assert.Error(t, err)
	_, err = New(Options{Renderer: &stubRenderer{}})
	assert.Error(t, err)
}
