package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"github.com/broady/fntraits"
)

// App routes /{Service}/{Method} requests to registered endpoints.
// Use Handler() to get an http.Handler.
type App struct {
	mu                 sync.RWMutex
	routes             map[string]Endpoint
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	maxRequestBodySize uint64
}

// NewApp creates an empty App with a 1MB request body limit.
func NewApp() *App {
	return &App{
		routes:             make(map[string]Endpoint),
		maxRequestBodySize: 1 << 20,
	}
}

// WithErrorTransformer sets a custom error transformer.
func (a *App) WithErrorTransformer(fn ErrorTransformer) *App {
	a.errorTransformer = fn
	return a
}

// WithMaskInternalErrors replaces internal error messages with a generic
// one. Interceptors still see the original error.
func (a *App) WithMaskInternalErrors() *App {
	a.maskInternalErrors = true
	return a
}

// WithUnaryInterceptor adds a global interceptor.
//
// Interceptors run in this order: global, service, handler; within each
// level in the order added.
func (a *App) WithUnaryInterceptor(i UnaryInterceptor) *App {
	a.interceptors = append(a.interceptors, i)
	return a
}

// WithMiddleware adds an HTTP middleware. The first added is outermost.
func (a *App) WithMiddleware(mw func(http.Handler) http.Handler) *App {
	a.middlewares = append(a.middlewares, mw)
	return a
}

// WithLogger sets the logger. If not set, slog.Default() is used.
func (a *App) WithLogger(logger *slog.Logger) *App {
	a.logger = logger
	return a
}

// WithMaxRequestBodySize sets the default request body limit; 0 disables it.
func (a *App) WithMaxRequestBodySize(size uint64) *App {
	a.maxRequestBodySize = size
	return a
}

func (a *App) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

// Handler returns the app as an http.Handler wrapped in its middleware.
func (a *App) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(a.serveHTTP)
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

// Route describes a registered endpoint.
type Route struct {
	Path       string
	HTTPMethod string
}

// Routes returns the registered routes sorted by path.
func (a *App) Routes() []Route {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Route, 0, len(a.routes))
	for key, ep := range a.routes {
		out = append(out, Route{
			Path:       "/" + strings.Replace(key, ".", "/", 1),
			HTTPMethod: ep.Metadata().HTTPMethod,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (a *App) serveHTTP(w http.ResponseWriter, req *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			a.log().Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			writeError(w, fntraits.Errorf(CodeInternal, "internal server error (panic): %v", rec), a.logger)
		}
	}()

	parts := strings.Split(strings.TrimPrefix(req.URL.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, fntraits.NewError(CodeNotFound, "route not found"), a.logger)
		return
	}
	service, method := parts[0], parts[1]

	a.mu.RLock()
	ep, ok := a.routes[service+"."+method]
	a.mu.RUnlock()
	if !ok {
		writeError(w, fntraits.Errorf(CodeNotFound, "route /%s/%s not found", service, method), a.logger)
		return
	}

	if want := ep.Metadata().HTTPMethod; req.Method != want {
		w.Header().Set("Allow", want)
		writeError(w, fntraits.Errorf(CodeMethodNotAllowed, "method %s not allowed, expected %s", req.Method, want), a.logger)
		return
	}

	ctx := newContext(req.Context(), w, req, service, method)
	ep.serve(ctx, handlerConfig{
		errorTransformer:   a.errorTransformer,
		maskInternalErrors: a.maskInternalErrors,
		interceptors:       a.interceptors,
		maxRequestBodySize: a.maxRequestBodySize,
		logger:             a.log(),
	})
}

// Service returns a namespace for registering endpoints.
func (a *App) Service(name string) *Service {
	return &Service{app: a, name: name}
}

// Service groups endpoints under one name.
type Service struct {
	app          *App
	name         string
	interceptors []UnaryInterceptor
}

// WithUnaryInterceptor adds an interceptor to every endpoint registered on
// this service afterwards.
func (s *Service) WithUnaryInterceptor(i UnaryInterceptor) *Service {
	s.interceptors = append(s.interceptors, i)
	return s
}

// Register registers ep as /{service}/{name}. Registering a name twice
// replaces the endpoint and logs a warning.
func (s *Service) Register(name string, ep Endpoint) {
	if strings.ContainsAny(name, "./") || name == "" {
		panic(fmt.Sprintf("service: invalid method name %q", name))
	}
	key := s.name + "." + name

	s.app.mu.Lock()
	defer s.app.mu.Unlock()
	if _, exists := s.app.routes[key]; exists {
		s.app.log().Warn("duplicate route registration",
			slog.String("service", s.name),
			slog.String("method", name))
	}
	s.app.routes[key] = &serviceEndpoint{inner: ep, interceptors: append([]UnaryInterceptor(nil), s.interceptors...)}
}

// serviceEndpoint inserts service interceptors after the global ones.
type serviceEndpoint struct {
	inner        Endpoint
	interceptors []UnaryInterceptor
}

func (e *serviceEndpoint) Metadata() Metadata { return e.inner.Metadata() }

func (e *serviceEndpoint) serve(ctx *rpcContext, cfg handlerConfig) {
	combined := make([]UnaryInterceptor, 0, len(cfg.interceptors)+len(e.interceptors))
	combined = append(combined, cfg.interceptors...)
	combined = append(combined, e.interceptors...)
	cfg.interceptors = combined
	e.inner.serve(ctx, cfg)
}
