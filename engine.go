package fntraits

import (
	"log/slog"
	"sync"

	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
	"github.com/broady/fntraits/shape"
)

// Engine decomposes and synthesises function types for one target.
// An Engine is immutable and safe for concurrent use.
type Engine struct {
	target  *platform.Target
	catalog *shape.Catalog
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTarget selects the target whose catalog the engine uses. The default is
// platform.Host().
func WithTarget(t *platform.Target) Option {
	return func(e *Engine) { e.target = t }
}

// WithLogger sets the logger for debug output. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.target == nil {
		e.target = platform.Host()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.catalog = shape.For(e.target)
	e.logger.Debug("engine ready",
		slog.String("target", e.target.Name),
		slog.Int("shapes", e.catalog.Len()))
	return e
}

var defaultEngine = sync.OnceValue(func() *Engine { return NewEngine() })

// Default returns the engine for the host target used by the package-level
// functions.
func Default() *Engine { return defaultEngine() }

// Target returns the engine's target.
func (e *Engine) Target() *platform.Target { return e.target }

// Catalog returns the shape catalog of the engine's target.
func (e *Engine) Catalog() *shape.Catalog { return e.catalog }

// IsCallable reports whether t is a recognised callable shape on the
// engine's target.
func (e *Engine) IsCallable(t ctype.Type) bool {
	_, err := e.Decompose(t)
	return err == nil
}

// Canonical returns the canonical spelling of the callable type t: explicit
// default conventions are dropped and parameters are adjusted.
func (e *Engine) Canonical(t ctype.Type) (ctype.Type, error) {
	d, err := e.Decompose(t)
	if err != nil {
		return nil, err
	}
	return e.Synthesize(d)
}

// Identical reports whether a and b denote the same type on the engine's
// target. Callable types are compared in canonical form; anything else falls
// back to ctype.Identical.
func (e *Engine) Identical(a, b ctype.Type) bool {
	ca, errA := e.Canonical(a)
	cb, errB := e.Canonical(b)
	if errA != nil || errB != nil {
		return errA != nil && errB != nil && ctype.Identical(a, b)
	}
	return ctype.Identical(ca, cb)
}

// Transform decomposes t, applies the overrides and synthesises the result.
func (e *Engine) Transform(t ctype.Type, overrides ...Override) (ctype.Type, error) {
	d, err := e.Decompose(t)
	if err != nil {
		return nil, err
	}
	return e.Synthesize(d, overrides...)
}
