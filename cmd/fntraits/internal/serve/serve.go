// Package serve implements the serve command: the JSON-over-HTTP trait
// service.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/broady/fntraits/cmd/fntraits/internal/cli"
	"github.com/broady/fntraits/middleware"
	"github.com/broady/fntraits/service"
)

// Cmd runs the HTTP service until the context is cancelled.
type Cmd struct {
	Addr               string        `help:"Address to listen on." default:"localhost:8080" short:"a"`
	CORSOrigin         []string      `help:"Allow browser calls from this origin; '*' allows any. Repeatable." name:"cors-origin"`
	MaskInternalErrors bool          `help:"Hide the message of internal errors from clients." name:"mask-internal-errors"`
	MaxBodySize        uint64        `help:"Request body limit in bytes; 0 disables it." name:"max-body-size" default:"1048576"`
	ShutdownTimeout    time.Duration `help:"How long to wait for in-flight requests on shutdown." name:"shutdown-timeout" default:"5s"`
}

// NewApp builds the service App with the standard middleware.
func (c *Cmd) NewApp(g *cli.Globals) *service.App {
	logger := g.Logger()
	app := service.NewApp().
		WithLogger(logger).
		WithMaxRequestBodySize(c.MaxBodySize).
		WithMiddleware(middleware.RequestID()).
		WithUnaryInterceptor(middleware.LoggingInterceptor(logger))
	if len(c.CORSOrigin) > 0 {
		app = app.WithMiddleware(middleware.CORS(&middleware.CORSConfig{AllowOrigins: c.CORSOrigin}))
	}
	if c.MaskInternalErrors {
		app = app.WithMaskInternalErrors()
	}
	g.Traits().Register(app)
	return app
}

func (c *Cmd) Run(g *cli.Globals, ctx context.Context) error {
	app := c.NewApp(g)
	logger := g.Logger()

	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	for _, r := range app.Routes() {
		logger.Debug("route", slog.String("method", r.HTTPMethod), slog.String("path", r.Path))
	}
	g.Printf("fntraits listening on http://%s\n", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", c.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
