package service

import (
	"context"
	"net/http"
)

// Context carries the endpoint identity and HTTP exchange of a call.
// Interceptors receive it directly; handlers receive it as context.Context
// and can recover it with FromContext.
type Context interface {
	context.Context

	// Service returns the service name, e.g. "Traits".
	Service() string
	// Method returns the method name, e.g. "Decompose".
	Method() string
	// EndpointID returns "Service.Method".
	EndpointID() string
	// HTTPRequest returns the request, or nil outside HTTP.
	HTTPRequest() *http.Request
	// HTTPWriter returns the response writer, or nil outside HTTP.
	HTTPWriter() http.ResponseWriter
}

type contextKey struct{ name string }

var rpcContextKey = &contextKey{"rpc_context"}

type rpcContext struct {
	context.Context
	service string
	method  string
	request *http.Request
	writer  http.ResponseWriter
}

func (c *rpcContext) Service() string                 { return c.service }
func (c *rpcContext) Method() string                  { return c.method }
func (c *rpcContext) EndpointID() string              { return c.service + "." + c.method }
func (c *rpcContext) HTTPRequest() *http.Request      { return c.request }
func (c *rpcContext) HTTPWriter() http.ResponseWriter { return c.writer }

func (c *rpcContext) Value(key any) any {
	if key == rpcContextKey {
		return c
	}
	return c.Context.Value(key)
}

func newContext(parent context.Context, w http.ResponseWriter, r *http.Request, service, method string) *rpcContext {
	return &rpcContext{Context: parent, service: service, method: method, request: r, writer: w}
}

// NewContext returns a Context for service.method without an HTTP exchange,
// for calling interceptors and handlers directly.
func NewContext(parent context.Context, service, method string) Context {
	return newContext(parent, nil, nil, service, method)
}

// FromContext returns the Context that ctx derives from.
func FromContext(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(rpcContextKey).(*rpcContext)
	return c, ok
}

// SetHeader sets a response header if ctx belongs to an HTTP call.
func SetHeader(ctx context.Context, key, value string) {
	if c, ok := FromContext(ctx); ok && c.HTTPWriter() != nil {
		c.HTTPWriter().Header().Set(key, value)
	}
}
