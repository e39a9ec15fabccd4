package service

import "context"

// HandlerFunc is the next step of an interceptor chain.
type HandlerFunc func(ctx context.Context, req any) (res any, err error)

// UnaryInterceptor wraps endpoint execution. It can inspect or replace the
// request and response, short-circuit with an error, or derive the context.
//
//	func timing(ctx service.Context, req any, next service.HandlerFunc) (any, error) {
//	    start := time.Now()
//	    res, err := next(ctx, req)
//	    log.Printf("%s took %v", ctx.EndpointID(), time.Since(start))
//	    return res, err
//	}
type UnaryInterceptor func(ctx Context, req any, handler HandlerFunc) (res any, err error)

// chainInterceptors combines interceptors; the first one runs outermost.
func chainInterceptors(interceptors []UnaryInterceptor) UnaryInterceptor {
	switch len(interceptors) {
	case 0:
		return nil
	case 1:
		return interceptors[0]
	}
	return func(ctx Context, req any, handler HandlerFunc) (any, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			current, next := interceptors[i], chain
			chain = func(c context.Context, req any) (any, error) {
				rc, ok := c.(Context)
				if !ok {
					// An interceptor derived a plain context; keep the
					// endpoint identity while honoring the new values.
					rc = &rpcContext{
						Context: c,
						service: ctx.Service(),
						method:  ctx.Method(),
						request: ctx.HTTPRequest(),
						writer:  ctx.HTTPWriter(),
					}
				}
				return current(rc, req, next)
			}
		}
		return chain(ctx, req)
	}
}
