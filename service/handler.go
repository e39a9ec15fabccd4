package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/internal/validation"
	"github.com/gorilla/schema"
)

var schemaDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// Endpoint is a registered handler. It is created with Query or Exec.
type Endpoint interface {
	// Metadata describes the endpoint.
	Metadata() Metadata

	serve(ctx *rpcContext, cfg handlerConfig)
}

// Metadata describes an endpoint.
type Metadata struct {
	HTTPMethod string
	Request    reflect.Type
	Response   reflect.Type
	CacheTTL   time.Duration
}

// handlerConfig is passed from the App to the handler for each call.
type handlerConfig struct {
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	interceptors       []UnaryInterceptor
	maxRequestBodySize uint64
	logger             *slog.Logger
}

// Handler serves one endpoint with typed request and response.
type Handler[Req any, Res any] struct {
	fn                 func(context.Context, Req) (Res, error)
	httpMethod         string
	cacheTTL           time.Duration
	interceptors       []UnaryInterceptor
	maxRequestBodySize *uint64
}

// Query creates a GET endpoint. The request is decoded from URL query
// parameters using `schema` struct tags.
func Query[Req any, Res any](fn func(context.Context, Req) (Res, error)) *Handler[Req, Res] {
	return &Handler[Req, Res]{fn: fn, httpMethod: http.MethodGet}
}

// Exec creates a POST endpoint. The request is decoded from a JSON body.
func Exec[Req any, Res any](fn func(context.Context, Req) (Res, error)) *Handler[Req, Res] {
	return &Handler[Req, Res]{fn: fn, httpMethod: http.MethodPost}
}

// Cache sets a Cache-Control max-age on successful responses.
func (h *Handler[Req, Res]) Cache(d time.Duration) *Handler[Req, Res] {
	h.cacheTTL = d
	return h
}

// WithUnaryInterceptor adds an interceptor that runs after the app and
// service interceptors.
func (h *Handler[Req, Res]) WithUnaryInterceptor(i UnaryInterceptor) *Handler[Req, Res] {
	h.interceptors = append(h.interceptors, i)
	return h
}

// WithMaxRequestBodySize overrides the app limit for this endpoint.
// 0 means no limit.
func (h *Handler[Req, Res]) WithMaxRequestBodySize(size uint64) *Handler[Req, Res] {
	h.maxRequestBodySize = &size
	return h
}

// Metadata implements Endpoint.
func (h *Handler[Req, Res]) Metadata() Metadata {
	return Metadata{
		HTTPMethod: h.httpMethod,
		Request:    reflect.TypeFor[Req](),
		Response:   reflect.TypeFor[Res](),
		CacheTTL:   h.cacheTTL,
	}
}

func (h *Handler[Req, Res]) decode(r *http.Request, limit uint64) (Req, error) {
	var req Req
	if h.httpMethod == http.MethodGet {
		// Pointer requests need their struct allocated first.
		target := any(&req)
		if t := reflect.TypeFor[Req](); t.Kind() == reflect.Pointer {
			v := reflect.New(t.Elem())
			req = v.Interface().(Req)
			target = req
		}
		if err := schemaDecoder.Decode(target, r.URL.Query()); err != nil {
			return req, fntraits.Errorf(fntraits.CodeInvalidArgument, "failed to decode query: %v", err)
		}
	} else if r.Body != nil && r.Body != http.NoBody {
		body := io.Reader(r.Body)
		if limit > 0 {
			body = io.LimitReader(r.Body, int64(limit)+1)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return req, fntraits.Errorf(fntraits.CodeInvalidArgument, "failed to read body: %v", err)
		}
		if limit > 0 && uint64(len(data)) > limit {
			return req, fntraits.Errorf(fntraits.CodeInvalidArgument, "request body exceeds %d bytes", limit)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &req); err != nil {
				return req, fntraits.Errorf(fntraits.CodeInvalidArgument, "failed to decode body: %v", err)
			}
		}
	}

	if err := validateRequest(req); err != nil {
		return req, err
	}
	return req, nil
}

// validateRequest runs struct validation on struct and struct-pointer
// requests. A nil pointer request has nothing to validate.
func validateRequest(req any) error {
	v := reflect.ValueOf(req)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	if err := validation.Validator().Struct(req); err != nil {
		return validation.Convert(err)
	}
	return nil
}

func (h *Handler[Req, Res]) serve(ctx *rpcContext, cfg handlerConfig) {
	limit := cfg.maxRequestBodySize
	if h.maxRequestBodySize != nil {
		limit = *h.maxRequestBodySize
	}
	req, err := h.decode(ctx.request, limit)
	if err != nil {
		handleError(ctx.writer, err, cfg)
		return
	}

	final := func(c context.Context, reqAny any) (any, error) {
		typed, ok := reqAny.(Req)
		if !ok {
			return nil, fntraits.Errorf(CodeInternal, "interceptor replaced request of type %T with %T", req, reqAny)
		}
		return h.fn(c, typed)
	}

	all := make([]UnaryInterceptor, 0, len(cfg.interceptors)+len(h.interceptors))
	all = append(all, cfg.interceptors...)
	all = append(all, h.interceptors...)

	var res any
	if chain := chainInterceptors(all); chain != nil {
		res, err = chain(ctx, req, final)
	} else {
		res, err = final(ctx, req)
	}
	if err != nil {
		handleError(ctx.writer, err, cfg)
		return
	}

	w := ctx.writer
	w.Header().Set("Content-Type", "application/json")
	if h.cacheTTL > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
	}
	if err := encodeResponse(w, res); err != nil && cfg.logger != nil {
		// The response may be partially written.
		cfg.logger.Error("failed to encode response",
			slog.String("endpoint", ctx.EndpointID()),
			slog.Any("error", err))
	}
}

func handleError(w http.ResponseWriter, err error, cfg handlerConfig) {
	var out *fntraits.Error
	if cfg.errorTransformer != nil {
		out = cfg.errorTransformer(err)
	}
	if out == nil {
		out = DefaultErrorTransformer(err)
	}
	if cfg.maskInternalErrors && out.Code == CodeInternal {
		out = fntraits.NewError(CodeInternal, "internal server error")
	}
	writeError(w, out, cfg.logger)
}
