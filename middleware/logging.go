package middleware

import (
	"log/slog"
	"time"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/service"
)

// LoggingInterceptor creates an interceptor that logs service calls using slog.
// It logs the start and end of each call, including duration, error code and
// the request ID when RequestID runs in front of the app.
func LoggingInterceptor(logger *slog.Logger) service.UnaryInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx service.Context, req any, handler service.HandlerFunc) (any, error) {
		start := time.Now()
		attrs := []any{slog.String("endpoint", ctx.EndpointID())}
		if id := RequestIDFromContext(ctx); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		log := logger.With(attrs...)

		log.DebugContext(ctx, "request started")

		res, err := handler(ctx, req)
		duration := time.Since(start)

		switch code := fntraits.CodeOf(err); {
		case err == nil:
			log.InfoContext(ctx, "request completed", slog.Duration("duration", duration))
		case code == service.CodeInternal || code == "":
			log.ErrorContext(ctx, "request failed",
				slog.Duration("duration", duration),
				slog.Any("error", err))
		default:
			log.WarnContext(ctx, "request rejected",
				slog.Duration("duration", duration),
				slog.String("code", string(code)),
				slog.String("error", err.Error()))
		}

		return res, err
	}
}
