package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/internal/validation"
	"github.com/go-playground/validator/v10"
)

// Codes produced by the service layer in addition to the fntraits codes.
const (
	CodeNotFound         fntraits.ErrorCode = "not_found"
	CodeMethodNotAllowed fntraits.ErrorCode = "method_not_allowed"
	CodeCanceled         fntraits.ErrorCode = "canceled"
	CodeDeadlineExceeded fntraits.ErrorCode = "deadline_exceeded"
	CodeInternal         fntraits.ErrorCode = "internal"
)

// ErrorTransformer maps an error to the response envelope. Returning nil
// falls through to DefaultErrorTransformer.
type ErrorTransformer func(error) *fntraits.Error

// DefaultErrorTransformer maps errors to the response envelope: engine errors
// pass through, validation failures become invalid_argument and anything
// unrecognised is internal.
func DefaultErrorTransformer(err error) *fntraits.Error {
	if err == nil {
		return nil
	}

	var fe *fntraits.Error
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fntraits.NewError(CodeDeadlineExceeded, "request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return fntraits.NewError(CodeCanceled, "context canceled")
	}
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		return validation.Convert(valErrs)
	}

	if u, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := u.Unwrap(); len(errs) > 0 {
			first := DefaultErrorTransformer(errs[0])
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return fntraits.NewError(first.Code, strings.Join(msgs, "; ")).WithDetails(first.Details)
		}
	}
	return fntraits.NewError(CodeInternal, err.Error())
}

// HTTPStatus maps an error code to an HTTP status code.
func HTTPStatus(code fntraits.ErrorCode) int {
	switch code {
	case fntraits.CodeInvalidArgument, fntraits.CodeIndexOutOfRange:
		return http.StatusBadRequest
	case fntraits.CodeUnrecognizedShape, fntraits.CodeUnsupportedOverride:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeCanceled:
		return 499 // Client Closed Request (Nginx)
	case CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err *fntraits.Error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err.Code))
	if encErr := encodeErrorResponse(w, err); encErr != nil {
		// Headers are already sent.
		logger.Error("failed to encode error response",
			slog.String("code", string(err.Code)),
			slog.String("message", err.Message),
			slog.Any("error", encErr))
	}
}
