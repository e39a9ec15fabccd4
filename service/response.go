package service

import (
	"encoding/json"
	"io"

	"github.com/broady/fntraits"
)

// response is the envelope of successful responses: {"result": ...}.
type response struct {
	Result any `json:"result"`
}

// errorResponse is the envelope of failures: {"error": {...}}.
type errorResponse struct {
	Error *fntraits.Error `json:"error"`
}

func encodeResponse(w io.Writer, result any) error {
	return json.NewEncoder(w).Encode(response{Result: result})
}

func encodeErrorResponse(w io.Writer, err *fntraits.Error) error {
	return json.NewEncoder(w).Encode(errorResponse{Error: err})
}
