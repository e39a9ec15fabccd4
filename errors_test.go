package fntraits

import (
	"errors"
	"io"
	"testing"
)

func TestNewError(t *testing.T) {
	err := NewError(CodeUnrecognizedShape, "int is not callable")
	if err.Code != CodeUnrecognizedShape {
		t.Errorf("expected code %s, got %s", CodeUnrecognizedShape, err.Code)
	}
	if got, want := err.Error(), "unrecognized_shape: int is not callable"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if err.Unwrap() != nil {
		t.Error("NewError must not have a cause")
	}
}

func TestErrorf_WrapsCause(t *testing.T) {
	err := Errorf(CodeInvalidArgument, "reading manifest: %w", io.ErrUnexpectedEOF)
	if err.Message != "reading manifest: unexpected EOF" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("cause not reachable through errors.Is")
	}
	withDetail := err.WithDetail("path", "aliases.yaml")
	if !errors.Is(withDetail, io.ErrUnexpectedEOF) {
		t.Error("WithDetail dropped the cause")
	}
}

func TestWithDetail(t *testing.T) {
	base := NewError(CodeIndexOutOfRange, "bad index")
	a := base.WithDetail("index", 3)
	b := a.WithDetails(map[string]any{"arity": 2, "index": 4})

	if base.Details != nil {
		t.Error("WithDetail modified the receiver")
	}
	if a.Details["index"] != 3 {
		t.Errorf("a.Details = %v", a.Details)
	}
	if b.Details["index"] != 4 || b.Details["arity"] != 2 {
		t.Errorf("b.Details = %v", b.Details)
	}
	if same := b.WithDetails(nil); same != b {
		t.Error("WithDetails(nil) should return the receiver")
	}
}

func TestIsCode(t *testing.T) {
	err := error(Errorf(CodeUnsupportedOverride, "nope"))
	wrapped := errors.Join(errors.New("context"), err)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"direct", err, CodeUnsupportedOverride, true},
		{"wrapped", wrapped, CodeUnsupportedOverride, true},
		{"other code", err, CodeIndexOutOfRange, false},
		{"plain error", errors.New("x"), CodeInvalidArgument, false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode = %v, want %v", got, tt.want)
			}
		})
	}
	if CodeOf(errors.New("x")) != "" {
		t.Error("CodeOf on a plain error should be empty")
	}
}
