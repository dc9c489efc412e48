package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}
	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidGraph, cause, "load graph")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got := err.Error(); got != "INVALID_GRAPH: load graph: underlying error" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "test"), ErrCodeInvalidInput, true},
		{"different code", New(ErrCodeInvalidInput, "test"), ErrCodeNotFound, false},
		{"wrapped by fmt", fmt.Errorf("outer: %w", New(ErrCodeTimeout, "slow")), ErrCodeTimeout, true},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := fmt.Errorf("ctx: %w", New(ErrCodeNotFound, "vertex %q", "db"))
	if GetCode(err) != ErrCodeNotFound {
		t.Errorf("GetCode() = %v", GetCode(err))
	}
	if UserMessage(err) != `vertex "db"` {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
	if GetCode(errors.New("x")) != "" {
		t.Error("GetCode on plain error should be empty")
	}
	if UserMessage(errors.New("x")) != "x" {
		t.Error("UserMessage on plain error should be the error string")
	}
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		err  error
		want Code
	}{
		{context.Canceled, ErrCodeCancelled},
		{fmt.Errorf("arrange: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{errors.New("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		if got := FromContext(tt.err, ErrCodeInternal, "arrange").Code; got != tt.want {
			t.Errorf("FromContext(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidGraph, "x"), http.StatusBadRequest},
		{New(ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{New(ErrCodeNotFound, "x"), http.StatusNotFound},
		{New(ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{New(ErrCodeCancelled, "x"), 499},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
