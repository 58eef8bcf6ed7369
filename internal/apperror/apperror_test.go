package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsFillDefaults(t *testing.T) {
	if e := Validation("", ""); e.Code != "VALIDATION_ERROR" || e.Detail == "" {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	if e := NotFound("", ""); e.Code != "NOT_FOUND" {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	if e := Unexpected("", ""); e.Code != "UNEXPECTED_ERROR" {
		t.Fatalf("unexpected defaults: %+v", e)
	}

	e := NotFound("call_record_not_found", "call record was not found")
	if e.Code != "call_record_not_found" || e.Detail != "call record was not found" {
		t.Fatalf("explicit values must win: %+v", e)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unexpected("error_counting_calls", "").Wrap(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
	if msg := err.Error(); msg != "error_counting_calls: an unexpected error has occurred: connection refused" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestFrom(t *testing.T) {
	typed := Validation("reference_is_required", "reference is required")
	if got := From(fmt.Errorf("outer: %w", typed)); got.Code != "reference_is_required" {
		t.Fatalf("expected typed error recovered through wrapping, got %+v", got)
	}

	raw := errors.New("boom")
	got := From(raw)
	if got.Kind != KindUnexpected || got.Code != "UNEXPECTED_ERROR" {
		t.Fatalf("raw error must become Unexpected, got %+v", got)
	}
	if !errors.Is(got, raw) {
		t.Fatalf("raw cause must be retained")
	}
}

func TestKindPredicates(t *testing.T) {
	if !IsNotFound(NotFound("", "")) || IsNotFound(Validation("", "")) {
		t.Fatalf("IsNotFound misclassified")
	}
	if !IsValidation(Validation("", "")) || IsValidation(Unexpected("", "")) {
		t.Fatalf("IsValidation misclassified")
	}
	if IsNotFound(nil) || IsValidation(nil) {
		t.Fatalf("nil is never a typed error")
	}
	if IsNotFound(errors.New("plain")) {
		t.Fatalf("plain errors are not typed")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("", ""), http.StatusBadRequest},
		{NotFound("", ""), http.StatusNotFound},
		{Unexpected("", ""), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("outer: %w", NotFound("", "")), http.StatusNotFound},
	}
	for i, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("case %d: expected %d, got %d", i, tc.want, got)
		}
	}
}
