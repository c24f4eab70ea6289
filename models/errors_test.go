package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRunErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewRunError(ErrCodeFetchFailed, "fetch https://a.test failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() does not see the wrapped cause")
	}

	var runErr *RunError
	wrapped := fmt.Errorf("stage 1: %w", err)
	if !errors.As(wrapped, &runErr) {
		t.Fatal("errors.As() does not find RunError through wrapping")
	}
	if runErr.Code != ErrCodeFetchFailed {
		t.Errorf("Code = %q, want %q", runErr.Code, ErrCodeFetchFailed)
	}

	if msg := err.Error(); !strings.Contains(msg, "FETCH_FAILED") || !strings.Contains(msg, "connection refused") {
		t.Errorf("Error() = %q, want code and cause", msg)
	}
}

func TestRunErrorWithoutCause(t *testing.T) {
	err := NewRunError(ErrCodeConfigInvalid, "url set is empty", nil)

	if err.Unwrap() != nil {
		t.Error("Unwrap() should be nil without a cause")
	}
	if msg := err.Error(); !strings.Contains(msg, "url set is empty") {
		t.Errorf("Error() = %q", msg)
	}

	detail := err.ToDetail()
	if detail.Code != ErrCodeConfigInvalid || detail.Message != "url set is empty" {
		t.Errorf("ToDetail() = %+v", detail)
	}
}
