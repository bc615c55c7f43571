package errors

import (
	"errors"
	"fmt"
	"testing"
)

type reportErr struct{}

func (reportErr) Error() string        { return "report" }
func (reportErr) ErrorCode() ErrorCode { return CodeRuleViolation }

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Newf", func(t *testing.T) {
		err := Newf(CodeValidationError, "threshold must be > 0, got %d", -1)
		if err.Error() != "[VALIDATION_ERROR] threshold must be > 0, got -1" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithForeignCodedError", func(t *testing.T) {
		err := fmt.Errorf("check failed: %w", reportErr{})
		if !IsCode(err, CodeRuleViolation) {
			t.Error("expected IsCode to see through fmt wrapping to a coded error")
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxPath, "/tmp/x")
		if !IsCode(err, CodeInternal) {
			t.Error("expected plain errors to be wrapped as internal")
		}
		var de *DomainError
		if !errors.As(err, &de) || de.Context[CtxPath] != "/tmp/x" {
			t.Errorf("expected path context, got %#v", de)
		}
	})
}
