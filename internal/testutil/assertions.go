package testutil

import (
	"errors"
	"testing"

	apperrors "splitexpense/internal/errors"

	"github.com/shopspring/decimal"
)

// decimalTolerance absorbs the float round trip of NUMERIC columns in SQLite.
var decimalTolerance = decimal.RequireFromString("0.000001")

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertDecimal checks that got equals the decimal literal want.
func AssertDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()

	w := decimal.RequireFromString(want)
	if got.Sub(w).Abs().GreaterThan(decimalTolerance) {
		t.Errorf("expected %s, got %s", w, got)
	}
}
