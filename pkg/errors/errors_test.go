package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsMapToHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFoundWithID("Bike", "abc"), CodeNotFound, http.StatusNotFound},
		{"policy violation", PolicyViolation("not verified"), CodePolicyViolation, http.StatusForbidden},
		{"conflict", Conflict("overlap"), CodeConflict, http.StatusConflict},
		{"invalid transition", InvalidTransition("completed", "cancelled"), CodeInvalidTransition, http.StatusConflict},
		{"signature mismatch", SignatureMismatch("order_123"), CodeSignatureMismatch, http.StatusBadRequest},
		{"upstream timeout", UpstreamTimeout("razorpay", errors.New("deadline")), CodeUpstreamTimeout, http.StatusGatewayTimeout},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusBadRequest},
		{"forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"internal", Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("db unavailable", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the wrapped cause")
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(Conflict("x")) {
		t.Error("Conflict should be an AppError")
	}
	if !IsAppError(fmt.Errorf("wrapped: %w", Conflict("x"))) {
		t.Error("wrapped AppError should be detected")
	}
	if IsAppError(errors.New("plain")) {
		t.Error("plain error should not be an AppError")
	}
}

func TestIsCode(t *testing.T) {
	err := InvalidTransition("pending", "completed")
	if !IsCode(err, CodeInvalidTransition) {
		t.Error("expected CodeInvalidTransition")
	}
	if IsCode(err, CodeConflict) {
		t.Error("did not expect CodeConflict")
	}
}

func TestWithDetails(t *testing.T) {
	err := Conflict("bike claimed").WithDetails(map[string]any{"bike_id": "abc"})
	if err.Details["bike_id"] != "abc" {
		t.Errorf("Details[bike_id] = %v, want abc", err.Details["bike_id"])
	}
}
