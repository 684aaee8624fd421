package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("add income: %w", Invalid("amount", "must be positive"))

	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected wrapped ValidationError to match ErrValidation")
	}

	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected errors.As to find ValidationError")
	}
	if ve.Field != "amount" {
		t.Errorf("field: expected 'amount', got '%s'", ve.Field)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", Invalid("name", "name is required"), "name: name is required"},
		{"wrapped not found", fmt.Errorf("income 123: %w", ErrNotFound), "not found"},
		{"last scenario", ErrLastScenario, "cannot delete the last overview"},
		{"external", External("send email", errors.New("throttled")), "external service error"},
		{"unknown", errors.New("disk on fire"), "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExternalMatchesBoth(t *testing.T) {
	cause := errors.New("throttled")
	err := External("send email", cause)

	if !errors.Is(err, ErrExternalService) {
		t.Error("expected ErrExternalService")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be preserved")
	}
}
