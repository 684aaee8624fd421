// Package apperr defines the error taxonomy shared by storage, services and
// the outer boundaries (HTTP and tool calls). Callers match with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means no resolved identity, or an identity without a family.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the id does not resolve within the caller's family.
	// It is also returned for rows owned by another family.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference means a foreign id (user, category) is not part of
	// the caller's family.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrNoActiveOverview means the family has no active overview.
	ErrNoActiveOverview = errors.New("no active overview")

	// ErrLastScenario means the overview is the family's only one.
	ErrLastScenario = errors.New("cannot delete the last overview")

	// ErrCategoryInUse means expenses still reference the category.
	ErrCategoryInUse = errors.New("category has expenses")

	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation error")

	// ErrExternalService is matched by failures of email or other providers.
	ErrExternalService = errors.New("external service error")
)

// ValidationError describes malformed input on one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid returns a ValidationError for field.
func Invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// External wraps err from a third-party provider so it matches ErrExternalService.
func External(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrExternalService, err)
}

// Message returns the text shown to callers. Unknown errors are not exposed.
func Message(err error) string {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrNoActiveOverview),
		errors.Is(err, ErrLastScenario),
		errors.Is(err, ErrCategoryInUse):
		return rootMessage(err)
	case errors.Is(err, ErrExternalService):
		return ErrExternalService.Error()
	default:
		return "internal error"
	}
}

// rootMessage returns the sentinel text, dropping wrapping context that may
// carry ids from other families.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		ErrUnauthorized, ErrNotFound, ErrInvalidReference,
		ErrNoActiveOverview, ErrLastScenario, ErrCategoryInUse,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
