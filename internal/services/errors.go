package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks request failures caused by missing or invalid
	// fields. Validation failures never produce job-row side effects.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks failures caused by an absent credential or
	// setting required for the chosen pipeline path.
	ErrConfiguration = errors.New("configuration error")
	// ErrProvider marks non-success responses from speech, storage, or
	// video provider APIs.
	ErrProvider = errors.New("provider error")
	// ErrDatabase marks job-store write failures.
	ErrDatabase = errors.New("database error")
	// ErrTimeout marks exhaustion of the polling attempt budget.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes pipeline step context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRequestError reports whether an error should surface as a caller error
// (HTTP 400) rather than a pipeline failure.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration)
}

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
