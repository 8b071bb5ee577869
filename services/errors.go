package services

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied    = errors.New("access denied")
	ErrExamNotOpen     = errors.New("exam has not opened yet")
	ErrExamClosed      = errors.New("exam is closed")
	ErrAttemptConflict = errors.New("attempt number already taken")
)

// AttemptLimitError reports how many attempts were made against how many the
// exam allows.
type AttemptLimitError struct {
	AttemptsMade    int
	AttemptsAllowed int
}

func (e *AttemptLimitError) Error() string {
	return fmt.Sprintf("attempt limit exceeded: %d of %d attempts used", e.AttemptsMade, e.AttemptsAllowed)
}

// ValidationError points at the field that failed and why, so the caller can
// correct the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
