package types

import (
	"errors"
	"fmt"
)

// ValidationError marks a single bad item (bad VIN, missing required field).
// The item is skipped and counted; the run continues.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// TransientError marks a failure worth retrying: timeouts, rate limits,
// temporary storage faults. Exhausted retries degrade to a per-item failure.
type TransientError struct {
	Op    string
	Cause error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient error during %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("transient error during %s", e.Op)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// ConsistencyError marks a data-consistency fault that must surface loudly:
// a SOLD event with no prior post, or a second run detected while one is in
// flight. It is never retried or guessed around.
type ConsistencyError struct {
	Message string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency fault: %s", e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsConsistency reports whether err is (or wraps) a ConsistencyError.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
