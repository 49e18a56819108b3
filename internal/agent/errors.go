package agent

import (
	"errors"
	"fmt"
)

// ValidationError marks input the stage must never retry.
type ValidationError struct {
	Stage  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed: %s", e.Stage, e.Reason)
}

// TransientError marks a failure worth retrying (timeouts, downstream
// unavailability). The wrapper retries these up to the attempt budget.
type TransientError struct {
	Stage string
	Err   error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Stage, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// CircuitOpenError denies a whole run before any stage executes.
type CircuitOpenError struct {
	Name string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s is OPEN - workflow temporarily disabled", e.Name)
}

// IsValidation reports whether err carries a ValidationError anywhere in
// its chain.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCircuitOpen reports whether err is a circuit breaker denial.
func IsCircuitOpen(err error) bool {
	var ce *CircuitOpenError
	return errors.As(err, &ce)
}
