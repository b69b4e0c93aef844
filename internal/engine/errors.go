package engine

import (
	"errors"
	"fmt"

	"github.com/brainstorm-platform/idea-engine/internal/models"
)

// NotFoundError reports an unknown or deleted session id. Deleted sessions
// are indistinguishable from never-created ones.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

// PreconditionError reports that stage data required for the requested
// transition is missing.
type PreconditionError struct {
	ID      string
	Stage   models.Stage
	Missing string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("session %s at stage %s: %s required", e.ID, e.Stage, e.Missing)
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// GenerationError reports that upstream generation exhausted its retries or
// that the parser produced zero usable records. The condition is not
// attributable to caller input; callers should present it as retryable.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsGeneration reports whether err is a GenerationError.
func IsGeneration(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}
