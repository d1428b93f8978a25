// Package rules holds the error taxonomy and constant rules data shared by the
// combat resolution packages.
package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEncounterState is returned when an operation is not permitted for
	// the encounter's current status (e.g. any mutation after completion).
	ErrInvalidEncounterState = errors.New("invalid encounter state")

	// ErrInvalidStateTransition is returned when a participant or condition is not
	// in a state that permits the requested transition.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrParticipantNotFound is returned when an operation names an unknown participant.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrNoActiveParticipants is returned when turn order has nobody left to act.
	ErrNoActiveParticipants = errors.New("no active participants")

	// ErrValidation is returned for malformed input such as negative damage or a
	// d20 result outside 1..20.
	ErrValidation = errors.New("validation error")

	// ErrResourceUnavailable is returned when an action requires a spell slot or
	// limited-use feature that the resource tracker refused.
	ErrResourceUnavailable = errors.New("resource unavailable")
)

// ValidateD20 checks that roll is a natural d20 result.
//
// Postcondition: Returns nil iff 1 <= roll <= 20; otherwise an error wrapping ErrValidation.
func ValidateD20(field string, roll int) error {
	if roll < 1 || roll > 20 {
		return Errorf(ErrValidation, "%s must be a natural d20 result in 1..20, got %d", field, roll)
	}
	return nil
}

// ValidateNonNegative checks that v is not negative.
//
// Postcondition: Returns nil iff v >= 0; otherwise an error wrapping ErrValidation.
func ValidateNonNegative(field string, v int) error {
	if v < 0 {
		return Errorf(ErrValidation, "%s must not be negative, got %d", field, v)
	}
	return nil
}

// Errorf wraps sentinel with a formatted message.
//
// Postcondition: errors.Is(result, sentinel) is true.
func Errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
