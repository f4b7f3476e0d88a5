package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrInvalidTransition  = errors.New("invalid_transition")
	ErrConflict           = errors.New("conflict")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidCauseCode   = errors.New("invalid_cause_code")
	ErrInvalidCustomer    = errors.New("invalid_customer")
	ErrInvalidServiceType = errors.New("invalid_service_type")
	ErrPricingUnavailable = errors.New("pricing_unavailable")
)

// TransitionError describes a guard failure: the action was attempted from a
// state it is not valid in, or by an actor who is not allowed to fire it.
type TransitionError struct {
	Action  Action
	Current Status
	Reason  string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s rejected in status %q: %s", e.Action, e.Current, e.Reason)
	}
	return fmt.Sprintf("%s rejected in status %q", e.Action, e.Current)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ConflictError reports a lost optimistic-concurrency race: the persisted
// state moved between the read and the guarded write.
type ConflictError struct {
	Action   Action
	Expected string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s lost update race, job left %q concurrently", e.Action, e.Expected)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
