package domain

import (
	"fmt"
	"strings"
)

// Status is the job lifecycle state. Values are fixed at parse time; nothing
// downstream ever compares raw strings.
type Status string

const (
	StatusSubmitted       Status = "submitted"
	StatusReadyToAssign   Status = "ready_to_assign"
	StatusOpen            Status = "open"
	StatusAssigned        Status = "assigned"
	StatusEnRoute         Status = "en_route"
	StatusOnSite          Status = "on_site"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusCancelRequested Status = "cancel_requested"
	StatusCancelled       Status = "cancelled"
)

var allStatuses = map[Status]struct{}{
	StatusSubmitted:       {},
	StatusReadyToAssign:   {},
	StatusOpen:            {},
	StatusAssigned:        {},
	StatusEnRoute:         {},
	StatusOnSite:          {},
	StatusInProgress:      {},
	StatusCompleted:       {},
	StatusCancelRequested: {},
	StatusCancelled:       {},
}

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allStatuses[status]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Terminal reports whether the job record is retained for audit only.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus is set by the payment collaborator; the engine only reads it.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown payment status %q", ErrInvalidStatus, raw)
	}
}

// PayoutStatus is the independent payout axis owned by the payout engine.
type PayoutStatus string

const (
	PayoutNotReady   PayoutStatus = "not_ready"
	PayoutReady      PayoutStatus = "ready"
	PayoutProcessing PayoutStatus = "processing"
	PayoutPaid       PayoutStatus = "paid"
)

func ParsePayoutStatus(raw string) (PayoutStatus, error) {
	status := PayoutStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case PayoutNotReady, PayoutReady, PayoutProcessing, PayoutPaid:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown payout status %q", ErrInvalidStatus, raw)
	}
}

// CauseCode is the contractor-side cancellation cause. Invalid values are
// rejected at parse time, not discovered by string matching later.
type CauseCode string

const (
	CauseCustomerUnavailable CauseCode = "customer_unavailable"
	CauseScopeMismatch       CauseCode = "scope_mismatch"
	CauseSafetyConcern       CauseCode = "safety_concern"
)

func ParseCauseCode(raw string) (CauseCode, error) {
	code := CauseCode(strings.ToLower(strings.TrimSpace(raw)))
	switch code {
	case CauseCustomerUnavailable, CauseScopeMismatch, CauseSafetyConcern:
		return code, nil
	default:
		return "", fmt.Errorf("%w: unknown cause code %q", ErrInvalidCauseCode, raw)
	}
}

// Action names a transition for history, audit and error reporting.
type Action string

const (
	ActionSubmit        Action = "job.submit"
	ActionApprove       Action = "job.approve"
	ActionAccept        Action = "job.accept"
	ActionProgress      Action = "job.progress"
	ActionStart         Action = "job.start"
	ActionComplete      Action = "job.complete"
	ActionContractorEnd Action = "job.contractor_end"
	ActionAdminCancel   Action = "job.admin_cancel"
	ActionAdminRelist   Action = "job.admin_relist"
	ActionAdminReassign Action = "job.admin_reassign"
	ActionPaymentStatus Action = "job.payment_status"
)

// transitionSources lists the valid source states per action. An action
// attempted from any other state fails with an invalid-transition error
// naming the current state.
var transitionSources = map[Action][]Status{
	ActionApprove:       {StatusSubmitted},
	ActionAccept:        {StatusSubmitted, StatusReadyToAssign, StatusOpen},
	ActionProgress:      {StatusAssigned, StatusEnRoute},
	ActionStart:         {StatusAssigned, StatusEnRoute, StatusOnSite},
	ActionComplete:      {StatusInProgress},
	ActionContractorEnd: {StatusOnSite},
	ActionAdminRelist:   {StatusCancelRequested, StatusCancelled},
	ActionAdminCancel: {
		StatusSubmitted, StatusReadyToAssign, StatusOpen, StatusAssigned,
		StatusEnRoute, StatusOnSite, StatusInProgress, StatusCancelRequested,
	},
	ActionAdminReassign: {
		StatusSubmitted, StatusReadyToAssign, StatusOpen, StatusAssigned,
		StatusEnRoute, StatusOnSite, StatusCancelRequested,
	},
}

// CanTransition reports whether the action may fire from the given state.
func CanTransition(action Action, from Status) bool {
	for _, source := range transitionSources[action] {
		if source == from {
			return true
		}
	}
	return false
}
