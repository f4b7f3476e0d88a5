package domain

import (
	"context"
	"errors"

	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
)

// Actions on the payout axis. They share the job_events stream so a job's
// history reads as one timeline.
const (
	ActionMarkReady = "payout.mark_ready"
	ActionPaid      = "payout.paid"
	ActionBatch     = "payout.batch"
	ActionOverride  = "payout.override"
)

var (
	ErrEmptyBatch    = errors.New("empty_batch")
	ErrNotPayable    = errors.New("not_payable")
	ErrMissingReason = errors.New("missing_reason")
)

type MarkReadyRequest struct {
	JobID string
	Actor auditdomain.Actor
}

// SingleRequest pays one contractor's queued jobs as a single disbursement.
// Every job must belong to the contractor; Amount is the disbursed total,
// recorded for reconciliation against the per-job payouts.
type SingleRequest struct {
	ContractorID string
	JobIDs       []string
	Amount       *float64
	Actor        auditdomain.Actor
}

type BatchRequest struct {
	JobIDs []string
	Actor  auditdomain.Actor
}

// BatchResult reports partial success as data: jobs that were already paid,
// missing, or not ready are skipped, never failed.
type BatchResult struct {
	UpdatedIDs []string `json:"updated_ids"`
	Count      int      `json:"count"`
}

type OverrideRequest struct {
	JobID  string
	Status string
	Reason string
	Actor  auditdomain.Actor
}

type Service interface {
	// MarkReady moves a completed, priced, paid job onto the payout queue.
	// Calling it on a job that is already ready is a no-op.
	MarkReady(ctx context.Context, req MarkReadyRequest) (jobdomain.Job, error)

	// ProcessBatch pays out every eligible job in the request. A job that
	// was paid by an earlier attempt is skipped, so retrying a batch after
	// a partial failure never double-pays.
	ProcessBatch(ctx context.Context, req BatchRequest) (BatchResult, error)

	// ProcessSingle pays the listed jobs for one contractor. Jobs already
	// paid by an earlier attempt are skipped; a job that belongs to a
	// different contractor rejects the whole request before anything is
	// paid.
	ProcessSingle(ctx context.Context, req SingleRequest) (BatchResult, error)

	// Override force-sets the payout status with no state guard. Admin only,
	// reason required, always audited.
	Override(ctx context.Context, req OverrideRequest) (jobdomain.Job, error)

	// ListReady returns jobs queued for payout, oldest first.
	ListReady(ctx context.Context, limit int) ([]jobdomain.Job, error)
}
