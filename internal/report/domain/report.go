package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"gorm.io/gorm"
)

// RevenueSummary aggregates priced, completed jobs over a window. All sums
// are over stored per-job breakdowns, so a fee schedule change mid-month
// never rewrites history.
type RevenueSummary struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	CompletedJobs     int64     `json:"completed_jobs"`
	GrossRevenue      float64   `json:"gross_revenue"`
	MaterialFees      float64   `json:"material_fees"`
	ProcessingFees    float64   `json:"processing_fees"`
	PlatformFees      float64   `json:"platform_fees"`
	ContractorPayouts float64   `json:"contractor_payouts"`
}

// PendingPayoutGroup is one contractor's slice of the payout queue.
type PendingPayoutGroup struct {
	ContractorID string  `json:"contractor_id"`
	Jobs         int64   `json:"jobs"`
	TotalPayout  float64 `json:"total_payout"`
}

type HistoryRequest struct {
	ContractorID string
	Limit        int
}

type Service interface {
	// MonthToDateRevenue summarizes jobs completed since the start of the
	// current calendar month.
	MonthToDateRevenue(ctx context.Context) (RevenueSummary, error)

	// PendingPayouts groups the ready queue by contractor, largest total
	// first.
	PendingPayouts(ctx context.Context) ([]PendingPayoutGroup, error)

	// PayoutHistory lists paid-out jobs, most recent payout first.
	PayoutHistory(ctx context.Context, req HistoryRequest) ([]jobdomain.Job, error)
}

type Repository interface {
	SumRevenue(ctx context.Context, db *gorm.DB, from, to time.Time) (RevenueSummary, error)
	GroupPendingPayouts(ctx context.Context, db *gorm.DB) ([]PendingPayoutGroup, error)
	// ListPaidJobs filters by contractor when contractorID is nonzero.
	ListPaidJobs(ctx context.Context, db *gorm.DB, contractorID snowflake.ID, limit int) ([]*jobdomain.Job, error)
}
