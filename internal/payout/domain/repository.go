package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"gorm.io/gorm"
)

// PayoutUpdate is one guarded write on the payout axis. The update applies
// only when the job's current payout status is one of From; zero matched
// rows means the job was missing or already past that point.
type PayoutUpdate struct {
	JobID     snowflake.ID
	From      []jobdomain.PayoutStatus
	To        jobdomain.PayoutStatus
	PaidOutAt *time.Time
	Now       time.Time
}

type Repository interface {
	FindJob(ctx context.Context, db *gorm.DB, id snowflake.ID) (*jobdomain.Job, error)
	UpdatePayoutStatus(ctx context.Context, db *gorm.DB, update PayoutUpdate) (bool, error)

	// SetPayoutStatus writes the payout status with no guard. Override path
	// only.
	SetPayoutStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, to jobdomain.PayoutStatus, now time.Time) (bool, error)

	ListByPayoutStatus(ctx context.Context, db *gorm.DB, status jobdomain.PayoutStatus, limit int) ([]*jobdomain.Job, error)
	InsertJobEvent(ctx context.Context, db *gorm.DB, event *jobdomain.Event) error
}
