package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Status       Status
	CustomerID   snowflake.ID
	ContractorID snowflake.ID
	Cursor       *Cursor
	Limit        int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *Job) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Job, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Job, error)

	// UpdateGuarded persists the job's lifecycle fields with an optimistic
	// check on the expected source status. It reports false when zero rows
	// matched, meaning the job moved concurrently. The payout axis is never
	// written.
	UpdateGuarded(ctx context.Context, db *gorm.DB, job *Job, from Status) (bool, error)

	// UpdatePaymentStatus sets only the payment axis, guarded on the
	// expected prior payment status.
	UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to PaymentStatus, now time.Time) (bool, error)

	InsertEvent(ctx context.Context, db *gorm.DB, event *Event) error
	ListEvents(ctx context.Context, db *gorm.DB, jobID snowflake.ID, limit int) ([]*Event, error)
}
