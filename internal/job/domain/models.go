package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Job is the current-state projection of one service request. Its history
// lives in job_events (append-only); money fields are populated exactly once,
// at completion, from the financial engine.
type Job struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID   snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	ContractorID *snowflake.ID `gorm:"index" json:"contractor_id,omitempty"`
	ServiceType  string        `gorm:"not null" json:"service_type"`
	Description  string        `json:"description,omitempty"`

	Status        Status        `gorm:"not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'unpaid'" json:"payment_status"`
	PayoutStatus  PayoutStatus  `gorm:"not null;default:'not_ready';index" json:"payout_status"`

	// Estimate snapshot from intake. QuoteOnly means no price range could be
	// computed up front.
	EstimateMin *float64 `json:"estimate_min,omitempty"`
	EstimateMax *float64 `json:"estimate_max,omitempty"`
	QuoteOnly   bool     `gorm:"not null;default:false" json:"quote_only"`

	// Money fields, set at completion. ContractorTier is a snapshot of the
	// contractor's tier at that moment, never a live reference.
	ContractorTier   *string  `json:"contractor_tier,omitempty"`
	FinalPrice       *float64 `json:"final_price,omitempty"`
	MaterialFees     *float64 `json:"material_fees,omitempty"`
	ProcessingFee    *float64 `json:"processing_fee,omitempty"`
	PlatformFee      *float64 `json:"platform_fee,omitempty"`
	ContractorPayout *float64 `json:"contractor_payout,omitempty"`

	CancelCause *string `json:"cancel_cause,omitempty"`
	CancelNotes *string `json:"cancel_notes,omitempty"`
	RelistCount int     `gorm:"not null;default:0" json:"relist_count"`

	StartReport      datatypes.JSONMap `gorm:"type:jsonb" json:"start_report,omitempty"`
	CompletionReport datatypes.JSONMap `gorm:"type:jsonb" json:"completion_report,omitempty"`

	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	PaidOutAt   *time.Time `json:"paid_out_at,omitempty"`
}

func (Job) TableName() string { return "jobs" }

// Priced reports whether completion attached financial data to the job.
func (j *Job) Priced() bool {
	return j.ContractorPayout != nil
}

// AssignedTo reports whether the job is currently held by the contractor.
func (j *Job) AssignedTo(contractorID snowflake.ID) bool {
	return j.ContractorID != nil && *j.ContractorID == contractorID
}

// Event is one append-only history record for a job. Rows are never updated
// or deleted.
type Event struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	JobID      snowflake.ID      `gorm:"not null;index" json:"job_id"`
	Action     string            `gorm:"not null" json:"action"`
	ActorRole  string            `gorm:"not null" json:"actor_role"`
	ActorID    *string           `json:"actor_id,omitempty"`
	FromStatus string            `json:"from_status,omitempty"`
	ToStatus   string            `json:"to_status,omitempty"`
	Details    datatypes.JSONMap `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (Event) TableName() string { return "job_events" }
