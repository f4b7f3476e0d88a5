package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fixwell/backoffice/internal/job/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *domain.Job) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO jobs (
			id, customer_id, contractor_id, service_type, description,
			status, payment_status, payout_status,
			estimate_min, estimate_max, quote_only,
			relist_count, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.CustomerID,
		job.ContractorID,
		job.ServiceType,
		job.Description,
		job.Status,
		job.PaymentStatus,
		job.PayoutStatus,
		job.EstimateMin,
		job.EstimateMax,
		job.QuoteOnly,
		job.RelistCount,
		job.CreatedAt,
		job.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Job, error) {
	var job domain.Job
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM jobs WHERE id = ?`,
		id,
	).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Job, error) {
	var (
		conds []string
		args  []any
	)

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.CustomerID != 0 {
		conds = append(conds, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	if filter.ContractorID != 0 {
		conds = append(conds, "contractor_id = ?")
		args = append(args, filter.ContractorID)
	}
	if filter.Cursor != nil {
		conds = append(conds, "(created_at, id) < (?, ?)")
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	query := `SELECT * FROM jobs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, filter.Limit)

	var jobs []*domain.Job
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateGuarded writes the lifecycle columns guarded by the expected source
// status. Zero matched rows means a concurrent writer moved the job first.
// The payout axis (payout_status, paid_out_at) is owned by the payout
// service and is never written here, so a payout landing between the read
// and this write cannot be reverted by a stale snapshot.
func (r *repo) UpdateGuarded(ctx context.Context, db *gorm.DB, job *domain.Job, from domain.Status) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE jobs SET
			contractor_id = ?,
			status = ?,
			contractor_tier = ?,
			final_price = ?,
			material_fees = ?,
			processing_fee = ?,
			platform_fee = ?,
			contractor_payout = ?,
			cancel_cause = ?,
			cancel_notes = ?,
			relist_count = ?,
			start_report = ?,
			completion_report = ?,
			updated_at = ?,
			completed_at = ?
		 WHERE id = ? AND status = ?`,
		job.ContractorID,
		job.Status,
		job.ContractorTier,
		job.FinalPrice,
		job.MaterialFees,
		job.ProcessingFee,
		job.PlatformFee,
		job.ContractorPayout,
		job.CancelCause,
		job.CancelNotes,
		job.RelistCount,
		job.StartReport,
		job.CompletionReport,
		job.UpdatedAt,
		job.CompletedAt,
		job.ID,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdatePaymentStatus sets only the payment axis, guarded on the expected
// prior payment status.
func (r *repo) UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.PaymentStatus, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE jobs SET payment_status = ?, updated_at = ? WHERE id = ? AND payment_status = ?`,
		to,
		now,
		id,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO job_events (
			id, job_id, action, actor_role, actor_id,
			from_status, to_status, details, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.JobID,
		event.Action,
		event.ActorRole,
		event.ActorID,
		event.FromStatus,
		event.ToStatus,
		event.Details,
		event.CreatedAt,
	).Error
}

func (r *repo) ListEvents(ctx context.Context, db *gorm.DB, jobID snowflake.ID, limit int) ([]*domain.Event, error) {
	var events []*domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM job_events WHERE job_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		jobID,
		limit,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
