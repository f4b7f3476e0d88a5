package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"github.com/fixwell/backoffice/internal/payout/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindJob(ctx context.Context, db *gorm.DB, id snowflake.ID) (*jobdomain.Job, error) {
	var job jobdomain.Job
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

func (r *repo) UpdatePayoutStatus(ctx context.Context, db *gorm.DB, update domain.PayoutUpdate) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE jobs SET payout_status = ?, paid_out_at = COALESCE(?, paid_out_at), updated_at = ?
		 WHERE id = ? AND payout_status IN ?`,
		update.To,
		update.PaidOutAt,
		update.Now,
		update.JobID,
		update.From,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) SetPayoutStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, to jobdomain.PayoutStatus, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE jobs SET payout_status = ?, updated_at = ? WHERE id = ?`,
		to,
		now,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListByPayoutStatus(ctx context.Context, db *gorm.DB, status jobdomain.PayoutStatus, limit int) ([]*jobdomain.Job, error) {
	var jobs []*jobdomain.Job
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM jobs WHERE payout_status = ?
		 ORDER BY created_at ASC, id ASC LIMIT ?`,
		status,
		limit,
	).Scan(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) InsertJobEvent(ctx context.Context, db *gorm.DB, event *jobdomain.Event) error {
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
