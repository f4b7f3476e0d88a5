package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"github.com/fixwell/backoffice/internal/report/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) SumRevenue(ctx context.Context, db *gorm.DB, from, to time.Time) (domain.RevenueSummary, error) {
	var row struct {
		CompletedJobs     int64
		GrossRevenue      float64
		MaterialFees      float64
		ProcessingFees    float64
		PlatformFees      float64
		ContractorPayouts float64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT
			COUNT(*) AS completed_jobs,
			COALESCE(SUM(final_price), 0) AS gross_revenue,
			COALESCE(SUM(material_fees), 0) AS material_fees,
			COALESCE(SUM(processing_fee), 0) AS processing_fees,
			COALESCE(SUM(platform_fee), 0) AS platform_fees,
			COALESCE(SUM(contractor_payout), 0) AS contractor_payouts
		 FROM jobs
		 WHERE status = ?
		   AND contractor_payout IS NOT NULL
		   AND completed_at >= ? AND completed_at < ?`,
		jobdomain.StatusCompleted,
		from,
		to,
	).Scan(&row).Error
	if err != nil {
		return domain.RevenueSummary{}, err
	}

	return domain.RevenueSummary{
		From:              from,
		To:                to,
		CompletedJobs:     row.CompletedJobs,
		GrossRevenue:      row.GrossRevenue,
		MaterialFees:      row.MaterialFees,
		ProcessingFees:    row.ProcessingFees,
		PlatformFees:      row.PlatformFees,
		ContractorPayouts: row.ContractorPayouts,
	}, nil
}

func (r *repo) GroupPendingPayouts(ctx context.Context, db *gorm.DB) ([]domain.PendingPayoutGroup, error) {
	var groups []domain.PendingPayoutGroup
	err := db.WithContext(ctx).Raw(
		`SELECT
			contractor_id,
			COUNT(*) AS jobs,
			COALESCE(SUM(contractor_payout), 0) AS total_payout
		 FROM jobs
		 WHERE payout_status = ? AND contractor_id IS NOT NULL
		 GROUP BY contractor_id
		 ORDER BY total_payout DESC`,
		jobdomain.PayoutReady,
	).Scan(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repo) ListPaidJobs(ctx context.Context, db *gorm.DB, contractorID snowflake.ID, limit int) ([]*jobdomain.Job, error) {
	query := `SELECT * FROM jobs WHERE payout_status = ?`
	args := []any{jobdomain.PayoutPaid}
	if contractorID != 0 {
		query += ` AND contractor_id = ?`
		args = append(args, contractorID)
	}
	query += ` ORDER BY paid_out_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var jobs []*jobdomain.Job
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
