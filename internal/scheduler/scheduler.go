package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	payoutdomain "github.com/fixwell/backoffice/internal/payout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	PayoutSvc payoutdomain.Service
	Config    Config `optional:"true"`
}

// Scheduler sweeps completed, customer-paid jobs onto the payout queue so
// operators never have to mark each one ready by hand. Every move goes
// through the payout service and lands in job history like any other
// transition.
type Scheduler struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       Config
	payoutSvc payoutdomain.Service
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:        p.DB,
		log:       p.Log.Named("scheduler"),
		cfg:       p.Config.withDefaults(),
		payoutSvc: p.PayoutSvc,
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("payout sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce marks one batch of eligible jobs ready for payout. Eligible means
// completed, priced and with the customer payment collected. Jobs that raced
// with a concurrent writer are skipped and picked up on the next sweep.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var jobIDs []snowflake.ID
	err := s.db.WithContext(ctx).Raw(
		`SELECT id FROM jobs
		 WHERE status = ? AND payment_status = ? AND payout_status = ?
		   AND contractor_payout IS NOT NULL
		 ORDER BY completed_at ASC
		 LIMIT ?`,
		jobdomain.StatusCompleted,
		jobdomain.PaymentPaid,
		jobdomain.PayoutNotReady,
		s.cfg.BatchSize,
	).Scan(&jobIDs).Error
	if err != nil {
		return err
	}

	marked := 0
	for _, jobID := range jobIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := s.payoutSvc.MarkReady(ctx, payoutdomain.MarkReadyRequest{
			JobID: jobID.String(),
			Actor: auditdomain.Actor{Role: auditdomain.ActorRoleSystem, ID: "payout-sweep"},
		})
		if err != nil {
			s.log.Warn("payout sweep skipped job",
				zap.String("job_id", jobID.String()),
				zap.Error(err),
			)
			continue
		}
		marked++
	}

	if marked > 0 {
		s.log.Info("payout sweep completed", zap.Int("marked_ready", marked))
	}
	return nil
}
