package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/fixwell/backoffice/internal/audit/domain"
	"github.com/fixwell/backoffice/internal/clock"
	jobdomain "github.com/fixwell/backoffice/internal/job/domain"
	"github.com/fixwell/backoffice/internal/observability/metrics"
	"github.com/fixwell/backoffice/internal/payout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payout.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) MarkReady(ctx context.Context, req domain.MarkReadyRequest) (jobdomain.Job, error) {
	job, err := s.findJob(ctx, req.JobID)
	if err != nil {
		return jobdomain.Job{}, err
	}

	switch job.PayoutStatus {
	case jobdomain.PayoutReady:
		// Already queued; marking twice is harmless.
		return *job, nil
	case jobdomain.PayoutProcessing, jobdomain.PayoutPaid:
		s.metrics.IncPayoutTransition(domain.ActionMarkReady, "rejected")
		return jobdomain.Job{}, fmt.Errorf("%w: payout already %s", domain.ErrNotPayable, job.PayoutStatus)
	}

	if job.Status != jobdomain.StatusCompleted {
		s.metrics.IncPayoutTransition(domain.ActionMarkReady, "rejected")
		return jobdomain.Job{}, fmt.Errorf("%w: job is %s, not completed", domain.ErrNotPayable, job.Status)
	}
	if !job.Priced() {
		s.metrics.IncPayoutTransition(domain.ActionMarkReady, "rejected")
		return jobdomain.Job{}, jobdomain.ErrPricingUnavailable
	}
	if job.PaymentStatus != jobdomain.PaymentPaid {
		s.metrics.IncPayoutTransition(domain.ActionMarkReady, "rejected")
		return jobdomain.Job{}, fmt.Errorf("%w: customer payment is %s", domain.ErrNotPayable, job.PaymentStatus)
	}

	actor := systemActor(req.Actor)
	now := s.clock.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.UpdatePayoutStatus(ctx, tx, domain.PayoutUpdate{
			JobID: job.ID,
			From:  []jobdomain.PayoutStatus{jobdomain.PayoutNotReady},
			To:    jobdomain.PayoutReady,
			Now:   now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: payout status moved concurrently", jobdomain.ErrConflict)
		}
		return s.repo.InsertJobEvent(ctx, tx, s.payoutEvent(job.ID, domain.ActionMarkReady, actor,
			jobdomain.PayoutNotReady, jobdomain.PayoutReady, nil))
	})
	if err != nil {
		s.metrics.IncPayoutTransition(domain.ActionMarkReady, "error")
		return jobdomain.Job{}, err
	}

	job.PayoutStatus = jobdomain.PayoutReady
	job.UpdatedAt = now
	s.metrics.IncPayoutTransition(domain.ActionMarkReady, "ok")
	s.recordAudit(ctx, job.ID.String(), domain.ActionMarkReady, actor,
		map[string]any{"payout_status": string(jobdomain.PayoutNotReady)},
		map[string]any{"payout_status": string(jobdomain.PayoutReady)},
		"", nil)
	return *job, nil
}

func (s *Service) ProcessSingle(ctx context.Context, req domain.SingleRequest) (domain.BatchResult, error) {
	if len(req.JobIDs) == 0 {
		return domain.BatchResult{}, domain.ErrEmptyBatch
	}
	contractorID, err := parseID(req.ContractorID)
	if err != nil {
		return domain.BatchResult{}, err
	}

	// Validate the whole disbursement before paying anything: one job
	// owned by a different contractor fails the request up front rather
	// than after money moved.
	jobs := make([]*jobdomain.Job, 0, len(req.JobIDs))
	for _, raw := range req.JobIDs {
		job, err := s.findJob(ctx, raw)
		if err != nil {
			return domain.BatchResult{}, err
		}
		if !job.AssignedTo(contractorID) {
			s.metrics.IncPayoutTransition(domain.ActionPaid, "rejected")
			return domain.BatchResult{}, fmt.Errorf("%w: job %s does not belong to contractor %s",
				domain.ErrNotPayable, job.ID, req.ContractorID)
		}
		jobs = append(jobs, job)
	}

	actor := systemActor(req.Actor)
	result, expected, runErr := s.disburse(ctx, jobs, actor)

	// The audit trail must cover partially-disbursed runs too, so the
	// event is recorded even when a mid-run failure aborts the loop.
	meta := map[string]any{
		"contractor_id":   req.ContractorID,
		"job_ids":         result.UpdatedIDs,
		"expected_payout": expected,
	}
	if req.Amount != nil {
		meta["disbursed_amount"] = *req.Amount
	}
	if runErr != nil {
		meta["error"] = runErr.Error()
	}
	s.recordAudit(ctx, req.ContractorID, domain.ActionPaid, actor, nil, nil, "", meta)
	return result, runErr
}

func (s *Service) disburse(ctx context.Context, jobs []*jobdomain.Job, actor auditdomain.Actor) (domain.BatchResult, float64, error) {
	result := domain.BatchResult{}
	expected := 0.0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return result, expected, err
		}
		if job.PayoutStatus == jobdomain.PayoutPaid {
			// Retrying a paid job must not double-pay.
			continue
		}

		paid, err := s.pay(ctx, job, actor)
		if err != nil {
			s.metrics.IncPayoutTransition(domain.ActionPaid, "error")
			return result, expected, err
		}
		if !paid {
			s.metrics.IncPayoutTransition(domain.ActionPaid, "rejected")
			return result, expected, fmt.Errorf("%w: job %s payout is %s", domain.ErrNotPayable, job.ID, job.PayoutStatus)
		}

		s.metrics.IncPayoutTransition(domain.ActionPaid, "ok")
		expected += deref(job.ContractorPayout)
		result.UpdatedIDs = append(result.UpdatedIDs, job.ID.String())
		result.Count++
	}
	return result, expected, nil
}

func (s *Service) ProcessBatch(ctx context.Context, req domain.BatchRequest) (domain.BatchResult, error) {
	if len(req.JobIDs) == 0 {
		return domain.BatchResult{}, domain.ErrEmptyBatch
	}

	actor := systemActor(req.Actor)
	result, runErr := s.payBatch(ctx, req.JobIDs, actor)

	// Jobs paid before a mid-batch failure still need their audit trail,
	// so the batch event is recorded on the error path as well.
	s.metrics.AddPayoutBatchJobs(result.Count)
	meta := map[string]any{
		"requested": len(req.JobIDs),
		"paid":      result.Count,
		"job_ids":   result.UpdatedIDs,
	}
	if runErr != nil {
		meta["error"] = runErr.Error()
	}
	s.recordAudit(ctx, "batch", domain.ActionBatch, actor, nil, nil, "", meta)
	return result, runErr
}

func (s *Service) payBatch(ctx context.Context, rawIDs []string, actor auditdomain.Actor) (domain.BatchResult, error) {
	result := domain.BatchResult{}
	for _, raw := range rawIDs {
		if err := ctx.Err(); err != nil {
			// Cancellation keeps what was already paid; the result reports
			// exactly how far the batch got.
			return result, err
		}

		jobID, err := parseID(raw)
		if err != nil {
			s.log.Warn("skipping unparseable job id in payout batch", zap.String("job_id", raw))
			continue
		}

		job, err := s.repo.FindJob(ctx, s.db, jobID)
		if err != nil {
			return result, err
		}
		if job == nil {
			s.log.Warn("skipping unknown job in payout batch", zap.String("job_id", raw))
			continue
		}

		paid, err := s.pay(ctx, job, actor)
		if err != nil {
			return result, err
		}
		if !paid {
			s.log.Info("skipping job not queued for payout",
				zap.String("job_id", raw),
				zap.String("payout_status", string(job.PayoutStatus)),
			)
			continue
		}

		result.UpdatedIDs = append(result.UpdatedIDs, jobID.String())
		result.Count++
	}
	return result, nil
}

func (s *Service) Override(ctx context.Context, req domain.OverrideRequest) (jobdomain.Job, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return jobdomain.Job{}, domain.ErrMissingReason
	}
	target, err := jobdomain.ParsePayoutStatus(req.Status)
	if err != nil {
		return jobdomain.Job{}, err
	}

	job, err := s.findJob(ctx, req.JobID)
	if err != nil {
		return jobdomain.Job{}, err
	}

	from := job.PayoutStatus
	actor := req.Actor
	if actor.Role == "" {
		actor.Role = auditdomain.ActorRoleAdmin
	}

	now := s.clock.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.SetPayoutStatus(ctx, tx, job.ID, target, now); err != nil {
			return err
		}
		return s.repo.InsertJobEvent(ctx, tx, s.payoutEvent(job.ID, domain.ActionOverride, actor,
			from, target, datatypes.JSONMap{"reason": reason}))
	})
	if err != nil {
		s.metrics.IncPayoutTransition(domain.ActionOverride, "error")
		return jobdomain.Job{}, err
	}

	job.PayoutStatus = target
	job.UpdatedAt = now
	s.metrics.IncPayoutTransition(domain.ActionOverride, "ok")
	s.recordAudit(ctx, job.ID.String(), domain.ActionOverride, actor,
		map[string]any{"payout_status": string(from)},
		map[string]any{"payout_status": string(target)},
		reason, nil)
	return *job, nil
}

func (s *Service) ListReady(ctx context.Context, limit int) ([]jobdomain.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	items, err := s.repo.ListByPayoutStatus(ctx, s.db, jobdomain.PayoutReady, limit)
	if err != nil {
		return nil, err
	}
	jobs := make([]jobdomain.Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, *item)
	}
	return jobs, nil
}

// pay performs the guarded ready-to-paid write plus its history event in one
// transaction. A false return means the guard missed: the job was not queued.
func (s *Service) pay(ctx context.Context, job *jobdomain.Job, actor auditdomain.Actor) (bool, error) {
	from := job.PayoutStatus
	now := s.clock.Now()

	var paid bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.UpdatePayoutStatus(ctx, tx, domain.PayoutUpdate{
			JobID:     job.ID,
			From:      []jobdomain.PayoutStatus{jobdomain.PayoutReady, jobdomain.PayoutProcessing},
			To:        jobdomain.PayoutPaid,
			PaidOutAt: &now,
			Now:       now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		paid = true
		return s.repo.InsertJobEvent(ctx, tx, s.payoutEvent(job.ID, domain.ActionPaid, actor,
			from, jobdomain.PayoutPaid, nil))
	})
	if err != nil {
		return false, err
	}
	if paid {
		job.PayoutStatus = jobdomain.PayoutPaid
		job.PaidOutAt = &now
		job.UpdatedAt = now
	}
	return paid, nil
}

func (s *Service) findJob(ctx context.Context, rawID string) (*jobdomain.Job, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.FindJob(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, jobdomain.ErrNotFound
	}
	return job, nil
}

func (s *Service) payoutEvent(
	jobID snowflake.ID,
	action string,
	actor auditdomain.Actor,
	from, to jobdomain.PayoutStatus,
	details datatypes.JSONMap,
) *jobdomain.Event {
	event := &jobdomain.Event{
		ID:         s.genID.Generate(),
		JobID:      jobID,
		Action:     action,
		ActorRole:  string(actor.Role),
		FromStatus: string(from),
		ToStatus:   string(to),
		Details:    details,
		CreatedAt:  s.clock.Now(),
	}
	if id := strings.TrimSpace(actor.ID); id != "" {
		event.ActorID = &id
	}
	return event
}

func (s *Service) recordAudit(
	ctx context.Context,
	entityID string,
	action string,
	actor auditdomain.Actor,
	before, after map[string]any,
	reason string,
	meta map[string]any,
) {
	// Money may already have moved by the time this runs, so the write must
	// survive cancellation of the request context.
	_ = s.audit.Record(context.WithoutCancel(ctx), auditdomain.Entry{
		Action:     action,
		EntityType: "payout",
		EntityID:   entityID,
		Actor:      actor,
		Before:     before,
		After:      after,
		Reason:     reason,
		Meta:       meta,
	})
}

func systemActor(actor auditdomain.Actor) auditdomain.Actor {
	if actor.Role == "" {
		actor.Role = auditdomain.ActorRoleSystem
	}
	return actor
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, jobdomain.ErrInvalidID
	}
	return id, nil
}
